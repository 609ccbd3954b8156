package inventory

import "sort"

// TenantAggregates are per-tenant figures derived from VM facts.
type TenantAggregates struct {
	TenantID string `json:"tenant_id"`

	VMCount          int     `json:"vm_count"`
	TotalUsedDiskGB  float64 `json:"total_used_disk_gb"`
	AvgRisk          float64 `json:"avg_risk"`
	OSSupportRate    float64 `json:"os_support_rate"`
	NetworkCount     int     `json:"network_count"`
	CrossTenantDeps  int     `json:"cross_tenant_deps"`
	ColdRatio        float64 `json:"cold_ratio"`
	UnconfirmedRatio float64 `json:"unconfirmed_ratio"`

	TotalVCPU     int     `json:"total_vcpu"`
	TotalMemoryGB float64 `json:"total_memory_gb"`
	SupportedVMs  int     `json:"supported_vms"`
	RiskSum       float64 `json:"risk_sum"`
	OSFamily      string  `json:"os_family"`
}

// DependencyIndex resolves VM ownership so edges crossing a tenant boundary can
// be counted from both ends.
type DependencyIndex struct {
	owners  map[string]string
	inbound map[string]int
}

// NewDependencyIndex indexes every VM of the snapshot, in or out of scope.
func NewDependencyIndex(vms []VM) DependencyIndex {
	idx := DependencyIndex{
		owners:  make(map[string]string, len(vms)),
		inbound: make(map[string]int),
	}
	for _, vm := range vms {
		idx.owners[vm.ID] = vm.TenantID
	}
	for _, vm := range vms {
		for _, dep := range vm.DependsOn {
			if owner, ok := idx.owners[dep]; ok && owner != vm.TenantID {
				idx.inbound[owner]++
			}
		}
	}
	return idx
}

// Owner returns the tenant of a VM id.
func (d DependencyIndex) Owner(vmID string) (string, bool) {
	owner, ok := d.owners[vmID]
	return owner, ok
}

// Aggregate derives the tenant figures from its VMs. Cross-tenant dependencies
// count edges leaving the tenant plus edges from other tenants pointing in.
func Aggregate(t Tenant, vms []VM, deps DependencyIndex) TenantAggregates {
	agg := TenantAggregates{TenantID: t.ID, VMCount: len(vms)}

	networks := make(map[string]struct{})
	families := make(map[string]int)
	cold := 0
	for _, vm := range vms {
		agg.TotalUsedDiskGB += vm.UsedDiskGB
		agg.RiskSum += vm.RiskScore
		agg.TotalVCPU += vm.VCPU
		agg.TotalMemoryGB += vm.MemoryGB
		if vm.OSSupported {
			agg.SupportedVMs++
		}
		if vm.EffectiveMode() == ModeCold {
			cold++
		}
		for _, n := range vm.Networks {
			networks[n] = struct{}{}
		}
		if vm.OSFamily != "" {
			families[vm.OSFamily]++
		}
		for _, dep := range vm.DependsOn {
			if owner, ok := deps.Owner(dep); ok && owner != t.ID {
				agg.CrossTenantDeps++
			}
		}
	}
	agg.CrossTenantDeps += deps.inbound[t.ID]

	agg.NetworkCount = len(networks)
	agg.OSFamily = dominant(families)
	if agg.VMCount > 0 {
		agg.AvgRisk = agg.RiskSum / float64(agg.VMCount)
		agg.OSSupportRate = float64(agg.SupportedVMs) / float64(agg.VMCount)
		agg.ColdRatio = float64(cold) / float64(agg.VMCount)
	} else {
		agg.OSSupportRate = 1
	}
	agg.UnconfirmedRatio = unconfirmedRatio(t, networks)
	return agg
}

// unconfirmedRatio counts the target mapping plus one mapping per network in
// use. Missing mappings and auto-seeded mappings nobody reviewed are both
// unconfirmed.
func unconfirmedRatio(t Tenant, networks map[string]struct{}) float64 {
	total := 1 + len(networks)
	unconfirmed := 0
	if !t.TargetMapping.Present() || !t.TargetMapping.Confirmed {
		unconfirmed++
	}
	for n := range networks {
		m, ok := t.NetworkMappings[n]
		if !ok || !m.Present() || !m.Confirmed {
			unconfirmed++
		}
	}
	return float64(unconfirmed) / float64(total)
}

func dominant(counts map[string]int) string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	best, bestCount := "", 0
	for _, name := range names {
		if counts[name] > bestCount {
			best, bestCount = name, counts[name]
		}
	}
	return best
}
