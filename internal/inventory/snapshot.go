package inventory

import (
	"fmt"
	"sort"
)

// Snapshot is the full set of facts for one planning pass.
type Snapshot struct {
	Tenants     []Tenant     `json:"tenants"`
	VMs         []VM         `json:"vms"`
	TargetNodes []TargetNode `json:"target_nodes,omitempty"`
}

// Validate checks referential integrity only; it does not judge the plan.
func (s *Snapshot) Validate() error {
	tenants := make(map[string]struct{}, len(s.Tenants))
	for _, t := range s.Tenants {
		if t.ID == "" {
			return fmt.Errorf("tenant with empty id")
		}
		if _, dup := tenants[t.ID]; dup {
			return fmt.Errorf("duplicate tenant id %q", t.ID)
		}
		tenants[t.ID] = struct{}{}
	}

	vms := make(map[string]struct{}, len(s.VMs))
	for _, vm := range s.VMs {
		if vm.ID == "" {
			return fmt.Errorf("vm with empty id")
		}
		if _, dup := vms[vm.ID]; dup {
			return fmt.Errorf("duplicate vm id %q", vm.ID)
		}
		if _, ok := tenants[vm.TenantID]; !ok {
			return fmt.Errorf("vm %q references unknown tenant %q", vm.ID, vm.TenantID)
		}
		if vm.Status != "" && !vm.Status.Valid() {
			return fmt.Errorf("vm %q has unknown status %q", vm.ID, vm.Status)
		}
		vms[vm.ID] = struct{}{}
	}
	return nil
}

// Clone returns a deep enough copy that callers may mutate tenants and VM
// status without touching the receiver.
func (s *Snapshot) Clone() *Snapshot {
	out := &Snapshot{
		Tenants:     make([]Tenant, len(s.Tenants)),
		VMs:         make([]VM, len(s.VMs)),
		TargetNodes: append([]TargetNode(nil), s.TargetNodes...),
	}
	copy(out.Tenants, s.Tenants)
	copy(out.VMs, s.VMs)
	return out
}

func (s *Snapshot) Tenant(id string) (Tenant, bool) {
	for _, t := range s.Tenants {
		if t.ID == id {
			return t, true
		}
	}
	return Tenant{}, false
}

func (s *Snapshot) VM(id string) (VM, bool) {
	for _, vm := range s.VMs {
		if vm.ID == id {
			return vm, true
		}
	}
	return VM{}, false
}

// InScopeTenants returns tenants flagged for the plan, sorted by id.
func (s *Snapshot) InScopeTenants() []Tenant {
	out := make([]Tenant, 0, len(s.Tenants))
	for _, t := range s.Tenants {
		if t.IncludeInPlan {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// InScopeVMs returns VMs owned by in-scope tenants, in snapshot order.
func (s *Snapshot) InScopeVMs() []VM {
	scope := make(map[string]bool, len(s.Tenants))
	for _, t := range s.Tenants {
		scope[t.ID] = t.IncludeInPlan
	}
	out := make([]VM, 0, len(s.VMs))
	for _, vm := range s.VMs {
		if scope[vm.TenantID] {
			out = append(out, vm)
		}
	}
	return out
}

// VMsByTenant groups every VM by owning tenant.
func (s *Snapshot) VMsByTenant() map[string][]VM {
	out := make(map[string][]VM)
	for _, vm := range s.VMs {
		out[vm.TenantID] = append(out[vm.TenantID], vm)
	}
	return out
}

// Aggregates computes aggregates for every in-scope tenant, sorted by tenant id.
func (s *Snapshot) Aggregates() []TenantAggregates {
	byTenant := s.VMsByTenant()
	deps := NewDependencyIndex(s.VMs)
	tenants := s.InScopeTenants()

	out := make([]TenantAggregates, 0, len(tenants))
	for _, t := range tenants {
		out = append(out, Aggregate(t, byTenant[t.ID], deps))
	}
	return out
}
