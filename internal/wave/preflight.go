package wave

import (
	"fmt"
	"sort"
	"time"

	"github.com/kubev2v/migration-wave-planner/internal/inventory"
	"github.com/kubev2v/migration-wave-planner/internal/plan"
)

// PreflightEnv carries the facts the engine cannot derive from inventory.
type PreflightEnv struct {
	AgentReachable bool
	Now            time.Time
}

// RunPreflight evaluates the catalogue against one wave. Checks appear in
// catalogue order with the catalogue's severity.
func RunPreflight(w *plan.Wave, s *inventory.Snapshot, catalogue []plan.CheckDefinition, env PreflightEnv) *plan.PreflightReport {
	vms := make(map[string]inventory.VM, len(s.VMs))
	for _, vm := range s.VMs {
		vms[vm.ID] = vm
	}
	tenants := make(map[string]inventory.Tenant, len(s.Tenants))
	for _, t := range s.Tenants {
		tenants[t.ID] = t
	}

	var members []inventory.VM
	var missing []string
	for _, id := range w.VMIDs() {
		vm, ok := vms[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		members = append(members, vm)
	}

	report := &plan.PreflightReport{WaveID: w.ID, EvaluatedAt: env.Now, Results: make([]plan.CheckResult, 0, len(catalogue))}
	for _, def := range catalogue {
		res := plan.CheckResult{ID: def.ID, Severity: def.Severity}
		switch def.ID {
		case plan.CheckTargetMapping:
			seen := make(map[string]bool)
			for _, vm := range members {
				if seen[vm.TenantID] {
					continue
				}
				seen[vm.TenantID] = true
				if !tenants[vm.TenantID].TargetMapping.Present() {
					res.AffectedTenants = append(res.AffectedTenants, vm.TenantID)
				}
			}
			res.Message = fmt.Sprintf("%d tenant(s) without a target mapping", len(res.AffectedTenants))
		case plan.CheckNetworkMapping:
			tenantsHit := make(map[string]bool)
			for _, vm := range members {
				mappings := tenants[vm.TenantID].NetworkMappings
				for _, n := range vm.Networks {
					if m, ok := mappings[n]; !ok || !m.Present() {
						res.AffectedVMs = append(res.AffectedVMs, vm.ID)
						tenantsHit[vm.TenantID] = true
						break
					}
				}
			}
			res.AffectedTenants = keys(tenantsHit)
			res.Message = fmt.Sprintf("%d VM(s) use an unmapped network", len(res.AffectedVMs))
		case plan.CheckAssessmentPassed:
			res.AffectedVMs = append(res.AffectedVMs, missing...)
			for _, vm := range members {
				if !vm.AssessmentPassed {
					res.AffectedVMs = append(res.AffectedVMs, vm.ID)
				}
			}
			res.Message = fmt.Sprintf("%d VM(s) did not pass assessment", len(res.AffectedVMs))
		case plan.CheckCriticalGaps:
			for _, vm := range members {
				if vm.CriticalGaps > 0 {
					res.AffectedVMs = append(res.AffectedVMs, vm.ID)
				}
			}
			res.Message = fmt.Sprintf("%d VM(s) have unresolved critical gaps", len(res.AffectedVMs))
		case plan.CheckAgentReachable:
			res.Passed = env.AgentReachable
			if !res.Passed {
				res.Message = "execution agent is not reachable"
			}
			report.Results = append(report.Results, res)
			continue
		case plan.CheckBackupBaseline:
			for _, vm := range members {
				if !vm.HasBackupBaseline {
					res.AffectedVMs = append(res.AffectedVMs, vm.ID)
				}
			}
			res.Message = fmt.Sprintf("%d VM(s) have no backup baseline", len(res.AffectedVMs))
		default:
			res.Message = "unknown check"
			report.Results = append(report.Results, res)
			continue
		}
		sort.Strings(res.AffectedVMs)
		sort.Strings(res.AffectedTenants)
		res.Passed = len(res.AffectedVMs) == 0 && len(res.AffectedTenants) == 0
		if res.Passed {
			res.Message = ""
		}
		report.Results = append(report.Results, res)
	}
	return report
}

func keys(m map[string]bool) []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
