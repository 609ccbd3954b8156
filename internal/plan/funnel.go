package plan

import (
	"github.com/kubev2v/migration-wave-planner/internal/inventory"
)

// Funnel is a fresh rollup of VM migration status.
type Funnel struct {
	CohortID      string                            `json:"cohort_id,omitempty"`
	Counts        map[inventory.MigrationStatus]int `json:"counts"`
	Total         int                               `json:"total"`
	CompletionPct float64                           `json:"completion_pct"`
}

// FunnelFilter restricts the rollup to a set of tenants. The zero value keeps
// every VM passed in.
type FunnelFilter struct {
	CohortID string
	tenants  map[string]struct{}
}

// CohortFunnelFilter keeps only VMs of tenants assigned to cohortID.
func CohortFunnelFilter(s *inventory.Snapshot, cohortID string) FunnelFilter {
	f := FunnelFilter{CohortID: cohortID, tenants: make(map[string]struct{})}
	for _, t := range s.Tenants {
		if id, ok := t.Cohort.ID(); ok && id == cohortID {
			f.tenants[t.ID] = struct{}{}
		}
	}
	return f
}

func (f FunnelFilter) keep(vm inventory.VM) bool {
	if f.tenants == nil {
		return true
	}
	_, ok := f.tenants[vm.TenantID]
	return ok
}

// ComputeFunnel counts VMs by status. Every status is present in Counts even
// when zero. Skipped VMs do not count towards completion.
func ComputeFunnel(vms []inventory.VM, filter FunnelFilter) Funnel {
	f := Funnel{
		CohortID: filter.CohortID,
		Counts:   make(map[inventory.MigrationStatus]int, len(inventory.AllStatuses)),
	}
	for _, s := range inventory.AllStatuses {
		f.Counts[s] = 0
	}
	for _, vm := range vms {
		if !filter.keep(vm) {
			continue
		}
		f.Counts[vm.CurrentStatus()]++
		f.Total++
	}
	if denom := f.Total - f.Counts[inventory.StatusSkipped]; denom > 0 {
		f.CompletionPct = float64(f.Counts[inventory.StatusMigrated]) / float64(denom) * 100
	}
	return f
}
