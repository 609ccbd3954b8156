package wave

import (
	"fmt"
	"sort"

	"github.com/kubev2v/migration-wave-planner/internal/inventory"
	"github.com/kubev2v/migration-wave-planner/internal/plan"
)

type ConflictKind string

const (
	ConflictPredecessorInLaterWave ConflictKind = "predecessor_in_later_wave"
	ConflictPredecessorUnscheduled ConflictKind = "predecessor_unscheduled"
	ConflictPredecessorUnknown     ConflictKind = "predecessor_unknown"
)

// Conflict is a dependency edge the wave order does not honor. Wave fields
// hold wave orders, 0 when the VM is in no wave.
type Conflict struct {
	Kind            ConflictKind `json:"kind"`
	VMID            string       `json:"vm_id"`
	VMWave          int          `json:"vm_wave"`
	PredecessorID   string       `json:"predecessor_id"`
	PredecessorWave int          `json:"predecessor_wave"`
	Detail          string       `json:"detail"`
}

// ValidateDependencies checks every edge of every VM in the waves. A
// predecessor must be migrated already or sit in a wave at or before its
// successor's. Cancelled waves hold nothing.
func ValidateDependencies(waves []plan.Wave, s *inventory.Snapshot) []Conflict {
	at := make(map[string]int)
	for _, w := range waves {
		if w.State == plan.WaveCancelled {
			continue
		}
		for _, vm := range w.VMs {
			at[vm.VMID] = w.Order
		}
	}

	vms := make(map[string]inventory.VM, len(s.VMs))
	for _, vm := range s.VMs {
		vms[vm.ID] = vm
	}

	ids := make([]string, 0, len(at))
	for id := range at {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	conflicts := []Conflict{}
	for _, id := range ids {
		vm, ok := vms[id]
		if !ok {
			continue
		}
		for _, dep := range vm.DependsOn {
			c := Conflict{VMID: id, VMWave: at[id], PredecessorID: dep}
			pred, known := vms[dep]
			predWave, scheduled := at[dep]
			switch {
			case !known:
				c.Kind = ConflictPredecessorUnknown
				c.Detail = fmt.Sprintf("%s depends on %s which is not in the inventory", id, dep)
			case pred.CurrentStatus() == inventory.StatusMigrated:
				continue
			case !scheduled:
				c.Kind = ConflictPredecessorUnscheduled
				c.Detail = fmt.Sprintf("%s depends on %s which is neither migrated nor in a wave", id, dep)
			case predWave > c.VMWave:
				c.Kind = ConflictPredecessorInLaterWave
				c.PredecessorWave = predWave
				c.Detail = fmt.Sprintf("%s in wave %d depends on %s in wave %d", id, c.VMWave, dep, predWave)
			default:
				continue
			}
			conflicts = append(conflicts, c)
		}
	}
	return conflicts
}

// ValidateScope rejects waves holding a VM of an out of scope or unknown tenant.
func ValidateScope(waves []plan.Wave, s *inventory.Snapshot) error {
	scope := make(map[string]bool, len(s.Tenants))
	for _, t := range s.Tenants {
		scope[t.ID] = t.IncludeInPlan
	}
	owner := make(map[string]string, len(s.VMs))
	for _, vm := range s.VMs {
		owner[vm.ID] = vm.TenantID
	}
	for _, w := range waves {
		for _, vm := range w.VMs {
			tenant := owner[vm.VMID]
			if !scope[tenant] {
				return NewErrOutOfScope(vm.VMID, tenant)
			}
		}
	}
	return nil
}
