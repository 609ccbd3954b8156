// Package wave partitions the VMs of each cohort into ordered execution waves,
// repairs dependency order inside a cohort and reports what it cannot repair.
package wave

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/kubev2v/migration-wave-planner/internal/inventory"
	"github.com/kubev2v/migration-wave-planner/internal/plan"
)

const DefaultPilotSize = 5

type BuildRequest struct {
	Snapshot *inventory.Snapshot
	Cohorts  []plan.Cohort
	Strategy Strategy
	WaveSize int
	// PilotSize is the first wave size of pilot_first.
	PilotSize int
	// Scores maps tenant id to ease score; missing tenants score the midpoint.
	Scores map[string]float64
	// Existing waves of the project. VMs held by waves past planned are left
	// alone; planned waves are reported in Replaced.
	Existing []plan.Wave
	Now      time.Time
}

// Adjustment is a VM the dependency pass moved behind its predecessor. From is
// 0 when the source wave ended up empty and was dropped.
type Adjustment struct {
	CohortID      string `json:"cohort_id,omitempty"`
	VMID          string `json:"vm_id"`
	PredecessorID string `json:"predecessor_id"`
	From          int    `json:"from_wave"`
	To            int    `json:"to_wave"`
}

type BuildResult struct {
	Strategy    Strategy     `json:"strategy"`
	Waves       []plan.Wave  `json:"waves"`
	Adjustments []Adjustment `json:"adjustments"`
	Conflicts   []Conflict   `json:"conflicts"`
	// Unwaved lists eligible VMs of tenants outside every cohort.
	Unwaved []string `json:"unwaved"`
	// Replaced are the planned waves a commit of this result removes.
	Replaced []uuid.UUID `json:"replaced"`
}

// CommitAllowed refuses a result with conflicts unless they are accepted.
func (r *BuildResult) CommitAllowed(acceptConflicts bool) error {
	if len(r.Conflicts) == 0 || acceptConflicts {
		return nil
	}
	return NewErrUnresolvedConflicts(r.Conflicts)
}

// Eligible reports whether a VM can be put into a new wave.
func Eligible(vm inventory.VM, locked map[string]bool) bool {
	if locked[vm.ID] {
		return false
	}
	status := vm.CurrentStatus()
	return status == inventory.StatusNotStarted || status == inventory.StatusAssigned
}

type group struct {
	cohortID string
	order    int
	vms      []inventory.VM
}

// Build proposes waves for every eligible VM. A dependency cycle fails the
// whole build before any wave exists.
func Build(req BuildRequest) (*BuildResult, error) {
	if req.Snapshot == nil {
		return nil, NewErrInvalidRequest("snapshot is required")
	}
	if _, err := ParseStrategy(string(req.Strategy)); err != nil {
		return nil, err
	}
	if req.WaveSize == 0 {
		req.WaveSize = plan.DefaultWaveSize
	}
	if req.WaveSize < 0 {
		return nil, NewErrInvalidRequest("wave size must be positive, got %d", req.WaveSize)
	}
	if req.PilotSize <= 0 {
		req.PilotSize = DefaultPilotSize
	}
	if err := plan.ValidateCohortOrder(req.Cohorts); err != nil {
		return nil, err
	}

	locked := plan.Locked(req.Existing)
	var eligible []inventory.VM
	for _, vm := range req.Snapshot.InScopeVMs() {
		if Eligible(vm, locked) {
			eligible = append(eligible, vm)
		}
	}

	graph := NewGraph(eligible)
	if cycle := graph.DetectCycle(); cycle != nil {
		return nil, NewErrDependencyCycle(cycle)
	}

	result := &BuildResult{
		Strategy:    req.Strategy,
		Waves:       []plan.Wave{},
		Adjustments: []Adjustment{},
		Unwaved:     []string{},
		Replaced:    []uuid.UUID{},
	}

	var kept []plan.Wave
	nextOrder := 1
	for _, w := range req.Existing {
		if w.State == plan.WavePlanned || w.State == "" {
			result.Replaced = append(result.Replaced, w.ID)
			continue
		}
		kept = append(kept, w)
		if w.Order >= nextOrder {
			nextOrder = w.Order + 1
		}
	}

	groups, unwaved := groupByCohort(req.Snapshot, req.Cohorts, eligible)
	for _, vm := range unwaved {
		result.Unwaved = append(result.Unwaved, vm.ID)
	}

	tenants := make(map[string]inventory.Tenant, len(req.Snapshot.Tenants))
	for _, t := range req.Snapshot.Tenants {
		tenants[t.ID] = t
	}
	split := partitioner{size: req.WaveSize, pilotSize: req.PilotSize, tenants: tenants, scores: req.Scores}

	for _, g := range groups {
		initial := split.split(req.Strategy, g.vms)
		waves, moves := repair(graph, initial, req.WaveSize)

		orders := make(map[int]int, len(waves))
		for i, vms := range waves {
			if len(vms) == 0 {
				continue
			}
			orders[i] = nextOrder
			result.Waves = append(result.Waves, newWave(g, nextOrder, vms, req))
			nextOrder++
		}
		for _, m := range moves {
			result.Adjustments = append(result.Adjustments, Adjustment{
				CohortID:      g.cohortID,
				VMID:          m.vmID,
				PredecessorID: m.predecessorID,
				From:          orders[m.from],
				To:            orders[m.to],
			})
		}
	}

	result.Conflicts = ValidateDependencies(append(kept, result.Waves...), req.Snapshot)
	return result, nil
}

// groupByCohort buckets the eligible VMs by cohort in cohort order. With no
// cohorts everything is one implicit group; otherwise VMs of tenants outside
// every cohort are returned apart.
func groupByCohort(s *inventory.Snapshot, cohorts []plan.Cohort, eligible []inventory.VM) ([]group, []inventory.VM) {
	if len(cohorts) == 0 {
		if len(eligible) == 0 {
			return nil, nil
		}
		return []group{{vms: eligible}}, nil
	}

	tenantCohort := make(map[string]string, len(s.Tenants))
	for _, t := range s.Tenants {
		if id, ok := t.Cohort.ID(); ok {
			tenantCohort[t.ID] = id
		}
	}
	byCohort := make(map[string][]inventory.VM)
	var unwaved []inventory.VM
	known := make(map[string]bool, len(cohorts))
	for _, c := range cohorts {
		known[c.ID] = true
	}
	for _, vm := range eligible {
		id := tenantCohort[vm.TenantID]
		if !known[id] {
			unwaved = append(unwaved, vm)
			continue
		}
		byCohort[id] = append(byCohort[id], vm)
	}

	var out []group
	for _, c := range plan.SortCohorts(cohorts) {
		if vms := byCohort[c.ID]; len(vms) > 0 {
			out = append(out, group{cohortID: c.ID, order: c.Order, vms: vms})
		}
	}
	return out, unwaved
}

type move struct {
	vmID          string
	predecessorID string
	from, to      int
}

// repair walks the cohort in dependency order and moves every VM that sits
// ahead of one of its predecessors into the first wave at or after the latest
// predecessor that still has room, opening a new wave when none has.
func repair(graph *Graph, initial [][]inventory.VM, size int) ([][]string, []move) {
	waves := make([][]string, len(initial))
	position := make(map[string]int)
	rank := make(map[string]int)
	n := 0
	for i, vms := range initial {
		for _, vm := range vms {
			waves[i] = append(waves[i], vm.ID)
			position[vm.ID] = i
			rank[vm.ID] = n
			n++
		}
	}

	// the graph was checked for cycles already
	order, _ := graph.TopoOrder(rank)
	topo := make(map[string]int, len(order))
	var moves []move
	for i, id := range order {
		topo[id] = i
		from, ok := position[id]
		if !ok {
			continue
		}

		required, blocker := from, ""
		for _, pred := range graph.Predecessors(id) {
			if at, same := position[pred]; same && at > required {
				required, blocker = at, pred
			}
		}
		if blocker == "" {
			continue
		}

		to := -1
		for w := required; w < len(waves); w++ {
			if len(waves[w]) < size {
				to = w
				break
			}
		}
		if to < 0 {
			waves = append(waves, nil)
			to = len(waves) - 1
		}
		waves[from] = remove(waves[from], id)
		waves[to] = append(waves[to], id)
		position[id] = to
		moves = append(moves, move{vmID: id, predecessorID: blocker, from: from, to: to})
	}

	for _, ids := range waves {
		sort.SliceStable(ids, func(a, b int) bool { return topo[ids[a]] < topo[ids[b]] })
	}
	return waves, moves
}

func remove(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func newWave(g group, order int, ids []string, req BuildRequest) plan.Wave {
	w := plan.Wave{
		ID:          uuid.New(),
		CohortID:    g.cohortID,
		CohortOrder: g.order,
		Name:        fmt.Sprintf("Wave %d", order),
		Order:       order,
		State:       plan.WavePlanned,
		Strategy:    string(req.Strategy),
		CreatedAt:   req.Now,
		VMs:         make([]plan.WaveVM, 0, len(ids)),
	}
	for i, id := range ids {
		w.VMs = append(w.VMs, plan.WaveVM{VMID: id, Order: i + 1})
	}
	return w
}
