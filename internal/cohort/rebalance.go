package cohort

import (
	"sort"

	"github.com/kubev2v/migration-wave-planner/internal/plan"
)

// Move is one tenant changing cohort. From and To are 1-based cohort
// positions; 0 means unassigned.
type Move struct {
	TenantID string `json:"tenant_id"`
	From     int    `json:"from"`
	To       int    `json:"to"`
}

type Rebalancing struct {
	Proposal *Proposal `json:"proposal"`
	Diff     []Move    `json:"diff"`
}

// Rebalance re-runs balanced_load against the current assignment and reports
// which tenants would move. Existing cohorts are compared by their position in
// cohort order. The cohort count defaults to the number of existing cohorts.
func Rebalance(req Request, current []plan.Cohort) (*Rebalancing, error) {
	req.Strategy = StrategyBalancedLoad
	if req.CohortCount == 0 && len(current) > 0 {
		req.CohortCount = len(current)
	}

	proposal, err := Assign(req)
	if err != nil {
		return nil, err
	}

	positions := make(map[string]int, len(current))
	for i, c := range plan.SortCohorts(current) {
		positions[c.ID] = i + 1
	}

	out := &Rebalancing{Proposal: proposal, Diff: []Move{}}
	for _, t := range req.Snapshot.InScopeTenants() {
		from := 0
		if id, ok := t.Cohort.ID(); ok {
			from = positions[id]
		}
		to := proposal.CohortOf(t.ID)
		if from != to {
			out.Diff = append(out.Diff, Move{TenantID: t.ID, From: from, To: to})
		}
	}
	sort.SliceStable(out.Diff, func(i, j int) bool { return out.Diff[i].TenantID < out.Diff[j].TenantID })
	return out, nil
}
