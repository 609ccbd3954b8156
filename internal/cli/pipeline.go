package cli

import (
	"fmt"
	"strings"

	"github.com/kubev2v/migration-wave-planner/internal/cohort"
	"github.com/kubev2v/migration-wave-planner/internal/estimation/estimator"
	"github.com/kubev2v/migration-wave-planner/internal/inventory"
	"github.com/kubev2v/migration-wave-planner/internal/plan"
	"github.com/kubev2v/migration-wave-planner/internal/scoring"
	"github.com/spf13/pflag"
)

// CohortFlags select the cohort assignment of commands that plan cohorts on
// the fly.
type CohortFlags struct {
	Strategy      string
	Count         int
	RiskThreshold float64
	PilotSize     int
	MaxVMs        int
	MaxDiskGB     float64
}

func (f *CohortFlags) Bind(fs *pflag.FlagSet, prefix string) {
	fs.StringVar(&f.Strategy, prefix+"strategy", f.Strategy, fmt.Sprintf("Cohort strategy. One of: (%s).", strings.Join(cohort.Strategies(), ", ")))
	fs.IntVar(&f.Count, prefix+"count", f.Count, "Number of cohorts. 0 picks one per in-scope tenant up to the strategy default.")
	fs.Float64Var(&f.RiskThreshold, prefix+"risk-threshold", f.RiskThreshold, "Average risk forcing a tenant into the last cohort (riskiest_last)")
	fs.IntVar(&f.PilotSize, prefix+"pilot-size", f.PilotSize, "Tenants in the pilot cohort (pilot_plus_bulk)")
	fs.IntVar(&f.MaxVMs, prefix+"max-vms", f.MaxVMs, "Guardrail: maximum VMs per cohort")
	fs.Float64Var(&f.MaxDiskGB, prefix+"max-disk-gb", f.MaxDiskGB, "Guardrail: maximum disk GB per cohort")
}

func (f *CohortFlags) guardrails() cohort.Guardrails {
	var g cohort.Guardrails
	if f.MaxVMs > 0 {
		g.MaxVMs = &f.MaxVMs
	}
	if f.MaxDiskGB > 0 {
		g.MaxDiskGB = &f.MaxDiskGB
	}
	return g
}

func scores(s *inventory.Snapshot, cfg plan.ProjectConfig) ([]scoring.Breakdown, map[string]float64, error) {
	breakdowns, err := scoring.Compute(s.Aggregates(), cfg.Weights)
	if err != nil {
		return nil, nil, err
	}
	return breakdowns, scoring.Index(breakdowns), nil
}

func proposeCohorts(s *inventory.Snapshot, cfg plan.ProjectConfig, f CohortFlags) (*cohort.Proposal, error) {
	strategy, err := cohort.ParseStrategy(f.Strategy)
	if err != nil {
		return nil, err
	}
	_, index, err := scores(s, cfg)
	if err != nil {
		return nil, err
	}
	return cohort.Assign(cohort.Request{
		Snapshot:      s,
		Scores:        index,
		Strategy:      strategy,
		CohortCount:   f.Count,
		Guardrails:    f.guardrails(),
		RiskThreshold: f.RiskThreshold,
		PilotSize:     f.PilotSize,
		Estimator:     estimator.New(cfg),
	})
}

// applyProposal turns a proposal into chained cohorts and returns a copy of
// the snapshot with every in-scope tenant pointing at its cohort. Cohort ids
// are derived from the order so repeated runs stay comparable.
func applyProposal(s *inventory.Snapshot, proposal *cohort.Proposal) (*inventory.Snapshot, []plan.Cohort) {
	cohorts := make([]plan.Cohort, 0, len(proposal.Cohorts))
	byOrder := make(map[int]string, len(proposal.Cohorts))
	predecessor := ""
	for _, summary := range proposal.Cohorts {
		id := fmt.Sprintf("cohort-%d", summary.Order)
		cohorts = append(cohorts, plan.Cohort{
			ID:            id,
			Name:          summary.Name,
			Order:         summary.Order,
			Status:        plan.CohortPlanning,
			PredecessorID: predecessor,
			Version:       1,
		})
		byOrder[summary.Order] = id
		predecessor = id
	}

	inv := s.Clone()
	for i, t := range inv.Tenants {
		if !t.IncludeInPlan {
			continue
		}
		if id, ok := byOrder[proposal.CohortOf(t.ID)]; ok {
			inv.Tenants[i].Cohort = inventory.AssignedTo(id)
		} else {
			inv.Tenants[i].Cohort = inventory.Unassigned()
		}
	}
	return inv, cohorts
}
