package plan

import (
	"sort"
)

type CohortStatus string

const (
	CohortPlanning  CohortStatus = "planning"
	CohortReady     CohortStatus = "ready"
	CohortExecuting CohortStatus = "executing"
	CohortComplete  CohortStatus = "complete"
	CohortPaused    CohortStatus = "paused"
)

var cohortTransitions = map[CohortStatus][]CohortStatus{
	CohortPlanning:  {CohortReady},
	CohortReady:     {CohortPlanning, CohortExecuting, CohortPaused},
	CohortExecuting: {CohortComplete, CohortPaused},
}

// Cohort is an ordered group of tenants migrated as one phase. Membership is
// held by each tenant's cohort reference.
type Cohort struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Order         int             `json:"order"`
	Status        CohortStatus    `json:"status"`
	PausedFrom    CohortStatus    `json:"paused_from,omitempty"`
	PredecessorID string          `json:"predecessor_id,omitempty"`
	Overrides     ResourceProfile `json:"overrides"`
	Version       int             `json:"version"`
}

// Transition moves the cohort to next. predecessor is the cohort named by
// PredecessorID, or nil when there is none; it is only consulted when starting
// execution.
func (c *Cohort) Transition(next CohortStatus, predecessor *Cohort) error {
	current := c.Status
	if current == "" {
		current = CohortPlanning
	}

	if current == CohortPaused {
		if next != c.PausedFrom || c.PausedFrom == "" {
			return NewErrInvalidTransition("cohort", string(current), string(next))
		}
		c.Status = next
		c.PausedFrom = ""
		return nil
	}

	allowed := false
	for _, s := range cohortTransitions[current] {
		if s == next {
			allowed = true
			break
		}
	}
	if !allowed {
		return NewErrInvalidTransition("cohort", string(current), string(next))
	}

	if next == CohortExecuting {
		if err := (CohortGate{Cohort: c, Predecessor: predecessor}).Check(); err != nil {
			return err
		}
	}

	if next == CohortPaused {
		c.PausedFrom = current
	}
	c.Status = next
	return nil
}

// CohortGate decides whether work in a cohort may start. A nil Cohort is the
// implicit whole-project cohort and is never gated.
type CohortGate struct {
	Cohort      *Cohort
	Predecessor *Cohort
}

func (g CohortGate) Check() error {
	if g.Cohort == nil || g.Cohort.PredecessorID == "" {
		return nil
	}
	if g.Predecessor == nil {
		return NewErrCohortGated(g.Cohort.ID, g.Cohort.PredecessorID, "missing")
	}
	if g.Predecessor.Status != CohortComplete {
		return NewErrCohortGated(g.Cohort.ID, g.Predecessor.ID, g.Predecessor.Status)
	}
	return nil
}

// GateFor builds the gate of cohortID out of the project cohorts.
func GateFor(cohortID string, cohorts []Cohort) CohortGate {
	var gate CohortGate
	for i := range cohorts {
		if cohorts[i].ID == cohortID {
			gate.Cohort = &cohorts[i]
		}
	}
	if gate.Cohort != nil && gate.Cohort.PredecessorID != "" {
		for i := range cohorts {
			if cohorts[i].ID == gate.Cohort.PredecessorID {
				gate.Predecessor = &cohorts[i]
			}
		}
	}
	return gate
}

// ValidateCohortOrder rejects two cohorts sharing an order value.
func ValidateCohortOrder(cohorts []Cohort) error {
	seen := make(map[int]string, len(cohorts))
	for _, c := range cohorts {
		if other, dup := seen[c.Order]; dup {
			return NewErrDuplicateCohortOrder(c.Order, other, c.ID)
		}
		seen[c.Order] = c.ID
	}
	return nil
}

// SortCohorts returns the cohorts ordered by Order.
func SortCohorts(cohorts []Cohort) []Cohort {
	out := append([]Cohort(nil), cohorts...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}
