package plan

import (
	"fmt"
	"strings"
)

type ErrInvalidTransition struct {
	error
}

func NewErrInvalidTransition(kind string, from, to string) *ErrInvalidTransition {
	return &ErrInvalidTransition{fmt.Errorf("%s cannot move from %q to %q", kind, from, to)}
}

type ErrPreflightFailed struct {
	error
	Failed []CheckResult
}

func NewErrPreflightFailed(failed []CheckResult) *ErrPreflightFailed {
	ids := make([]string, 0, len(failed))
	for _, r := range failed {
		ids = append(ids, string(r.ID))
	}
	return &ErrPreflightFailed{
		error:  fmt.Errorf("blocker pre-flight checks failed: %s", strings.Join(ids, ", ")),
		Failed: failed,
	}
}

func NewErrPreflightMissing() *ErrPreflightFailed {
	return &ErrPreflightFailed{error: fmt.Errorf("no pre-flight report was supplied")}
}

type ErrCohortGated struct {
	error
}

func NewErrCohortGated(cohortID, predecessorID string, status CohortStatus) *ErrCohortGated {
	return &ErrCohortGated{fmt.Errorf("cohort %s is gated: predecessor %s is %s, not complete", cohortID, predecessorID, status)}
}

type ErrWaveNotDeletable struct {
	error
}

func NewErrWaveNotDeletable(waveID string, state WaveState) *ErrWaveNotDeletable {
	return &ErrWaveNotDeletable{fmt.Errorf("wave %s is %s; only planned waves can be deleted", waveID, state)}
}

type ErrDuplicateCohortOrder struct {
	error
}

func NewErrDuplicateCohortOrder(order int, first, second string) *ErrDuplicateCohortOrder {
	return &ErrDuplicateCohortOrder{fmt.Errorf("cohorts %s and %s share order %d", first, second, order)}
}
