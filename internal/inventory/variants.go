package inventory

import (
	"encoding/json"
	"fmt"
)

// MigrationMode is how a VM's data is moved to the target.
type MigrationMode string

const (
	// ModeWarm copies data in the background while the VM runs; downtime is the cutover only.
	ModeWarm MigrationMode = "warm"
	// ModeCold copies data with the VM powered off for the whole copy.
	ModeCold MigrationMode = "cold"
)

func (m MigrationMode) Valid() bool {
	return m == ModeWarm || m == ModeCold
}

// ModeOverride is either "use the computed classification" or an operator
// supplied mode that always wins. The zero value means UseComputed.
type ModeOverride struct {
	mode MigrationMode
}

func UseComputed() ModeOverride {
	return ModeOverride{}
}

func Override(mode MigrationMode) ModeOverride {
	return ModeOverride{mode: mode}
}

// Mode returns the override and whether one is set.
func (o ModeOverride) Mode() (MigrationMode, bool) {
	return o.mode, o.mode != ""
}

func (o ModeOverride) MarshalJSON() ([]byte, error) {
	if o.mode == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(o.mode))
}

func (o *ModeOverride) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = UseComputed()
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*o = UseComputed()
		return nil
	}
	mode := MigrationMode(s)
	if !mode.Valid() {
		return fmt.Errorf("invalid migration mode override %q", s)
	}
	*o = Override(mode)
	return nil
}

// CohortRef is either Unassigned or Assigned(cohortID). The zero value is Unassigned.
type CohortRef struct {
	id string
}

func Unassigned() CohortRef {
	return CohortRef{}
}

func AssignedTo(cohortID string) CohortRef {
	return CohortRef{id: cohortID}
}

// ID returns the cohort id and whether the tenant is assigned.
func (c CohortRef) ID() (string, bool) {
	return c.id, c.id != ""
}

func (c CohortRef) IsAssigned() bool {
	return c.id != ""
}

func (c CohortRef) MarshalJSON() ([]byte, error) {
	if c.id == "" {
		return []byte("null"), nil
	}
	return json.Marshal(c.id)
}

func (c *CohortRef) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = Unassigned()
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*c = AssignedTo(s)
	return nil
}

// MigrationStatus tracks a VM through execution.
type MigrationStatus string

const (
	StatusNotStarted MigrationStatus = "not_started"
	StatusAssigned   MigrationStatus = "assigned"
	StatusInProgress MigrationStatus = "in_progress"
	StatusMigrated   MigrationStatus = "migrated"
	StatusFailed     MigrationStatus = "failed"
	StatusSkipped    MigrationStatus = "skipped"
)

// AllStatuses lists every status in funnel order.
var AllStatuses = []MigrationStatus{
	StatusNotStarted,
	StatusAssigned,
	StatusInProgress,
	StatusMigrated,
	StatusFailed,
	StatusSkipped,
}

var statusTransitions = map[MigrationStatus][]MigrationStatus{
	StatusNotStarted: {StatusAssigned, StatusSkipped},
	StatusAssigned:   {StatusNotStarted, StatusInProgress, StatusSkipped},
	StatusInProgress: {StatusMigrated, StatusFailed},
	// a failed VM may be retried once it is put back into a wave
	StatusFailed: {StatusAssigned, StatusSkipped},
}

func (s MigrationStatus) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

func (s MigrationStatus) CanTransitionTo(next MigrationStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further status change is expected.
func (s MigrationStatus) Terminal() bool {
	return s == StatusMigrated || s == StatusSkipped
}
