package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	CohortsCommittedKind   string = "planning.cohorts.committed"
	WavesCommittedKind     string = "planning.waves.committed"
	WaveTransitionedKind   string = "planning.wave.transitioned"
	CohortTransitionedKind string = "planning.cohort.transitioned"
)

type CohortsCommittedEvent struct {
	ProjectID       uuid.UUID `json:"project_id"`
	Strategy        string    `json:"strategy"`
	CohortIDs       []string  `json:"cohort_ids"`
	Unplaceable     int       `json:"unplaceable"`
	SnapshotVersion int       `json:"snapshot_version"`
}

type WavesCommittedEvent struct {
	ProjectID uuid.UUID   `json:"project_id"`
	Strategy  string      `json:"strategy"`
	WaveIDs   []uuid.UUID `json:"wave_ids"`
	Replaced  []uuid.UUID `json:"replaced,omitempty"`
	Conflicts int         `json:"conflicts"`
}

type WaveTransitionedEvent struct {
	ProjectID uuid.UUID `json:"project_id"`
	WaveID    uuid.UUID `json:"wave_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	At        time.Time `json:"at"`
}

type CohortTransitionedEvent struct {
	ProjectID uuid.UUID `json:"project_id"`
	CohortID  string    `json:"cohort_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
}
