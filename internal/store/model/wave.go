package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/kubev2v/migration-wave-planner/internal/plan"
)

type Wave struct {
	ID          uuid.UUID `gorm:"primaryKey;column:id;type:VARCHAR(255);"`
	ProjectID   uuid.UUID `gorm:"not null;type:VARCHAR(255);index:waves_project_id_idx"`
	CreatedAt   time.Time `gorm:"not null"`
	StartedAt   *time.Time
	CompletedAt *time.Time
	CohortID    string                            `gorm:"type:VARCHAR(255)"`
	CohortOrder int                               `gorm:"not null;default:0"`
	Name        string                            `gorm:"not null"`
	Order       int                               `gorm:"column:wave_order;not null"`
	State       string                            `gorm:"not null;type:VARCHAR(32)"`
	Strategy    string                            `gorm:"type:VARCHAR(64)"`
	VMs         *JSONField[[]plan.WaveVM]         `gorm:"column:vms;type:jsonb;not null"`
	Preflight   *JSONField[*plan.PreflightReport] `gorm:"type:jsonb"`
	Version     int                               `gorm:"not null;default:1"`
}

type WaveList []Wave

func (w Wave) String() string {
	val, _ := json.Marshal(w)
	return string(val)
}

func (w Wave) ToPlan() plan.Wave {
	out := plan.Wave{
		ID:          w.ID,
		CohortID:    w.CohortID,
		CohortOrder: w.CohortOrder,
		Name:        w.Name,
		Order:       w.Order,
		State:       plan.WaveState(w.State),
		Strategy:    w.Strategy,
		CreatedAt:   w.CreatedAt,
		StartedAt:   w.StartedAt,
		CompletedAt: w.CompletedAt,
		Version:     w.Version,
	}
	if w.VMs != nil {
		out.VMs = w.VMs.Data
	}
	return out
}

func (l WaveList) ToPlan() []plan.Wave {
	out := make([]plan.Wave, 0, len(l))
	for _, w := range l {
		out = append(out, w.ToPlan())
	}
	return out
}

// LastPreflight returns the most recent pre-flight report stored with the
// wave, if any.
func (w Wave) LastPreflight() *plan.PreflightReport {
	if w.Preflight == nil {
		return nil
	}
	return w.Preflight.Data
}

// Apply copies the mutable fields of p onto the row, keeping its identity,
// version and stored pre-flight report.
func (w *Wave) Apply(p plan.Wave) {
	w.Name = p.Name
	w.Order = p.Order
	w.State = string(p.State)
	w.StartedAt = p.StartedAt
	w.CompletedAt = p.CompletedAt
	w.VMs = MakeJSONField(p.VMs)
}

func NewWave(projectID uuid.UUID, w plan.Wave) Wave {
	vms := w.VMs
	if vms == nil {
		vms = []plan.WaveVM{}
	}
	return Wave{
		ID:          w.ID,
		ProjectID:   projectID,
		CreatedAt:   w.CreatedAt,
		StartedAt:   w.StartedAt,
		CompletedAt: w.CompletedAt,
		CohortID:    w.CohortID,
		CohortOrder: w.CohortOrder,
		Name:        w.Name,
		Order:       w.Order,
		State:       string(w.State),
		Strategy:    w.Strategy,
		VMs:         MakeJSONField(vms),
		Version:     w.Version,
	}
}
