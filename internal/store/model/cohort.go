package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/kubev2v/migration-wave-planner/internal/plan"
)

type Cohort struct {
	ID            string    `gorm:"primaryKey;column:id;type:VARCHAR(255);"`
	ProjectID     uuid.UUID `gorm:"not null;type:VARCHAR(255);uniqueIndex:cohorts_project_order_idx"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     *time.Time
	Name          string                           `gorm:"not null"`
	Order         int                              `gorm:"column:cohort_order;not null;uniqueIndex:cohorts_project_order_idx"`
	Status        string                           `gorm:"not null;type:VARCHAR(32)"`
	PausedFrom    string                           `gorm:"type:VARCHAR(32)"`
	PredecessorID string                           `gorm:"type:VARCHAR(255)"`
	Strategy      string                           `gorm:"type:VARCHAR(64)"`
	Overrides     *JSONField[plan.ResourceProfile] `gorm:"type:jsonb"`
	Version       int                              `gorm:"not null;default:1"`
}

type CohortList []Cohort

func (c Cohort) String() string {
	val, _ := json.Marshal(c)
	return string(val)
}

func (c Cohort) ToPlan() plan.Cohort {
	out := plan.Cohort{
		ID:            c.ID,
		Name:          c.Name,
		Order:         c.Order,
		Status:        plan.CohortStatus(c.Status),
		PausedFrom:    plan.CohortStatus(c.PausedFrom),
		PredecessorID: c.PredecessorID,
		Version:       c.Version,
	}
	if c.Overrides != nil {
		out.Overrides = c.Overrides.Data
	}
	return out
}

func (l CohortList) ToPlan() []plan.Cohort {
	out := make([]plan.Cohort, 0, len(l))
	for _, c := range l {
		out = append(out, c.ToPlan())
	}
	return out
}

// Apply copies the lifecycle fields of p onto the row.
func (c *Cohort) Apply(p plan.Cohort) {
	c.Name = p.Name
	c.Status = string(p.Status)
	c.PausedFrom = string(p.PausedFrom)
	c.PredecessorID = p.PredecessorID
	c.Overrides = MakeJSONField(p.Overrides)
}

func NewCohort(projectID uuid.UUID, c plan.Cohort, strategy string) Cohort {
	return Cohort{
		ID:            c.ID,
		ProjectID:     projectID,
		Name:          c.Name,
		Order:         c.Order,
		Status:        string(c.Status),
		PausedFrom:    string(c.PausedFrom),
		PredecessorID: c.PredecessorID,
		Strategy:      strategy,
		Overrides:     MakeJSONField(c.Overrides),
		Version:       c.Version,
	}
}
