package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/kubev2v/migration-wave-planner/internal/inventory"
	"github.com/kubev2v/migration-wave-planner/internal/plan"
)

type Project struct {
	ID        uuid.UUID `gorm:"primaryKey;column:id;type:VARCHAR(255);"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt *time.Time
	Name      string                         `gorm:"not null;uniqueIndex:projects_name_idx"`
	Config    *JSONField[plan.ProjectConfig] `gorm:"type:jsonb;not null"`
	Version   int                            `gorm:"not null;default:1"`
	Snapshots []Snapshot                     `gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE;"`
}

type ProjectList []Project

func (p Project) String() string {
	val, _ := json.Marshal(p)
	return string(val)
}

// LatestSnapshot returns the snapshot with the highest version, or nil when
// the project has no inventory yet.
func (p Project) LatestSnapshot() *Snapshot {
	var latest *Snapshot
	for i := range p.Snapshots {
		if latest == nil || p.Snapshots[i].Version > latest.Version {
			latest = &p.Snapshots[i]
		}
	}
	return latest
}

// Snapshot is one immutable version of a project's inventory. Every commit
// that changes tenant cohort references writes a new version.
type Snapshot struct {
	ID        uint                           `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time                      `gorm:"not null"`
	ProjectID uuid.UUID                      `gorm:"not null;type:VARCHAR(255);uniqueIndex:snapshots_project_version_idx"`
	Version   int                            `gorm:"not null;uniqueIndex:snapshots_project_version_idx"`
	Inventory *JSONField[inventory.Snapshot] `gorm:"type:jsonb;not null"`
}

func (s Snapshot) String() string {
	val, _ := json.Marshal(s)
	return string(val)
}
