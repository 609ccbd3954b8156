package store

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BaseQuerier struct {
	QueryFn []func(tx *gorm.DB) *gorm.DB
}

type ProjectQueryFilter BaseQuerier

func NewProjectQueryFilter() *ProjectQueryFilter {
	return &ProjectQueryFilter{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (f *ProjectQueryFilter) ByName(name string) *ProjectQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("name = ?", name)
	})
	return f
}

// Filter by name pattern
func (f *ProjectQueryFilter) WithNameLike(pattern string) *ProjectQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("LOWER(name) LIKE LOWER(?)", "%"+pattern+"%")
	})
	return f
}

type SnapshotQueryFilter BaseQuerier

func NewSnapshotQueryFilter() *SnapshotQueryFilter {
	return &SnapshotQueryFilter{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (f *SnapshotQueryFilter) ByProjectID(id uuid.UUID) *SnapshotQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("project_id = ?", id)
	})
	return f
}

// Limit results
func (f *SnapshotQueryFilter) WithLimit(limit int) *SnapshotQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Limit(limit)
	})
	return f
}

type CohortQueryFilter BaseQuerier

func NewCohortQueryFilter() *CohortQueryFilter {
	return &CohortQueryFilter{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (f *CohortQueryFilter) ByProjectID(id uuid.UUID) *CohortQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("project_id = ?", id)
	})
	return f
}

func (f *CohortQueryFilter) ByStatus(statuses ...string) *CohortQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("status IN ?", statuses)
	})
	return f
}

type WaveQueryFilter BaseQuerier

func NewWaveQueryFilter() *WaveQueryFilter {
	return &WaveQueryFilter{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (f *WaveQueryFilter) ByProjectID(id uuid.UUID) *WaveQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("project_id = ?", id)
	})
	return f
}

func (f *WaveQueryFilter) ByCohortID(id string) *WaveQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("cohort_id = ?", id)
	})
	return f
}

func (f *WaveQueryFilter) ByState(states ...string) *WaveQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("state IN ?", states)
	})
	return f
}

func (f *WaveQueryFilter) ByID(ids []uuid.UUID) *WaveQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("id IN ?", ids)
	})
	return f
}
