package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kubev2v/migration-wave-planner/internal/plan"
	"github.com/kubev2v/migration-wave-planner/internal/store/model"
	"gorm.io/gorm"
)

type Project interface {
	List(ctx context.Context, filter *ProjectQueryFilter) (model.ProjectList, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Project, error)
	Create(ctx context.Context, project model.Project) (*model.Project, error)
	// UpdateConfig replaces the project configuration when version still
	// matches the stored one.
	UpdateConfig(ctx context.Context, id uuid.UUID, cfg plan.ProjectConfig, version int) (*model.Project, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type ProjectStore struct {
	db *gorm.DB
}

// Make sure we conform to Project interface
var _ Project = (*ProjectStore)(nil)

func NewProjectStore(db *gorm.DB) Project {
	return &ProjectStore{db: db}
}

func (p *ProjectStore) List(ctx context.Context, filter *ProjectQueryFilter) (model.ProjectList, error) {
	var projects model.ProjectList
	tx := p.getDB(ctx).Model(&projects).Order("created_at DESC")

	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}

	if err := tx.Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

func (p *ProjectStore) Get(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	var project model.Project
	result := p.getDB(ctx).First(&project, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &project, nil
}

func (p *ProjectStore) Create(ctx context.Context, project model.Project) (*model.Project, error) {
	if project.Version == 0 {
		project.Version = 1
	}
	if err := p.getDB(ctx).Create(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, err
	}
	return p.Get(ctx, project.ID)
}

func (p *ProjectStore) UpdateConfig(ctx context.Context, id uuid.UUID, cfg plan.ProjectConfig, version int) (*model.Project, error) {
	now := time.Now()
	result := p.getDB(ctx).Model(&model.Project{}).
		Where("id = ? AND version = ?", id, version).
		Updates(map[string]any{
			"config":     model.MakeJSONField(cfg),
			"version":    version + 1,
			"updated_at": &now,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := p.Get(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrVersionConflict
	}
	return p.Get(ctx, id)
}

func (p *ProjectStore) Delete(ctx context.Context, id uuid.UUID) error {
	db := p.getDB(ctx)
	for _, m := range []any{&model.Wave{}, &model.Cohort{}, &model.Snapshot{}} {
		if err := db.Where("project_id = ?", id).Delete(m).Error; err != nil {
			return err
		}
	}
	result := db.Delete(&model.Project{}, "id = ?", id)
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}
	return nil
}

func (p *ProjectStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return p.db
}
