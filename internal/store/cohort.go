package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kubev2v/migration-wave-planner/internal/store/model"
	"gorm.io/gorm"
)

type Cohort interface {
	List(ctx context.Context, filter *CohortQueryFilter) (model.CohortList, error)
	Get(ctx context.Context, id string) (*model.Cohort, error)
	Create(ctx context.Context, cohort model.Cohort) (*model.Cohort, error)
	// Update writes cohort when its Version still matches the stored row and
	// bumps the version. A stale version returns ErrVersionConflict.
	Update(ctx context.Context, cohort model.Cohort) (*model.Cohort, error)
	DeleteByProject(ctx context.Context, projectID uuid.UUID) error
}

type CohortStore struct {
	db *gorm.DB
}

var _ Cohort = (*CohortStore)(nil)

func NewCohortStore(db *gorm.DB) Cohort {
	return &CohortStore{db: db}
}

func (c *CohortStore) List(ctx context.Context, filter *CohortQueryFilter) (model.CohortList, error) {
	var cohorts model.CohortList
	tx := c.getDB(ctx).Model(&cohorts).Order("cohort_order")

	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}

	if err := tx.Find(&cohorts).Error; err != nil {
		return nil, err
	}
	return cohorts, nil
}

func (c *CohortStore) Get(ctx context.Context, id string) (*model.Cohort, error) {
	var cohort model.Cohort
	result := c.getDB(ctx).First(&cohort, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &cohort, nil
}

func (c *CohortStore) Create(ctx context.Context, cohort model.Cohort) (*model.Cohort, error) {
	if cohort.ID == "" {
		cohort.ID = uuid.NewString()
	}
	if cohort.Version == 0 {
		cohort.Version = 1
	}
	if err := c.getDB(ctx).Create(&cohort).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, err
	}
	return &cohort, nil
}

func (c *CohortStore) Update(ctx context.Context, cohort model.Cohort) (*model.Cohort, error) {
	expected := cohort.Version
	now := time.Now()
	cohort.UpdatedAt = &now
	cohort.Version = expected + 1

	result := c.getDB(ctx).Model(&model.Cohort{}).
		Where("id = ? AND version = ?", cohort.ID, expected).
		Select("*").
		Omit("ID", "ProjectID", "CreatedAt").
		Updates(&cohort)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := c.Get(ctx, cohort.ID); err != nil {
			return nil, err
		}
		return nil, ErrVersionConflict
	}
	return c.Get(ctx, cohort.ID)
}

func (c *CohortStore) DeleteByProject(ctx context.Context, projectID uuid.UUID) error {
	return c.getDB(ctx).Where("project_id = ?", projectID).Delete(&model.Cohort{}).Error
}

func (c *CohortStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return c.db
}
