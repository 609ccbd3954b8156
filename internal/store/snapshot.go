package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/kubev2v/migration-wave-planner/internal/inventory"
	"github.com/kubev2v/migration-wave-planner/internal/store/model"
	"gorm.io/gorm"
)

type Snapshot interface {
	// Create appends a new inventory version to the project.
	Create(ctx context.Context, projectID uuid.UUID, inv inventory.Snapshot) (*model.Snapshot, error)
	Latest(ctx context.Context, projectID uuid.UUID) (*model.Snapshot, error)
	Get(ctx context.Context, projectID uuid.UUID, version int) (*model.Snapshot, error)
	List(ctx context.Context, filter *SnapshotQueryFilter) ([]model.Snapshot, error)
}

type SnapshotStore struct {
	db *gorm.DB
}

var _ Snapshot = (*SnapshotStore)(nil)

func NewSnapshotStore(db *gorm.DB) Snapshot {
	return &SnapshotStore{db: db}
}

func (s *SnapshotStore) Create(ctx context.Context, projectID uuid.UUID, inv inventory.Snapshot) (*model.Snapshot, error) {
	var current struct{ Version int }
	if err := s.getDB(ctx).Model(&model.Snapshot{}).
		Select("COALESCE(MAX(version), 0) AS version").
		Where("project_id = ?", projectID).
		Scan(&current).Error; err != nil {
		return nil, err
	}

	snapshot := model.Snapshot{
		ProjectID: projectID,
		Version:   current.Version + 1,
		Inventory: model.MakeJSONField(inv),
	}
	if err := s.getDB(ctx).Create(&snapshot).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrVersionConflict
		}
		return nil, err
	}
	return &snapshot, nil
}

func (s *SnapshotStore) Latest(ctx context.Context, projectID uuid.UUID) (*model.Snapshot, error) {
	var snapshot model.Snapshot
	result := s.getDB(ctx).Where("project_id = ?", projectID).Order("version DESC").First(&snapshot)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &snapshot, nil
}

func (s *SnapshotStore) Get(ctx context.Context, projectID uuid.UUID, version int) (*model.Snapshot, error) {
	var snapshot model.Snapshot
	result := s.getDB(ctx).Where("project_id = ? AND version = ?", projectID, version).First(&snapshot)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &snapshot, nil
}

func (s *SnapshotStore) List(ctx context.Context, filter *SnapshotQueryFilter) ([]model.Snapshot, error) {
	var snapshots []model.Snapshot
	tx := s.getDB(ctx).Model(&snapshots).Order("version DESC")

	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}

	result := tx.Find(&snapshots)
	if result.Error != nil {
		return nil, result.Error
	}
	return snapshots, nil
}

func (s *SnapshotStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
