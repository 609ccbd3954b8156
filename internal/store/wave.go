package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/kubev2v/migration-wave-planner/internal/plan"
	"github.com/kubev2v/migration-wave-planner/internal/store/model"
	"gorm.io/gorm"
)

type Wave interface {
	List(ctx context.Context, filter *WaveQueryFilter) (model.WaveList, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Wave, error)
	Create(ctx context.Context, wave model.Wave) (*model.Wave, error)
	// Update writes wave when its Version still matches the stored row and
	// bumps the version. A stale version returns ErrVersionConflict.
	Update(ctx context.Context, wave model.Wave) (*model.Wave, error)
	// SetPreflight stores the latest pre-flight report without touching the
	// version.
	SetPreflight(ctx context.Context, id uuid.UUID, report *plan.PreflightReport) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type WaveStore struct {
	db *gorm.DB
}

var _ Wave = (*WaveStore)(nil)

func NewWaveStore(db *gorm.DB) Wave {
	return &WaveStore{db: db}
}

func (w *WaveStore) List(ctx context.Context, filter *WaveQueryFilter) (model.WaveList, error) {
	var waves model.WaveList
	tx := w.getDB(ctx).Model(&waves).Order("wave_order")

	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}

	if err := tx.Find(&waves).Error; err != nil {
		return nil, err
	}
	return waves, nil
}

func (w *WaveStore) Get(ctx context.Context, id uuid.UUID) (*model.Wave, error) {
	var wave model.Wave
	result := w.getDB(ctx).First(&wave, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &wave, nil
}

func (w *WaveStore) Create(ctx context.Context, wave model.Wave) (*model.Wave, error) {
	if wave.ID == uuid.Nil {
		wave.ID = uuid.New()
	}
	if wave.Version == 0 {
		wave.Version = 1
	}
	if err := w.getDB(ctx).Create(&wave).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, err
	}
	return &wave, nil
}

func (w *WaveStore) Update(ctx context.Context, wave model.Wave) (*model.Wave, error) {
	expected := wave.Version
	wave.Version = expected + 1

	result := w.getDB(ctx).Model(&model.Wave{}).
		Where("id = ? AND version = ?", wave.ID, expected).
		Select("*").
		Omit("ID", "ProjectID", "CreatedAt").
		Updates(&wave)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := w.Get(ctx, wave.ID); err != nil {
			return nil, err
		}
		return nil, ErrVersionConflict
	}
	return w.Get(ctx, wave.ID)
}

func (w *WaveStore) SetPreflight(ctx context.Context, id uuid.UUID, report *plan.PreflightReport) error {
	result := w.getDB(ctx).Model(&model.Wave{}).
		Where("id = ?", id).
		Update("preflight", model.MakeJSONField(report))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (w *WaveStore) Delete(ctx context.Context, id uuid.UUID) error {
	result := w.getDB(ctx).Delete(&model.Wave{}, "id = ?", id)
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}
	return nil
}

func (w *WaveStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return w.db
}
