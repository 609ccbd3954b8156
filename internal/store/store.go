package store

import (
	"context"

	"github.com/kubev2v/migration-wave-planner/internal/store/model"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Store interface {
	NewTransactionContext(ctx context.Context) (context.Context, error)
	Project() Project
	Snapshot() Snapshot
	Cohort() Cohort
	Wave() Wave
	Close() error
}

type DataStore struct {
	db       *gorm.DB
	log      logrus.FieldLogger
	project  Project
	snapshot Snapshot
	cohort   Cohort
	wave     Wave
}

func NewStore(db *gorm.DB) Store {
	return &DataStore{
		db:       db,
		log:      logrus.StandardLogger().WithField("component", "store"),
		project:  NewProjectStore(db),
		snapshot: NewSnapshotStore(db),
		cohort:   NewCohortStore(db),
		wave:     NewWaveStore(db),
	}
}

func (s *DataStore) NewTransactionContext(ctx context.Context) (context.Context, error) {
	return newTransactionContext(ctx, s.db, s.log)
}

func (s *DataStore) Project() Project {
	return s.project
}

func (s *DataStore) Snapshot() Snapshot {
	return s.snapshot
}

func (s *DataStore) Cohort() Cohort {
	return s.cohort
}

func (s *DataStore) Wave() Wave {
	return s.wave
}

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AutoMigrate creates the schema from the models. Postgres deployments use the
// SQL migrations instead; this serves sqlite databases.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.Project{}, &model.Snapshot{}, &model.Cohort{}, &model.Wave{})
}
