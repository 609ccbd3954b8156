package main

import (
	"fmt"

	"github.com/kubev2v/migration-wave-planner/internal/config"
	"github.com/kubev2v/migration-wave-planner/internal/store"
	"github.com/kubev2v/migration-wave-planner/pkg/migrations"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate the db",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, done, err := setup()
		if err != nil {
			return fmt.Errorf("reading configuration: %w", err)
		}
		defer done()
		defer zap.S().Info("Db migrated")

		zap.S().Info("Initializing data store")
		db, err := store.InitDB(cfg)
		if err != nil {
			return fmt.Errorf("initializing data store: %w", err)
		}

		s := store.NewStore(db)
		defer s.Close()

		return migrate(cfg, db)
	},
}

// migrate applies the SQL migrations on postgres and builds the schema from
// the models on sqlite.
func migrate(cfg *config.Config, db *gorm.DB) error {
	if cfg.Database.Type != "pgsql" {
		if err := store.AutoMigrate(db); err != nil {
			return fmt.Errorf("creating sqlite schema: %w", err)
		}
		return nil
	}
	if err := migrations.MigrateStore(db, cfg.Service.MigrationFolder); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}
