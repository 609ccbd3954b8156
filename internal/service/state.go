package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/kubev2v/migration-wave-planner/internal/inventory"
	"github.com/kubev2v/migration-wave-planner/internal/plan"
	"github.com/kubev2v/migration-wave-planner/internal/scoring"
	"github.com/kubev2v/migration-wave-planner/internal/store"
	"github.com/kubev2v/migration-wave-planner/internal/store/model"
)

// planningState is everything one planning pass reads about a project.
type planningState struct {
	project  *model.Project
	snapshot *model.Snapshot
	cohorts  model.CohortList
	waves    model.WaveList
}

func (p *planningState) config() plan.ProjectConfig {
	if p.project.Config == nil {
		return plan.DefaultProjectConfig()
	}
	return p.project.Config.Data
}

// inventory returns a private copy of the latest snapshot that callers may
// change before writing it as a new version.
func (p *planningState) inventory() *inventory.Snapshot {
	return p.snapshot.Inventory.Data.Clone()
}

func (p *planningState) snapshotVersion() int {
	if p.snapshot == nil {
		return 0
	}
	return p.snapshot.Version
}

// scores computes the ease score of every in-scope tenant with the project
// weights.
func (p *planningState) scores() ([]scoring.Breakdown, map[string]float64, error) {
	breakdowns, err := scoring.Compute(p.inventory().Aggregates(), p.config().Weights)
	if err != nil {
		return nil, nil, err
	}
	return breakdowns, scoring.Index(breakdowns), nil
}

type stateOptions struct {
	snapshot bool
	cohorts  bool
	waves    bool
}

func getProject(ctx context.Context, s store.Store, projectID uuid.UUID) (*model.Project, error) {
	project, err := s.Project().Get(ctx, projectID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrProjectNotFound(projectID)
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return project, nil
}

// loadState reads the project and the parts named by opts. A requested but
// missing snapshot is an ErrNoSnapshot.
func loadState(ctx context.Context, s store.Store, projectID uuid.UUID, opts stateOptions) (*planningState, error) {
	project, err := getProject(ctx, s, projectID)
	if err != nil {
		return nil, err
	}
	state := &planningState{project: project}

	if opts.snapshot {
		snapshot, err := s.Snapshot().Latest(ctx, projectID)
		if err != nil {
			if errors.Is(err, store.ErrRecordNotFound) {
				return nil, NewErrNoSnapshot(projectID)
			}
			return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
		}
		state.snapshot = snapshot
	}

	if opts.cohorts {
		cohorts, err := s.Cohort().List(ctx, store.NewCohortQueryFilter().ByProjectID(projectID))
		if err != nil {
			return nil, fmt.Errorf("failed to list cohorts: %w", err)
		}
		state.cohorts = cohorts
	}

	if opts.waves {
		waves, err := s.Wave().List(ctx, store.NewWaveQueryFilter().ByProjectID(projectID))
		if err != nil {
			return nil, fmt.Errorf("failed to list waves: %w", err)
		}
		state.waves = waves
	}

	return state, nil
}

// rollback is used on every error path after a transaction context was opened.
// Rolling back an already finished transaction is harmless.
func rollback(ctx context.Context) {
	_, _ = store.Rollback(ctx)
}
