package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/kubev2v/migration-wave-planner/internal/inventory"
	"github.com/kubev2v/migration-wave-planner/internal/plan"
	"github.com/kubev2v/migration-wave-planner/internal/scoring"
	"github.com/kubev2v/migration-wave-planner/internal/service/mappers"
	"github.com/kubev2v/migration-wave-planner/internal/store"
	"github.com/kubev2v/migration-wave-planner/internal/store/model"
	"github.com/kubev2v/migration-wave-planner/pkg/log"
	"github.com/kubev2v/migration-wave-planner/pkg/metrics"
)

// ProjectService owns projects, their configuration and inventory snapshots.
type ProjectService struct {
	store  store.Store
	logger *log.StructuredLogger
}

func NewProjectService(store store.Store) *ProjectService {
	return &ProjectService{
		store:  store,
		logger: log.NewDebugLogger("project_service"),
	}
}

func (ps *ProjectService) CreateProject(ctx context.Context, form mappers.ProjectCreateForm) (*model.Project, error) {
	tracer := ps.logger.WithContext(ctx).Operation("create_project").
		WithString("name", form.Name).
		Build()

	project, err := ps.store.Project().Create(ctx, form.ToModel())
	if err != nil {
		tracer.Error(err).Log()
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, NewErrProjectExists(form.Name)
		}
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	tracer.Success().WithUUID("project_id", project.ID).Log()
	return project, nil
}

func (ps *ProjectService) ListProjects(ctx context.Context, nameLike string) (model.ProjectList, error) {
	tracer := ps.logger.WithContext(ctx).Operation("list_projects").
		WithString("name_like", nameLike).
		Build()

	filter := store.NewProjectQueryFilter()
	if nameLike != "" {
		filter = filter.WithNameLike(nameLike)
	}

	projects, err := ps.store.Project().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	tracer.Success().WithInt("count", len(projects)).Log()
	return projects, nil
}

// GetProject returns the project with its latest snapshot attached, if any.
func (ps *ProjectService) GetProject(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	project, err := getProject(ctx, ps.store, id)
	if err != nil {
		return nil, err
	}

	latest, err := ps.store.Snapshot().Latest(ctx, id)
	switch {
	case err == nil:
		project.Snapshots = []model.Snapshot{*latest}
	case !errors.Is(err, store.ErrRecordNotFound):
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}
	return project, nil
}

func (ps *ProjectService) UpdateProjectConfig(ctx context.Context, id uuid.UUID, cfg plan.ProjectConfig, version int) (*model.Project, error) {
	tracer := ps.logger.WithContext(ctx).Operation("update_project_config").
		WithUUID("project_id", id).
		WithInt("version", version).
		Build()

	if err := cfg.Weights.Validate(); err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	project, err := ps.store.Project().UpdateConfig(ctx, id, cfg, version)
	if err != nil {
		tracer.Error(err).Log()
		switch {
		case errors.Is(err, store.ErrRecordNotFound):
			return nil, NewErrProjectNotFound(id)
		case errors.Is(err, store.ErrVersionConflict):
			return nil, NewErrStaleVersion("project", id.String())
		}
		return nil, fmt.Errorf("failed to update project config: %w", err)
	}

	tracer.Success().WithInt("version", project.Version).Log()
	return project, nil
}

func (ps *ProjectService) DeleteProject(ctx context.Context, id uuid.UUID) error {
	tracer := ps.logger.WithContext(ctx).Operation("delete_project").
		WithUUID("project_id", id).
		Build()

	if _, err := getProject(ctx, ps.store, id); err != nil {
		return err
	}

	txCtx, err := ps.store.NewTransactionContext(ctx)
	if err != nil {
		return err
	}
	if err := ps.store.Project().Delete(txCtx, id); err != nil {
		rollback(txCtx)
		tracer.Error(err).Log()
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if _, err := store.Commit(txCtx); err != nil {
		return err
	}

	tracer.Success().Log()
	return nil
}

// ImportSnapshot stores inv as the project's next inventory version. The
// previous versions are kept.
func (ps *ProjectService) ImportSnapshot(ctx context.Context, projectID uuid.UUID, inv inventory.Snapshot) (*model.Snapshot, error) {
	tracer := ps.logger.WithContext(ctx).Operation("import_snapshot").
		WithUUID("project_id", projectID).
		WithInt("tenants", len(inv.Tenants)).
		WithInt("vms", len(inv.VMs)).
		Build()

	if err := inv.Validate(); err != nil {
		tracer.Error(err).Log()
		return nil, NewErrInvalidRequest("invalid inventory: %s", err)
	}

	if _, err := getProject(ctx, ps.store, projectID); err != nil {
		return nil, err
	}

	snapshot, err := ps.store.Snapshot().Create(ctx, projectID, inv)
	if err != nil {
		tracer.Error(err).Log()
		if errors.Is(err, store.ErrVersionConflict) {
			return nil, NewErrStaleVersion("snapshot of project", projectID.String())
		}
		return nil, fmt.Errorf("failed to store snapshot: %w", err)
	}

	metrics.IncreasePlanningOperationMetric("import_snapshot", nil)
	tracer.Success().WithInt("snapshot_version", snapshot.Version).Log()
	return snapshot, nil
}

func (ps *ProjectService) ListSnapshots(ctx context.Context, projectID uuid.UUID, limit int) ([]model.Snapshot, error) {
	if _, err := getProject(ctx, ps.store, projectID); err != nil {
		return nil, err
	}

	filter := store.NewSnapshotQueryFilter().ByProjectID(projectID)
	if limit > 0 {
		filter = filter.WithLimit(limit)
	}
	snapshots, err := ps.store.Snapshot().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return snapshots, nil
}

// GetSnapshot returns one inventory version; version 0 is the latest.
func (ps *ProjectService) GetSnapshot(ctx context.Context, projectID uuid.UUID, version int) (*model.Snapshot, error) {
	if version == 0 {
		state, err := loadState(ctx, ps.store, projectID, stateOptions{snapshot: true})
		if err != nil {
			return nil, err
		}
		return state.snapshot, nil
	}

	if _, err := getProject(ctx, ps.store, projectID); err != nil {
		return nil, err
	}
	snapshot, err := ps.store.Snapshot().Get(ctx, projectID, version)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrResourceNotFound(fmt.Sprintf("%s/%d", projectID, version), "snapshot")
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return snapshot, nil
}

type ScoreResult struct {
	Weights scoring.Weights
	Scores  []scoring.Breakdown
}

// Scores ranks the in-scope tenants of the latest snapshot by ease score.
func (ps *ProjectService) Scores(ctx context.Context, projectID uuid.UUID) (*ScoreResult, error) {
	tracer := ps.logger.WithContext(ctx).Operation("compute_scores").
		WithUUID("project_id", projectID).
		Build()

	state, err := loadState(ctx, ps.store, projectID, stateOptions{snapshot: true})
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	breakdowns, _, err := state.scores()
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	tracer.Success().WithInt("tenants", len(breakdowns)).Log()
	return &ScoreResult{Weights: state.config().Weights, Scores: breakdowns}, nil
}
