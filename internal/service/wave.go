package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kubev2v/migration-wave-planner/internal/events"
	"github.com/kubev2v/migration-wave-planner/internal/inventory"
	"github.com/kubev2v/migration-wave-planner/internal/plan"
	"github.com/kubev2v/migration-wave-planner/internal/service/mappers"
	"github.com/kubev2v/migration-wave-planner/internal/store"
	"github.com/kubev2v/migration-wave-planner/internal/store/model"
	"github.com/kubev2v/migration-wave-planner/internal/wave"
	"github.com/kubev2v/migration-wave-planner/pkg/log"
	"github.com/kubev2v/migration-wave-planner/pkg/metrics"
)

// WaveService builds, commits and drives the execution waves of a project.
type WaveService struct {
	store          store.Store
	eventProducer  *events.EventProducer
	agentReachable bool
	now            func() time.Time
	logger         *log.StructuredLogger
}

type WaveServiceOption func(*WaveService)

// WithAgentReachable sets the agent reachability fact used by pre-flight.
func WithAgentReachable(reachable bool) WaveServiceOption {
	return func(ws *WaveService) {
		ws.agentReachable = reachable
	}
}

func WithClock(now func() time.Time) WaveServiceOption {
	return func(ws *WaveService) {
		ws.now = now
	}
}

func NewWaveService(store store.Store, eventProducer *events.EventProducer, opts ...WaveServiceOption) *WaveService {
	ws := &WaveService{
		store:          store,
		eventProducer:  eventProducer,
		agentReachable: true,
		now:            time.Now,
		logger:         log.NewDebugLogger("wave_service"),
	}
	for _, o := range opts {
		o(ws)
	}
	return ws
}

type WaveCommitResult struct {
	Build           *wave.BuildResult
	Waves           model.WaveList
	SnapshotVersion int
}

func (ws *WaveService) buildRequest(state *planningState, form mappers.WavePlanForm) (wave.BuildRequest, error) {
	strategy, err := wave.ParseStrategy(form.Strategy)
	if err != nil {
		return wave.BuildRequest{}, err
	}
	_, scores, err := state.scores()
	if err != nil {
		return wave.BuildRequest{}, err
	}
	size := form.WaveSize
	if size == 0 {
		size = state.config().WaveSize
	}
	return wave.BuildRequest{
		Snapshot:  state.inventory(),
		Cohorts:   state.cohorts.ToPlan(),
		Strategy:  strategy,
		WaveSize:  size,
		PilotSize: form.PilotSize,
		Scores:    scores,
		Existing:  state.waves.ToPlan(),
		Now:       ws.now(),
	}, nil
}

// PreviewWaves builds waves for every eligible VM without writing anything.
func (ws *WaveService) PreviewWaves(ctx context.Context, projectID uuid.UUID, form mappers.WavePlanForm) (*wave.BuildResult, error) {
	tracer := ws.logger.WithContext(ctx).Operation("preview_waves").
		WithUUID("project_id", projectID).
		WithString("strategy", form.Strategy).
		WithInt("wave_size", form.WaveSize).
		Build()

	state, err := loadState(ctx, ws.store, projectID, stateOptions{snapshot: true, cohorts: true, waves: true})
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	req, err := ws.buildRequest(state, form)
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	result, err := wave.Build(req)
	metrics.IncreasePlanningOperationMetric("preview_waves", err)
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	tracer.Success().
		WithInt("waves", len(result.Waves)).
		WithInt("adjustments", len(result.Adjustments)).
		WithInt("conflicts", len(result.Conflicts)).
		Log()
	return result, nil
}

// CommitWaves replaces the planned waves of the project with a fresh build in
// one transaction. Waves past planned are kept and their VMs left alone. VMs
// placed in a new wave are marked assigned; VMs only held by a replaced wave
// go back to not started.
func (ws *WaveService) CommitWaves(ctx context.Context, projectID uuid.UUID, form mappers.WavePlanForm) (*WaveCommitResult, error) {
	tracer := ws.logger.WithContext(ctx).Operation("commit_waves").
		WithUUID("project_id", projectID).
		WithString("strategy", form.Strategy).
		WithInt("wave_size", form.WaveSize).
		WithBool("accept_conflicts", form.AcceptConflicts).
		Build()

	result, err := ws.commitWaves(ctx, projectID, form)
	metrics.IncreasePlanningOperationMetric("commit_waves", err)
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	for _, c := range result.Build.Conflicts {
		metrics.IncreaseDependencyConflictsMetric(string(c.Kind))
	}
	metrics.AddDependencyAdjustmentsMetric(len(result.Build.Adjustments))

	ids := make([]uuid.UUID, 0, len(result.Waves))
	for _, w := range result.Waves {
		ids = append(ids, w.ID)
	}
	publish(ctx, ws.eventProducer, ws.logger, events.WavesCommittedKind, events.WavesCommittedEvent{
		ProjectID: projectID,
		Strategy:  form.Strategy,
		WaveIDs:   ids,
		Replaced:  result.Build.Replaced,
		Conflicts: len(result.Build.Conflicts),
	})

	tracer.Success().
		WithInt("waves", len(result.Waves)).
		WithInt("replaced", len(result.Build.Replaced)).
		WithInt("snapshot_version", result.SnapshotVersion).
		Log()
	return result, nil
}

func (ws *WaveService) commitWaves(ctx context.Context, projectID uuid.UUID, form mappers.WavePlanForm) (*WaveCommitResult, error) {
	txCtx, err := ws.store.NewTransactionContext(ctx)
	if err != nil {
		return nil, err
	}

	state, err := loadState(txCtx, ws.store, projectID, stateOptions{snapshot: true, cohorts: true, waves: true})
	if err != nil {
		rollback(txCtx)
		return nil, err
	}

	req, err := ws.buildRequest(state, form)
	if err != nil {
		rollback(txCtx)
		return nil, err
	}
	build, err := wave.Build(req)
	if err != nil {
		rollback(txCtx)
		return nil, err
	}
	if err := build.CommitAllowed(form.AcceptConflicts); err != nil {
		rollback(txCtx)
		return nil, err
	}
	if err := wave.ValidateScope(build.Waves, req.Snapshot); err != nil {
		rollback(txCtx)
		return nil, err
	}

	released := make(map[string]bool)
	replaced := make(map[uuid.UUID]bool, len(build.Replaced))
	for _, id := range build.Replaced {
		replaced[id] = true
	}
	for _, w := range state.waves {
		if !replaced[w.ID] {
			continue
		}
		for _, vm := range w.ToPlan().VMs {
			released[vm.VMID] = true
		}
		if err := ws.store.Wave().Delete(txCtx, w.ID); err != nil {
			rollback(txCtx)
			return nil, fmt.Errorf("failed to delete wave %s: %w", w.ID, err)
		}
	}

	created := make(model.WaveList, 0, len(build.Waves))
	assigned := make(map[string]bool)
	for _, w := range build.Waves {
		row, err := ws.store.Wave().Create(txCtx, model.NewWave(projectID, w))
		if err != nil {
			rollback(txCtx)
			return nil, fmt.Errorf("failed to create wave %q: %w", w.Name, err)
		}
		created = append(created, *row)
		for _, vm := range w.VMs {
			assigned[vm.VMID] = true
			delete(released, vm.VMID)
		}
	}

	inv := req.Snapshot
	version, err := ws.writeStatuses(txCtx, projectID, inv, func(vm inventory.VM) inventory.MigrationStatus {
		switch {
		case assigned[vm.ID] && vm.CurrentStatus() == inventory.StatusNotStarted:
			return inventory.StatusAssigned
		case released[vm.ID] && vm.CurrentStatus() == inventory.StatusAssigned:
			return inventory.StatusNotStarted
		}
		return vm.Status
	})
	if err != nil {
		rollback(txCtx)
		return nil, err
	}
	if version == 0 {
		version = state.snapshot.Version
	}

	if _, err := store.Commit(txCtx); err != nil {
		return nil, err
	}

	return &WaveCommitResult{Build: build, Waves: created, SnapshotVersion: version}, nil
}

// writeStatuses applies next to every VM of inv and stores a new snapshot
// version when anything changed. It returns the new version, or 0 when there
// was nothing to write.
func (ws *WaveService) writeStatuses(ctx context.Context, projectID uuid.UUID, inv *inventory.Snapshot, next func(inventory.VM) inventory.MigrationStatus) (int, error) {
	changed := false
	for i, vm := range inv.VMs {
		status := next(vm)
		if status != vm.Status {
			inv.VMs[i].Status = status
			changed = true
		}
	}
	if !changed {
		return 0, nil
	}

	snapshot, err := ws.store.Snapshot().Create(ctx, projectID, *inv)
	if err != nil {
		if errors.Is(err, store.ErrVersionConflict) {
			return 0, NewErrStaleVersion("snapshot of project", projectID.String())
		}
		return 0, fmt.Errorf("failed to store snapshot: %w", err)
	}
	return snapshot.Version, nil
}

// ListWaves returns the waves of a project in order, optionally only those of
// one cohort.
func (ws *WaveService) ListWaves(ctx context.Context, projectID uuid.UUID, cohortID string) (model.WaveList, error) {
	if _, err := getProject(ctx, ws.store, projectID); err != nil {
		return nil, err
	}

	filter := store.NewWaveQueryFilter().ByProjectID(projectID)
	if cohortID != "" {
		filter = filter.ByCohortID(cohortID)
	}
	waves, err := ws.store.Wave().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list waves: %w", err)
	}
	return waves, nil
}

func (ws *WaveService) GetWave(ctx context.Context, projectID uuid.UUID, waveID uuid.UUID) (*model.Wave, error) {
	if _, err := getProject(ctx, ws.store, projectID); err != nil {
		return nil, err
	}
	return ws.getWave(ctx, projectID, waveID)
}

func (ws *WaveService) getWave(ctx context.Context, projectID uuid.UUID, waveID uuid.UUID) (*model.Wave, error) {
	w, err := ws.store.Wave().Get(ctx, waveID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrWaveNotFound(waveID)
		}
		return nil, fmt.Errorf("failed to get wave: %w", err)
	}
	if w.ProjectID != projectID {
		return nil, NewErrWaveNotFound(waveID)
	}
	return w, nil
}

func (ws *WaveService) preflight(state *planningState, w *plan.Wave) *plan.PreflightReport {
	env := wave.PreflightEnv{AgentReachable: ws.agentReachable, Now: ws.now()}
	return wave.RunPreflight(w, state.inventory(), state.config().Catalogue(), env)
}

// RunPreflight evaluates the project catalogue against a wave and stores the
// report with it.
func (ws *WaveService) RunPreflight(ctx context.Context, projectID uuid.UUID, waveID uuid.UUID) (*plan.PreflightReport, error) {
	tracer := ws.logger.WithContext(ctx).Operation("run_preflight").
		WithUUID("project_id", projectID).
		WithUUID("wave_id", waveID).
		Build()

	state, err := loadState(ctx, ws.store, projectID, stateOptions{snapshot: true})
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}
	row, err := ws.getWave(ctx, projectID, waveID)
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	w := row.ToPlan()
	report := ws.preflight(state, &w)
	if err := ws.store.Wave().SetPreflight(ctx, waveID, report); err != nil {
		tracer.Error(err).Log()
		return nil, fmt.Errorf("failed to store pre-flight report: %w", err)
	}

	tracer.Success().
		WithBool("blocked", report.Blocked()).
		WithInt("advisories", len(report.Advisories())).
		Log()
	return report, nil
}

// TransitionWave moves a wave to state. Leaving planned re-runs pre-flight
// and the report is kept with the wave even when a blocker fails.
func (ws *WaveService) TransitionWave(ctx context.Context, projectID uuid.UUID, waveID uuid.UUID, state plan.WaveState, version int) (*model.Wave, error) {
	tracer := ws.logger.WithContext(ctx).Operation("transition_wave").
		WithUUID("project_id", projectID).
		WithUUID("wave_id", waveID).
		WithString("state", string(state)).
		WithInt("version", version).
		Build()

	updated, from, err := ws.transitionWave(ctx, projectID, waveID, state, version)
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	metrics.IncreaseWaveTransitionsMetric(string(state))
	publish(ctx, ws.eventProducer, ws.logger, events.WaveTransitionedKind, events.WaveTransitionedEvent{
		ProjectID: projectID,
		WaveID:    waveID,
		From:      string(from),
		To:        string(state),
		At:        ws.now(),
	})

	tracer.Success().WithString("from", string(from)).WithInt("version", updated.Version).Log()
	return updated, nil
}

func (ws *WaveService) transitionWave(ctx context.Context, projectID uuid.UUID, waveID uuid.UUID, next plan.WaveState, version int) (*model.Wave, plan.WaveState, error) {
	txCtx, err := ws.store.NewTransactionContext(ctx)
	if err != nil {
		return nil, "", err
	}

	state, err := loadState(txCtx, ws.store, projectID, stateOptions{snapshot: true, cohorts: true})
	if err != nil {
		rollback(txCtx)
		return nil, "", err
	}
	row, err := ws.getWave(txCtx, projectID, waveID)
	if err != nil {
		rollback(txCtx)
		return nil, "", err
	}
	if row.Version != version {
		rollback(txCtx)
		return nil, "", NewErrStaleVersion("wave", waveID.String())
	}

	w := row.ToPlan()
	from := w.State
	guard := plan.TransitionGuard{
		Preflight: row.LastPreflight(),
		Gate:      plan.GateFor(w.CohortID, state.cohorts.ToPlan()),
	}

	if next == plan.WavePreChecksPassed {
		guard.Preflight = ws.preflight(state, &w)
		if err := ws.store.Wave().SetPreflight(txCtx, waveID, guard.Preflight); err != nil {
			rollback(txCtx)
			return nil, "", fmt.Errorf("failed to store pre-flight report: %w", err)
		}
	}

	if err := w.Transition(next, guard, ws.now()); err != nil {
		var preflightErr *plan.ErrPreflightFailed
		if errors.As(err, &preflightErr) && next == plan.WavePreChecksPassed {
			// keep the failing report for the operator
			if _, cerr := store.Commit(txCtx); cerr != nil {
				return nil, "", cerr
			}
			return nil, "", err
		}
		rollback(txCtx)
		return nil, "", err
	}

	row.Apply(w)
	row.Preflight = model.MakeJSONField(guard.Preflight)
	updated, err := ws.store.Wave().Update(txCtx, *row)
	if err != nil {
		rollback(txCtx)
		if errors.Is(err, store.ErrVersionConflict) {
			return nil, "", NewErrStaleVersion("wave", waveID.String())
		}
		return nil, "", fmt.Errorf("failed to update wave: %w", err)
	}

	if _, err := store.Commit(txCtx); err != nil {
		return nil, "", err
	}
	return updated, from, nil
}

// DeleteWave removes a planned wave. Its VMs still marked assigned go back to
// not started.
func (ws *WaveService) DeleteWave(ctx context.Context, projectID uuid.UUID, waveID uuid.UUID) error {
	tracer := ws.logger.WithContext(ctx).Operation("delete_wave").
		WithUUID("project_id", projectID).
		WithUUID("wave_id", waveID).
		Build()

	txCtx, err := ws.store.NewTransactionContext(ctx)
	if err != nil {
		return err
	}

	row, err := ws.getWave(txCtx, projectID, waveID)
	if err != nil {
		rollback(txCtx)
		return err
	}
	w := row.ToPlan()
	if err := w.CanDelete(); err != nil {
		rollback(txCtx)
		tracer.Error(err).Log()
		return err
	}

	if err := ws.store.Wave().Delete(txCtx, waveID); err != nil {
		rollback(txCtx)
		return fmt.Errorf("failed to delete wave: %w", err)
	}

	latest, err := ws.store.Snapshot().Latest(txCtx, projectID)
	switch {
	case err == nil:
		held := make(map[string]bool, len(w.VMs))
		for _, vm := range w.VMs {
			held[vm.VMID] = true
		}
		inv := latest.Inventory.Data.Clone()
		_, err = ws.writeStatuses(txCtx, projectID, inv, func(vm inventory.VM) inventory.MigrationStatus {
			if held[vm.ID] && vm.CurrentStatus() == inventory.StatusAssigned {
				return inventory.StatusNotStarted
			}
			return vm.Status
		})
		if err != nil {
			rollback(txCtx)
			return err
		}
	case !errors.Is(err, store.ErrRecordNotFound):
		rollback(txCtx)
		return fmt.Errorf("failed to get latest snapshot: %w", err)
	}

	if _, err := store.Commit(txCtx); err != nil {
		return err
	}

	tracer.Success().WithInt("vms", len(w.VMs)).Log()
	return nil
}
