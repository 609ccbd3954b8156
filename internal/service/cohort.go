package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/kubev2v/migration-wave-planner/internal/cohort"
	"github.com/kubev2v/migration-wave-planner/internal/estimation/estimator"
	"github.com/kubev2v/migration-wave-planner/internal/events"
	"github.com/kubev2v/migration-wave-planner/internal/inventory"
	"github.com/kubev2v/migration-wave-planner/internal/plan"
	"github.com/kubev2v/migration-wave-planner/internal/service/mappers"
	"github.com/kubev2v/migration-wave-planner/internal/store"
	"github.com/kubev2v/migration-wave-planner/internal/store/model"
	"github.com/kubev2v/migration-wave-planner/pkg/log"
	"github.com/kubev2v/migration-wave-planner/pkg/metrics"
)

// CohortService previews, commits and drives the lifecycle of cohorts.
type CohortService struct {
	store         store.Store
	eventProducer *events.EventProducer
	logger        *log.StructuredLogger
}

func NewCohortService(store store.Store, eventProducer *events.EventProducer) *CohortService {
	return &CohortService{
		store:         store,
		eventProducer: eventProducer,
		logger:        log.NewDebugLogger("cohort_service"),
	}
}

// CohortSet is the committed cohorts of a project with their members as
// recorded in the snapshot they were read from.
type CohortSet struct {
	Cohorts         model.CohortList
	Members         map[string][]string
	SnapshotVersion int
}

type CohortCommitResult struct {
	CohortSet
	Unplaceable []cohort.Unplaceable
}

func (cs *CohortService) request(state *planningState, form mappers.CohortPlanForm) (cohort.Request, error) {
	strategy, err := cohort.ParseStrategy(form.Strategy)
	if err != nil {
		return cohort.Request{}, err
	}
	_, scores, err := state.scores()
	if err != nil {
		return cohort.Request{}, err
	}
	return cohort.Request{
		Snapshot:      state.inventory(),
		Scores:        scores,
		Strategy:      strategy,
		CohortCount:   form.CohortCount,
		Guardrails:    form.Guardrails,
		RiskThreshold: form.RiskThreshold,
		PilotSize:     form.PilotSize,
		Estimator:     estimator.New(state.config()),
	}, nil
}

// PreviewCohorts runs the assignment without writing anything.
func (cs *CohortService) PreviewCohorts(ctx context.Context, projectID uuid.UUID, form mappers.CohortPlanForm) (*cohort.Proposal, error) {
	tracer := cs.logger.WithContext(ctx).Operation("preview_cohorts").
		WithUUID("project_id", projectID).
		WithString("strategy", form.Strategy).
		WithInt("cohort_count", form.CohortCount).
		Build()

	state, err := loadState(ctx, cs.store, projectID, stateOptions{snapshot: true})
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	req, err := cs.request(state, form)
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	proposal, err := cohort.Assign(req)
	metrics.IncreasePlanningOperationMetric("preview_cohorts", err)
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	tracer.Success().
		WithInt("cohorts", len(proposal.Cohorts)).
		WithInt("unplaceable", len(proposal.Unplaceable)).
		Log()
	return proposal, nil
}

// PreviewRebalance proposes a balanced_load regrouping and the tenant moves it
// implies against the committed cohorts.
func (cs *CohortService) PreviewRebalance(ctx context.Context, projectID uuid.UUID, form mappers.CohortPlanForm) (*cohort.Rebalancing, error) {
	tracer := cs.logger.WithContext(ctx).Operation("preview_rebalance").
		WithUUID("project_id", projectID).
		WithInt("cohort_count", form.CohortCount).
		Build()

	state, err := loadState(ctx, cs.store, projectID, stateOptions{snapshot: true, cohorts: true})
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	form.Strategy = string(cohort.StrategyBalancedLoad)
	req, err := cs.request(state, form)
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	rebalancing, err := cohort.Rebalance(req, state.cohorts.ToPlan())
	metrics.IncreasePlanningOperationMetric("preview_rebalance", err)
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	tracer.Success().WithInt("moves", len(rebalancing.Diff)).Log()
	return rebalancing, nil
}

// CommitCohorts replaces the project's cohorts with a fresh assignment and
// writes the new tenant cohort references as a new snapshot version. It is
// refused once any cohort left planning or any wave left planned; planned
// waves are dropped since they belong to the old cohorts, and the VMs they
// held go back to not started.
func (cs *CohortService) CommitCohorts(ctx context.Context, projectID uuid.UUID, form mappers.CohortPlanForm) (*CohortCommitResult, error) {
	tracer := cs.logger.WithContext(ctx).Operation("commit_cohorts").
		WithUUID("project_id", projectID).
		WithString("strategy", form.Strategy).
		WithInt("cohort_count", form.CohortCount).
		WithInt("snapshot_version", form.SnapshotVersion).
		Build()

	result, err := cs.commitCohorts(ctx, projectID, form)
	metrics.IncreasePlanningOperationMetric("commit_cohorts", err)
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	for _, u := range result.Unplaceable {
		metrics.IncreaseUnplaceableTenantsMetric(string(u.Guardrail))
	}

	ids := make([]string, 0, len(result.Cohorts))
	for _, c := range result.Cohorts {
		ids = append(ids, c.ID)
	}
	publish(ctx, cs.eventProducer, cs.logger, events.CohortsCommittedKind, events.CohortsCommittedEvent{
		ProjectID:       projectID,
		Strategy:        form.Strategy,
		CohortIDs:       ids,
		Unplaceable:     len(result.Unplaceable),
		SnapshotVersion: result.SnapshotVersion,
	})

	tracer.Success().
		WithInt("cohorts", len(result.Cohorts)).
		WithInt("unplaceable", len(result.Unplaceable)).
		WithInt("snapshot_version", result.SnapshotVersion).
		Log()
	return result, nil
}

func (cs *CohortService) commitCohorts(ctx context.Context, projectID uuid.UUID, form mappers.CohortPlanForm) (*CohortCommitResult, error) {
	txCtx, err := cs.store.NewTransactionContext(ctx)
	if err != nil {
		return nil, err
	}

	state, err := loadState(txCtx, cs.store, projectID, stateOptions{snapshot: true, cohorts: true, waves: true})
	if err != nil {
		rollback(txCtx)
		return nil, err
	}

	if form.SnapshotVersion != 0 && form.SnapshotVersion != state.snapshot.Version {
		rollback(txCtx)
		return nil, NewErrConflict("snapshot version %d is not the latest (%d)", form.SnapshotVersion, state.snapshot.Version)
	}
	for _, c := range state.cohorts {
		if plan.CohortStatus(c.Status) != plan.CohortPlanning {
			rollback(txCtx)
			return nil, NewErrConflict("cohort %s is %s; cohorts can only be replaced while every cohort is planning", c.ID, c.Status)
		}
	}
	for _, w := range state.waves {
		switch plan.WaveState(w.State) {
		case plan.WavePlanned, plan.WaveCancelled:
		default:
			rollback(txCtx)
			return nil, NewErrConflict("wave %s is %s; cohorts can only be replaced before execution starts", w.ID, w.State)
		}
	}

	req, err := cs.request(state, form)
	if err != nil {
		rollback(txCtx)
		return nil, err
	}
	proposal, err := cohort.Assign(req)
	if err != nil {
		rollback(txCtx)
		return nil, err
	}

	released := make(map[string]bool)
	for _, w := range state.waves {
		for _, vm := range w.ToPlan().VMs {
			released[vm.VMID] = true
		}
		if err := cs.store.Wave().Delete(txCtx, w.ID); err != nil {
			rollback(txCtx)
			return nil, fmt.Errorf("failed to delete wave %s: %w", w.ID, err)
		}
	}
	if err := cs.store.Cohort().DeleteByProject(txCtx, projectID); err != nil {
		rollback(txCtx)
		return nil, fmt.Errorf("failed to delete cohorts: %w", err)
	}

	created := make(model.CohortList, 0, len(proposal.Cohorts))
	byOrder := make(map[int]string, len(proposal.Cohorts))
	predecessor := ""
	for _, summary := range proposal.Cohorts {
		c := plan.Cohort{
			ID:            uuid.NewString(),
			Name:          summary.Name,
			Order:         summary.Order,
			Status:        plan.CohortPlanning,
			PredecessorID: predecessor,
		}
		row, err := cs.store.Cohort().Create(txCtx, model.NewCohort(projectID, c, string(proposal.Strategy)))
		if err != nil {
			rollback(txCtx)
			return nil, fmt.Errorf("failed to create cohort %q: %w", summary.Name, err)
		}
		created = append(created, *row)
		byOrder[summary.Order] = row.ID
		predecessor = row.ID
	}

	inv := req.Snapshot.Clone()
	for i, t := range inv.Tenants {
		if !t.IncludeInPlan {
			continue
		}
		if id, ok := byOrder[proposal.CohortOf(t.ID)]; ok {
			inv.Tenants[i].Cohort = inventory.AssignedTo(id)
		} else {
			inv.Tenants[i].Cohort = inventory.Unassigned()
		}
	}
	for i, vm := range inv.VMs {
		if released[vm.ID] && vm.CurrentStatus() == inventory.StatusAssigned {
			inv.VMs[i].Status = inventory.StatusNotStarted
		}
	}
	snapshot, err := cs.store.Snapshot().Create(txCtx, projectID, *inv)
	if err != nil {
		rollback(txCtx)
		if errors.Is(err, store.ErrVersionConflict) {
			return nil, NewErrStaleVersion("snapshot of project", projectID.String())
		}
		return nil, fmt.Errorf("failed to store snapshot: %w", err)
	}

	if _, err := store.Commit(txCtx); err != nil {
		return nil, err
	}

	return &CohortCommitResult{
		CohortSet: CohortSet{
			Cohorts:         created,
			Members:         mappers.CohortMembers(inv),
			SnapshotVersion: snapshot.Version,
		},
		Unplaceable: proposal.Unplaceable,
	}, nil
}

func (cs *CohortService) ListCohorts(ctx context.Context, projectID uuid.UUID) (*CohortSet, error) {
	state, err := loadState(ctx, cs.store, projectID, stateOptions{cohorts: true})
	if err != nil {
		return nil, err
	}

	set := &CohortSet{Cohorts: state.cohorts, Members: map[string][]string{}}
	latest, err := cs.store.Snapshot().Latest(ctx, projectID)
	switch {
	case err == nil:
		set.Members = mappers.CohortMembers(&latest.Inventory.Data)
		set.SnapshotVersion = latest.Version
	case !errors.Is(err, store.ErrRecordNotFound):
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}
	return set, nil
}

func (cs *CohortService) GetCohort(ctx context.Context, projectID uuid.UUID, cohortID string) (*model.Cohort, error) {
	if _, err := getProject(ctx, cs.store, projectID); err != nil {
		return nil, err
	}
	return cs.getCohort(ctx, projectID, cohortID)
}

func (cs *CohortService) getCohort(ctx context.Context, projectID uuid.UUID, cohortID string) (*model.Cohort, error) {
	c, err := cs.store.Cohort().Get(ctx, cohortID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrCohortNotFound(cohortID)
		}
		return nil, fmt.Errorf("failed to get cohort: %w", err)
	}
	if c.ProjectID != projectID {
		return nil, NewErrCohortNotFound(cohortID)
	}
	return c, nil
}

// UpdateCohort changes the name, predecessor or resource overrides of a
// cohort. An empty predecessor id removes the gate.
func (cs *CohortService) UpdateCohort(ctx context.Context, projectID uuid.UUID, cohortID string, form mappers.CohortUpdateForm) (*model.Cohort, error) {
	tracer := cs.logger.WithContext(ctx).Operation("update_cohort").
		WithUUID("project_id", projectID).
		WithString("cohort_id", cohortID).
		WithInt("version", form.Version).
		Build()

	txCtx, err := cs.store.NewTransactionContext(ctx)
	if err != nil {
		return nil, err
	}

	state, err := loadState(txCtx, cs.store, projectID, stateOptions{cohorts: true})
	if err != nil {
		rollback(txCtx)
		return nil, err
	}
	c, err := cs.getCohort(txCtx, projectID, cohortID)
	if err != nil {
		rollback(txCtx)
		return nil, err
	}

	next := c.ToPlan()
	if form.Name != nil {
		next.Name = *form.Name
	}
	if form.Overrides != nil {
		next.Overrides = *form.Overrides
	}
	if form.PredecessorID != nil {
		if err := checkPredecessor(state.cohorts.ToPlan(), cohortID, *form.PredecessorID); err != nil {
			rollback(txCtx)
			tracer.Error(err).Log()
			return nil, err
		}
		next.PredecessorID = *form.PredecessorID
	}

	c.Apply(next)
	c.Version = form.Version
	updated, err := cs.store.Cohort().Update(txCtx, *c)
	if err != nil {
		rollback(txCtx)
		tracer.Error(err).Log()
		if errors.Is(err, store.ErrVersionConflict) {
			return nil, NewErrStaleVersion("cohort", cohortID)
		}
		return nil, fmt.Errorf("failed to update cohort: %w", err)
	}

	if _, err := store.Commit(txCtx); err != nil {
		return nil, err
	}

	tracer.Success().WithInt("version", updated.Version).Log()
	return updated, nil
}

// checkPredecessor rejects unknown predecessors and gates that would loop.
func checkPredecessor(cohorts []plan.Cohort, cohortID, predecessorID string) error {
	if predecessorID == "" {
		return nil
	}
	if predecessorID == cohortID {
		return NewErrInvalidRequest("cohort %s cannot be its own predecessor", cohortID)
	}

	byID := make(map[string]plan.Cohort, len(cohorts))
	for _, c := range cohorts {
		byID[c.ID] = c
	}
	if _, ok := byID[predecessorID]; !ok {
		return NewErrInvalidRequest("predecessor %s is not a cohort of this project", predecessorID)
	}

	seen := map[string]bool{cohortID: true}
	for id := predecessorID; id != ""; id = byID[id].PredecessorID {
		if seen[id] {
			return NewErrInvalidRequest("predecessor %s would create a gate cycle", predecessorID)
		}
		seen[id] = true
	}
	return nil
}

// TransitionCohort moves a cohort through its lifecycle.
func (cs *CohortService) TransitionCohort(ctx context.Context, projectID uuid.UUID, cohortID string, status plan.CohortStatus, version int) (*model.Cohort, error) {
	tracer := cs.logger.WithContext(ctx).Operation("transition_cohort").
		WithUUID("project_id", projectID).
		WithString("cohort_id", cohortID).
		WithString("status", string(status)).
		WithInt("version", version).
		Build()

	txCtx, err := cs.store.NewTransactionContext(ctx)
	if err != nil {
		return nil, err
	}

	state, err := loadState(txCtx, cs.store, projectID, stateOptions{cohorts: true})
	if err != nil {
		rollback(txCtx)
		return nil, err
	}
	c, err := cs.getCohort(txCtx, projectID, cohortID)
	if err != nil {
		rollback(txCtx)
		return nil, err
	}
	if c.Version != version {
		rollback(txCtx)
		return nil, NewErrStaleVersion("cohort", cohortID)
	}

	current := c.ToPlan()
	from := current.Status
	gate := plan.GateFor(cohortID, state.cohorts.ToPlan())
	if err := current.Transition(status, gate.Predecessor); err != nil {
		rollback(txCtx)
		tracer.Error(err).Log()
		return nil, err
	}

	c.Apply(current)
	updated, err := cs.store.Cohort().Update(txCtx, *c)
	if err != nil {
		rollback(txCtx)
		tracer.Error(err).Log()
		if errors.Is(err, store.ErrVersionConflict) {
			return nil, NewErrStaleVersion("cohort", cohortID)
		}
		return nil, fmt.Errorf("failed to update cohort: %w", err)
	}

	if _, err := store.Commit(txCtx); err != nil {
		return nil, err
	}

	metrics.IncreaseCohortTransitionsMetric(string(status))
	publish(ctx, cs.eventProducer, cs.logger, events.CohortTransitionedKind, events.CohortTransitionedEvent{
		ProjectID: projectID,
		CohortID:  cohortID,
		From:      string(from),
		To:        string(status),
	})

	tracer.Success().WithString("from", string(from)).WithInt("version", updated.Version).Log()
	return updated, nil
}
