package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/kubev2v/migration-wave-planner/internal/estimation/estimator"
	"github.com/kubev2v/migration-wave-planner/internal/store"
	"github.com/kubev2v/migration-wave-planner/pkg/log"
	"github.com/kubev2v/migration-wave-planner/pkg/metrics"
)

// EstimationService runs the duration estimator over a project's latest
// inventory and committed cohorts.
type EstimationService struct {
	store  store.Store
	logger *log.StructuredLogger
}

func NewEstimationService(store store.Store) *EstimationService {
	return &EstimationService{
		store:  store,
		logger: log.NewDebugLogger("estimation_service"),
	}
}

// Estimate reports both duration models per cohort, the project totals and the
// daily schedule. Cohort resource overrides apply to their own group only.
func (es *EstimationService) Estimate(ctx context.Context, projectID uuid.UUID) (*estimator.ProjectEstimate, error) {
	tracer := es.logger.WithContext(ctx).Operation("estimate_project").
		WithUUID("project_id", projectID).
		Build()

	state, err := loadState(ctx, es.store, projectID, stateOptions{snapshot: true, cohorts: true})
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	estimate := estimator.New(state.config()).EstimateProject(state.inventory(), state.cohorts.ToPlan())
	metrics.IncreasePlanningOperationMetric("estimate", nil)

	tracer.Success().
		WithInt("groups", len(estimate.Groups)).
		WithFloat("bandwidth_days", estimate.Totals.BandwidthDays).
		WithFloat("slot_days", estimate.Totals.SlotDays).
		WithBool("models_disagree", estimate.Totals.ModelsDisagree).
		Log()
	return estimate, nil
}
