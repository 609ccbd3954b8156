package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/kubev2v/migration-wave-planner/internal/service/mappers"
	"github.com/kubev2v/migration-wave-planner/internal/sizing"
	"github.com/kubev2v/migration-wave-planner/internal/store"
	"github.com/kubev2v/migration-wave-planner/pkg/log"
	"github.com/kubev2v/migration-wave-planner/pkg/metrics"
)

// SizerService computes how many target nodes the in-scope workload needs.
type SizerService struct {
	store  store.Store
	logger *log.StructuredLogger
}

func NewSizerService(store store.Store) *SizerService {
	return &SizerService{
		store:  store,
		logger: log.NewDebugLogger("sizer_service"),
	}
}

type SizingResult struct {
	Project *sizing.Result
	Cohorts []sizing.CohortResult
}

func (ss *SizerService) CalculateSizing(ctx context.Context, projectID uuid.UUID, form mappers.SizingForm) (*SizingResult, error) {
	tracer := ss.logger.WithContext(ctx).Operation("calculate_sizing").
		WithUUID("project_id", projectID).
		WithBool("per_cohort", form.PerCohort).
		WithBool("explicit_profile", form.Profile != nil).
		Build()

	opts := stateOptions{snapshot: true, cohorts: form.PerCohort}
	state, err := loadState(ctx, ss.store, projectID, opts)
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	inv := state.inventory()
	req := sizing.NewRequest(inv, state.config())
	req.Profile = form.Profile

	project, err := sizing.Calculate(req)
	metrics.IncreasePlanningOperationMetric("sizing", err)
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}
	result := &SizingResult{Project: project}

	if form.PerCohort {
		result.Cohorts, err = sizing.SizeCohorts(req, inv, state.cohorts.ToPlan())
		if err != nil {
			tracer.Error(err).Log()
			return nil, err
		}
	}

	tracer.Success().
		WithString("basis", string(project.Basis)).
		WithInt("required_nodes", project.RequiredNodes).
		WithInt("additional_nodes", project.AdditionalNodes).
		Log()
	return result, nil
}
