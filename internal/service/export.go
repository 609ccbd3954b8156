package service

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/kubev2v/migration-wave-planner/internal/estimation/estimator"
	"github.com/kubev2v/migration-wave-planner/internal/export"
	"github.com/kubev2v/migration-wave-planner/internal/plan"
	"github.com/kubev2v/migration-wave-planner/internal/store"
	"github.com/kubev2v/migration-wave-planner/pkg/log"
	"github.com/kubev2v/migration-wave-planner/pkg/metrics"
)

// ObjectPublisher uploads a rendered plan.
type ObjectPublisher interface {
	Publish(ctx context.Context, key, contentType string, content []byte) (*export.Object, error)
}

// ExportService renders the current plan of a project.
type ExportService struct {
	store     store.Store
	publisher ObjectPublisher
	logger    *log.StructuredLogger
}

// NewExportService builds the service; a nil publisher disables Publish.
func NewExportService(store store.Store, publisher ObjectPublisher) *ExportService {
	return &ExportService{
		store:     store,
		publisher: publisher,
		logger:    log.NewDebugLogger("export_service"),
	}
}

func (es *ExportService) planData(ctx context.Context, projectID uuid.UUID) (*export.PlanData, error) {
	state, err := loadState(ctx, es.store, projectID, stateOptions{snapshot: true, cohorts: true, waves: true})
	if err != nil {
		return nil, err
	}

	inv := state.inventory()
	cohorts := state.cohorts.ToPlan()
	return &export.PlanData{
		ProjectID:       projectID,
		ProjectName:     state.project.Name,
		SnapshotVersion: state.snapshot.Version,
		GeneratedAt:     time.Now(),
		Inventory:       inv,
		Cohorts:         cohorts,
		Waves:           state.waves.ToPlan(),
		Estimate:        estimator.New(state.config()).EstimateProject(inv, cohorts),
		Funnel:          plan.ComputeFunnel(inv.InScopeVMs(), plan.FunnelFilter{}),
	}, nil
}

// Export renders the plan into w and returns the suggested file name.
func (es *ExportService) Export(ctx context.Context, projectID uuid.UUID, format export.Format, w io.Writer) (string, error) {
	tracer := es.logger.WithContext(ctx).Operation("export_plan").
		WithUUID("project_id", projectID).
		WithString("format", string(format)).
		Build()

	renderer, err := export.NewRenderer(format)
	if err != nil {
		return "", NewErrInvalidRequest("%s", err)
	}

	data, err := es.planData(ctx, projectID)
	if err != nil {
		return "", err
	}

	err = renderer.Render(w, data)
	metrics.IncreasePlanningOperationMetric("export", err)
	if err != nil {
		tracer.Error(err).Log()
		return "", err
	}

	tracer.Success().WithInt("snapshot_version", data.SnapshotVersion).Log()
	return export.FileName(data, format), nil
}

// Publish renders the plan and uploads it to object storage.
func (es *ExportService) Publish(ctx context.Context, projectID uuid.UUID, format export.Format) (*export.Object, error) {
	tracer := es.logger.WithContext(ctx).Operation("publish_plan").
		WithUUID("project_id", projectID).
		WithString("format", string(format)).
		Build()

	if es.publisher == nil {
		return nil, NewErrExportUnavailable()
	}

	renderer, err := export.NewRenderer(format)
	if err != nil {
		return nil, NewErrInvalidRequest("%s", err)
	}

	data, err := es.planData(ctx, projectID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := renderer.Render(&buf, data); err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	object, err := es.publisher.Publish(ctx, export.FileName(data, format), renderer.ContentType(), buf.Bytes())
	metrics.IncreasePlanningOperationMetric("publish", err)
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	tracer.Success().
		WithString("bucket", object.Bucket).
		WithString("key", object.Key).
		Log()
	return object, nil
}
