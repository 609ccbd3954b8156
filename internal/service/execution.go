package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/kubev2v/migration-wave-planner/internal/inventory"
	"github.com/kubev2v/migration-wave-planner/internal/plan"
	"github.com/kubev2v/migration-wave-planner/internal/store"
	"github.com/kubev2v/migration-wave-planner/pkg/log"
	"github.com/kubev2v/migration-wave-planner/pkg/metrics"
)

// ExecutionService records what the external execution tool reports about
// VMs and rolls it up into the migration funnel.
type ExecutionService struct {
	store  store.Store
	logger *log.StructuredLogger
}

func NewExecutionService(store store.Store) *ExecutionService {
	return &ExecutionService{
		store:  store,
		logger: log.NewDebugLogger("execution_service"),
	}
}

type VMStatusResult struct {
	VMID            string
	Status          inventory.MigrationStatus
	SnapshotVersion int
}

// ReportVMStatus applies a status report to one VM and stores the result as a
// new snapshot version. Reporting the current status again writes nothing.
func (es *ExecutionService) ReportVMStatus(ctx context.Context, projectID uuid.UUID, vmID string, status inventory.MigrationStatus) (*VMStatusResult, error) {
	tracer := es.logger.WithContext(ctx).Operation("report_vm_status").
		WithUUID("project_id", projectID).
		WithString("vm_id", vmID).
		WithString("status", string(status)).
		Build()

	if !status.Valid() {
		return nil, NewErrInvalidRequest("unknown migration status %q", status)
	}

	txCtx, err := es.store.NewTransactionContext(ctx)
	if err != nil {
		return nil, err
	}

	state, err := loadState(txCtx, es.store, projectID, stateOptions{snapshot: true})
	if err != nil {
		rollback(txCtx)
		tracer.Error(err).Log()
		return nil, err
	}

	inv := state.inventory()
	idx := -1
	for i, vm := range inv.VMs {
		if vm.ID == vmID {
			idx = i
			break
		}
	}
	if idx < 0 {
		rollback(txCtx)
		return nil, NewErrVMNotFound(vmID)
	}

	current := inv.VMs[idx].CurrentStatus()
	if current == status {
		rollback(txCtx)
		tracer.Success().WithBool("changed", false).Log()
		return &VMStatusResult{VMID: vmID, Status: status, SnapshotVersion: state.snapshot.Version}, nil
	}
	if !current.CanTransitionTo(status) {
		rollback(txCtx)
		err := plan.NewErrInvalidTransition("vm", string(current), string(status))
		tracer.Error(err).Log()
		return nil, err
	}

	inv.VMs[idx].Status = status
	snapshot, err := es.store.Snapshot().Create(txCtx, projectID, *inv)
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

	tracer.Success().
		WithString("from", string(current)).
		WithInt("snapshot_version", snapshot.Version).
		Log()
	return &VMStatusResult{VMID: vmID, Status: status, SnapshotVersion: snapshot.Version}, nil
}

// Funnel counts in-scope VMs by migration status, optionally only those of one
// cohort. It is computed fresh on every call.
func (es *ExecutionService) Funnel(ctx context.Context, projectID uuid.UUID, cohortID string) (*plan.Funnel, error) {
	tracer := es.logger.WithContext(ctx).Operation("compute_funnel").
		WithUUID("project_id", projectID).
		WithString("cohort_id", cohortID).
		Build()

	state, err := loadState(ctx, es.store, projectID, stateOptions{snapshot: true})
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	inv := state.inventory()
	filter := plan.FunnelFilter{}
	if cohortID != "" {
		c, err := es.store.Cohort().Get(ctx, cohortID)
		if err != nil || c.ProjectID != projectID {
			if err == nil || errors.Is(err, store.ErrRecordNotFound) {
				return nil, NewErrCohortNotFound(cohortID)
			}
			return nil, fmt.Errorf("failed to get cohort: %w", err)
		}
		filter = plan.CohortFunnelFilter(inv, cohortID)
	}

	funnel := plan.ComputeFunnel(inv.InScopeVMs(), filter)
	if cohortID == "" {
		for status, count := range funnel.Counts {
			metrics.UpdateFunnelMetric(projectID.String(), string(status), count)
		}
	}

	tracer.Success().
		WithInt("total", funnel.Total).
		WithFloat("completion_pct", funnel.CompletionPct).
		Log()
	return &funnel, nil
}
