package v1alpha1

import (
	"net/http"

	api "github.com/kubev2v/migration-wave-planner/api/v1alpha1"
	"github.com/kubev2v/migration-wave-planner/internal/inventory"
	"github.com/kubev2v/migration-wave-planner/internal/service/mappers"
	"github.com/kubev2v/migration-wave-planner/pkg/log"
)

// (POST /api/v1/projects/{id}/vms/{vmId}/status)
//
// Called by the external execution tool as VMs move through migration.
func (h *ServiceHandler) ReportVMStatus(w http.ResponseWriter, r *http.Request) {
	tracer := log.NewDebugLogger("execution_handler").
		WithContext(r.Context()).
		Operation("report_vm_status").
		WithString("project_id", chiParam(r, "id")).
		WithString("vm_id", chiParam(r, "vmId")).
		Build()

	id, err := projectID(r)
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}
	var body api.VMStatusUpdate
	if err := h.decode(r, &body); err != nil {
		replyError(w, r, tracer, err)
		return
	}

	result, err := h.executionSrv.ReportVMStatus(r.Context(), id, chiParam(r, "vmId"), inventory.MigrationStatus(body.Status))
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}

	tracer.Success().WithInt("snapshot_version", result.SnapshotVersion).Log()
	reply(w, r, http.StatusOK, mappers.VMStatusToApi(result.VMID, result.Status, result.SnapshotVersion))
}

// (GET /api/v1/projects/{id}/funnel)
func (h *ServiceHandler) GetFunnel(w http.ResponseWriter, r *http.Request) {
	tracer := log.NewDebugLogger("execution_handler").
		WithContext(r.Context()).
		Operation("get_funnel").
		WithString("project_id", chiParam(r, "id")).
		WithString("cohort_id", r.URL.Query().Get("cohort")).
		Build()

	id, err := projectID(r)
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}

	funnel, err := h.executionSrv.Funnel(r.Context(), id, r.URL.Query().Get("cohort"))
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}

	reply(w, r, http.StatusOK, funnel)
}
