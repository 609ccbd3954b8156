package v1alpha1

import (
	"net/http"

	api "github.com/kubev2v/migration-wave-planner/api/v1alpha1"
	"github.com/kubev2v/migration-wave-planner/internal/service/mappers"
	"github.com/kubev2v/migration-wave-planner/pkg/log"
)

// (GET /api/v1/projects/{id}/estimate)
func (h *ServiceHandler) GetEstimate(w http.ResponseWriter, r *http.Request) {
	tracer := log.NewDebugLogger("estimation_handler").
		WithContext(r.Context()).
		Operation("get_estimate").
		WithString("project_id", chiParam(r, "id")).
		Build()

	id, err := projectID(r)
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}

	estimate, err := h.estimationSrv.Estimate(r.Context(), id)
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}

	tracer.Success().
		WithFloat("bandwidth_days", estimate.Totals.BandwidthDays).
		WithFloat("slot_days", estimate.Totals.SlotDays).
		Log()
	reply(w, r, http.StatusOK, estimate)
}

// (POST /api/v1/projects/{id}/sizing)
func (h *ServiceHandler) CalculateSizing(w http.ResponseWriter, r *http.Request) {
	tracer := log.NewDebugLogger("sizer_handler").
		WithContext(r.Context()).
		Operation("calculate_sizing").
		WithString("project_id", chiParam(r, "id")).
		Build()

	id, err := projectID(r)
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}
	var body api.SizingRequest
	if r.ContentLength != 0 {
		if err := h.decode(r, &body); err != nil {
			replyError(w, r, tracer, err)
			return
		}
	}

	result, err := h.sizerSrv.CalculateSizing(r.Context(), id, mappers.SizingFormFromApi(body))
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}

	tracer.Success().WithInt("required_nodes", result.Project.RequiredNodes).Log()
	reply(w, r, http.StatusOK, mappers.SizingToApi(result.Project, result.Cohorts))
}
