package v1alpha1

import (
	"net/http"

	api "github.com/kubev2v/migration-wave-planner/api/v1alpha1"
	"github.com/kubev2v/migration-wave-planner/internal/plan"
	"github.com/kubev2v/migration-wave-planner/internal/service/mappers"
	"github.com/kubev2v/migration-wave-planner/pkg/log"
)

// (POST /api/v1/projects/{id}/waves/preview)
func (h *ServiceHandler) PreviewWaves(w http.ResponseWriter, r *http.Request) {
	tracer := log.NewDebugLogger("wave_handler").
		WithContext(r.Context()).
		Operation("preview_waves").
		WithString("project_id", chiParam(r, "id")).
		Build()

	id, err := projectID(r)
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}
	var body api.WavePlanRequest
	if err := h.decode(r, &body); err != nil {
		replyError(w, r, tracer, err)
		return
	}

	result, err := h.waveSrv.PreviewWaves(r.Context(), id, mappers.WavePlanFormFromApi(body))
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}

	reply(w, r, http.StatusOK, result)
}

// (POST /api/v1/projects/{id}/waves)
func (h *ServiceHandler) CommitWaves(w http.ResponseWriter, r *http.Request) {
	tracer := log.NewDebugLogger("wave_handler").
		WithContext(r.Context()).
		Operation("commit_waves").
		WithString("project_id", chiParam(r, "id")).
		Build()

	id, err := projectID(r)
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}
	var body api.WaveCommitRequest
	if err := h.decode(r, &body); err != nil {
		replyError(w, r, tracer, err)
		return
	}

	result, err := h.waveSrv.CommitWaves(r.Context(), id, mappers.WaveCommitFormFromApi(body))
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}

	tracer.Success().WithInt("waves", len(result.Waves)).Log()
	reply(w, r, http.StatusCreated, mappers.WaveListToApi(result.Waves))
}

// (GET /api/v1/projects/{id}/waves)
func (h *ServiceHandler) ListWaves(w http.ResponseWriter, r *http.Request) {
	tracer := log.NewDebugLogger("wave_handler").
		WithContext(r.Context()).
		Operation("list_waves").
		WithString("project_id", chiParam(r, "id")).
		WithString("cohort_id", r.URL.Query().Get("cohort")).
		Build()

	id, err := projectID(r)
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}

	waves, err := h.waveSrv.ListWaves(r.Context(), id, r.URL.Query().Get("cohort"))
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}

	reply(w, r, http.StatusOK, mappers.WaveListToApi(waves))
}

// (GET /api/v1/projects/{id}/waves/{waveId})
func (h *ServiceHandler) GetWave(w http.ResponseWriter, r *http.Request) {
	tracer := log.NewDebugLogger("wave_handler").
		WithContext(r.Context()).
		Operation("get_wave").
		WithString("project_id", chiParam(r, "id")).
		WithString("wave_id", chiParam(r, "waveId")).
		Build()

	id, err := projectID(r)
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}
	waveID, err := uuidParam(r, "waveId")
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}

	wave, err := h.waveSrv.GetWave(r.Context(), id, waveID)
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}

	reply(w, r, http.StatusOK, mappers.WaveToApi(*wave))
}

// (POST /api/v1/projects/{id}/waves/{waveId}/preflight)
func (h *ServiceHandler) RunPreflight(w http.ResponseWriter, r *http.Request) {
	tracer := log.NewDebugLogger("wave_handler").
		WithContext(r.Context()).
		Operation("run_preflight").
		WithString("project_id", chiParam(r, "id")).
		WithString("wave_id", chiParam(r, "waveId")).
		Build()

	id, err := projectID(r)
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}
	waveID, err := uuidParam(r, "waveId")
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}

	report, err := h.waveSrv.RunPreflight(r.Context(), id, waveID)
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}

	tracer.Success().WithBool("blocked", report.Blocked()).Log()
	reply(w, r, http.StatusOK, report)
}

// (POST /api/v1/projects/{id}/waves/{waveId}/transition)
func (h *ServiceHandler) TransitionWave(w http.ResponseWriter, r *http.Request) {
	tracer := log.NewDebugLogger("wave_handler").
		WithContext(r.Context()).
		Operation("transition_wave").
		WithString("project_id", chiParam(r, "id")).
		WithString("wave_id", chiParam(r, "waveId")).
		Build()

	id, err := projectID(r)
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}
	waveID, err := uuidParam(r, "waveId")
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}
	var body api.WaveTransition
	if err := h.decode(r, &body); err != nil {
		replyError(w, r, tracer, err)
		return
	}

	wave, err := h.waveSrv.TransitionWave(r.Context(), id, waveID, plan.WaveState(body.State), body.Version)
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}

	tracer.Success().WithString("state", wave.State).Log()
	reply(w, r, http.StatusOK, mappers.WaveToApi(*wave))
}

// (DELETE /api/v1/projects/{id}/waves/{waveId})
func (h *ServiceHandler) DeleteWave(w http.ResponseWriter, r *http.Request) {
	tracer := log.NewDebugLogger("wave_handler").
		WithContext(r.Context()).
		Operation("delete_wave").
		WithString("project_id", chiParam(r, "id")).
		WithString("wave_id", chiParam(r, "waveId")).
		Build()

	id, err := projectID(r)
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}
	waveID, err := uuidParam(r, "waveId")
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}

	if err := h.waveSrv.DeleteWave(r.Context(), id, waveID); err != nil {
		replyError(w, r, tracer, err)
		return
	}

	tracer.Success().Log()
	w.WriteHeader(http.StatusNoContent)
}
