package v1alpha1

import (
	"net/http"

	api "github.com/kubev2v/migration-wave-planner/api/v1alpha1"
	"github.com/kubev2v/migration-wave-planner/internal/plan"
	"github.com/kubev2v/migration-wave-planner/internal/service/mappers"
	"github.com/kubev2v/migration-wave-planner/internal/store/model"
	"github.com/kubev2v/migration-wave-planner/pkg/log"
)

// (POST /api/v1/projects/{id}/cohorts/preview)
func (h *ServiceHandler) PreviewCohorts(w http.ResponseWriter, r *http.Request) {
	tracer := log.NewDebugLogger("cohort_handler").
		WithContext(r.Context()).
		Operation("preview_cohorts").
		WithString("project_id", chiParam(r, "id")).
		Build()

	id, err := projectID(r)
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}
	var body api.CohortPlanRequest
	if err := h.decode(r, &body); err != nil {
		replyError(w, r, tracer, err)
		return
	}

	proposal, err := h.cohortSrv.PreviewCohorts(r.Context(), id, mappers.CohortPlanFormFromApi(body))
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}

	tracer.Success().WithInt("cohorts", len(proposal.Cohorts)).Log()
	reply(w, r, http.StatusOK, proposal)
}

// (POST /api/v1/projects/{id}/cohorts)
func (h *ServiceHandler) CommitCohorts(w http.ResponseWriter, r *http.Request) {
	tracer := log.NewDebugLogger("cohort_handler").
		WithContext(r.Context()).
		Operation("commit_cohorts").
		WithString("project_id", chiParam(r, "id")).
		Build()

	id, err := projectID(r)
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}
	var body api.CohortCommitRequest
	if err := h.decode(r, &body); err != nil {
		replyError(w, r, tracer, err)
		return
	}

	result, err := h.cohortSrv.CommitCohorts(r.Context(), id, mappers.CohortCommitFormFromApi(body))
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}

	tracer.Success().WithInt("cohorts", len(result.Cohorts)).WithInt("snapshot_version", result.SnapshotVersion).Log()
	reply(w, r, http.StatusCreated, mappers.CohortCommitToApi(result.Cohorts, result.Members, result.Unplaceable, result.SnapshotVersion))
}

// (POST /api/v1/projects/{id}/cohorts/rebalance)
func (h *ServiceHandler) PreviewRebalance(w http.ResponseWriter, r *http.Request) {
	tracer := log.NewDebugLogger("cohort_handler").
		WithContext(r.Context()).
		Operation("preview_rebalance").
		WithString("project_id", chiParam(r, "id")).
		Build()

	id, err := projectID(r)
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}
	var body api.RebalanceRequest
	if err := h.decode(r, &body); err != nil {
		replyError(w, r, tracer, err)
		return
	}

	rebalancing, err := h.cohortSrv.PreviewRebalance(r.Context(), id, mappers.RebalanceFormFromApi(body))
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}

	reply(w, r, http.StatusOK, rebalancing)
}

// (GET /api/v1/projects/{id}/cohorts)
func (h *ServiceHandler) ListCohorts(w http.ResponseWriter, r *http.Request) {
	tracer := log.NewDebugLogger("cohort_handler").
		WithContext(r.Context()).
		Operation("list_cohorts").
		WithString("project_id", chiParam(r, "id")).
		Build()

	id, err := projectID(r)
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}

	set, err := h.cohortSrv.ListCohorts(r.Context(), id)
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}

	reply(w, r, http.StatusOK, mappers.CohortListToApi(set.Cohorts, set.Members))
}

// (GET /api/v1/projects/{id}/cohorts/{cohortId})
func (h *ServiceHandler) GetCohort(w http.ResponseWriter, r *http.Request) {
	tracer := log.NewDebugLogger("cohort_handler").
		WithContext(r.Context()).
		Operation("get_cohort").
		WithString("project_id", chiParam(r, "id")).
		WithString("cohort_id", chiParam(r, "cohortId")).
		Build()

	id, err := projectID(r)
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}

	c, err := h.cohortSrv.GetCohort(r.Context(), id, chiParam(r, "cohortId"))
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}

	h.replyCohort(w, r, tracer, c)
}

// (PATCH /api/v1/projects/{id}/cohorts/{cohortId})
func (h *ServiceHandler) UpdateCohort(w http.ResponseWriter, r *http.Request) {
	tracer := log.NewDebugLogger("cohort_handler").
		WithContext(r.Context()).
		Operation("update_cohort").
		WithString("project_id", chiParam(r, "id")).
		WithString("cohort_id", chiParam(r, "cohortId")).
		Build()

	id, err := projectID(r)
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}
	var body api.CohortUpdate
	if err := h.decode(r, &body); err != nil {
		replyError(w, r, tracer, err)
		return
	}

	c, err := h.cohortSrv.UpdateCohort(r.Context(), id, chiParam(r, "cohortId"), mappers.CohortUpdateFormFromApi(body))
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}

	tracer.Success().WithInt("version", c.Version).Log()
	h.replyCohort(w, r, tracer, c)
}

// (POST /api/v1/projects/{id}/cohorts/{cohortId}/transition)
func (h *ServiceHandler) TransitionCohort(w http.ResponseWriter, r *http.Request) {
	tracer := log.NewDebugLogger("cohort_handler").
		WithContext(r.Context()).
		Operation("transition_cohort").
		WithString("project_id", chiParam(r, "id")).
		WithString("cohort_id", chiParam(r, "cohortId")).
		Build()

	id, err := projectID(r)
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}
	var body api.CohortTransition
	if err := h.decode(r, &body); err != nil {
		replyError(w, r, tracer, err)
		return
	}

	c, err := h.cohortSrv.TransitionCohort(r.Context(), id, chiParam(r, "cohortId"), plan.CohortStatus(body.Status), body.Version)
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}

	tracer.Success().WithString("status", c.Status).Log()
	h.replyCohort(w, r, tracer, c)
}

// replyCohort writes c with its members as of the latest snapshot.
func (h *ServiceHandler) replyCohort(w http.ResponseWriter, r *http.Request, tracer *log.OperationTracer, c *model.Cohort) {
	set, err := h.cohortSrv.ListCohorts(r.Context(), c.ProjectID)
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}
	reply(w, r, http.StatusOK, mappers.CohortToApi(*c, set.Members))
}
