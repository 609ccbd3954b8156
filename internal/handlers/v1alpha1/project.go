package v1alpha1

import (
	"net/http"

	api "github.com/kubev2v/migration-wave-planner/api/v1alpha1"
	"github.com/kubev2v/migration-wave-planner/internal/inventory"
	"github.com/kubev2v/migration-wave-planner/internal/service/mappers"
	"github.com/kubev2v/migration-wave-planner/pkg/log"
	"github.com/kubev2v/migration-wave-planner/pkg/version"
)

// (GET /health)
func (h *ServiceHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// (GET /api/v1/info)
func (h *ServiceHandler) GetInfo(w http.ResponseWriter, r *http.Request) {
	info := version.Get()
	reply(w, r, http.StatusOK, api.Info{GitCommit: info.GitCommit, VersionName: info.GitVersion})
}

// (GET /api/v1/projects)
func (h *ServiceHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	tracer := log.NewDebugLogger("project_handler").
		WithContext(r.Context()).
		Operation("list_projects").
		WithString("name", r.URL.Query().Get("name")).
		Build()

	projects, err := h.projectSrv.ListProjects(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}

	tracer.Success().WithInt("count", len(projects)).Log()
	reply(w, r, http.StatusOK, mappers.ProjectListToApi(projects))
}

// (POST /api/v1/projects)
func (h *ServiceHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	tracer := log.NewDebugLogger("project_handler").
		WithContext(r.Context()).
		Operation("create_project").
		Build()

	var body api.ProjectCreate
	if err := h.decode(r, &body); err != nil {
		replyError(w, r, tracer, err)
		return
	}
	form := mappers.ProjectCreateFormFromApi(body, h.defaults)
	if err := h.validator.Struct(form.Config); err != nil {
		replyError(w, r, tracer, err)
		return
	}

	project, err := h.projectSrv.CreateProject(r.Context(), form)
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}

	tracer.Success().WithUUID("project_id", project.ID).Log()
	reply(w, r, http.StatusCreated, mappers.ProjectToApi(*project))
}

// (GET /api/v1/projects/{id})
func (h *ServiceHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	tracer := log.NewDebugLogger("project_handler").
		WithContext(r.Context()).
		Operation("get_project").
		WithString("project_id", chiParam(r, "id")).
		Build()

	id, err := projectID(r)
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}

	project, err := h.projectSrv.GetProject(r.Context(), id)
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}

	reply(w, r, http.StatusOK, mappers.ProjectToApi(*project))
}

// (PUT /api/v1/projects/{id}/config)
func (h *ServiceHandler) UpdateProjectConfig(w http.ResponseWriter, r *http.Request) {
	tracer := log.NewDebugLogger("project_handler").
		WithContext(r.Context()).
		Operation("update_project_config").
		WithString("project_id", chiParam(r, "id")).
		Build()

	id, err := projectID(r)
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}
	var body api.ProjectConfigUpdate
	if err := h.decode(r, &body); err != nil {
		replyError(w, r, tracer, err)
		return
	}

	project, err := h.projectSrv.UpdateProjectConfig(r.Context(), id, body.Config, body.Version)
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}

	tracer.Success().WithInt("version", project.Version).Log()
	reply(w, r, http.StatusOK, mappers.ProjectToApi(*project))
}

// (DELETE /api/v1/projects/{id})
func (h *ServiceHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	tracer := log.NewDebugLogger("project_handler").
		WithContext(r.Context()).
		Operation("delete_project").
		WithString("project_id", chiParam(r, "id")).
		Build()

	id, err := projectID(r)
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}
	if err := h.projectSrv.DeleteProject(r.Context(), id); err != nil {
		replyError(w, r, tracer, err)
		return
	}

	tracer.Success().Log()
	w.WriteHeader(http.StatusNoContent)
}

// (PUT /api/v1/projects/{id}/snapshot)
func (h *ServiceHandler) ImportSnapshot(w http.ResponseWriter, r *http.Request) {
	tracer := log.NewDebugLogger("project_handler").
		WithContext(r.Context()).
		Operation("import_snapshot").
		WithString("project_id", chiParam(r, "id")).
		Build()

	id, err := projectID(r)
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}
	var body inventory.Snapshot
	if err := h.decode(r, &body); err != nil {
		replyError(w, r, tracer, err)
		return
	}

	snapshot, err := h.projectSrv.ImportSnapshot(r.Context(), id, body)
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}

	tracer.Success().WithInt("version", snapshot.Version).Log()
	reply(w, r, http.StatusCreated, mappers.SnapshotToApi(*snapshot))
}

// (GET /api/v1/projects/{id}/snapshots)
func (h *ServiceHandler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	tracer := log.NewDebugLogger("project_handler").
		WithContext(r.Context()).
		Operation("list_snapshots").
		WithString("project_id", chiParam(r, "id")).
		Build()

	id, err := projectID(r)
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}
	limit, err := intParam(r, "limit")
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}

	snapshots, err := h.projectSrv.ListSnapshots(r.Context(), id, limit)
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}

	reply(w, r, http.StatusOK, mappers.SnapshotListToApi(snapshots))
}

// (GET /api/v1/projects/{id}/snapshots/{version})
//
// The full inventory is returned; version 0 is the latest.
func (h *ServiceHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	tracer := log.NewDebugLogger("project_handler").
		WithContext(r.Context()).
		Operation("get_snapshot").
		WithString("project_id", chiParam(r, "id")).
		WithString("version", chiParam(r, "version")).
		Build()

	id, err := projectID(r)
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}
	v, err := intParam(r, "version")
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}

	snapshot, err := h.projectSrv.GetSnapshot(r.Context(), id, v)
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}

	reply(w, r, http.StatusOK, snapshot.Inventory.Data)
}

// (GET /api/v1/projects/{id}/scores)
func (h *ServiceHandler) GetScores(w http.ResponseWriter, r *http.Request) {
	tracer := log.NewDebugLogger("project_handler").
		WithContext(r.Context()).
		Operation("get_scores").
		WithString("project_id", chiParam(r, "id")).
		Build()

	id, err := projectID(r)
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}

	result, err := h.projectSrv.Scores(r.Context(), id)
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}

	tracer.Success().WithInt("tenants", len(result.Scores)).Log()
	reply(w, r, http.StatusOK, mappers.ScoresToApi(result.Weights, result.Scores))
}
