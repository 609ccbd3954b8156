package v1alpha1

import (
	"bytes"
	"fmt"
	"net/http"
	"path"

	api "github.com/kubev2v/migration-wave-planner/api/v1alpha1"
	"github.com/kubev2v/migration-wave-planner/internal/export"
	"github.com/kubev2v/migration-wave-planner/internal/service/mappers"
	"github.com/kubev2v/migration-wave-planner/pkg/log"
)

func exportFormat(r *http.Request) export.Format {
	format := r.URL.Query().Get("format")
	if format == "" {
		return export.Format(api.ExportFormatXLSX)
	}
	return export.Format(format)
}

// (GET /api/v1/projects/{id}/export)
//
// The plan is rendered in memory first so a failure still gets a JSON error.
func (h *ServiceHandler) ExportPlan(w http.ResponseWriter, r *http.Request) {
	format := exportFormat(r)
	tracer := log.NewDebugLogger("export_handler").
		WithContext(r.Context()).
		Operation("export_plan").
		WithString("project_id", chiParam(r, "id")).
		WithString("format", string(format)).
		Build()

	id, err := projectID(r)
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}

	var buf bytes.Buffer
	name, err := h.exportSrv.Export(r.Context(), id, format, &buf)
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}

	renderer, _ := export.NewRenderer(format)
	w.Header().Set("Content-Type", renderer.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", path.Base(name)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
	tracer.Success().WithInt("bytes", buf.Len()).Log()
}

// (POST /api/v1/projects/{id}/export/publish)
func (h *ServiceHandler) PublishPlan(w http.ResponseWriter, r *http.Request) {
	format := exportFormat(r)
	tracer := log.NewDebugLogger("export_handler").
		WithContext(r.Context()).
		Operation("publish_plan").
		WithString("project_id", chiParam(r, "id")).
		WithString("format", string(format)).
		Build()

	id, err := projectID(r)
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}

	object, err := h.exportSrv.Publish(r.Context(), id, format)
	if err != nil {
		replyError(w, r, tracer, err)
		return
	}

	tracer.Success().WithString("key", object.Key).Log()
	reply(w, r, http.StatusCreated, mappers.ExportObjectToApi(object.Bucket, object.Key, object.Size))
}
