package v1alpha1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	api "github.com/kubev2v/migration-wave-planner/api/v1alpha1"
	"github.com/kubev2v/migration-wave-planner/internal/cohort"
	"github.com/kubev2v/migration-wave-planner/internal/handlers/validator"
	"github.com/kubev2v/migration-wave-planner/internal/plan"
	"github.com/kubev2v/migration-wave-planner/internal/scoring"
	"github.com/kubev2v/migration-wave-planner/internal/service"
	"github.com/kubev2v/migration-wave-planner/internal/sizing"
	"github.com/kubev2v/migration-wave-planner/internal/wave"
	"github.com/kubev2v/migration-wave-planner/pkg/log"
	"github.com/kubev2v/migration-wave-planner/pkg/requestid"
)

func reply(w http.ResponseWriter, r *http.Request, status int, body any) {
	render.Status(r, status)
	render.JSON(w, r, body)
}

func replyStatus(w http.ResponseWriter, r *http.Request, status int, message string) {
	reply(w, r, status, api.Status{Message: message, RequestID: requestid.FromContextPtr(r.Context())})
}

// replyError maps err onto a status code and writes it. Unknown errors are
// logged and answered with a 500.
func replyError(w http.ResponseWriter, r *http.Request, tracer *log.OperationTracer, err error) {
	tracer.Error(err).Log()
	status := errorStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	replyStatus(w, r, status, message)
}

func errorStatus(err error) int {
	var (
		notFound       *service.ErrResourceNotFound
		invalidRequest *service.ErrInvalidRequest
		conflict       *service.ErrConflict
		noSnapshot     *service.ErrNoSnapshot
		exportDisabled *service.ErrExportUnavailable
		validation     *validator.ErrValidation
		weights        *scoring.ErrInvalidWeights
		cohortStrategy *cohort.ErrUnknownStrategy
		cohortRequest  *cohort.ErrInvalidRequest
		waveStrategy   *wave.ErrUnknownStrategy
		waveRequest    *wave.ErrInvalidRequest
		overcommit     *sizing.ErrInvalidOvercommit
		profile        *sizing.ErrInvalidProfile
		transition     *plan.ErrInvalidTransition
		preflight      *plan.ErrPreflightFailed
		gated          *plan.ErrCohortGated
		notDeletable   *plan.ErrWaveNotDeletable
		cohortOrder    *plan.ErrDuplicateCohortOrder
		cycle          *wave.ErrDependencyCycle
		unresolved     *wave.ErrUnresolvedConflicts
		outOfScope     *wave.ErrOutOfScope
	)

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &invalidRequest), errors.As(err, &validation), errors.As(err, &weights),
		errors.As(err, &cohortStrategy), errors.As(err, &cohortRequest), errors.As(err, &waveStrategy),
		errors.As(err, &waveRequest), errors.As(err, &overcommit), errors.As(err, &profile):
		return http.StatusBadRequest
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &noSnapshot), errors.As(err, &transition), errors.As(err, &preflight),
		errors.As(err, &gated), errors.As(err, &notDeletable), errors.As(err, &cohortOrder),
		errors.As(err, &cycle), errors.As(err, &unresolved), errors.As(err, &outOfScope):
		return http.StatusUnprocessableEntity
	case errors.As(err, &exportDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decode reads a JSON body into v and validates it.
func (h *ServiceHandler) decode(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return service.NewErrInvalidRequest("empty body")
	}
	if err := render.DecodeJSON(r.Body, v); err != nil {
		return service.NewErrInvalidRequest("malformed body: %s", err)
	}
	return h.validator.Struct(v)
}

func projectID(r *http.Request) (uuid.UUID, error) {
	return uuidParam(r, "id")
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, service.NewErrInvalidRequest("%s %q is not a valid uuid", name, raw)
	}
	return id, nil
}

func intParam(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		raw = r.URL.Query().Get(name)
	}
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, service.NewErrInvalidRequest("%s must be a non-negative integer, got %q", name, raw)
	}
	return n, nil
}

func chiParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}
