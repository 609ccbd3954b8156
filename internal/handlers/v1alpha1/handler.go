package v1alpha1

import (
	"github.com/go-chi/chi/v5"
	"github.com/kubev2v/migration-wave-planner/internal/handlers/validator"
	"github.com/kubev2v/migration-wave-planner/internal/plan"
	"github.com/kubev2v/migration-wave-planner/internal/service"
)

// Services groups the planning services the handler delegates to.
type Services struct {
	Project    *service.ProjectService
	Cohort     *service.CohortService
	Wave       *service.WaveService
	Execution  *service.ExecutionService
	Estimation *service.EstimationService
	Sizer      *service.SizerService
	Export     *service.ExportService
}

type ServiceHandler struct {
	projectSrv    *service.ProjectService
	cohortSrv     *service.CohortService
	waveSrv       *service.WaveService
	executionSrv  *service.ExecutionService
	estimationSrv *service.EstimationService
	sizerSrv      *service.SizerService
	exportSrv     *service.ExportService
	validator     *validator.Validator
	defaults      plan.ProjectConfig
}

// NewServiceHandler returns a handler for the planning API. defaults is the
// configuration a project gets when created without one.
func NewServiceHandler(services Services, defaults plan.ProjectConfig) *ServiceHandler {
	return &ServiceHandler{
		projectSrv:    services.Project,
		cohortSrv:     services.Cohort,
		waveSrv:       services.Wave,
		executionSrv:  services.Execution,
		estimationSrv: services.Estimation,
		sizerSrv:      services.Sizer,
		exportSrv:     services.Export,
		validator:     validator.NewPlanningValidator(),
		defaults:      defaults,
	}
}

// RegisterRoutes mounts the planning API on router.
func (h *ServiceHandler) RegisterRoutes(router chi.Router) {
	router.Get("/health", h.Health)

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/info", h.GetInfo)

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", h.ListProjects)
			r.Post("/", h.CreateProject)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetProject)
				r.Delete("/", h.DeleteProject)
				r.Put("/config", h.UpdateProjectConfig)

				r.Put("/snapshot", h.ImportSnapshot)
				r.Get("/snapshots", h.ListSnapshots)
				r.Get("/snapshots/{version}", h.GetSnapshot)
				r.Get("/scores", h.GetScores)

				r.Get("/cohorts", h.ListCohorts)
				r.Post("/cohorts", h.CommitCohorts)
				r.Post("/cohorts/preview", h.PreviewCohorts)
				r.Post("/cohorts/rebalance", h.PreviewRebalance)
				r.Get("/cohorts/{cohortId}", h.GetCohort)
				r.Patch("/cohorts/{cohortId}", h.UpdateCohort)
				r.Post("/cohorts/{cohortId}/transition", h.TransitionCohort)

				r.Get("/estimate", h.GetEstimate)
				r.Post("/sizing", h.CalculateSizing)

				r.Get("/waves", h.ListWaves)
				r.Post("/waves", h.CommitWaves)
				r.Post("/waves/preview", h.PreviewWaves)
				r.Get("/waves/{waveId}", h.GetWave)
				r.Delete("/waves/{waveId}", h.DeleteWave)
				r.Post("/waves/{waveId}/preflight", h.RunPreflight)
				r.Post("/waves/{waveId}/transition", h.TransitionWave)

				r.Post("/vms/{vmId}/status", h.ReportVMStatus)
				r.Get("/funnel", h.GetFunnel)

				r.Get("/export", h.ExportPlan)
				r.Post("/export/publish", h.PublishPlan)
			})
		})
	})
}
