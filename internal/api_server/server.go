package apiserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/kubev2v/migration-wave-planner/internal/config"
	"github.com/kubev2v/migration-wave-planner/internal/events"
	handlers "github.com/kubev2v/migration-wave-planner/internal/handlers/v1alpha1"
	"github.com/kubev2v/migration-wave-planner/internal/service"
	"github.com/kubev2v/migration-wave-planner/internal/store"
	"github.com/kubev2v/migration-wave-planner/pkg/metrics"
	"github.com/kubev2v/migration-wave-planner/pkg/middleware"
)

const (
	gracefulShutdownTimeout = 5 * time.Second
)

type Server struct {
	cfg       *config.Config
	store     store.Store
	listener  net.Listener
	producer  *events.EventProducer
	publisher service.ObjectPublisher
}

// New returns a new instance of the wave planner API server. publisher may be
// nil when no object storage is configured.
func New(
	cfg *config.Config,
	store store.Store,
	listener net.Listener,
	producer *events.EventProducer,
	publisher service.ObjectPublisher,
) *Server {
	return &Server{
		cfg:       cfg,
		store:     store,
		listener:  listener,
		producer:  producer,
		publisher: publisher,
	}
}

// Handler builds the routed API. It is split from Run so the full middleware
// chain can be served from tests.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()

	metricMiddleware := metrics.NewMiddleware("api_server")
	metricMiddleware.MustRegister(nil)

	router.Use(
		metricMiddleware.Handler,
		cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "PUT", "POST", "PATCH", "DELETE", "HEAD", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			ExposedHeaders:   []string{"Content-Disposition", "X-Request-Id"},
			AllowCredentials: false,
			MaxAge:           300,
		}),
		chiMiddleware.RequestID,
		middleware.RequestID,
		middleware.Logger(),
		chiMiddleware.Recoverer,
	)

	h := handlers.NewServiceHandler(handlers.Services{
		Project:    service.NewProjectService(s.store),
		Cohort:     service.NewCohortService(s.store, s.producer),
		Wave:       service.NewWaveService(s.store, s.producer, service.WithAgentReachable(s.cfg.Service.AgentReachable)),
		Execution:  service.NewExecutionService(s.store),
		Estimation: service.NewEstimationService(s.store),
		Sizer:      service.NewSizerService(s.store),
		Export:     service.NewExportService(s.store, s.publisher),
	}, s.cfg.ProjectDefaults())
	h.RegisterRoutes(router)

	return router
}

func (s *Server) Run(ctx context.Context) error {
	zap.S().Named("api_server").Info("Initializing API server")

	srv := http.Server{Addr: s.cfg.Service.Address, Handler: s.Handler()}

	go func() {
		<-ctx.Done()
		zap.S().Named("api_server").Infof("Shutdown signal received: %s", ctx.Err())
		ctxTimeout, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		_ = srv.Shutdown(ctxTimeout)
		zap.S().Named("api_server").Info("api server terminated")
	}()

	zap.S().Named("api_server").Infof("Listening on %s...", s.listener.Addr().String())
	if err := srv.Serve(s.listener); err != nil && !errors.Is(err, net.ErrClosed) && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
