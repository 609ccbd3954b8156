package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	apiserver "github.com/kubev2v/migration-wave-planner/internal/api_server"
	"github.com/kubev2v/migration-wave-planner/internal/config"
	"github.com/kubev2v/migration-wave-planner/internal/events"
	"github.com/kubev2v/migration-wave-planner/internal/export"
	"github.com/kubev2v/migration-wave-planner/internal/service"
	"github.com/kubev2v/migration-wave-planner/internal/store"
	"github.com/kubev2v/migration-wave-planner/pkg/version"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the planner api",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, done, err := setup()
		if err != nil {
			return fmt.Errorf("reading configuration: %w", err)
		}
		defer done()

		zap.S().Infow("Starting API service", "version", version.Get().String())
		defer zap.S().Info("API service stopped")

		zap.S().Info("Initializing data store")
		db, err := store.InitDB(cfg)
		if err != nil {
			return fmt.Errorf("initializing data store: %w", err)
		}

		s := store.NewStore(db)
		defer s.Close()

		if err := migrate(cfg, db); err != nil {
			return err
		}

		opts := []events.ProducerOptions{}
		if cfg.Service.EventsTopic != "" {
			opts = append(opts, events.WithOutputTopic(cfg.Service.EventsTopic))
		}
		producer := events.NewEventProducer(&events.StdoutWriter{}, opts...)
		defer func() { _ = producer.Close() }()

		publisher, err := newPublisher(cfg)
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
		defer cancel()

		listener, err := newListener(cfg.Service.Address)
		if err != nil {
			return fmt.Errorf("creating listener: %w", err)
		}
		metricsListener, err := newListener(cfg.Service.MetricsAddress)
		if err != nil {
			return fmt.Errorf("creating metrics listener: %w", err)
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			defer cancel()
			return apiserver.New(cfg, s, listener, producer, publisher).Run(gctx)
		})
		g.Go(func() error {
			defer cancel()
			return apiserver.NewMetricServer(cfg.Service.MetricsAddress, metricsListener, s).Run(gctx)
		})

		return g.Wait()
	},
}

// newPublisher returns a nil interface when no object storage is configured so
// the export service reports publishing as unavailable.
func newPublisher(cfg *config.Config) (service.ObjectPublisher, error) {
	if !cfg.Export.Enabled() {
		zap.S().Info("export object storage not configured, publishing disabled")
		return nil, nil
	}
	publisher, err := export.NewMinioPublisher(
		export.WithEndpoint(cfg.Export.Endpoint),
		export.WithBucket(cfg.Export.Bucket),
		export.WithCredentials(cfg.Export.AccessKey, cfg.Export.SecretKey),
		export.WithSSL(cfg.Export.UseSSL),
	)
	if err != nil {
		return nil, fmt.Errorf("creating export publisher: %w", err)
	}
	return publisher, nil
}

func newListener(address string) (net.Listener, error) {
	if address == "" {
		address = "localhost:0"
	}
	return net.Listen("tcp", address)
}
