// Package app assembles the allocation service from its configuration:
// planner, solver, plan store, field publisher, metrics and the HTTP surface.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/matiasvr/fireline/api"
	"github.com/matiasvr/fireline/config"
	"github.com/matiasvr/fireline/core/allocator"
	coremetrics "github.com/matiasvr/fireline/core/metrics"
	"github.com/matiasvr/fireline/core/planlog"
	"github.com/matiasvr/fireline/infra/fieldcomms"
	"github.com/matiasvr/fireline/infra/logger"
	"github.com/matiasvr/fireline/infra/metrics"
	"github.com/matiasvr/fireline/infra/solver"
)

// Service orchestrates the planner and its infrastructure.
type Service struct {
	Planner *allocator.Planner
	Store   planlog.Store

	server      *api.Server
	listen      string
	publisher   *fieldcomms.PahoPublisher
	sink        coremetrics.MetricsSink
	log         logger.Logger
	promEnabled bool
	promPort    int
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	sink, err := metrics.FromConfig(cfg.Metrics)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	planner, err := allocator.New(cfg.Allocator,
		allocator.WithSolver(solver.New()),
		allocator.WithLogger(logger.New("planner")),
		allocator.WithMetrics(sink),
	)
	if err != nil {
		return nil, fmt.Errorf("planner: %w", err)
	}

	store, err := newStore(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("plan store: %w", err)
	}

	svc := &Service{
		Planner:     planner,
		Store:       store,
		listen:      cfg.API.Listen,
		sink:        sink,
		log:         logg,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promPort:    cfg.Metrics.PrometheusPort,
	}

	opts := []api.ServerOption{
		api.WithMetrics(sink),
		api.WithLogger(logger.New("api")),
		api.WithAckWait(time.Duration(cfg.API.AckTimeoutSeconds) * time.Second),
	}
	if cfg.Fieldcomms.Broker != "" {
		pub, err := fieldcomms.NewPahoPublisher(cfg.Fieldcomms)
		if err != nil {
			if cerr := store.Close(); cerr != nil {
				logg.Errorf("store close: %v", cerr)
			}
			return nil, fmt.Errorf("field publisher: %w", err)
		}
		svc.publisher = pub
		opts = append(opts, api.WithPublisher(pub))
	}
	svc.server = api.NewServer(planner, allocator.NewExplainer(cfg.Allocator), store, opts...)
	return svc, nil
}

func newStore(cfg config.LoggingConfig) (planlog.Store, error) {
	switch cfg.Backend {
	case "sqlite":
		return planlog.NewSQLiteStore(cfg.Path)
	default:
		return planlog.NewJSONLStore(cfg.Path)
	}
}

// Run serves the HTTP surface and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	srv := &http.Server{Addr: s.listen, Handler: s.server.Router()}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.Infof("listening on %s", s.listen)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.publisher != nil {
		s.publisher.Disconnect(250)
	}
	if closer, ok := s.sink.(interface{ Close() }); ok {
		closer.Close()
	}
	return s.Store.Close()
}
