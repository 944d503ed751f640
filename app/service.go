// Package app assembles the coordination service from configuration:
// document store, responder directory, deck store and rotation runner,
// incident coordinator, session synchronization and the HTTP API.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	apidecks "github.com/openaid/respond/api/decks"
	apiincidents "github.com/openaid/respond/api/incidents"
	"github.com/openaid/respond/config"
	"github.com/openaid/respond/core/audit"
	"github.com/openaid/respond/core/deck"
	"github.com/openaid/respond/core/incident"
	coremetrics "github.com/openaid/respond/core/metrics"
	"github.com/openaid/respond/core/notify"
	"github.com/openaid/respond/core/roster"
	"github.com/openaid/respond/core/statesync"
	"github.com/openaid/respond/core/store"
	"github.com/openaid/respond/infra/logger"
	"github.com/openaid/respond/infra/memstore"
	"github.com/openaid/respond/infra/mqtt"
	"github.com/openaid/respond/internal/eventbus"
)

// Service orchestrates the coordination engine.
type Service struct {
	Coordinator *incident.Coordinator
	Decks       *deck.Store
	Directory   *roster.Directory
	Session     *statesync.Session

	docs        store.DocumentStore
	runner      *deck.Runner
	bus         *eventbus.Bus
	gateway     notify.Gateway
	srv         *http.Server
	log         logger.Logger
	promEnabled bool
	promPort    int
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")
	docs := memstore.New()
	bus := eventbus.New()

	loc, err := cfg.Rotation.Location()
	if err != nil {
		return nil, fmt.Errorf("rotation timezone: %w", err)
	}

	directory := roster.NewDirectory(logg)
	decks := deck.NewStore(docs, bus, logg, deck.WithLocation(loc))
	runner := deck.NewRunner(decks, cfg.Rotation.Interval(), logg)

	var trail audit.Store
	switch cfg.Audit.Backend {
	case "sqlite":
		trail, err = audit.NewSQLiteStore(cfg.Audit.Path)
	default:
		trail, err = audit.NewJSONLStore(cfg.Audit.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("audit store: %w", err)
	}

	var sinks []coremetrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := coremetrics.NewPromSink(nil)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, coremetrics.NewInfluxSinkWithFallback(cfg.Metrics, logg))
	}
	var sink coremetrics.Sink
	switch len(sinks) {
	case 0:
		sink = coremetrics.NopSink{}
	case 1:
		sink = sinks[0]
	default:
		sink = coremetrics.NewMultiSink(sinks...)
	}

	var gateway notify.Gateway = notify.NopGateway{}
	if cfg.MQTT.BrokerURL != "" {
		gw, err := mqtt.NewGateway(cfg.MQTT, logg)
		if err != nil {
			return nil, fmt.Errorf("alert gateway: %w", err)
		}
		gateway = gw
	}

	coord, err := incident.NewCoordinator(decks, directory, docs, gateway, logg,
		incident.WithAudit(trail),
		incident.WithMetrics(sink),
		incident.WithBus(bus),
	)
	if err != nil {
		return nil, err
	}

	snaps, err := statesync.NewFileSnapshotStore(cfg.Sync.SnapshotDir)
	if err != nil {
		return nil, fmt.Errorf("snapshot store: %w", err)
	}
	session, err := statesync.NewSession(uuid.NewString(), "service", docs, snaps, bus, logg,
		statesync.WithInterval(cfg.Sync.Interval()))
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	token := cfg.API.BearerToken
	mux.Handle("POST /api/incidents", apiincidents.NewCreateHandler(coord, token))
	mux.Handle("GET /api/incidents", apiincidents.NewListHandler(coord, token))
	mux.Handle("POST /api/incidents/{id}/acknowledge", apiincidents.NewAcknowledgeHandler(coord, token))
	mux.Handle("POST /api/incidents/{id}/cancel", apiincidents.NewCancelHandler(coord, token))
	mux.Handle("POST /api/incidents/{id}/resolve", apiincidents.NewResolveHandler(coord, token))
	mux.Handle("GET /api/decks", apidecks.NewListHandler(decks, token))
	mux.Handle("POST /api/decks", apidecks.NewAddHandler(decks, token))
	mux.Handle("PUT /api/decks", apidecks.NewSaveHandler(decks, token))
	mux.Handle("POST /api/decks/rotate", apidecks.NewRotateHandler(decks, token))
	mux.Handle("GET /api/decks/pool", apidecks.NewPoolHandler(decks, directory, token))
	srv := &http.Server{
		Addr:              cfg.API.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Service{
		Coordinator: coord,
		Decks:       decks,
		Directory:   directory,
		Session:     session,
		docs:        docs,
		runner:      runner,
		bus:         bus,
		gateway:     gateway,
		srv:         srv,
		log:         logg,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promPort:    cfg.Metrics.PrometheusPort,
	}, nil
}

// Run starts the service and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if err := s.Directory.Load(ctx, s.docs); err != nil {
		return fmt.Errorf("load directory: %w", err)
	}
	if err := s.Decks.Load(ctx); err != nil {
		return fmt.Errorf("load decks: %w", err)
	}
	if err := s.Session.Restore(ctx); err != nil {
		s.log.Warnf("session restore: %v", err)
	}

	go s.pumpFeeds(ctx)
	go s.runner.Run(ctx)
	go s.Session.Run(ctx)
	if s.promEnabled {
		go func() {
			if err := coremetrics.StartPromServer(s.promPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	go func() {
		s.log.Infof("listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Errorf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}

// pumpFeeds applies store change feeds to the in-memory mirrors.
func (s *Service) pumpFeeds(ctx context.Context) {
	responders := s.docs.Subscribe(store.Responders)
	decks := s.docs.Subscribe(store.Decks)
	defer func() {
		s.docs.Unsubscribe(store.Responders, responders)
		s.docs.Unsubscribe(store.Decks, decks)
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-responders:
			if !ok {
				return
			}
			s.Directory.Apply(c)
		case c, ok := <-decks:
			if !ok {
				return
			}
			s.Decks.Apply(c)
		}
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if gw, ok := s.gateway.(*mqtt.Gateway); ok {
		gw.Close()
	}
	s.bus.Close()
	return nil
}
