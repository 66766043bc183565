// Package app assembles the dispatch service from configuration: stores,
// registry, selector, notifiers, metrics sinks and the HTTP API.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rescuegrid/firedispatch/api"
	"github.com/rescuegrid/firedispatch/config"
	"github.com/rescuegrid/firedispatch/core/dispatch"
	"github.com/rescuegrid/firedispatch/core/dispatch/auditlog"
	"github.com/rescuegrid/firedispatch/core/incident"
	coremetrics "github.com/rescuegrid/firedispatch/core/metrics"
	"github.com/rescuegrid/firedispatch/core/notify"
	"github.com/rescuegrid/firedispatch/core/readiness"
	"github.com/rescuegrid/firedispatch/infra/logger"
	"github.com/rescuegrid/firedispatch/infra/metrics"
	"github.com/rescuegrid/firedispatch/infra/notify/mqttpub"
	"github.com/rescuegrid/firedispatch/infra/notify/webhook"
	"github.com/rescuegrid/firedispatch/infra/notify/wshub"
	"github.com/rescuegrid/firedispatch/infra/store"
	"github.com/rescuegrid/firedispatch/internal/eventbus"
	"github.com/rescuegrid/firedispatch/jobs/readinesswatch"
)

// Service holds the assembled components and their lifecycles.
type Service struct {
	Registry  *readiness.Registry
	Incidents *incident.Service

	cfg      *config.Config
	bus      *eventbus.Bus
	hub      *wshub.Hub
	notifier notify.Notifier
	audit    auditlog.Store
	watcher  *readinesswatch.Watcher
	srv      *http.Server
	closers  []func() error
	log      logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")
	svc := &Service{cfg: cfg, log: logg}

	st, err := openStore(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	if c, ok := st.(interface{ Close() error }); ok {
		svc.closers = append(svc.closers, c.Close)
	}

	sink, err := buildSink(cfg.Metrics)
	if err != nil {
		return nil, err
	}

	svc.bus = eventbus.New()
	svc.Registry = readiness.NewRegistry(st, logg, svc.bus, sink)

	selector := dispatch.NewSelector(svc.Registry, cfg.Dispatch, logger.New("dispatch"))

	svc.audit, err = openAudit(cfg.Audit)
	if err != nil {
		return nil, fmt.Errorf("audit store: %w", err)
	}
	svc.closers = append(svc.closers, svc.audit.Close)

	svc.notifier, err = svc.buildNotifier(cfg, sink)
	if err != nil {
		return nil, err
	}

	svc.Incidents = incident.NewService(st, selector, svc.audit, svc.notifier, sink, logg)

	if cfg.Readiness.Enabled {
		svc.watcher = readinesswatch.New(svc.Registry, sink,
			time.Duration(cfg.Readiness.StaleAfterHours)*time.Hour, logger.New("readiness-watch"))
	}

	auth := api.NewAuthenticator(tokenMap(cfg.Auth))
	server := api.NewServer(svc.Registry, svc.Incidents, svc.audit, svc.hub, auth, logger.New("api"))
	svc.srv = &http.Server{Addr: cfg.Server.Addr, Handler: server.Router()}
	return svc, nil
}

func tokenMap(cfg config.AuthConfig) map[string]api.Identity {
	tokens := make(map[string]api.Identity, len(cfg.Tokens))
	for _, t := range cfg.Tokens {
		tokens[t.Token] = api.Identity{UserID: t.UserID, Admin: t.Admin}
	}
	return tokens
}

// dataStore combines the two persistence contracts; SQLStore implements both
// on one database.
type dataStore interface {
	readiness.Store
	incident.Store
}

// incidentMemory renames the embedded type so memoryStore can promote both
// in-memory method sets without a field-name clash.
type incidentMemory struct {
	*incident.MemoryStore
}

// memoryStore pairs the in-memory backends for dev deployments.
type memoryStore struct {
	*readiness.MemoryStore
	incidentMemory
}

func openStore(cfg config.StoreConfig) (dataStore, error) {
	switch cfg.Backend {
	case "memory":
		return memoryStore{readiness.NewMemoryStore(), incidentMemory{incident.NewMemoryStore()}}, nil
	case "sqlite":
		return store.NewSQLiteStore(cfg.SQLitePath)
	case "postgres":
		return store.NewPostgresStore(cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown store backend %s", cfg.Backend)
	}
}

func buildSink(cfg coremetrics.Config) (coremetrics.Sink, error) {
	var sinks []coremetrics.Sink
	if cfg.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(
			cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket))
	}
	switch len(sinks) {
	case 0:
		return coremetrics.NopSink{}, nil
	case 1:
		return sinks[0], nil
	default:
		return metrics.NewMultiSink(sinks...), nil
	}
}

func openAudit(cfg config.AuditConfig) (auditlog.Store, error) {
	switch cfg.Backend {
	case "sqlite":
		return auditlog.NewSQLiteStore(cfg.Path)
	case "jsonl":
		if cfg.MaxSizeMB > 0 {
			return auditlog.NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
		}
		return auditlog.NewJSONLStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown audit backend %s", cfg.Backend)
	}
}

func (s *Service) buildNotifier(cfg *config.Config, sink coremetrics.Sink) (notify.Notifier, error) {
	// failed deliveries feed notification_failures_total{sink} when the
	// metrics sink counts them
	rec, _ := sink.(coremetrics.NotificationFailureRecorder)
	var notifiers notify.Multi
	if cfg.Server.Websocket {
		s.hub = wshub.NewHub(logger.New("wshub"))
		notifiers = append(notifiers, notify.Instrument(s.hub, "websocket", rec))
	}
	if cfg.MQTT.Enabled {
		pub, err := mqttpub.NewPublisher(cfg.MQTT.Broker, cfg.MQTT.ClientID, nil)
		if err != nil {
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		notifiers = append(notifiers, notify.Instrument(pub, "mqtt", rec))
	}
	if cfg.Webhook.Enabled {
		notifiers = append(notifiers, notify.Instrument(webhook.New(webhook.Config{
			URL:          cfg.Webhook.URL,
			ClientID:     cfg.Webhook.ClientID,
			ClientSecret: cfg.Webhook.ClientSecret,
			AuthURL:      cfg.Webhook.AuthURL,
		}), "webhook", rec))
	}
	if len(notifiers) == 0 {
		return notify.Nop{}, nil
	}
	return notifiers, nil
}

// Run starts the HTTP API, the Prometheus endpoint and the readiness watcher,
// blocking until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.watcher != nil {
		if err := s.watcher.Start(s.cfg.Readiness.Schedule); err != nil {
			return fmt.Errorf("readiness watcher: %w", err)
		}
	}

	// forward registry events (readiness changes) to the notification fan-out
	events := s.bus.Subscribe()
	go func() {
		for e := range events {
			ev, ok := e.(notify.Event)
			if !ok {
				continue
			}
			if err := s.notifier.Broadcast(context.Background(), ev); err != nil {
				s.log.Errorf("event broadcast: %v", err)
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("http api listening on %s", s.cfg.Server.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		s.log.Errorf("http shutdown: %v", err)
	}
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.watcher != nil {
		s.watcher.Stop()
	}
	if s.notifier != nil {
		if err := s.notifier.Close(); err != nil {
			s.log.Errorf("notifier close: %v", err)
		}
	}
	if s.bus != nil {
		s.bus.Close()
	}
	var firstErr error
	for _, closeFn := range s.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
