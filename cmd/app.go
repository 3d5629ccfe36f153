package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"shogun/application"
	"shogun/config"
	"shogun/database"
	"shogun/domain/events"
	"shogun/domain/interfaces"
	"shogun/infrastructure"
	"shogun/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

// natsClientName identifies the engine's connection on the NATS server
const natsClientName = "shogun-engine"

// app holds the wired engine and everything that must be closed with it
type app struct {
	cfg        *config.Config
	db         *database.DB
	natsClient *infrastructure.NATSClient
	engine     *application.RewardEngine
}

// ConfigureLogging applies the configured level and formatter to the global logger
func ConfigureLogging(cfg *config.Config) {
	level, err := log.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetOutput(os.Stdout)

	if cfg.Environment == "production" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

// newApp connects to the database and the event bus and builds the engine
func newApp(ctx context.Context) (*app, error) {
	cfg := config.Get()
	ConfigureLogging(cfg)

	catalog, err := config.LoadCatalog(cfg.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load policy catalogue: %w", err)
	}

	if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
		log.WithError(err).Warn("Failed to initialize metrics, continuing without them")
	}

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL(), cfg.PoolOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connection established successfully")

	a := &app{cfg: cfg, db: db}

	publisher, err := a.eventPublisher(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	uowFactory := infrastructure.NewUnitOfWorkFactory(db, publisher)
	uowFactory.RegisterLocalHandler(events.EventTypeRankChanged, logRankChange)

	a.engine = application.NewRewardEngine(uowFactory, application.EngineOptions{
		Catalog:         catalog,
		Location:        cfg.Location(),
		RestoreOnReject: cfg.ClaimRejectRestoresAccrual,
	}, observability.GetMetrics())

	return a, nil
}

// eventPublisher returns a JetStream publisher when NATS is enabled, otherwise a no-op
func (a *app) eventPublisher(ctx context.Context) (interfaces.EventPublisher, error) {
	if !a.cfg.NATSEnabled {
		log.Info("NATS disabled, domain events will not leave the process")
		return infrastructure.NewNoopEventPublisher(), nil
	}

	log.WithField("servers", a.cfg.NATSServers).Info("Connecting to NATS...")
	client := infrastructure.NewNATSClient(a.cfg.NATSServers, natsClientName)
	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	a.natsClient = client

	publisher := infrastructure.NewNATSEventPublisher(client, infrastructure.NewEventSubjectMapper())
	if err := publisher.EnsureDomainEventStream(); err != nil {
		_ = client.Close()
		a.natsClient = nil
		return nil, fmt.Errorf("failed to ensure domain event stream: %w", err)
	}
	return publisher, nil
}

// Close releases the event bus, metrics and database connections
func (a *app) Close(ctx context.Context) {
	if a.natsClient != nil {
		if err := a.natsClient.Close(); err != nil {
			log.WithError(err).Warn("Error closing NATS connection")
		}
	}
	if err := observability.ShutdownGlobalMetrics(ctx); err != nil {
		log.WithError(err).Warn("Error shutting down metrics")
	}
	log.Info("Closing database connection...")
	a.db.Close()
}

func logRankChange(_ context.Context, event events.Event) error {
	changed, ok := event.(events.RankChangedEvent)
	if !ok {
		return nil
	}
	log.WithFields(log.Fields{
		"user_id":  changed.UserID,
		"old_rank": changed.OldRank,
		"new_rank": changed.NewRank,
	}).Info("Rank changed")
	return nil
}
