// Package internal contains core application functionality
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"pageflow/internal/analytics"
	"pageflow/internal/config"
	"pageflow/internal/database"
	"pageflow/internal/events"
	"pageflow/internal/jobs"
	"pageflow/internal/logging"
	"pageflow/internal/metrics"
	"pageflow/internal/server"
	"pageflow/internal/timeframe"
)

const loadTimeout = 5 * time.Minute

// Application owns every long-lived component: configuration, logger, durable store,
// in-memory ledger, background jobs and the HTTP server.
type Application struct {
	Config    *config.Config
	Logger    *slog.Logger
	DBManager *database.DBManager
	Store     *events.Store
	Persister *events.Persister
	Scheduler *jobs.Scheduler
	Metrics   *metrics.Metrics
	Server    *fiber.App
}

// Option customizes application construction.
type Option func(*appOptions)

type appOptions struct {
	logger *slog.Logger
	clock  timeframe.TimeProvider
}

// WithLogger replaces the logger built from configuration.
func WithLogger(logger *slog.Logger) Option {
	return func(o *appOptions) {
		o.logger = logger
	}
}

// WithClock replaces the wall clock used by aggregation.
func WithClock(clock timeframe.TimeProvider) Option {
	return func(o *appOptions) {
		o.clock = clock
	}
}

// NewApp creates a new application instance with default settings
func NewApp(opts ...Option) (*Application, error) {
	cfg := config.GetConfig()
	return NewAppWithConfig(cfg, opts...)
}

// NewAppWithConfig creates a new application with the provided config. It opens the
// durable store and loads it into memory; an unreadable store is moved aside and replaced
// by an empty one.
func NewAppWithConfig(cfg *config.Config, opts ...Option) (*Application, error) {
	o := &appOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logging.New(cfg)
	}
	if o.clock == nil {
		o.clock = &timeframe.DefaultTimeProvider{}
	}
	logger := o.logger

	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("resolve timezone: %w", err)
	}

	store := events.NewStore()
	dbManager, persister, err := openDurableStore(cfg, store, logger)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	m.SetStoreEvents(store.Len())

	scheduler := jobs.NewScheduler(
		jobs.NewPersistJob(persister, store, m, logger),
		jobs.NewCheckpointJob(dbManager.GetConnection(), logger),
		cfg.PersistInterval(),
		logger,
	)

	deps := &server.Deps{
		Config:    cfg,
		Logger:    logger,
		DBManager: dbManager,
		Store:     store,
		Persister: persister,
		Engine:    analytics.NewEngine(store, o.clock, loc, logger),
		Flows:     analytics.NewFlowBuilder(store, cfg.GetFlowMaxLinks(), logger),
		Metrics:   m,
		Clock:     o.clock,
	}

	srv := fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		DisableStartupMessage: true,
		// Collected values outlive the request; they must not alias fasthttp buffers.
		Immutable:    true,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})
	MountAppRoutes(srv, deps)

	return &Application{
		Config:    cfg,
		Logger:    logger,
		DBManager: dbManager,
		Store:     store,
		Persister: persister,
		Scheduler: scheduler,
		Metrics:   m,
		Server:    srv,
	}, nil
}

// openDurableStore initializes the database and restores its events into store. If that
// fails the file is quarantined and a fresh database is created; only a failure of the
// fresh database is fatal.
func openDurableStore(cfg *config.Config, store *events.Store, logger *slog.Logger) (*database.DBManager, *events.Persister, error) {
	dbManager := database.NewDBManager(cfg, logger)
	persister, err := initAndLoad(dbManager, store, logger)
	if err == nil {
		return dbManager, persister, nil
	}

	logger.Error("Durable store unusable, starting with an empty ledger",
		slog.String("path", dbManager.Path()),
		slog.Any("error", err))

	moved, qErr := dbManager.Quarantine()
	if qErr != nil {
		return nil, nil, fmt.Errorf("quarantine database after %v: %w", err, qErr)
	}
	if moved != "" {
		logger.Warn("Moved unreadable database aside", slog.String("file", moved))
	}

	if err := dbManager.Init(); err != nil {
		return nil, nil, fmt.Errorf("initialize fresh database: %w", err)
	}
	return dbManager, events.NewPersister(dbManager.GetConnection(), store, logger), nil
}

func initAndLoad(dbManager *database.DBManager, store *events.Store, logger *slog.Logger) (*events.Persister, error) {
	if err := dbManager.Init(); err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	persister := events.NewPersister(dbManager.GetConnection(), store, logger)

	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()
	n, err := persister.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}

	logger.Info("Loaded durable store",
		slog.String("path", dbManager.Path()),
		slog.Int("events", n))
	return persister, nil
}

// Start launches the background jobs.
func (a *Application) Start() error {
	return a.Scheduler.Start()
}

// Listen serves HTTP on the configured port until Shutdown is called.
func (a *Application) Listen() error {
	addr := ":" + a.Config.AppPort
	a.Logger.Info("Starting HTTP server", slog.String("addr", addr))
	return a.Server.Listen(addr)
}

// Shutdown stops the HTTP server, stops the jobs, flushes one final persist and closes
// the database, in that order.
func (a *Application) Shutdown(ctx context.Context) error {
	var errs []error

	if err := a.Server.ShutdownWithContext(ctx); err != nil {
		errs = append(errs, fmt.Errorf("stop http server: %w", err))
	}
	if err := a.Scheduler.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("final persist: %w", err))
	}
	if err := a.DBManager.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	a.Logger.Info("Application shut down", slog.Int("events", a.Store.Len()))
	return nil
}
