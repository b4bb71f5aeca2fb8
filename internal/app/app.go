package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"

	"cabshare/internal/config"
	"cabshare/internal/directory"
	"cabshare/internal/lib/sl"
	"cabshare/internal/metrics"
	internalRedis "cabshare/internal/redis"
	"cabshare/internal/registry"
	"cabshare/internal/repository"
	"cabshare/internal/repository/file"
	"cabshare/internal/repository/postgres"
	"cabshare/internal/service"
)

// App owns the process state and the services that operate on it.
type App struct {
	Users    *service.UserService
	Trips    *service.TripService
	Receipts *service.ReceiptService

	refresher *Refresher
	nrApp     *newrelic.Application
	closers   []func() error
	log       *slog.Logger
}

// New connects the configured backends and wires the services.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	a := &App{log: log}

	nrApp, err := NewNewRelic(cfg.NewRelic, log)
	if err != nil {
		// Tracing is optional; keep going without it.
		log.Warn("new relic disabled", sl.Err(err))
	}
	a.nrApp = nrApp

	var (
		locker    repository.TableLocker
		publisher internalRedis.StatusPublisherInterface
	)
	if cfg.Redis.Addr != "" {
		rdb, err := NewRedisClient(ctx, cfg.Redis, nrApp)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, rdb.Close)
		locker = internalRedis.NewLockStore(rdb, cfg.Redis.LockTTL, cfg.Redis.LockWait)
		publisher = internalRedis.NewCacheStore(rdb)
		log.Info("connected to redis", slog.String("addr", cfg.Redis.Addr))
	}

	var (
		users repository.UserRepository
		trips repository.TripRepository
	)
	switch cfg.Storage {
	case config.StoragePostgres:
		db, err := NewDatabase(ctx, cfg.Database, nrApp)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		users = postgres.NewUserRepository(db, log)
		trips = postgres.NewTripRepository(db, log)
		log.Info("using postgres storage", slog.String("db", cfg.Database.DBName))
	case config.StorageFile:
		store := file.NewStore(cfg.DataDir, locker, log)
		users, trips = store, store
		log.Info("using file storage", slog.String("dir", cfg.DataDir))
	default:
		a.Close()
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}

	dir := directory.New()
	reg := registry.New()
	m := metrics.New()

	persister := service.NewPersister(dir, reg, users, trips, m, log)
	matching := service.NewMatchingService(reg)

	a.Users = service.NewUserService(dir, persister, m, log, cfg.SignUpOTP)
	a.Trips = service.NewTripService(reg, dir, matching, persister, publisher, m, log)
	a.Receipts = service.NewReceiptService()
	a.refresher = NewRefresher(a.Trips, m, cfg.MetricsTextfile, cfg.RefreshInterval, nrApp, log)

	return a, nil
}

// Run loads the stored state and refreshes it until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	if err := a.Trips.Reload(ctx); err != nil {
		return fmt.Errorf("initial load: %w", err)
	}
	if err := a.Trips.PublishAll(ctx); err != nil {
		a.log.Warn("failed to publish trip statuses", sl.Err(err))
	}

	a.refresher.Run(ctx)
	a.log.Info("shutting down")
	return nil
}

// Close releases backend connections. It is safe to call more than once.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Error("failed to close resource", sl.Err(err))
		}
	}
	a.closers = nil

	if a.nrApp != nil {
		a.nrApp.Shutdown(5 * time.Second)
		a.nrApp = nil
	}
}
