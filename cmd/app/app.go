// Package main is the entry point for the FX rate chain service.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"fxchain/internal/cache"
	"fxchain/internal/config"
	"fxchain/internal/events"
	"fxchain/internal/metrics"
	"fxchain/internal/rates"
	"fxchain/internal/repository"
	"fxchain/internal/service"
	"fxchain/internal/worker"
)

// App holds all application dependencies and manages their lifecycle.
type App struct {
	cfg            *config.Config
	logger         *zap.SugaredLogger
	db             *sql.DB
	rdbCache       *redis.Client
	rdbAsynq       *redis.Client
	memStore       *cache.MemoryStore
	rateCache      *cache.RateCache
	registry       *prometheus.Registry
	metrics        *metrics.Metrics
	publisher      events.Publisher
	asynqClient    *asynq.Client
	asynqServer    *asynq.Server
	asynqMux       *asynq.ServeMux
	asynqScheduler *asynq.Scheduler
	httpServer     *http.Server
	closeHTTP      func() error
}

// NewApp initializes all dependencies and returns a ready-to-run App.
func NewApp(cfg *config.Config, logger *zap.SugaredLogger) (*App, error) {
	app := &App{
		cfg:    cfg,
		logger: logger,
	}

	if err := app.initStorage(); err != nil {
		_ = app.close()
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.close()
		return nil, err
	}

	return app, nil
}

// close releases database, Redis and Kafka connections
func (app *App) close() error {
	var errs []error
	if app.closeHTTP != nil {
		if err := app.closeHTTP(); err != nil {
			errs = append(errs, fmt.Errorf("monitoring close: %w", err))
		}
	}
	if app.publisher != nil {
		if err := app.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher close: %w", err))
		}
	}
	if app.asynqClient != nil {
		if err := app.asynqClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("asynq client close: %w", err))
		}
	}
	if app.rdbAsynq != nil {
		if err := app.rdbAsynq.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis asynq close: %w", err))
		}
	}
	if app.memStore != nil {
		app.memStore.Close()
	}
	if app.rdbCache != nil {
		if err := app.rdbCache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis cache close: %w", err))
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("db close: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (app *App) initStorage() error {
	db, err := repository.NewPostgresDB(&app.cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to Postgres: %w", err)
	}
	app.db = db

	if err := repository.RunMigrations(app.db, app.logger); err != nil {
		return fmt.Errorf("run DB migrations: %w", err)
	}

	var store cache.Store
	switch app.cfg.Cache.Backend {
	case config.CacheBackendRedis:
		app.rdbCache = redis.NewClient(&redis.Options{
			Addr: app.cfg.Redis.CacheAddr,
		})
		if err := app.rdbCache.Ping(context.Background()).Err(); err != nil {
			return fmt.Errorf("connect to Redis (cache, %s): %w", app.cfg.Redis.CacheAddr, err)
		}
		app.logger.Infow("Connected to Redis cache", "addr", app.cfg.Redis.CacheAddr)
		store = cache.NewRedisStore(app.rdbCache, app.cfg.Cache.Key)
	default:
		app.memStore = cache.NewMemoryStore(time.Duration(app.cfg.Cache.ScanIntervalMs) * time.Millisecond)
		store = app.memStore
		app.logger.Infow("Using in-process rate cache")
	}

	app.rateCache = cache.New(store, cache.Options{
		TTL:       time.Duration(app.cfg.Cache.TTLSec) * time.Second,
		Canonical: rates.Currency(app.cfg.Cache.CanonicalCurrency),
	}, app.logger)

	return nil
}

func (app *App) initServices() error {
	app.registry = prometheus.NewRegistry()
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.metrics = metrics.New(app.registry)

	snapshotRepo := repository.NewPostgresSnapshotRepository(app.db)
	converter, err := newConverter(app.cfg, app.rateCache, snapshotRepo, app.metrics, app.logger)
	if err != nil {
		return err
	}

	if len(app.cfg.Kafka.Brokers) > 0 {
		app.publisher = events.NewKafkaPublisher(app.cfg.Kafka.Brokers, app.cfg.Kafka.Topic)
		app.logger.Infow("Publishing refresh events to Kafka", "brokers", app.cfg.Kafka.Brokers, "topic", app.cfg.Kafka.Topic)
	} else {
		app.publisher = events.NopPublisher{}
	}

	redisOpt := asynq.RedisClientOpt{Addr: app.cfg.Redis.AsynqAddr}
	taskTimeout := time.Duration(app.cfg.Worker.TimeoutSec) * time.Second

	app.rdbAsynq = redis.NewClient(&redis.Options{Addr: app.cfg.Redis.AsynqAddr})
	app.asynqClient = asynq.NewClient(redisOpt)
	app.asynqServer = asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: app.cfg.Worker.Concurrency,
		},
	)
	app.logger.Infow("Asynq configured", "addr", app.cfg.Redis.AsynqAddr)

	watch, err := parseWatch(app.cfg.Worker.WatchCurrencies)
	if err != nil {
		return fmt.Errorf("parse watch currencies: %w", err)
	}

	ratesService := service.NewRatesService(converter, app.logger, service.Options{
		Cache:     app.rateCache,
		Snapshots: snapshotRepo,
		Publisher: app.publisher,
		Enqueuer:  worker.NewAsynqEnqueuer(app.asynqClient, app.cfg.Worker.MaxRetry, taskTimeout),
		Canonical: rates.Currency(app.cfg.Cache.CanonicalCurrency),
		Watch:     watch,
	})

	app.asynqMux = asynq.NewServeMux()
	app.asynqMux.HandleFunc(worker.TaskTypeRefreshRates, worker.NewRefreshHandler(ratesService, app.logger))

	if app.cfg.Worker.RefreshCron != "" {
		app.asynqScheduler = asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{Location: time.UTC})
		entryID, err := worker.RegisterRefreshSchedule(app.asynqScheduler, app.cfg.Worker.RefreshCron, app.cfg.Worker.MaxRetry, taskTimeout)
		if err != nil {
			return err
		}
		app.logger.Infow("Scheduled periodic rate refresh", "cron", app.cfg.Worker.RefreshCron, "entry_id", entryID)
	}

	app.initHTTP(ratesService)
	return nil
}

// Run starts the HTTP server, Asynq worker and scheduler, blocking until the context is canceled.
func (app *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.logger.Infow("Starting Asynq worker server")
		if err := app.asynqServer.Start(app.asynqMux); err != nil {
			return fmt.Errorf("asynq worker failed to start: %w", err)
		}

		<-ctx.Done()
		return nil
	})

	if app.asynqScheduler != nil {
		g.Go(func() error {
			app.logger.Infow("Starting Asynq scheduler")
			if err := app.asynqScheduler.Start(); err != nil {
				return fmt.Errorf("asynq scheduler failed to start: %w", err)
			}

			<-ctx.Done()
			return nil
		})
	}

	g.Go(func() error {
		app.logger.Infow("HTTP server listening", "port", app.cfg.Server.Port)
		if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown: triggered by context cancellation (signal or component failure).
	g.Go(func() error {
		<-ctx.Done()
		return app.shutdown()
	})

	return g.Wait()
}

// shutdown performs ordered teardown: HTTP server -> scheduler -> Asynq worker -> connections.
func (app *App) shutdown() error {
	app.logger.Infow("Shutting down server...")

	var errs []error

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 1. Stop accepting new HTTP requests, drain in-flight
	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		app.logger.Errorw("HTTP server shutdown error", "error", err)
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}

	// 2. Stop enqueuing periodic refreshes
	if app.asynqScheduler != nil {
		app.asynqScheduler.Shutdown()
	}

	// 3. Drain in-flight Asynq tasks
	app.asynqServer.Shutdown()

	// 4. Close connections (Kafka, asynq client, Redis, database)
	if err := app.close(); err != nil {
		app.logger.Errorw("Connection cleanup errors", "error", err)
		errs = append(errs, err)
	}

	app.logger.Infow("Shutdown complete")
	return errors.Join(errs...)
}
