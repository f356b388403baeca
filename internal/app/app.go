// Package app provides the application lifecycle management for the
// bidtrack service.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/bidtrack/bidtrack/internal/api"
	"github.com/bidtrack/bidtrack/internal/config"
	"github.com/bidtrack/bidtrack/internal/database"
	"github.com/bidtrack/bidtrack/internal/jobs"
	"github.com/bidtrack/bidtrack/internal/logger"
	"github.com/bidtrack/bidtrack/internal/metrics"
	"github.com/bidtrack/bidtrack/internal/notify"
	"github.com/bidtrack/bidtrack/internal/transport"
)

const (
	// DefaultShutdownTimeout is the default timeout for graceful shutdown
	DefaultShutdownTimeout = 30 * time.Second

	redisPingTimeout = 2 * time.Second
	idleTimeout      = 120 * time.Second
)

// App represents the bidtrack application with all its dependencies
type App struct {
	config      *config.Config
	logger      logger.Logger
	db          *sqlx.DB
	redisClient redis.UniversalClient
	transport   transport.Transport
	hub         *transport.Hub // non-nil only for the hub backend
	httpServer  *http.Server
	version     string
}

// Options contains configuration for creating a new App
type Options struct {
	ConfigPath string
	Version    string
}

// New creates a new App instance with all dependencies initialized
func New(opts Options) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	appLogger, err := logger.NewLogger(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	appLogger = appLogger.With(
		logger.String("service", "bidtrack"),
		logger.String("version", opts.Version),
	)

	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		_ = appLogger.Sync()
		return nil, fmt.Errorf("connect to Postgres: %w", err)
	}

	a := &App{
		config:  cfg,
		logger:  appLogger,
		db:      db,
		version: opts.Version,
	}

	if connectErr := a.connectRedis(); connectErr != nil {
		a.close()
		return nil, connectErr
	}

	recorder := a.newRecorder()
	if buildErr := a.buildTransport(); buildErr != nil {
		a.close()
		return nil, buildErr
	}

	jobRepo := database.NewJobRepository(db)
	notificationRepo := database.NewNotificationRepository(db)

	notifyService := notify.NewService(notificationRepo, a.transport, recorder, appLogger)
	jobsService := jobs.NewService(jobRepo, notifyService, recorder, appLogger)

	router := api.NewRouter(jobsService, notifyService, a.hub, jobRepo, a.redisClient, cfg, appLogger)

	a.httpServer = &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  idleTimeout,
	}

	return a, nil
}

// connectRedis establishes the shared Redis client when configured.
// The relay backend requires it; the hub backend uses it only for
// metrics when present.
func (a *App) connectRedis() error {
	if a.config.Redis.URL == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     a.config.Redis.URL,
		Password: a.config.Redis.Password,
		DB:       a.config.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if pingErr := client.Ping(ctx).Err(); pingErr != nil {
		return fmt.Errorf("connect to Redis: %w", pingErr)
	}

	a.redisClient = client
	return nil
}

// newRecorder returns the Redis counter tracker when Redis is available.
func (a *App) newRecorder() metrics.Recorder {
	if a.redisClient == nil {
		return metrics.Nop{}
	}
	return metrics.NewTracker(a.redisClient, a.logger)
}

// buildTransport constructs the delivery backend selected in config.
// Business code only ever sees the transport.Transport interface.
func (a *App) buildTransport() error {
	switch a.config.Transport.Backend {
	case config.TransportHub:
		a.hub = transport.NewHub(a.logger)
		a.transport = a.hub
	case config.TransportRelay:
		if a.redisClient == nil {
			return errors.New("relay backend requires Redis")
		}
		a.transport = transport.NewRelay(a.redisClient, a.logger)
	default:
		return fmt.Errorf("unknown transport backend %q", a.config.Transport.Backend)
	}

	a.logger.Info("transport backend selected",
		logger.String("backend", a.config.Transport.Backend),
	)
	return nil
}

// Run starts the HTTP server and blocks until shutdown
func (a *App) Run() error {
	serverErr := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			logger.String("address", a.config.Server.Address),
			logger.Bool("debug", a.config.Debug),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigChan:
		a.logger.Info("shutting down gracefully", logger.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil {
			a.logger.Error("server error", logger.Error(err))
			runErr = err
		}
	}

	a.shutdownHTTPServer()
	a.logger.Info("service stopped")
	return runErr
}

// shutdownHTTPServer gracefully shuts down the HTTP server
func (a *App) shutdownHTTPServer() {
	if a.httpServer == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("server shutdown error", logger.Error(err))
	} else {
		a.logger.Info("HTTP server stopped")
	}
}

// close releases resources: transport first so live sessions drain before
// the stores they depend on disappear.
func (a *App) close() {
	if a.transport != nil {
		if err := a.transport.Close(); err != nil {
			a.logger.Warn("failed to close transport", logger.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close Redis client", logger.Error(err))
		}
	}
	if a.db != nil {
		if err := database.Close(a.db); err != nil {
			a.logger.Warn("failed to close database", logger.Error(err))
		}
	}
}

// Close cleans up resources and flushes the logger
func (a *App) Close() error {
	a.close()
	return a.logger.Sync()
}

// Logger returns the application logger
func (a *App) Logger() logger.Logger {
	return a.logger
}
