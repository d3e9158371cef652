// Package server wires the RecycleQuest API together: configuration, the user
// directory, object storage, the HTTP API and the gRPC health endpoint. It
// runs them until the process is signalled.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/recyclequest/internal/logging"
	"github.com/dmitrijs2005/recyclequest/internal/server/auth"
	"github.com/dmitrijs2005/recyclequest/internal/server/config"
	"github.com/dmitrijs2005/recyclequest/internal/server/health"
	"github.com/dmitrijs2005/recyclequest/internal/server/httpapi"
	"github.com/dmitrijs2005/recyclequest/internal/server/metrics"
	"github.com/dmitrijs2005/recyclequest/internal/server/middleware"
	"github.com/dmitrijs2005/recyclequest/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/recyclequest/internal/server/services"
	"github.com/dmitrijs2005/recyclequest/internal/server/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/recyclequest/internal/server/grpc"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	redis   *redis.Client
	handler http.Handler
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel).With("environment", c.Environment)

	db, rm, err := openDirectory(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	app := &App{config: c, logger: logger, db: db}

	handler, err := app.build(ctx, rm)
	if err != nil {
		app.close()
		return nil, err
	}
	app.handler = handler

	return app, nil
}

// openDirectory connects to Postgres and applies migrations, or selects the
// in-memory directory when configured.
func openDirectory(ctx context.Context, c *config.Config, logger logging.Logger) (*sql.DB, repomanager.RepositoryManager, error) {
	if c.InMemory() {
		logger.Warn(ctx, "using in-memory user directory, data is lost on restart")
		return nil, repomanager.NewMemoryRepositoryManager(), nil
	}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrations error: %w", err)
	}

	return db, rm, nil
}

func (app *App) build(ctx context.Context, rm repomanager.RepositoryManager) (http.Handler, error) {
	c := app.config

	hasher, err := auth.NewPasswordHasher(c.PasswordHashAlgorithm, c.PasswordHashCost)
	if err != nil {
		return nil, err
	}
	tokens := auth.NewTokenCodec([]byte(c.SecretKey), c.AccessTokenValidityDuration)

	us, err := services.NewUserService(app.db, rm, hasher, tokens, app.logger)
	if err != nil {
		return nil, fmt.Errorf("user service init error: %w", err)
	}

	store, err := storage.New(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}
	// An unreachable store only degrades readiness; uploads fail until it
	// comes back.
	if err := store.EnsureBucket(ctx); err != nil {
		app.logger.Warn(ctx, "bucket check failed", "bucket", c.S3Bucket, "error", err)
	}
	uploads := services.NewUploadService(store, c.MaxFileSize, app.logger)

	app.redis = health.NewRedisClient(c.RedisAddr, c.RedisPassword)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(registry)

	authorizer := middleware.NewAuthorizer(tokens, rm.Users(app.db), app.logger)

	return httpapi.NewRouter(httpapi.RouterDeps{
		Handler:     httpapi.NewHandler(us, uploads, m, app.logger),
		RequireAuth: authorizer.Middleware,
		Health:      health.NewChecker(app.db, app.redis, store, app.logger),
		Metrics:     m,
		Logger:      app.logger,
		CORSOrigins: c.CORSOrigins,
	}), nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := &http.Server{
		Addr:              app.config.EndpointAddrHTTP,
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "HTTP shutdown error", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", srv.Addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled, a signal arrives or a server fails.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.close()
	app.logger.Info(context.Background(), "App stopped")
}

func (app *App) close() {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Warn(context.Background(), "redis close error", "error", err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Warn(context.Background(), "db close error", "error", err)
		}
	}
}
