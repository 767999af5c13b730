// Package server wires the vanish server together: storage, services, the
// public gRPC endpoint, the admin HTTP endpoint and the expiry reaper. It
// handles OS signals and shuts everything down gracefully.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/vanish/internal/logging"
	"github.com/dmitrijs2005/vanish/internal/observability/metrics"
	"github.com/dmitrijs2005/vanish/internal/server/admin"
	"github.com/dmitrijs2005/vanish/internal/server/auth"
	"github.com/dmitrijs2005/vanish/internal/server/config"
	"github.com/dmitrijs2005/vanish/internal/server/repositories/memory"
	"github.com/dmitrijs2005/vanish/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/vanish/internal/server/services"
	"github.com/dmitrijs2005/vanish/internal/server/visibility"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	gs "github.com/dmitrijs2005/vanish/internal/server/grpc"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config   *config.Config
	logger   logging.Logger
	store    repomanager.RepositoryManager
	registry *prometheus.Registry

	audit   *services.AuditLog
	media   *services.MediaService
	views   *services.ViewService
	reports *services.ReportService
	reaper  *services.Reaper
}

// openStore returns the repository manager for the configured storage mode,
// with migrations applied.
func openStore(ctx context.Context, c *config.Config) (repomanager.RepositoryManager, error) {
	switch c.StorageMode {
	case config.StorageMemory:
		return memory.NewStore(), nil
	case config.StoragePostgres:
		m, err := repomanager.Open(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		if err := m.RunMigrations(ctx); err != nil {
			_ = m.Close()
			return nil, fmt.Errorf("migrations error: %w", err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown storage mode %q", c.StorageMode)
	}
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(slog.LevelInfo)

	store, err := openStore(ctx, c)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err := metrics.Register(registry, "vanish"); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("metrics init error: %w", err)
	}

	audit := services.NewAuditLog(store, logger)
	blobs := services.NewS3BlobStore(c)
	limiter := services.NewClaimLimiter(c.ClaimRatePerMinute, c.ClaimBurst)
	policy := visibility.Policy{RepeatViews: c.AllowRepeatViews}

	return &App{
		config:   c,
		logger:   logger,
		store:    store,
		registry: registry,
		audit:    audit,
		media:    services.NewMediaService(store, audit, blobs, logger),
		views:    services.NewViewService(store, audit, blobs, limiter, policy, logger),
		reports:  services.NewReportService(store, audit, logger),
		reaper:   services.NewReaper(store, limiter, c.ReaperInterval, c.UnopenedTTL, logger),
	}, nil
}

// IssueToken signs an access token for userID with the server secret.
// Identity is owned by the surrounding system; this is how it hands a
// caller its token.
func IssueToken(c *config.Config, userID string) (string, error) {
	return auth.GenerateToken(userID, []byte(c.SecretKey), c.AccessTokenValidityDuration)
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

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.media, app.views, app.reports, app.config.SecretKey)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startAdminServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := &http.Server{
		Addr: app.config.EndpointAddrHTTP,
		Handler: admin.NewRouter(admin.Deps{
			DB:        app.store,
			Reports:   app.reports,
			Events:    app.audit,
			Gatherer:  app.registry,
			JWTSecret: []byte(app.config.SecretKey),
			Logger:    app.logger,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping admin HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	app.logger.Info(ctx, "Starting admin HTTP server", "address", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "storage", app.config.StorageMode, "repeat_views", app.config.AllowRepeatViews)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startAdminServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.reaper.Run(ctx)
	}()

	wg.Wait()

	if err := app.store.Close(); err != nil {
		app.logger.Error(ctx, "store close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
