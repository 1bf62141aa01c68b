package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/kierolabs/dealdesk-backend/internal/db"
	"github.com/kierolabs/dealdesk-backend/internal/http"
	"github.com/kierolabs/dealdesk-backend/internal/observability"
	"github.com/kierolabs/dealdesk-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *http.Server
	Cfg      Config
	Repos    Repos
	Services Services
	Metrics  *observability.Metrics

	cancel       context.CancelFunc
	otelShutdown func(context.Context) error
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	metrics := observability.Init(log)
	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})

	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(theDB, log, cfg, reposet)
	if err != nil {
		log.Sync()
		return nil, err
	}
	serviceset.JobWorker.SetInterval(cfg.WorkerInterval)

	handlerset := wireHandlers(log, cfg, reposet, serviceset)
	server := wireRouter(cfg, handlerset, metrics)

	return &App{
		Log:          log,
		DB:           theDB,
		Server:       server,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Metrics:      metrics,
		otelShutdown: otelShutdown,
	}, nil
}

func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Cfg.WorkerEnabled && a.Services.JobWorker != nil {
		a.Services.JobWorker.Start(ctx)
	}
	if a.Metrics != nil {
		a.Metrics.StartServer(ctx, a.Log, a.Cfg.MetricsAddr)
		a.Metrics.StartJobQueueCollector(ctx, a.Log, a.DB)
	}
}

func (a *App) Run(addr string) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Server.Run(addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Server != nil {
		drainCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.Server.Shutdown(drainCtx)
		cancel()
	}
	if a.otelShutdown != nil {
		shutdownCtx, cancel := context.WithCancel(context.Background())
		_ = a.otelShutdown(shutdownCtx)
		cancel()
	}
	if a.Services.GraphCache != nil {
		_ = a.Services.GraphCache.Close()
	}
	if a.Services.ArtifactStore != nil {
		_ = a.Services.ArtifactStore.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
