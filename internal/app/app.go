package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/skillforge/skillforge-backend/internal/data/db"
	internalhttp "github.com/skillforge/skillforge-backend/internal/http"
	"github.com/skillforge/skillforge-backend/internal/platform/logger"
)

const (
	replayInterval = 30 * time.Second
	sweepInterval  = time.Minute
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *internalhttp.Server
	Cfg      Config
	Repos    Repos
	Clients  Clients
	Services Services

	cancel context.CancelFunc
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

	tunables, err := LoadTunables(cfg.TunablesPath, log)
	if err != nil {
		log.Sync()
		return nil, err
	}

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

	clientset, err := wireClients(cfg, log)
	if err != nil {
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(theDB, log)
	serviceset := wireServices(theDB, log, cfg, tunables, reposet, clientset)
	handlerset := wireHandlers(log, serviceset)
	server := wireRouter(log, cfg, handlerset, serviceset)

	return &App{
		Log:      log,
		DB:       theDB,
		Server:   server,
		Cfg:      cfg,
		Repos:    reposet,
		Clients:  clientset,
		Services: serviceset,
	}, nil
}

// Start launches the background loops: offline-queue replay and the sprint
// expiry sweep.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	go a.replayLoop(ctx)
	go a.sweepLoop(ctx)
}

func (a *App) replayLoop(ctx context.Context) {
	ticker := time.NewTicker(replayInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := a.Services.Activity.ReplayPending(ctx)
			if err != nil {
				a.Log.Warn("offline replay failed", "error", err, "replayed", n)
			} else if n > 0 {
				a.Log.Info("offline replay completed", "replayed", n)
			}
		}
	}
}

func (a *App) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := a.Services.Sprint.ExpireOverdue(ctx); err != nil {
				a.Log.Warn("sprint expiry sweep failed", "error", err)
			}
		}
	}
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Server.Run(a.Cfg.HTTPAddr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Clients.Redis != nil {
		_ = a.Clients.Redis.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
