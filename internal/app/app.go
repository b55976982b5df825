package app

import (
	"context"
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/lumenlearn/guidance-backend/internal/db"
	httpx "github.com/lumenlearn/guidance-backend/internal/http"
	"github.com/lumenlearn/guidance-backend/internal/observability"
	"github.com/lumenlearn/guidance-backend/internal/pkg/logger"
	"github.com/lumenlearn/guidance-backend/internal/realtime"
	"github.com/lumenlearn/guidance-backend/internal/realtime/bus"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *httpx.Server
	Cfg      Config
	Repos    Repos
	Services Services
	SSEHub   *realtime.SSEHub
	Bus      bus.Bus

	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
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

	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "guidance-backend",
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})

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

	hub := realtime.NewSSEHub(log)

	// The bus is optional; single-instance deployments run without Redis
	// and the hub alone covers all connected clients.
	var b bus.Bus
	if cfg.RedisEnabled() {
		if b, err = bus.NewRedisBus(log, cfg.RedisAddr, cfg.RedisChannel); err != nil {
			log.Warn("redis bus init failed, running hub-only", "error", err)
			b = nil
		}
	}

	reposet := wireRepos(theDB, log)
	serviceset := wireServices(theDB, log, cfg, reposet)
	handlerset := wireHandlers(log, serviceset, hub, b)
	middlewareset := wireMiddleware(log, serviceset)
	server := wireServer(log, handlerset, middlewareset)

	return &App{
		Log:          log,
		DB:           theDB,
		Server:       server,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		SSEHub:       hub,
		Bus:          b,
		otelShutdown: otelShutdown,
	}, nil
}

// Start launches background work: the bus forwarder that replays messages
// published by other instances into the local hub.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Bus != nil {
		if err := a.Bus.StartForwarder(ctx, func(m realtime.SSEMessage) {
			a.SSEHub.Broadcast(m)
		}); err != nil {
			a.Log.Warn("bus forwarder failed to start", "error", err)
		}
	}
}

// Run serves HTTP until ctx is cancelled, then drains and returns.
func (a *App) Run(ctx context.Context, addr string) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Server.Run(ctx, addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Bus != nil {
		if err := a.Bus.Close(); err != nil {
			a.Log.Warn("bus close failed", "error", err)
		}
	}
	if a.otelShutdown != nil {
		_ = a.otelShutdown(context.Background())
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
