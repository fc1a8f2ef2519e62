package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go-modlogger/internal/attribution"
	"go-modlogger/internal/audit"
	"go-modlogger/internal/bot"
	"go-modlogger/internal/commands"
	"go-modlogger/internal/config"
	"go-modlogger/internal/database"
	"go-modlogger/internal/logging"
	"go-modlogger/internal/metrics"
	"go-modlogger/internal/notifier"
	"go-modlogger/internal/rolecache"
	"go-modlogger/internal/router"
	"go-modlogger/internal/watchdog"
)

type Bootstrap struct {
	Config      *config.Config
	Components  *Components
	initialized bool
}

type Components struct {
	// Attribution pipeline
	Feed       *audit.Feed
	Querier    *audit.DiscordQuerier
	Resolver   *attribution.Resolver
	Roles      *rolecache.MemoryStore
	Dispatcher *notifier.Dispatcher
	Router     *router.Router

	// Discord
	Session   *bot.Session
	Handlers  *bot.Handlers
	Heartbeat *bot.HeartbeatMonitor
	Commands  *commands.Handler
	Sink      notifier.Sink

	// Persistence and monitoring
	Database *database.Database
	Metrics  *metrics.Metrics
	Watchdog *watchdog.Watchdog
	Admin    *metrics.AdminServer

	ctx    context.Context
	cancel context.CancelFunc
}

func New(cfg *config.Config) *Bootstrap {
	return &Bootstrap{
		Config:      cfg,
		initialized: false,
	}
}

func (b *Bootstrap) Initialize() error {
	if b.Config == nil {
		return fmt.Errorf("no configuration")
	}
	if b.Config.Bot.Token == "" {
		return fmt.Errorf("bot token missing: set DISCORD_TOKEN or bot.token")
	}

	if err := b.initializeLogging(); err != nil {
		return fmt.Errorf("logging init failed: %w", err)
	}

	if err := b.wireComponents(); err != nil {
		return fmt.Errorf("component wiring failed: %w", err)
	}

	b.initialized = true
	logging.Info("Bootstrap complete")
	return nil
}

func (b *Bootstrap) initializeLogging() error {
	if err := ensureLogsDirectory(b.Config.Logging.File); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}
	return logging.InitGlobalLogger(logging.ParseLevel(b.Config.Logging.Level), b.Config.Logging.File)
}

func ensureLogsDirectory(logFile string) error {
	dir := filepath.Dir(logFile)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (b *Bootstrap) wireComponents() error {
	components, err := Wire(b.Config)
	if err != nil {
		return err
	}
	b.Components = components
	return nil
}

func (b *Bootstrap) Start() error {
	if !b.initialized {
		return fmt.Errorf("bootstrap not initialized")
	}

	return StartAll(b.Config, b.Components)
}

func (b *Bootstrap) Shutdown(ctx context.Context) error {
	if b.Components == nil {
		return logging.Close()
	}
	return Shutdown(ctx, b.Components)
}
