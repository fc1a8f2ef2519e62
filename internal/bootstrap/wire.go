package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

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

const (
	databaseComponent = "database"
	failureRetention  = 30 * 24 * time.Hour
)

// Wire builds every component without touching the network.
func Wire(cfg *config.Config) (*Components, error) {
	logging.Info("Wiring components...")

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	logging.Info("Database opened at %s", cfg.Database.Path)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	wd := watchdog.NewWatchdog(5 * time.Second)
	wd.RegisterComponent(bot.GatewayComponent, 2*time.Minute)
	wd.RegisterComponent(databaseComponent, 2*time.Minute)

	session, err := bot.New(cfg.Bot.Token)
	if err != nil {
		db.Close()
		return nil, err
	}

	feed := audit.NewFeed(cfg.Attribution.FeedTTL())
	querier := audit.NewDiscordQuerier(session.Discord(), feed, m)
	resolver := attribution.NewResolver(querier, attribution.Options{
		Attempts:  cfg.Attribution.Attempts,
		Limit:     cfg.Attribution.Limit,
		BaseDelay: cfg.Attribution.BaseDelay(),
		StepDelay: cfg.Attribution.StepDelay(),
		Staleness: cfg.Attribution.Staleness(),
	}, m)

	sink := &notifier.MultiSink{
		Channel: notifier.NewChannelSink(session.Discord()),
		Webhook: notifier.NewWebhookSink("Mod Logger"),
	}
	dispatcher := notifier.NewDispatcher(sink, notifier.NewRoutes(cfg.Routes, db), db, m)

	roles := rolecache.NewMemoryStore()
	r := router.New(resolver, roles, dispatcher, router.NewNameBook(), m)

	ctx, cancel := context.WithCancel(context.Background())
	handlers := bot.NewHandlers(ctx, r, feed, wd, m, cfg.Bot.SeedMembers)
	session.SetupEventHandlers(handlers)

	return &Components{
		Feed:       feed,
		Querier:    querier,
		Resolver:   resolver,
		Roles:      roles,
		Dispatcher: dispatcher,
		Router:     r,
		Session:    session,
		Handlers:   handlers,
		Heartbeat:  bot.NewHeartbeatMonitor(session, wd),
		Sink:       sink,
		Database:   db,
		Metrics:    m,
		Watchdog:   wd,
		Admin:      metrics.NewAdminServer(cfg.Admin.ListenAddr, m, wd),
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

// StartAll connects to Discord and starts the background loops.
func StartAll(cfg *config.Config, c *Components) error {
	c.Watchdog.Start()
	c.Admin.Start()

	if err := c.Session.Connect(); err != nil {
		return fmt.Errorf("discord connect: %w", err)
	}

	handler, err := commands.Initialize(c.Session, commands.Deps{
		Store:   c.Database,
		Routes:  cfg.Routes,
		Sink:    c.Sink,
		Cache:   c.Roles,
		Metrics: c.Metrics,
		Health:  c.Watchdog,
	})
	if err != nil {
		return err
	}
	c.Commands = handler

	go c.Heartbeat.Run(c.ctx, 10*time.Second)
	go monitorDatabase(c.ctx, c.Database, c.Watchdog, 30*time.Second)

	logging.Info("All components started")
	return nil
}

// monitorDatabase pings SQLite for the watchdog and prunes old failure rows.
func monitorDatabase(ctx context.Context, db *database.Database, health bot.HealthSink, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastPrune := time.Time{}
	for {
		if db.IsConnected(ctx) {
			health.Heartbeat(databaseComponent)
		} else {
			health.MarkDown(databaseComponent)
		}

		if time.Since(lastPrune) > 24*time.Hour {
			if n, err := db.PruneFailures(ctx, time.Now().Add(-failureRetention)); err != nil {
				logging.Warn("Failed to prune delivery failures: %v", err)
			} else if n > 0 {
				logging.Info("Pruned %d old delivery failures", n)
			}
			lastPrune = time.Now()
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
