package bootstrap

import (
	"context"

	"go-modlogger/internal/logging"
)

// Shutdown stops background work, then the gateway, then storage. In-flight
// handlers see a cancelled context and dispatch their records with an
// unknown actor.
func Shutdown(ctx context.Context, c *Components) error {
	logging.Info("Starting graceful shutdown...")

	if c.cancel != nil {
		c.cancel()
	}

	if c.Admin != nil {
		logging.Info("Stopping admin server...")
		if err := c.Admin.Stop(ctx); err != nil {
			logging.Warn("Admin server shutdown: %v", err)
		}
	}

	if c.Watchdog != nil {
		logging.Info("Stopping watchdog...")
		c.Watchdog.Stop()
	}

	if c.Session != nil {
		logging.Info("Closing Discord session...")
		if err := c.Session.Close(); err != nil {
			logging.Warn("Discord close: %v", err)
		}
	}

	if c.Database != nil {
		logging.Info("Closing database...")
		if err := c.Database.Close(); err != nil {
			logging.Warn("Database close: %v", err)
		}
	}

	logging.Info("Graceful shutdown complete")
	return logging.Close()
}

// EmergencyShutdown skips the admin server drain.
func EmergencyShutdown(c *Components) {
	logging.Critical("Emergency shutdown initiated")

	if c.cancel != nil {
		c.cancel()
	}
	if c.Watchdog != nil {
		c.Watchdog.Stop()
	}
	if c.Session != nil {
		c.Session.Close()
	}
	if c.Database != nil {
		c.Database.Close()
	}

	logging.Critical("Emergency shutdown complete")
	logging.Close()
}
