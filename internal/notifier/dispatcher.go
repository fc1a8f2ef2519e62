package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-modlogger/internal/config"
	"go-modlogger/internal/logging"
	"go-modlogger/internal/metrics"
	"go-modlogger/internal/models"
)

// Delivery outcomes reported to metrics.
const (
	OutcomePrimary  = "primary"
	OutcomeFallback = "fallback"
	OutcomeFailed   = "failed"
)

// RouteOverrides returns a per-guild destination set with /logs set, or "" if none.
type RouteOverrides interface {
	GetRoute(ctx context.Context, guildID string, category models.LogCategory) (string, error)
}

// FailureJournal keeps terminal delivery failures for operators.
type FailureJournal interface {
	RecordFailure(ctx context.Context, f models.DeliveryFailure) error
}

// Routes resolves the destination for a record: a guild override first,
// then the static table from config.
type Routes struct {
	static    config.RoutesConfig
	overrides RouteOverrides
}

func NewRoutes(static config.RoutesConfig, overrides RouteOverrides) *Routes {
	return &Routes{static: static, overrides: overrides}
}

func (r *Routes) Destination(ctx context.Context, guildID string, category models.LogCategory) string {
	if r.overrides != nil && guildID != "" {
		id, err := r.overrides.GetRoute(ctx, guildID, category)
		if err != nil {
			logging.Warn("[ROUTES] override lookup for %s/%s failed: %v", guildID, category, err)
		} else if id != "" {
			return id
		}
	}
	id, _ := r.static.Destination(category)
	return id
}

func (r *Routes) Fallback() string {
	return r.static.FallbackDestination()
}

// Dispatcher delivers to the primary destination and, on failure or a
// missing route, makes exactly one attempt at the fallback.
type Dispatcher struct {
	sink    Sink
	routes  *Routes
	journal FailureJournal
	metrics *metrics.Metrics
}

func NewDispatcher(sink Sink, routes *Routes, journal FailureJournal, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		sink:    sink,
		routes:  routes,
		journal: journal,
		metrics: m,
	}
}

// Dispatch returns nil if either destination accepted the record and an
// error wrapping ErrDeliveryFailed otherwise.
func (d *Dispatcher) Dispatch(ctx context.Context, record *models.LogRecord) error {
	primary := d.routes.Destination(ctx, record.GuildID, record.Category)

	var primaryErr error
	if primary == "" {
		primaryErr = fmt.Errorf("category %s: %w", record.Category, ErrNoDestination)
	} else if primaryErr = d.sink.Deliver(ctx, record, primary); primaryErr == nil {
		d.metrics.ObserveDelivery(string(record.Category), OutcomePrimary)
		return nil
	}

	fallback := d.routes.Fallback()
	var fallbackErr error
	if fallback == "" {
		fallbackErr = ErrNoDestination
	} else if fallbackErr = d.sink.Deliver(ctx, record, fallback); fallbackErr == nil {
		if !errors.Is(primaryErr, ErrNoDestination) {
			logging.Warn("[NOTIFIER] %s record %s sent to fallback: %v", record.Category, record.ID, primaryErr)
		}
		d.metrics.ObserveDelivery(string(record.Category), OutcomeFallback)
		return nil
	}

	err := fmt.Errorf("%w: primary %q: %v; fallback %q: %v", ErrDeliveryFailed, primary, primaryErr, fallback, fallbackErr)
	d.metrics.ObserveDelivery(string(record.Category), OutcomeFailed)
	logging.Error("[NOTIFIER] dropped %s record %s for guild %s: %v", record.Category, record.ID, record.GuildID, err)

	if d.journal != nil {
		// the caller's context may already be done at shutdown
		jctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		jerr := d.journal.RecordFailure(jctx, models.DeliveryFailure{
			RecordID:    record.ID,
			GuildID:     record.GuildID,
			Category:    record.Category,
			Destination: primary,
			Error:       err.Error(),
			CreatedAt:   time.Now(),
		})
		if jerr != nil {
			logging.Warn("[NOTIFIER] could not journal failure for %s: %v", record.ID, jerr)
		}
	}

	return err
}
