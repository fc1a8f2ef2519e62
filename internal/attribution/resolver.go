// Package attribution works out which user caused a gateway event by polling
// the guild audit log until a matching entry appears.
package attribution

import (
	"context"
	"time"

	"go-modlogger/internal/audit"
	"go-modlogger/internal/logging"
	"go-modlogger/internal/metrics"
	"go-modlogger/internal/models"
)

// Query describes one attribution request.
type Query struct {
	GuildID  string
	Category models.ActionCategory
	TargetID string
	Hint     *models.RoleHint
	// StrictTarget disables the "most recent entry" fallback, so only an
	// entry about TargetID (or the hinted role) can attribute the event.
	StrictTarget bool
}

type Options struct {
	Attempts  int
	Limit     int
	BaseDelay time.Duration
	StepDelay time.Duration
	Staleness time.Duration
}

func DefaultOptions() Options {
	return Options{
		Attempts:  4,
		Limit:     10,
		BaseDelay: 1200 * time.Millisecond,
		StepDelay: 300 * time.Millisecond,
		Staleness: 10 * time.Second,
	}
}

// MaxWait is the total time spent sleeping between attempts.
func (o Options) MaxWait() time.Duration {
	var total time.Duration
	for attempt := 0; attempt < o.Attempts-1; attempt++ {
		total += o.delay(attempt)
	}
	return total
}

func (o Options) delay(attempt int) time.Duration {
	return o.BaseDelay + time.Duration(attempt)*o.StepDelay
}

type Resolver struct {
	querier audit.Querier
	opts    Options
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewResolver(querier audit.Querier, opts Options, m *metrics.Metrics) *Resolver {
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}
	if opts.Limit < 1 {
		opts.Limit = DefaultOptions().Limit
	}
	return &Resolver{
		querier: querier,
		opts:    opts,
		metrics: m,
		now:     time.Now,
	}
}

// Resolve never fails: it returns the matched actor or models.UnknownActor
// once attempts are exhausted or ctx is done.
func (r *Resolver) Resolve(ctx context.Context, q Query) models.Actor {
	start := r.now()
	attempts := 0

	for attempt := 0; attempt < r.opts.Attempts; attempt++ {
		attempts++

		entries, err := r.querier.Query(ctx, q.GuildID, q.Category, r.opts.Limit)
		if err != nil {
			logging.Debug("[ATTRIBUTION] %s attempt %d for %s: %v", q.Category, attempt+1, q.TargetID, err)
			entries = nil
		}

		if entry, rule := match(entries, q, r.now(), r.opts.Staleness); rule != RuleNone {
			r.observe(q, rule, attempts, start)
			return entry.Actor()
		}

		if attempt == r.opts.Attempts-1 {
			break
		}
		if !sleep(ctx, r.opts.delay(attempt)) {
			break
		}
	}

	r.observe(q, RuleNone, attempts, start)
	logging.Debug("[ATTRIBUTION] no %s entry for target %s in guild %s after %d attempts", q.Category, q.TargetID, q.GuildID, attempts)
	return models.UnknownActor
}

func (r *Resolver) observe(q Query, rule Rule, attempts int, start time.Time) {
	r.metrics.ObserveResolution(q.Category.String(), string(rule), attempts, r.now().Sub(start).Seconds())
}

// sleep waits for d without holding the goroutine past ctx cancellation.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
