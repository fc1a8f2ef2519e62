package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every collector the logger exports. All methods are safe on a
// nil receiver so components can run without instrumentation in tests.
type Metrics struct {
	registry *prometheus.Registry

	GatewayEvents    *prometheus.CounterVec
	AuditQueries     *prometheus.CounterVec
	Resolutions      *prometheus.CounterVec
	ResolveAttempts  prometheus.Histogram
	ResolveDuration  prometheus.Histogram
	Deliveries       *prometheus.CounterVec
	TerminalFailures prometheus.Counter
	RoleCacheEntries prometheus.Gauge
	eventRate        *EventRate
}

func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		GatewayEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "modlogger_gateway_events_total",
			Help: "Gateway events handed to the router, by event type",
		}, []string{"event"}),
		AuditQueries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "modlogger_audit_queries_total",
			Help: "Audit log queries by action category and result",
		}, []string{"category", "result"}),
		Resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "modlogger_attribution_resolutions_total",
			Help: "Attribution outcomes by action category and matching rule",
		}, []string{"category", "rule"}),
		ResolveAttempts: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "modlogger_attribution_attempts",
			Help:    "Audit queries issued per attribution",
			Buckets: []float64{1, 2, 3, 4, 6, 8},
		}),
		ResolveDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "modlogger_attribution_duration_seconds",
			Help:    "Wall time spent resolving one actor",
			Buckets: []float64{0.05, 0.25, 0.5, 1, 2, 4, 6, 8},
		}),
		Deliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "modlogger_deliveries_total",
			Help: "Record deliveries by log category and outcome",
		}, []string{"category", "outcome"}),
		TerminalFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "modlogger_delivery_terminal_failures_total",
			Help: "Records lost because both primary and fallback delivery failed",
		}),
		RoleCacheEntries: factory.NewGauge(prometheus.GaugeOpts{
			Name: "modlogger_role_cache_entries",
			Help: "Member role snapshots currently cached",
		}),
		eventRate: NewEventRate(),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveGatewayEvent(event string) {
	if m == nil {
		return
	}
	m.GatewayEvents.WithLabelValues(event).Inc()
	m.eventRate.Increment()
}

func (m *Metrics) ObserveAuditQuery(category, result string) {
	if m == nil {
		return
	}
	m.AuditQueries.WithLabelValues(category, result).Inc()
}

func (m *Metrics) ObserveResolution(category, rule string, attempts int, seconds float64) {
	if m == nil {
		return
	}
	m.Resolutions.WithLabelValues(category, rule).Inc()
	m.ResolveAttempts.Observe(float64(attempts))
	m.ResolveDuration.Observe(seconds)
}

func (m *Metrics) ObserveDelivery(category, outcome string) {
	if m == nil {
		return
	}
	m.Deliveries.WithLabelValues(category, outcome).Inc()
	if outcome == "failed" {
		m.TerminalFailures.Inc()
	}
}

func (m *Metrics) SetRoleCacheEntries(n int) {
	if m == nil {
		return
	}
	m.RoleCacheEntries.Set(float64(n))
}

// EventRate returns the average gateway events per second since start.
func (m *Metrics) EventRate() *EventRate {
	if m == nil {
		return nil
	}
	return m.eventRate
}
