package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "coreview"

// Review outcomes used as the "outcome" label.
const (
	OutcomeOK      = "ok"
	OutcomeCached  = "cached"
	OutcomeEmpty   = "empty"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// Metrics holds the collectors for reviews and collaboration rooms.
type Metrics struct {
	registry *prometheus.Registry

	ReviewsTotal          *prometheus.CounterVec
	ReviewDurationSeconds *prometheus.HistogramVec
	ProviderTokensTotal   *prometheus.CounterVec
	SecretsRedactedTotal  prometheus.Counter
	CacheLookupsTotal     *prometheus.CounterVec

	RoomsActive      prometheus.Gauge
	ClientsConnected prometheus.Gauge
	MessagesRelayed  *prometheus.CounterVec
	MessagesDropped  *prometheus.CounterVec
	RateLimitedTotal prometheus.Counter
}

// New creates a Metrics instance with its own registry, including the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ReviewsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "review",
			Name:      "requests_total",
			Help:      "Review requests by mode and outcome",
		}, []string{"mode", "outcome"}),
		ReviewDurationSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "review",
			Name:      "duration_seconds",
			Help:      "Time spent waiting on the model provider",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"provider"}),
		ProviderTokensTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "review",
			Name:      "tokens_total",
			Help:      "Tokens reported by the model provider",
		}, []string{"provider"}),
		SecretsRedactedTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "review",
			Name:      "secrets_redacted_total",
			Help:      "Secrets replaced before code left the process",
		}),
		CacheLookupsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Review cache lookups by result",
		}, []string{"result"}),
		RoomsActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "collab",
			Name:      "rooms_active",
			Help:      "Rooms with at least one connected client",
		}),
		ClientsConnected: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "collab",
			Name:      "clients_connected",
			Help:      "Open websocket connections",
		}),
		MessagesRelayed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collab",
			Name:      "messages_relayed_total",
			Help:      "Messages fanned out to peers by type",
		}, []string{"type"}),
		MessagesDropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collab",
			Name:      "messages_dropped_total",
			Help:      "Messages not delivered by reason",
		}, []string{"reason"}),
		RateLimitedTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the review rate limiter",
		}),
	}
}

// Registry exposes the private registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveReview records one finished review.
func (m *Metrics) ObserveReview(mode, outcome string) {
	if m == nil {
		return
	}
	m.ReviewsTotal.WithLabelValues(mode, outcome).Inc()
}

// ObserveProvider records the latency and token usage of one provider call.
func (m *Metrics) ObserveProvider(provider string, d time.Duration, tokens int) {
	if m == nil {
		return
	}
	m.ReviewDurationSeconds.WithLabelValues(provider).Observe(d.Seconds())
	if tokens > 0 {
		m.ProviderTokensTotal.WithLabelValues(provider).Add(float64(tokens))
	}
}

// SecretsRedacted adds n redactions.
func (m *Metrics) SecretsRedacted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SecretsRedactedTotal.Add(float64(n))
}

// CacheLookup records a cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookupsTotal.WithLabelValues(result).Inc()
}

// RoomOpened and RoomClosed track the active room gauge.
func (m *Metrics) RoomOpened() {
	if m != nil {
		m.RoomsActive.Inc()
	}
}

func (m *Metrics) RoomClosed() {
	if m != nil {
		m.RoomsActive.Dec()
	}
}

// ClientConnected and ClientDisconnected track open sockets.
func (m *Metrics) ClientConnected() {
	if m != nil {
		m.ClientsConnected.Inc()
	}
}

func (m *Metrics) ClientDisconnected() {
	if m != nil {
		m.ClientsConnected.Dec()
	}
}

// Relayed counts a message delivered to peers.
func (m *Metrics) Relayed(msgType string) {
	if m != nil {
		m.MessagesRelayed.WithLabelValues(msgType).Inc()
	}
}

// Dropped counts a message that was discarded.
func (m *Metrics) Dropped(reason string) {
	if m != nil {
		m.MessagesDropped.WithLabelValues(reason).Inc()
	}
}

// RateLimited counts a rejected review request.
func (m *Metrics) RateLimited() {
	if m != nil {
		m.RateLimitedTotal.Inc()
	}
}
