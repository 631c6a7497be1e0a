package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of one client or relay instance.
// Each instance owns its registry so several can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	// Key metrics
	ConversationKeysDerived  prometheus.Counter
	ConversationKeyCacheHits prometheus.Counter
	PublicKeyFetches         *prometheus.CounterVec

	// Crypto metrics
	CryptoOperationsTotal   *prometheus.CounterVec
	CryptoOperationDuration prometheus.Histogram
	DecryptFailuresTotal    *prometheus.CounterVec

	// Relay metrics
	RelayRequestsTotal  *prometheus.CounterVec
	RelayQueuedMessages prometheus.Gauge
}

// NewMetrics creates and registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		ConversationKeysDerived: f.NewCounter(prometheus.CounterOpts{
			Name: "firechat_conversation_keys_derived_total",
			Help: "Conversation keys derived from ECDH",
		}),
		ConversationKeyCacheHits: f.NewCounter(prometheus.CounterOpts{
			Name: "firechat_conversation_key_cache_hits_total",
			Help: "Conversation key lookups served from cache",
		}),
		PublicKeyFetches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "firechat_public_key_fetches_total",
			Help: "Peer public key lookups by source",
		}, []string{"source"}),

		CryptoOperationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "firechat_crypto_operations_total",
			Help: "Cryptographic operations performed",
		}, []string{"operation"}),
		CryptoOperationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "firechat_crypto_operation_duration_seconds",
			Help:    "Crypto operation latency",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		DecryptFailuresTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "firechat_decrypt_failures_total",
			Help: "Messages that could not be opened, by reason",
		}, []string{"reason"}),

		RelayRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "firechat_relay_requests_total",
			Help: "Relay HTTP requests by route and status code",
		}, []string{"route", "code"}),
		RelayQueuedMessages: f.NewGauge(prometheus.GaugeOpts{
			Name: "firechat_relay_queued_messages",
			Help: "Messages waiting in relay queues",
		}),
	}
}

// RecordCryptoOperation records one crypto operation and its latency.
func (m *Metrics) RecordCryptoOperation(operation string, elapsed time.Duration) {
	m.CryptoOperationsTotal.WithLabelValues(operation).Inc()
	m.CryptoOperationDuration.Observe(elapsed.Seconds())
}

// RecordDecryptFailure counts a failed open by reason label.
func (m *Metrics) RecordDecryptFailure(reason string) {
	m.DecryptFailuresTotal.WithLabelValues(reason).Inc()
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler exposes the Prometheus metrics endpoint for this instance.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
