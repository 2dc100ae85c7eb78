package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the bridge.
type Metrics struct {
	TokenRequests       *prometheus.CounterVec
	AgentJoins          *prometheus.CounterVec
	CallbackRequests    *prometheus.CounterVec
	GenerationLatency   prometheus.Histogram
	SynthesisAudioBytes prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		TokenRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_requests_total",
			Help:      "Token issuance requests by kind and outcome.",
		}, []string{"kind", "outcome"}),
		AgentJoins: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_joins_total",
			Help:      "Agent join attempts by outcome.",
		}, []string{"outcome"}),
		CallbackRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "callback_requests_total",
			Help:      "Vendor callback requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		GenerationLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_latency_ms",
			Help:      "Latency of generation calls behind the vendor callbacks in milliseconds.",
			Buckets:   []float64{100, 250, 500, 1000, 2000, 4000, 8000, 16000},
		}),
		SynthesisAudioBytes: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "synthesis_audio_bytes",
			Help:      "Size of synthesized WAV clips in bytes.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
		}),
	}
}

func (m *Metrics) ObserveGenerationLatency(d time.Duration) {
	m.GenerationLatency.Observe(float64(d.Milliseconds()))
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
