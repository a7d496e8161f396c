package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collectors holds the Prometheus metrics exposed by the streaming server.
type Collectors struct {
	ActiveSessions  prometheus.Gauge
	SessionsTotal   prometheus.Counter
	ChunksProcessed prometheus.Counter
	AudioSeconds    prometheus.Counter
	ProcessingTime  prometheus.Histogram
	EventSendErrors prometheus.Counter
}

// NewCollectors creates and registers the server metrics on the default
// registry.
func NewCollectors() *Collectors {
	return &Collectors{
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "simulstream_active_sessions",
			Help: "Current number of connected streaming sessions",
		}),
		SessionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "simulstream_sessions_total",
			Help: "Total number of streaming sessions accepted",
		}),
		ChunksProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "simulstream_chunks_processed_total",
			Help: "Total number of audio increments handed to the speech processor",
		}),
		AudioSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Name: "simulstream_audio_seconds_total",
			Help: "Total seconds of audio processed",
		}),
		ProcessingTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "simulstream_processing_seconds",
			Help:    "Speech processor latency per increment",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		EventSendErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "simulstream_event_send_errors_total",
			Help: "Total number of failed event writes to clients",
		}),
	}
}
