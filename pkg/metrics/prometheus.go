package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	eventsBroadcast *prometheus.CounterVec
	droppedSends    prometheus.Counter
	wsClients       prometheus.Gauge
	errorsTotal     *prometheus.CounterVec
	lastPrice       *prometheus.GaugeVec
	latency         *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		eventsBroadcast: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agropulse_events_broadcast_total",
				Help: "Total market events broadcast to websocket clients",
			},
			[]string{"type"},
		),
		droppedSends: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "agropulse_ws_dropped_sends_total",
				Help: "Events dropped because a client send buffer was full",
			},
		),
		wsClients: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "agropulse_ws_clients",
				Help: "Currently connected websocket clients",
			},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agropulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "agropulse_last_price",
				Help: "Last simulated price per ton for a product",
			},
			[]string{"product"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agropulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordEventBroadcast records one fan-out of a market event.
func (r *Recorder) RecordEventBroadcast(kind string) {
	r.eventsBroadcast.WithLabelValues(kind).Inc()
}

// RecordDroppedSend records an event skipped for a slow client.
func (r *Recorder) RecordDroppedSend() {
	r.droppedSends.Inc()
}

// RecordClients records the current websocket client count.
func (r *Recorder) RecordClients(n int) {
	r.wsClients.Set(float64(n))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last simulated price for a product.
func (r *Recorder) RecordLastPrice(product string, price float64) {
	r.lastPrice.WithLabelValues(product).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
