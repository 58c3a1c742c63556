// Package metrics holds the Prometheus instrumentation shared by the
// dispatcher, worker pool, and front ends.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every Prometheus collector HeteroServing exports. Each
// Metrics value registers its collectors against its own Registry so
// several servers (or tests) can coexist in one process.
type Metrics struct {
	Registry *prometheus.Registry

	QueueDepth        *prometheus.GaugeVec
	RequestsTotal     *prometheus.CounterVec
	InferenceDuration *prometheus.HistogramVec
	WorkerBusy        *prometheus.GaugeVec
	DecodeFailures    *prometheus.CounterVec
}

// New creates a fresh registry and registers every collector on it.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		QueueDepth: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "heteroserving_queue_depth",
				Help: "Number of pending detection requests waiting on a device queue",
			},
			[]string{"device"},
		),
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "heteroserving_requests_total",
				Help: "Total detection requests handled, by device and outcome",
			},
			[]string{"device", "outcome"}, // outcome: ok, decode_error, inference_error
		),
		InferenceDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "heteroserving_inference_duration_seconds",
				Help:    "Time spent in InferenceEngine.RunDetection",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"device", "model"},
		),
		WorkerBusy: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "heteroserving_worker_busy",
				Help: "1 while a worker is running RunDetection, 0 while blocked on its queue",
			},
			[]string{"device", "worker"},
		),
		DecodeFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "heteroserving_decode_failures_total",
				Help: "Total image decode failures, by device",
			},
			[]string{"device"},
		),
	}
}

// Handler returns the HTTP handler that serves this Metrics value's
// registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// ObserveEnqueue records a request joining a device's queue.
func (m *Metrics) ObserveEnqueue(device string, depth int) {
	m.QueueDepth.WithLabelValues(device).Set(float64(depth))
}

// ObserveDequeue records a worker pulling a request off a device's queue.
func (m *Metrics) ObserveDequeue(device string, depth int) {
	m.QueueDepth.WithLabelValues(device).Set(float64(depth))
}

// ObserveResult records one completed detection request.
func (m *Metrics) ObserveResult(device, model, outcome string, seconds float64) {
	m.RequestsTotal.WithLabelValues(device, outcome).Inc()
	m.InferenceDuration.WithLabelValues(device, model).Observe(seconds)
}

// SetWorkerBusy toggles the busy gauge for one worker.
func (m *Metrics) SetWorkerBusy(device, worker string, busy bool) {
	v := 0.0
	if busy {
		v = 1.0
	}
	m.WorkerBusy.WithLabelValues(device, worker).Set(v)
}

// ObserveDecodeFailure records an image that the InferenceEngine could
// not decode (RunDetection returned a DecodeError).
func (m *Metrics) ObserveDecodeFailure(device string) {
	m.DecodeFailures.WithLabelValues(device).Inc()
}
