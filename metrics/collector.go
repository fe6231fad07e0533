// Package metrics records pipeline activity. Counters and histograms are
// exported in Prometheus format; a small in-memory Store backs the health
// endpoint.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every exported metric.
const Namespace = "discharge"

// Recorder is what the pipeline reports to. A nil Recorder is never passed
// around; use Nop instead.
type Recorder interface {
	// ObserveStage records a finished pipeline stage.
	ObserveStage(rec StageRecord)
	// SetActiveRecords reports how many records await review.
	SetActiveRecords(n int)
}

// Collector implements Recorder and llm.AttemptObserver on a private
// Prometheus registry.
type Collector struct {
	registry *prometheus.Registry
	store    *Store

	ModelAttempts   *prometheus.CounterVec
	ModelLatency    *prometheus.HistogramVec
	StagesTotal     *prometheus.CounterVec
	StageDuration   *prometheus.HistogramVec
	ActiveRecords   prometheus.Gauge
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InFlight        prometheus.Gauge
}

// NewCollector creates a Collector with its own registry and store.
func NewCollector(store *Store) *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		store:    store,

		ModelAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "model",
			Name:      "attempts_total",
			Help:      "Model calls by backend and outcome.",
		}, []string{"backend", "outcome"}),

		ModelLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "model",
			Name:      "attempt_duration_seconds",
			Help:      "Latency of a single model call.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 15, 20, 30},
		}, []string{"backend"}),

		StagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "pipeline",
			Name:      "stages_total",
			Help:      "Completed pipeline stages by stage and status.",
		}, []string{"stage", "status"}),

		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage latency distribution.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}, []string{"stage"}),

		ActiveRecords: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "pipeline",
			Name:      "records_awaiting_review",
			Help:      "Extracted records held for review.",
		}),

		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency distribution.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}, []string{"method", "route"}),

		InFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
	}
}

// ObserveAttempt implements llm.AttemptObserver.
func (c *Collector) ObserveAttempt(backend, outcome string, d time.Duration) {
	c.ModelAttempts.WithLabelValues(backend, outcome).Inc()
	c.ModelLatency.WithLabelValues(backend).Observe(d.Seconds())
}

// ObserveStage implements Recorder.
func (c *Collector) ObserveStage(rec StageRecord) {
	c.StagesTotal.WithLabelValues(rec.Stage, rec.Status).Inc()
	c.StageDuration.WithLabelValues(rec.Stage).Observe(rec.Duration.Seconds())
	if c.store != nil {
		c.store.Record(rec)
	}
}

// SetActiveRecords implements Recorder.
func (c *Collector) SetActiveRecords(n int) {
	c.ActiveRecords.Set(float64(n))
	if c.store != nil {
		c.store.SetActiveRecords(n)
	}
}

// ObserveRequest records one served HTTP request.
func (c *Collector) ObserveRequest(method, route string, status int, d time.Duration) {
	c.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.RequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Store returns the in-memory store, which may be nil.
func (c *Collector) Store() *Store {
	return c.store
}

// Registry exposes the registry for tests and extra collectors.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

type nopRecorder struct{}

func (nopRecorder) ObserveStage(StageRecord) {}
func (nopRecorder) SetActiveRecords(int)     {}

// Nop is a Recorder that discards everything.
var Nop Recorder = nopRecorder{}

var _ Recorder = (*Collector)(nil)
