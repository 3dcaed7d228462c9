// Package metrics exposes pipeline outcomes to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"farm-voice/internal/domain"
)

// Metrics implements application.Observer and breaker.StateRecorder.
type Metrics struct {
	registry *prometheus.Registry

	queries      *prometheus.CounterVec
	queryLatency prometheus.Histogram
	stages       *prometheus.CounterVec
	stageLatency *prometheus.HistogramVec
	breakerOpen  *prometheus.GaugeVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		queries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "farmvoice_queries_total",
			Help: "Voice queries processed, by outcome.",
		}, []string{"success", "degraded"}),
		queryLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "farmvoice_query_duration_seconds",
			Help:    "End-to-end voice query latency.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
		}),
		stages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "farmvoice_stage_total",
			Help: "Pipeline stage completions, by stage and whether the fallback was used.",
		}, []string{"stage", "fallback"}),
		stageLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "farmvoice_stage_duration_seconds",
			Help:    "Pipeline stage latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
		breakerOpen: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "farmvoice_breaker_open",
			Help: "1 while the capability circuit breaker is open.",
		}, []string{"capability"}),
	}
}

func (m *Metrics) StageCompleted(stage domain.Stage, fallback bool, elapsed time.Duration) {
	m.stages.WithLabelValues(string(stage), strconv.FormatBool(fallback)).Inc()
	m.stageLatency.WithLabelValues(string(stage)).Observe(elapsed.Seconds())
}

func (m *Metrics) QueryCompleted(success, degraded bool, elapsed time.Duration) {
	m.queries.WithLabelValues(strconv.FormatBool(success), strconv.FormatBool(degraded)).Inc()
	m.queryLatency.Observe(elapsed.Seconds())
}

func (m *Metrics) BreakerStateChanged(name string, open bool) {
	v := 0.0
	if open {
		v = 1
	}
	m.breakerOpen.WithLabelValues(name).Set(v)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
