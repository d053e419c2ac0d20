// Package metrics provides Prometheus metrics for the EmoLyrics service.
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

// Outcome label values.
const (
	OutcomeSuccess     = "success"
	OutcomeRejected    = "rejected"
	OutcomeRateLimited = "rate_limited"
	OutcomeError       = "error"
	OutcomeCanceled    = "canceled"
)

// Manager owns every metric the service records.
type Manager struct {
	namespace string
	buckets   []float64
	registry  *prometheus.Registry

	analyses      *prometheus.CounterVec
	frames        prometheus.Counter
	versionsSaved prometheus.Counter
	saveRejected  prometheus.Counter
	comparisons   *prometheus.CounterVec
	blockMisses   *prometheus.CounterVec
	activeStreams prometheus.Gauge
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

// NewManager creates a Manager. Without WithRegistry the metrics go to a
// fresh registry that also carries the Go and process collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "emolyrics",
		buckets:   prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.analyses = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "analyses_total",
		Help:      "Lyric analyses by outcome.",
	}, []string{"outcome"})

	m.frames = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "analysis_frames_total",
		Help:      "Animation frames delivered to clients.",
	})

	m.versionsSaved = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "versions_saved_total",
		Help:      "Versions saved into sessions.",
	})

	m.saveRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "save_rejected_total",
		Help:      "Save attempts rejected because nothing had been analyzed.",
	})

	m.comparisons = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "comparisons_total",
		Help:      "Version comparisons by outcome.",
	}, []string{"outcome"})

	m.blockMisses = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "template_block_misses_total",
		Help:      "Lookups of template blocks that could not be found.",
	}, []string{"block"})

	m.activeStreams = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "analysis_streams_active",
		Help:      "Websocket analysis streams currently open.",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	m.httpDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   m.buckets,
	}, []string{"route", "method"})
}

// Analysis records the outcome of one analysis.
func (m *Manager) Analysis(outcome string) { m.analyses.WithLabelValues(outcome).Inc() }

// Frame records one delivered animation frame.
func (m *Manager) Frame() { m.frames.Inc() }

// VersionSaved records a successful save.
func (m *Manager) VersionSaved() { m.versionsSaved.Inc() }

// SaveRejected records a save that had nothing to save.
func (m *Manager) SaveRejected() { m.saveRejected.Inc() }

// Comparison records the outcome of one comparison.
func (m *Manager) Comparison(outcome string) { m.comparisons.WithLabelValues(outcome).Inc() }

// BlockMiss records a missing template block.
func (m *Manager) BlockMiss(block string) { m.blockMisses.WithLabelValues(block).Inc() }

// StreamOpened and StreamClosed track open analysis websockets.
func (m *Manager) StreamOpened() { m.activeStreams.Inc() }

func (m *Manager) StreamClosed() { m.activeStreams.Dec() }

// HTTPRequest records one served request.
func (m *Manager) HTTPRequest(route, method string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// Registry returns the registry backing this manager.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
