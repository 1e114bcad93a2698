// Package metrics holds the Prometheus collectors exported on /metrics.
// Every method is safe on a nil *Metrics so callers can run without them.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "smartmark"

type Metrics struct {
	registry *prometheus.Registry

	ingestTotal    *prometheus.CounterVec
	enrichDuration prometheus.Histogram
	fallbackTotal  *prometheus.CounterVec
	subscribers    prometheus.Gauge
	importEntries  *prometheus.CounterVec
}

// New builds the collectors on a private registry, along with the Go runtime
// and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ingestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_total",
			Help:      "Bookmark ingestion attempts by terminal outcome.",
		}, []string{"outcome"}),
		enrichDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "enrichment_duration_seconds",
			Help:      "Latency of the single enrichment call, page preview included.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}),
		fallbackTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichment_fallback_total",
			Help:      "Enrichment calls replaced by fallback metadata, by reason.",
		}, []string{"reason"}),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "realtime_subscribers",
			Help:      "Open change feed subscriptions.",
		}),
		importEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_entries_total",
			Help:      "Homepage bookmark entries processed by the importer, by outcome.",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ingestTotal,
		m.enrichDuration,
		m.fallbackTotal,
		m.subscribers,
		m.importEntries,
	)
	return m
}

// Registry exposes the underlying registry (tests, extra collectors).
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) IngestOutcome(outcome string) {
	if m == nil {
		return
	}
	m.ingestTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveEnrichment(d time.Duration) {
	if m == nil {
		return
	}
	m.enrichDuration.Observe(d.Seconds())
}

func (m *Metrics) EnrichmentFallback(reason string) {
	if m == nil {
		return
	}
	m.fallbackTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) SubscriberAdded() {
	if m == nil {
		return
	}
	m.subscribers.Inc()
}

func (m *Metrics) SubscriberRemoved() {
	if m == nil {
		return
	}
	m.subscribers.Dec()
}

func (m *Metrics) ImportEntry(outcome string) {
	if m == nil {
		return
	}
	m.importEntries.WithLabelValues(outcome).Inc()
}
