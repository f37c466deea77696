// Package metrics exposes netguard activity as Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gokaycavdar/go-netguard/pkg/models"
)

const namespace = "netguard"

// Metrics holds every collector on a private registry. It satisfies
// storage.CacheObserver and engine.Recorder.
type Metrics struct {
	registry *prometheus.Registry

	investigations      prometheus.Counter
	enumerationFailures *prometheus.CounterVec
	connections         *prometheus.CounterVec
	geoLookups          *prometheus.CounterVec
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
	lastScore           prometheus.Gauge
	passDuration        prometheus.Histogram
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		investigations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "investigations_total",
			Help:      "Investigation passes completed.",
		}),
		enumerationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enumeration_failures_total",
			Help:      "Passes whose connection snapshot could not be taken, by failure kind.",
		}, []string{"kind"}),
		connections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classified_connections_total",
			Help:      "Connections classified, by risk level.",
		}, []string{"level"}),
		geoLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "geo",
			Name:      "lookups_total",
			Help:      "Geolocation resolver calls, by result status.",
		}, []string{"status"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "geo",
			Name:      "cache_hits_total",
			Help:      "Geolocation lookups served from the cache.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "geo",
			Name:      "cache_misses_total",
			Help:      "Geolocation lookups that reached the resolver.",
		}),
		lastScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "security_score",
			Help:      "Security score of the most recent pass.",
		}),
		passDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "investigation_duration_seconds",
			Help:      "Wall time of investigation passes.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
	m.registry.MustRegister(
		m.investigations,
		m.enumerationFailures,
		m.connections,
		m.geoLookups,
		m.cacheHits,
		m.cacheMisses,
		m.lastScore,
		m.passDuration,
	)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// CacheHit records a lookup answered from the cache.
func (m *Metrics) CacheHit() {
	m.cacheHits.Inc()
}

// CacheMiss records a resolver call and its outcome.
func (m *Metrics) CacheMiss(status models.GeoStatus) {
	m.cacheMisses.Inc()
	m.geoLookups.WithLabelValues(string(status)).Inc()
}

// ObserveReport records the outcome of one investigation pass.
func (m *Metrics) ObserveReport(r *models.InvestigationReport) {
	m.investigations.Inc()
	if r.Error != nil {
		m.enumerationFailures.WithLabelValues(r.Error.Kind).Inc()
	}
	for _, c := range r.Connections {
		m.connections.WithLabelValues(string(c.RiskLevel)).Inc()
	}
	m.lastScore.Set(float64(r.Security.Score))
	m.passDuration.Observe(r.Duration.Seconds())
}
