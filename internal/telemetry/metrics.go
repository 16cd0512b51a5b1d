// Package telemetry exposes the process's Prometheus metrics: tick
// timing, live zone counts, and combat/buff throughput.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector the zone process reports. Zero value is
// not usable; construct with NewMetrics.
type Metrics struct {
	TickDuration  *prometheus.HistogramVec
	LiveZones     prometheus.Gauge
	LiveEntities  *prometheus.GaugeVec
	CombatEvents  *prometheus.CounterVec
	BuffEvents    *prometheus.CounterVec
	IdleShutdowns prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TickDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "zonecore",
			Subsystem: "sim",
			Name:      "tick_duration_seconds",
			Help:      "Wall time spent processing one simulation tick, per phase.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
		}, []string{"phase"}),
		LiveZones: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "zonecore",
			Subsystem: "sim",
			Name:      "live_zone_instances",
			Help:      "Number of zone instances currently loaded in this process.",
		}),
		LiveEntities: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "zonecore",
			Subsystem: "sim",
			Name:      "live_entities",
			Help:      "Number of entities currently loaded, by kind.",
		}, []string{"kind"}),
		CombatEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zonecore",
			Subsystem: "combat",
			Name:      "events_total",
			Help:      "Combat events processed, by kind (damage, heal, death, cast).",
		}, []string{"kind"}),
		BuffEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zonecore",
			Subsystem: "buff",
			Name:      "events_total",
			Help:      "Buff lifecycle events processed, by kind (applied, removed, tick).",
		}, []string{"kind"}),
		IdleShutdowns: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "zonecore",
			Subsystem: "sim",
			Name:      "idle_shutdowns_total",
			Help:      "Zone instances torn down after their idle-shutdown deadline.",
		}),
	}
}

// ObservePhase records how long one named tick phase took.
func (m *Metrics) ObservePhase(phase string, d time.Duration) {
	m.TickDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// Handler returns the /metrics HTTP handler for reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
