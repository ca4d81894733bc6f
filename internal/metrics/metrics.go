package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpstreamCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vibecast_upstream_calls_total",
			Help: "Total calls to upstream weather, geocoding and generation APIs",
		},
		[]string{"service", "status"},
	)

	UpstreamLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vibecast_upstream_latency_seconds",
			Help:    "Upstream API call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service"},
	)

	GeocodeCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vibecast_geocode_cache_lookups_total",
			Help: "Geocode cache lookups by direction and result",
		},
		[]string{"direction", "result"},
	)

	VibeGenerations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vibecast_vibe_generations_total",
			Help: "Vibe generation attempts by outcome",
		},
		[]string{"outcome"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vibecast_active_sessions",
			Help: "Dashboard sessions currently held in memory",
		},
	)
)
