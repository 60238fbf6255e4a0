package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DashboardMetrics holds all Prometheus metrics for the dashboard service.
type DashboardMetrics struct {
	PageFetches       *prometheus.CounterVec
	PageFetchDuration prometheus.Histogram
	EnrichLookups     *prometheus.CounterVec
	SignIns           *prometheus.CounterVec
	ActiveViewers     prometheus.Gauge
	AdminCacheHits    prometheus.Counter
	AdminCacheMisses  prometheus.Counter
}

// NewDashboardMetrics creates the metrics and registers them with reg.
// Pass prometheus.DefaultRegisterer to expose them on the default /metrics handler.
func NewDashboardMetrics(reg prometheus.Registerer) *DashboardMetrics {
	f := promauto.With(reg)
	return &DashboardMetrics{
		PageFetches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "waste_watch",
			Subsystem: "viewer",
			Name:      "page_fetches_total",
			Help:      "Total number of log page fetches by status.",
		}, []string{"status"}), // status: ok, retry, error
		PageFetchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "waste_watch",
			Subsystem: "viewer",
			Name:      "page_fetch_duration_seconds",
			Help:      "Latency of log page fetches including enrichment.",
			Buckets:   prometheus.DefBuckets,
		}),
		EnrichLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "waste_watch",
			Subsystem: "viewer",
			Name:      "enrich_lookups_total",
			Help:      "Reference lookups performed during enrichment by result.",
		}, []string{"result"}), // result: hit, miss, error
		SignIns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "waste_watch",
			Subsystem: "auth",
			Name:      "sign_ins_total",
			Help:      "Sign-in attempts by outcome.",
		}, []string{"outcome"}), // outcome: admin, not_admin, bad_credentials, error
		ActiveViewers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "waste_watch",
			Subsystem: "viewer",
			Name:      "active_viewers",
			Help:      "Number of per-session log viewers currently held in memory.",
		}),
		AdminCacheHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: "waste_watch",
			Subsystem: "auth",
			Name:      "admin_cache_hits_total",
			Help:      "Total number of admin allowlist cache hits.",
		}),
		AdminCacheMisses: f.NewCounter(prometheus.CounterOpts{
			Namespace: "waste_watch",
			Subsystem: "auth",
			Name:      "admin_cache_misses_total",
			Help:      "Total number of admin allowlist cache misses.",
		}),
	}
}
