package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Catalog metrics
	CatalogStocksTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "stockmesh_catalog_stocks_total",
			Help: "Total number of stock records held by the catalog",
		},
	)

	CatalogLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockmesh_catalog_lookups_total",
			Help: "Total number of LookupStock calls by outcome",
		},
		[]string{"outcome"}, // hit, miss
	)

	CatalogUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockmesh_catalog_updates_total",
			Help: "Total number of UpdateStock calls by outcome",
		},
		[]string{"outcome"}, // success, not_found, insufficient, flush_error
	)

	CatalogFlushDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stockmesh_catalog_flush_duration_seconds",
			Help:    "Time taken to flush the catalog to disk",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Order replica metrics
	OrderLogSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stockmesh_order_log_size",
			Help: "Number of records held in an order replica's log",
		},
		[]string{"replica_id"},
	)

	OrderNextID = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stockmesh_order_next_id",
			Help: "Next transaction id an order replica would assign or accept",
		},
		[]string{"replica_id"},
	)

	OrdersPlacedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockmesh_orders_placed_total",
			Help: "Total number of PlaceOrder calls by outcome",
		},
		[]string{"replica_id", "outcome"}, // success, stock_not_found, insufficient_stock, catalog_error
	)

	OrderSyncTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockmesh_order_sync_total",
			Help: "Total number of SyncOrder/BulkUpsert calls received by a replica",
		},
		[]string{"replica_id", "kind"}, // sync, bulk_upsert
	)

	OrderFlushDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stockmesh_order_flush_duration_seconds",
			Help:    "Time taken to flush an order replica's log to disk",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"replica_id"},
	)

	// Frontend cache metrics
	CacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stockmesh_cache_hits_total",
			Help: "Total number of lookup cache hits",
		},
	)

	CacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stockmesh_cache_misses_total",
			Help: "Total number of lookup cache misses",
		},
	)

	CacheEvictionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stockmesh_cache_evictions_total",
			Help: "Total number of LRU evictions from the lookup cache",
		},
	)

	CacheInvalidationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stockmesh_cache_invalidations_total",
			Help: "Total number of explicit cache invalidations",
		},
	)

	CacheSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "stockmesh_cache_size",
			Help: "Current number of entries resident in the lookup cache",
		},
	)

	// Frontend replication/leader metrics
	CurrentLeaderReplicaID = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "stockmesh_current_leader_replica_id",
			Help: "Replica id the frontend currently believes is the Order leader, -1 if none",
		},
	)

	LeaderElectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stockmesh_leader_elections_total",
			Help: "Total number of leader elections run by the frontend coordinator",
		},
	)

	ReplicaHealthTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockmesh_replica_health_transitions_total",
			Help: "Total number of replica health status transitions",
		},
		[]string{"replica_id", "to"}, // to=healthy|unhealthy
	)

	CatchUpTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockmesh_catchup_total",
			Help: "Total number of catch-up attempts against revived replicas by outcome",
		},
		[]string{"replica_id", "outcome"}, // success, failed
	)

	// HTTP surface metrics
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockmesh_http_requests_total",
			Help: "Total number of frontend HTTP requests by route and status",
		},
		[]string{"route", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stockmesh_http_request_duration_seconds",
			Help:    "Frontend HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)

func init() {
	prometheus.MustRegister(
		CatalogStocksTotal,
		CatalogLookupsTotal,
		CatalogUpdatesTotal,
		CatalogFlushDuration,
		OrderLogSize,
		OrderNextID,
		OrdersPlacedTotal,
		OrderSyncTotal,
		OrderFlushDuration,
		CacheHitsTotal,
		CacheMissesTotal,
		CacheEvictionsTotal,
		CacheInvalidationsTotal,
		CacheSize,
		CurrentLeaderReplicaID,
		LeaderElectionsTotal,
		ReplicaHealthTransitionsTotal,
		CatchUpTotal,
		HTTPRequestsTotal,
		HTTPRequestDuration,
	)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
