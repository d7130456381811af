/*
Package metrics defines and registers the Prometheus metrics exposed by the
catalog, order replica, and frontend processes, and provides a small Timer
helper for recording histogram observations.

Metrics are package-level variables registered once at init() and updated
inline by the call sites that own the corresponding event (a cache hit, an
UpdateStock outcome, a leader election) rather than polled from a central
collector, since none of these processes hold the kind of periodically-listable
state a poll loop would suit.

# Metrics catalog

Catalog: stockmesh_catalog_stocks_total, stockmesh_catalog_lookups_total
(outcome=hit|miss), stockmesh_catalog_updates_total
(outcome=success|not_found|insufficient|flush_error), stockmesh_catalog_flush_duration_seconds.

Order replica: stockmesh_order_log_size, stockmesh_order_next_id,
stockmesh_orders_placed_total (outcome=success|stock_not_found|insufficient_stock|catalog_error),
stockmesh_order_sync_total (kind=sync|bulk_upsert), stockmesh_order_flush_duration_seconds,
each labeled by replica_id.

Frontend: stockmesh_cache_hits_total, stockmesh_cache_misses_total,
stockmesh_cache_evictions_total, stockmesh_cache_invalidations_total,
stockmesh_cache_size, stockmesh_current_leader_replica_id,
stockmesh_leader_elections_total, stockmesh_replica_health_transitions_total
(to=healthy|unhealthy), stockmesh_catchup_total (outcome=success|failed),
stockmesh_http_requests_total and stockmesh_http_request_duration_seconds
(route, status).

Handler() exposes the registry at /metrics via promhttp.Handler().
*/
package metrics
