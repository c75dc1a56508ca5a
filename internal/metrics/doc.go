// Package metrics provides Prometheus instrumentation for eleanor-server.
//
// All metrics are registered with promauto at package init and prefixed with
// "eleanor_".
//
// # Metric Categories
//
// HTTP metrics track request counts, latency and in-flight requests, plus the
// bytes served by the stream endpoint.
//
// Database metrics record query counts and durations by operation, and the
// size of the catalog file.
//
// Indexer metrics cover per-source runs by mode and status, per-file outcomes
// (inserted, duplicate, skipped, failed), per-file processing time, partial
// hashes and whether a run is in progress.
//
// Resolver metrics count hash lookups by result (hit, miss, error).
//
// Catalog metrics expose the number of entries per source. They are refreshed
// by a Collector:
//
//	collector := metrics.NewCollector(db, cfg.DatabasePath, time.Minute)
//	collector.Start()
//	defer collector.Stop()
//
// Filesystem metrics record NFS stale handle retries per operation and
// volume. They are fed through filesystem.SetObserver(NewFilesystemObserver()).
//
// # Usage
//
// Call InitializeMetrics once at startup so that every label combination is
// exported on the first scrape, then serve promhttp.Handler() on the metrics
// port.
package metrics
