package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eleanor_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eleanor_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "eleanor_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	StreamBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eleanor_stream_bytes_total",
			Help: "Total bytes written by the stream endpoint",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eleanor_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eleanor_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBSizeBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "eleanor_db_size_bytes",
			Help: "Size of the SQLite catalog file in bytes",
		},
	)
)

// Indexer metrics
var (
	IndexerRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eleanor_indexer_runs_total",
			Help: "Total number of per-source index runs",
		},
		[]string{"mode", "status"},
	)

	IndexerRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eleanor_indexer_run_duration_seconds",
			Help:    "Duration of a per-source index run in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800, 3600},
		},
		[]string{"mode"},
	)

	IndexerFilesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eleanor_indexer_files_processed_total",
			Help: "Candidate files processed by the indexer, by outcome",
		},
		[]string{"outcome"}, // inserted, duplicate, skipped, failed
	)

	IndexerFileDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "eleanor_indexer_file_duration_seconds",
			Help:    "Time spent probing, hashing and tagging a single file",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	IndexerIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "eleanor_indexer_running",
			Help: "Whether an index run is currently in progress (1 = running)",
		},
	)

	IndexerLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "eleanor_indexer_last_run_timestamp_seconds",
			Help: "Unix timestamp of the last completed index run",
		},
	)

	PartialHashesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eleanor_hasher_partial_total",
			Help: "Files whose hash was computed over a truncated packet stream",
		},
	)
)

// Resolver metrics
var (
	ResolverLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eleanor_resolver_lookups_total",
			Help: "Stream resolver lookups by result",
		},
		[]string{"result"}, // hit, miss, error
	)
)

// Catalog metrics
var (
	CatalogEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "eleanor_catalog_entries",
			Help: "Number of catalog entries per source",
		},
		[]string{"source"},
	)
)

// Filesystem retry metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eleanor_filesystem_retry_attempts_total",
			Help: "Total filesystem operation retry attempts",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eleanor_filesystem_retry_success_total",
			Help: "Filesystem operations that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eleanor_filesystem_retry_failures_total",
			Help: "Filesystem operations that failed after exhausting retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eleanor_filesystem_stale_errors_total",
			Help: "NFS stale file handle errors encountered",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eleanor_filesystem_retry_duration_seconds",
			Help:    "Total time spent in filesystem operations including retries",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"operation", "volume"},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "eleanor_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the configured memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "eleanor_memory_indexing_paused",
			Help: "1 while indexing workers are paused for memory pressure",
		},
	)

	MemoryGCPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eleanor_memory_gc_pauses_total",
			Help: "Times the memory monitor paused indexing and forced a GC",
		},
	)
)

// Stream metrics
var (
	StreamAborts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eleanor_stream_aborts_total",
			Help: "Audio streams that ended before completion",
		},
		[]string{"reason"}, // timeout, client_gone, max_duration
	)
)

// App info
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "eleanor_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)
