// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// Configuration lives in a TOML file, settings.toml in the working directory
// unless ELEANOR_CONFIG names another path. [LoadConfig] decodes it with
// go-toml, rejecting unknown keys, then applies environment overrides and
// validates the result.
//
//	port = 8008
//	metrics_port = 9090
//	metrics_enabled = true
//	database_path = "eleanor-server.db"
//	workers = 0
//	source_workers = 0
//	incremental_match = "filename"
//	on_file_error = "abort"
//
//	[[sources]]
//	id = 0
//	path = "/srv/music"
//
// When the file does not exist, the defaults are written to it and the
// returned [Config] has FirstRun set; the server then performs an initial
// index instead of an incremental one.
//
// Environment overrides:
//
//   - PORT, METRICS_PORT, METRICS_ENABLED, DATABASE_PATH
//   - INDEX_WORKERS, SOURCE_WORKERS: worker pool sizes when workers is 0
//   - LOG_LEVEL: debug, info, warn, error (default: info)
//   - LOG_STATIC_FILES: log audio stream requests (default: false)
//   - LOG_HEALTH_CHECKS: log health check requests (default: true)
//   - MEMORY_LIMIT, MEMORY_RATIO: see package memory
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
//
// # Lifecycle Logging
//
//   - [LogDatabaseInit]: Database initialization timing
//   - [LogIndexerInit]: Sources and startup index mode
//   - [LogHTTPRoutes]: Registered HTTP routes (debug level)
//   - [LogServerStarted]: Server endpoints and startup duration
//   - [LogShutdownInitiated]: Graceful shutdown start
//   - [LogShutdownComplete]: Shutdown completion
package startup
