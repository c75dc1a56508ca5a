package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/afero"

	"eleanor-server/internal/database"
	"eleanor-server/internal/filesystem"
	"eleanor-server/internal/handlers"
	"eleanor-server/internal/indexer"
	"eleanor-server/internal/logging"
	"eleanor-server/internal/memory"
	"eleanor-server/internal/metrics"
	"eleanor-server/internal/middleware"
	"eleanor-server/internal/resolver"
	"eleanor-server/internal/startup"
)

const (
	metricsInterval = time.Minute
	shutdownTimeout = 30 * time.Second
)

func runServe(ctx context.Context, configPath string) error {
	startTime := time.Now()

	config, err := startup.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	memory.ConfigureFromEnv()

	dbStart := time.Now()
	db, err := database.New(ctx, config.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Warn("Database close error: %v", err)
		}
	}()
	startup.LogDatabaseInit(time.Since(dbStart))

	if hasUsers, err := db.HasUsers(ctx); err != nil {
		logging.Warn("Could not check for users: %v", err)
	} else if !hasUsers {
		logging.Warn("  No users configured; every request will be rejected")
		logging.Warn("  Add one with: eleanor-server user add <USERNAME>")
	}

	sources := config.IndexSources()
	setupObservability(sources)

	collector := metrics.NewCollector(db, config.DatabasePath, metricsInterval)
	collector.Start()

	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()

	opts := config.IndexOptions()
	opts.Gate = monitor
	orch := indexer.NewOrchestrator(db, opts)
	idx := indexer.New(orch, sources)
	idx.SetOnIndexComplete(collector.Collect)

	mode := config.StartupMode()
	startup.LogIndexerInit(sources, mode)
	idx.Start(mode)
	startup.LogIndexerStarted()

	fs := filesystem.NewRetryFs(afero.NewOsFs(), filesystem.DefaultRetryConfig())
	h := handlers.New(db, resolver.New(db), idx, fs)

	router := h.Router()
	startup.LogHTTPRoutes(router, config.LogStaticFiles, config.LogHealthChecks)

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(config.Port),
		Handler:           buildHandler(router, db, config),
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      0, // streams of long files
		IdleTimeout:       60 * time.Second,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsSrv = newMetricsServer(h, config.MetricsPort)
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		handleShutdown(srv, metricsSrv, monitor, idx, collector)
	}()

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		monitor.Stop()
		idx.Stop()
		collector.Stop()
		return fmt.Errorf("server error: %w", err)
	}
	<-done
	return nil
}

// setupObservability labels filesystem retries by source and seeds the
// per-source gauges.
func setupObservability(sources []indexer.Source) {
	volumes := make(map[string]string, len(sources))
	ids := make([]uint8, 0, len(sources))
	for _, s := range sources {
		volumes[metrics.SourceLabel(s.ID)] = s.Path
		ids = append(ids, s.ID)
	}
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(volumes))
	filesystem.SetObserver(metrics.NewFilesystemObserver())
	metrics.InitializeMetrics(ids)
}

// buildHandler wraps the router in the middleware chain. Outermost first:
// compression, request logging, metrics, basic auth.
func buildHandler(router *mux.Router, auth middleware.Authenticator, config *startup.Config) http.Handler {
	authed := middleware.BasicAuth(auth, middleware.DefaultAuthConfig())(router)
	measured := middleware.Metrics(middleware.DefaultMetricsConfig())(authed)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogStreams = config.LogStaticFiles
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	logged := middleware.Logger(loggingConfig)(measured)

	return middleware.Compression(middleware.DefaultCompressionConfig())(logged)
}

func newMetricsServer(h *handlers.Handlers, port int) *http.Server {
	r := mux.NewRouter()
	r.Handle("/metrics", h.MetricsHandler()).Methods("GET")
	r.HandleFunc("/health", h.LivenessCheck).Methods("GET")

	return &http.Server{
		Addr:              ":" + strconv.Itoa(port),
		Handler:           r,
		ReadHeaderTimeout: 15 * time.Second,
	}
}

func handleShutdown(srv, metricsSrv *http.Server, monitor *memory.Monitor, idx *indexer.Indexer, collector *metrics.Collector) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	// Release workers held for memory pressure before waiting on them.
	monitor.Stop()

	startup.LogShutdownStep("Stopping indexer")
	idx.Stop()
	startup.LogShutdownStepComplete("Indexer stopped")

	startup.LogShutdownStep("Stopping metrics collector")
	collector.Stop()
	startup.LogShutdownStepComplete("Metrics collector stopped")

	startup.LogShutdownComplete()
}
