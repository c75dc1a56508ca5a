package startup

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"eleanor-server/internal/indexer"
	"eleanor-server/internal/logging"
)

// LogDatabaseInit reports how long opening and migrating the catalog took.
func LogDatabaseInit(duration time.Duration) {
	section("CATALOG DATABASE")
	logging.Info("  [OK] Opened and migrated in %v", duration.Round(time.Millisecond))
}

// LogIndexerInit reports the startup index run about to begin.
func LogIndexerInit(sources []indexer.Source, mode indexer.Mode) {
	section("INDEXER")
	field("Sources", len(sources))
	field("Startup run", mode)
}

// LogIndexerStarted confirms the startup run is going in the background.
func LogIndexerStarted() {
	logging.Info("  [OK] Startup index running in background")
}

// RouteInfo describes one method/path pair registered on the router.
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// GetRoutes lists every method/path pair on router. Routes without a method
// matcher are reported with method "*".
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo
	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, err := route.GetPathTemplate()
		if err != nil {
			return err
		}
		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}
		for _, m := range methods {
			routes = append(routes, RouteInfo{Method: m, Path: path, Name: route.GetName()})
		}
		return nil
	})
	return routes, err
}

// LogHTTPRoutes logs the request logging switches and, at debug level, the
// route table grouped by first path segment.
func LogHTTPRoutes(router *mux.Router, logStreams, logHealthChecks bool) {
	section("HTTP")
	field("Stream logging", onOff(logStreams, "LOG_STATIC_FILES"))
	field("Health logging", onOff(logHealthChecks, "LOG_HEALTH_CHECKS"))

	if !logging.IsDebugEnabled() {
		return
	}
	routes, err := GetRoutes(router)
	if err != nil {
		logging.Warn("Walking routes: %v", err)
	}

	byGroup := make(map[string][]RouteInfo)
	for _, r := range routes {
		g := getRouteGroup(r.Path)
		byGroup[g] = append(byGroup[g], r)
	}
	for _, g := range slices.Sorted(maps.Keys(byGroup)) {
		name := g
		if name == "" {
			name = "root"
		}
		logging.Debug("  %s:", name)
		for _, r := range byGroup[g] {
			logging.Debug("    %-6s %s", r.Method, r.Path)
		}
	}
}

func onOff(on bool, env string) string {
	if on {
		return "on"
	}
	return "off (" + env + "=true to enable)"
}

// getRouteGroup returns the first path segment, or "stream" for hash routes.
func getRouteGroup(path string) string {
	first, _, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	if strings.HasPrefix(first, "{hash") {
		return "stream"
	}
	return first
}

// ServerConfig is what LogServerStarted prints.
type ServerConfig struct {
	Port            int
	MetricsPort     int
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted prints the listening endpoints.
func LogServerStarted(config ServerConfig) {
	section("READY")
	field("Startup took", config.StartupDuration.Round(time.Millisecond))
	field("Catalog", listenURL(config.Port, "/"))
	if config.MetricsEnabled {
		field("Metrics", listenURL(config.MetricsPort, "/metrics"))
	} else {
		field("Metrics", "disabled")
	}
	logging.Info(rule)
}

func listenURL(port int, path string) string {
	return fmt.Sprintf("http://0.0.0.0:%d%s", port, path)
}

// LogShutdownInitiated opens the shutdown section.
func LogShutdownInitiated(signal string) {
	section("SHUTDOWN (" + signal + ")")
}

// LogShutdownStep logs a shutdown step before it runs.
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a finished shutdown step.
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete closes the shutdown section.
func LogShutdownComplete() {
	logging.Info("  [OK] Stopped cleanly")
}

// LogFatal logs and exits with status 1.
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}
