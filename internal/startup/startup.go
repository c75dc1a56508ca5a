package startup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"eleanor-server/internal/logging"
)

// Set with -ldflags "-X eleanor-server/internal/startup.Version=..."
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo is reported by /version and the app info metric.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the build information of the running binary.
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

const rule = "============================================================"

const banner = `
     ________
    / ____/ /__  ____ _____  ____  _____
   / __/ / / _ \/ __ '/ __ \/ __ \/ ___/
  / /___/ /  __/ /_/ / / / / /_/ / /
 /_____/_/\___/\__,_/_/ /_/\____/_/

  audio catalog server`

// section starts a titled block of startup output.
func section(title string) {
	logging.Info("")
	logging.Info(rule)
	logging.Info(" %s", title)
	logging.Info(rule)
}

// field logs one aligned "label: value" line inside a section.
func field(label string, value any) {
	logging.Info("  %-18s %v", label+":", value)
}

func printBanner() {
	fmt.Println(rule)
	fmt.Println(banner)
	fmt.Println(rule)
	field("Version", Version)
	field("Commit", Commit)
	field("Built", BuildTime)
	field("Started", time.Now().Format(time.RFC3339))
}

func logSystemInfo() {
	section("RUNTIME")
	field("Go", runtime.Version())
	field("Platform", runtime.GOOS+"/"+runtime.GOARCH)

	procs, cpus := runtime.GOMAXPROCS(0), runtime.NumCPU()
	if procs < cpus {
		field("CPUs", fmt.Sprintf("%d of %d (limited)", procs, cpus))
	} else {
		field("CPUs", cpus)
	}

	if !logging.IsDebugEnabled() {
		return
	}
	if host, err := os.Hostname(); err == nil {
		logging.Debug("  %-18s %s", "Host:", host)
	}
	if wd, err := os.Getwd(); err == nil {
		logging.Debug("  %-18s %s", "Working dir:", wd)
	}
}

// ensureDirectory creates path if missing and fails if it is not a directory.
func ensureDirectory(path, name string) error {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("create %s directory: %w", name, err)
		}
		logging.Debug("  Created %s directory %s", name, path)
		return nil
	case err != nil:
		return fmt.Errorf("stat %s directory: %w", name, err)
	case !info.IsDir():
		return fmt.Errorf("%s path %s is not a directory", name, path)
	}
	logging.Debug("  Using existing %s directory %s", name, path)
	return nil
}

// testWriteAccess proves dir is writable by creating and removing a file.
func testWriteAccess(dir string) error {
	f, err := os.CreateTemp(dir, ".eleanor-write-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	if err := os.Remove(name); err != nil {
		logging.Warn("Could not remove %s: %v", filepath.Base(name), err)
	}
	return nil
}

// envValue parses the environment variable key, falling back to def when it
// is unset, empty or unparsable.
func envValue[T any](key string, def T, parse func(string) (T, error)) T {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		logging.Warn("Ignoring %s=%q: %v (using %v)", key, raw, err, def)
		return def
	}
	return v
}

func getEnv(key, defaultValue string) string {
	return envValue(key, defaultValue, func(s string) (string, error) { return s, nil })
}

func getEnvBool(key string, defaultValue bool) bool {
	return envValue(key, defaultValue, strconv.ParseBool)
}

func getEnvInt(key string, defaultValue int) int {
	return envValue(key, defaultValue, strconv.Atoi)
}
