package startup

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"

	"eleanor-server/internal/indexer"
	"eleanor-server/internal/logging"
)

// DefaultConfigFile is read from the working directory unless ELEANOR_CONFIG
// points elsewhere.
const DefaultConfigFile = "settings.toml"

// SourceConfig is one [[sources]] table.
type SourceConfig struct {
	ID   uint8  `toml:"id"`
	Path string `toml:"path" validate:"required,dir"`
}

// Config holds all application configuration
type Config struct {
	Port             int            `toml:"port" validate:"min=1,max=65535"`
	MetricsPort      int            `toml:"metrics_port" validate:"min=1,max=65535"`
	MetricsEnabled   bool           `toml:"metrics_enabled"`
	DatabasePath     string         `toml:"database_path" validate:"required"`
	Workers          int            `toml:"workers" validate:"gte=0"`
	SourceWorkers    int            `toml:"source_workers" validate:"gte=0"`
	IncrementalMatch string         `toml:"incremental_match" validate:"oneof=filename path"`
	OnFileError      string         `toml:"on_file_error" validate:"oneof=continue abort"`
	Sources          []SourceConfig `toml:"sources" validate:"unique=ID,dive"`

	// Set while loading, never written back.
	ConfigPath      string `toml:"-"`
	FirstRun        bool   `toml:"-"`
	LogStaticFiles  bool   `toml:"-"`
	LogHealthChecks bool   `toml:"-"`
}

// DefaultConfig returns the settings written on first run.
func DefaultConfig() *Config {
	return &Config{
		Port:             8008,
		MetricsPort:      9090,
		MetricsEnabled:   true,
		DatabasePath:     "eleanor-server.db",
		IncrementalMatch: string(indexer.MatchFilename),
		OnFileError:      string(indexer.ErrorAbort),
		Sources:          []SourceConfig{},
	}
}

// IndexSources converts the configured sources for the indexer.
func (c *Config) IndexSources() []indexer.Source {
	sources := make([]indexer.Source, 0, len(c.Sources))
	for _, s := range c.Sources {
		sources = append(sources, indexer.Source{ID: s.ID, Path: s.Path})
	}
	return sources
}

// IndexOptions returns the orchestrator options from the configuration.
func (c *Config) IndexOptions() indexer.Options {
	return indexer.Options{
		Workers:       c.Workers,
		SourceWorkers: c.SourceWorkers,
		Match:         indexer.MatchPolicy(c.IncrementalMatch),
		OnError:       indexer.ErrorPolicy(c.OnFileError),
	}
}

// StartupMode is the mode of the index run performed when the server starts:
// initial on first run, new otherwise.
func (c *Config) StartupMode() indexer.Mode {
	if c.FirstRun {
		return indexer.ModeInitial
	}
	return indexer.ModeIncremental
}

// LoadConfig reads the settings file, applies environment overrides and
// validates the result. If the file does not exist, defaults are written to
// it and the configuration is marked as a first run.
func LoadConfig(path string) (*Config, error) {
	printBanner()
	logSystemInfo()

	section("CONFIGURATION")

	cfg, err := ReadConfig(path)
	if err != nil {
		return nil, err
	}

	logConfig(cfg)

	section("DIRECTORIES")

	databaseDir := filepath.Dir(cfg.DatabasePath)
	if err := ensureDirectory(databaseDir, "database"); err != nil {
		return nil, fmt.Errorf("database directory error: %w", err)
	}

	logging.Debug("  Testing database directory write access...")
	if err := testWriteAccess(databaseDir); err != nil {
		return nil, fmt.Errorf("database directory is not writable (required for database): %w", err)
	}
	logging.Info("  [OK] Database directory is writable")

	for _, s := range cfg.Sources {
		logging.Info("  Source %d: %s", s.ID, s.Path)
	}
	if len(cfg.Sources) == 0 {
		logging.Warn("  No sources configured; add [[sources]] to %s", cfg.ConfigPath)
	}

	return cfg, nil
}

// ReadConfig is LoadConfig without the banner and directory checks, for
// command line tools that only need the database path.
func ReadConfig(path string) (*Config, error) {
	cfg, err := readOrCreate(resolveConfigPath(path))
	if err != nil {
		return nil, err
	}

	applyEnv(cfg)

	if err := cfg.resolvePaths(); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func resolveConfigPath(path string) string {
	if path == "" {
		path = getEnv("ELEANOR_CONFIG", DefaultConfigFile)
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func readOrCreate(path string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.ConfigPath = path

	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied config path
	if errors.Is(err, os.ErrNotExist) {
		logging.Info("  No previous configuration found; starting first run")
		cfg.FirstRun = true
		if err := Save(cfg, path); err != nil {
			return nil, err
		}
		logging.Info("  [OK] Wrote default configuration to %s", path)
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var details *toml.StrictMissingError
		if errors.As(err, &details) {
			return nil, fmt.Errorf("unknown keys in %s:\n%s", path, details.String())
		}
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	logging.Info("  Loaded configuration from %s", path)
	return cfg, nil
}

// Save writes cfg as TOML to path.
func Save(cfg *Config, path string) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // settings are not secret
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Port = getEnvInt("PORT", cfg.Port)
	cfg.MetricsPort = getEnvInt("METRICS_PORT", cfg.MetricsPort)
	cfg.MetricsEnabled = getEnvBool("METRICS_ENABLED", cfg.MetricsEnabled)
	cfg.DatabasePath = getEnv("DATABASE_PATH", cfg.DatabasePath)
	cfg.LogStaticFiles = getEnvBool("LOG_STATIC_FILES", false)
	cfg.LogHealthChecks = getEnvBool("LOG_HEALTH_CHECKS", true)
}

// resolvePaths makes the database path relative to the config file and
// source paths absolute.
func (c *Config) resolvePaths() error {
	if !filepath.IsAbs(c.DatabasePath) {
		c.DatabasePath = filepath.Join(filepath.Dir(c.ConfigPath), c.DatabasePath)
	}

	for i := range c.Sources {
		if c.Sources[i].Path == "" {
			continue
		}
		abs, err := filepath.Abs(c.Sources[i].Path)
		if err != nil {
			return fmt.Errorf("failed to resolve source %d path: %w", c.Sources[i].ID, err)
		}
		c.Sources[i].Path = abs
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks cfg and reports every problem found.
func Validate(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("invalid configuration:\n  %s", strings.Join(msgs, "\n  "))
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	switch fe.Tag() {
	case "dir":
		return fmt.Sprintf("%s: %q is not an existing directory", field, fe.Value())
	case "unique":
		return fmt.Sprintf("%s: source ids must be unique", field)
	case "oneof":
		return fmt.Sprintf("%s: %v is not one of [%s]", field, fe.Value(), fe.Param())
	case "required":
		return fmt.Sprintf("%s is required", field)
	default:
		return fmt.Sprintf("%s: failed %s=%s (got %v)", field, fe.Tag(), fe.Param(), fe.Value())
	}
}

func logConfig(cfg *Config) {
	field("Settings file", cfg.ConfigPath)
	field("Port", cfg.Port)
	if cfg.MetricsEnabled {
		field("Metrics port", cfg.MetricsPort)
	} else {
		field("Metrics port", "disabled")
	}
	field("Database", cfg.DatabasePath)
	field("File workers", autoString(cfg.Workers))
	field("Source workers", autoString(cfg.SourceWorkers))
	field("Incremental match", cfg.IncrementalMatch)
	field("On file error", cfg.OnFileError)
	field("Sources", len(cfg.Sources))
	field("Log level", logging.GetLevel())
}

func autoString(n int) string {
	if n <= 0 {
		return "auto"
	}
	return strconv.Itoa(n)
}
