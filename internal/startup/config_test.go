package startup

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"eleanor-server/internal/indexer"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"ELEANOR_CONFIG", "PORT", "METRICS_PORT", "METRICS_ENABLED", "DATABASE_PATH", "LOG_STATIC_FILES", "LOG_HEALTH_CHECKS"} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, DefaultConfigFile)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadConfigFirstRunWritesDefaults(t *testing.T) {
	clearConfigEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultConfigFile)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if !cfg.FirstRun {
		t.Error("Expected FirstRun on missing settings file")
	}
	if cfg.StartupMode() != indexer.ModeInitial {
		t.Errorf("Expected initial startup mode, got %s", cfg.StartupMode())
	}
	if cfg.Port != 8008 {
		t.Errorf("Expected default port 8008, got %d", cfg.Port)
	}
	if opts := cfg.IndexOptions(); opts.OnError != indexer.ErrorAbort {
		t.Errorf("default OnError = %q, want abort", opts.OnError)
	}
	if want := filepath.Join(dir, "eleanor-server.db"); cfg.DatabasePath != want {
		t.Errorf("DatabasePath = %q, want %q", cfg.DatabasePath, want)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Expected defaults to be written: %v", err)
	}

	again, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("second LoadConfig failed: %v", err)
	}
	if again.FirstRun {
		t.Error("Expected second load not to be a first run")
	}
	if again.StartupMode() != indexer.ModeIncremental {
		t.Errorf("Expected incremental startup mode, got %s", again.StartupMode())
	}
}

func TestLoadConfigSources(t *testing.T) {
	clearConfigEnv(t)
	dir := t.TempDir()
	music := filepath.Join(dir, "music")
	podcasts := filepath.Join(dir, "podcasts")
	for _, d := range []string{music, podcasts} {
		if err := os.Mkdir(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	path := writeConfig(t, dir, `
port = 9000
incremental_match = "path"
on_file_error = "abort"
workers = 3

[[sources]]
id = 0
path = "`+music+`"

[[sources]]
id = 7
path = "`+podcasts+`"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Port)
	}
	if cfg.MetricsPort != 9090 {
		t.Errorf("Expected unset metrics_port to keep default, got %d", cfg.MetricsPort)
	}

	sources := cfg.IndexSources()
	if len(sources) != 2 || sources[1].ID != 7 || sources[1].Path != podcasts {
		t.Errorf("unexpected sources: %+v", sources)
	}

	opts := cfg.IndexOptions()
	if opts.Match != indexer.MatchPath || opts.OnError != indexer.ErrorAbort || opts.Workers != 3 {
		t.Errorf("unexpected options: %+v", opts)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	clearConfigEnv(t)
	dir := t.TempDir()
	path := writeConfig(t, dir, "port = 9000\n")

	dbPath := filepath.Join(dir, "data", "catalog.db")
	t.Setenv("PORT", "9100")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("DATABASE_PATH", dbPath)
	t.Setenv("LOG_HEALTH_CHECKS", "false")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Port != 9100 {
		t.Errorf("Port = %d, want 9100", cfg.Port)
	}
	if cfg.MetricsEnabled {
		t.Error("Expected METRICS_ENABLED=false to disable metrics")
	}
	if cfg.DatabasePath != dbPath {
		t.Errorf("DatabasePath = %q, want %q", cfg.DatabasePath, dbPath)
	}
	if cfg.LogHealthChecks {
		t.Error("Expected LOG_HEALTH_CHECKS=false to be honoured")
	}
	if info, err := os.Stat(filepath.Dir(dbPath)); err != nil || !info.IsDir() {
		t.Errorf("Expected database directory to be created: %v", err)
	}
}

func TestLoadConfigFromEnvPath(t *testing.T) {
	clearConfigEnv(t)
	dir := t.TempDir()
	path := writeConfig(t, dir, "port = 9200\n")
	t.Setenv("ELEANOR_CONFIG", path)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.ConfigPath != path || cfg.Port != 9200 {
		t.Errorf("Expected config from ELEANOR_CONFIG, got %s port %d", cfg.ConfigPath, cfg.Port)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	clearConfigEnv(t)
	dir := t.TempDir()

	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "unknown key",
			body: "prot = 8008\n",
			want: "unknown keys",
		},
		{
			name: "bad match policy",
			body: "incremental_match = \"mtime\"\n",
			want: "IncrementalMatch",
		},
		{
			name: "bad error policy",
			body: "on_file_error = \"retry\"\n",
			want: "OnFileError",
		},
		{
			name: "port out of range",
			body: "port = 70000\n",
			want: "Port",
		},
		{
			name: "missing source directory",
			body: "[[sources]]\nid = 0\npath = \"" + filepath.Join(dir, "nope") + "\"\n",
			want: "not an existing directory",
		},
		{
			name: "empty source path",
			body: "[[sources]]\nid = 0\npath = \"\"\n",
			want: "is required",
		},
		{
			name: "duplicate source ids",
			body: "[[sources]]\nid = 1\npath = \"" + dir + "\"\n[[sources]]\nid = 1\npath = \"" + dir + "\"\n",
			want: "unique",
		},
		{
			name: "malformed toml",
			body: "port = \n",
			want: "failed to parse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.body)
			_, err := LoadConfig(path)
			if err == nil {
				t.Fatal("Expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	clearConfigEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultConfigFile)

	cfg := DefaultConfig()
	cfg.Sources = []SourceConfig{{ID: 3, Path: dir}}
	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if len(loaded.Sources) != 1 || loaded.Sources[0].ID != 3 || loaded.Sources[0].Path != dir {
		t.Errorf("unexpected sources after round trip: %+v", loaded.Sources)
	}
}
