package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"eleanor-server/internal/database"
	"eleanor-server/internal/handlers"
	"eleanor-server/internal/indexer"
	"eleanor-server/internal/resolver"
	"eleanor-server/internal/startup"
	"eleanor-server/internal/testutil"
)

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()

	for _, path := range [][]string{{"serve"}, {"index"}, {"user", "add"}, {"user", "remove"}} {
		cmd, _, err := root.Find(path)
		if err != nil || cmd.Name() != path[len(path)-1] {
			t.Errorf("command %v not found: %v", path, err)
		}
	}

	index, _, _ := root.Find([]string{"index"})
	if f := index.Flags().Lookup("mode"); f == nil || f.DefValue != "new" {
		t.Errorf("expected --mode flag defaulting to new, got %+v", f)
	}
}

func TestUserCommandArgs(t *testing.T) {
	tests := []struct {
		args    []string
		wantErr bool
	}{
		{[]string{"user", "add"}, true},
		{[]string{"user", "add", "a", "b", "c"}, true},
		{[]string{"user", "remove"}, true},
		{[]string{"index", "--mode", "sideways"}, true},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			root := newRootCmd()
			root.SetArgs(append(tt.args, "--config", filepath.Join(t.TempDir(), "settings.toml")))
			root.SetOut(&bytes.Buffer{})
			root.SetErr(&bytes.Buffer{})

			err := root.Execute()
			if (err != nil) != tt.wantErr {
				t.Errorf("Execute() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"ELEANOR_CONFIG", "PORT", "METRICS_PORT", "METRICS_ENABLED", "DATABASE_PATH"} {
		t.Setenv(key, "")
	}
}

func TestUserAddRemoveCommands(t *testing.T) {
	clearEnv(t)
	configPath := filepath.Join(t.TempDir(), "settings.toml")

	run := func(args ...string) (string, error) {
		var out bytes.Buffer
		root := newRootCmd()
		root.SetArgs(append(args, "--config", configPath))
		root.SetOut(&out)
		root.SetErr(&out)
		err := root.Execute()
		return out.String(), err
	}

	if out, err := run("user", "add", "alice", "wonderland"); err != nil || !strings.Contains(out, "User alice added") {
		t.Fatalf("user add: %q, %v", out, err)
	}
	if out, err := run("user", "add", "alice", "other"); err != nil || !strings.Contains(out, "already exists") {
		t.Fatalf("second user add: %q, %v", out, err)
	}
	if out, err := run("user", "remove", "alice"); err != nil || !strings.Contains(out, "User alice removed") {
		t.Fatalf("user remove: %q, %v", out, err)
	}
	if _, err := run("user", "remove", "alice"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found removing twice, got %v", err)
	}
}

func TestReadPasswordLine(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"secret\n", "secret", false},
		{"secret\r\n", "secret", false},
		{"no-newline", "no-newline", false},
		{"\n", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := readPasswordLine(strings.NewReader(tt.in))
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("readPasswordLine(%q) = %q, %v", tt.in, got, err)
		}
	}
}

// writeLibrary creates a source directory with two distinct tones and one
// copy, plus a non-audio file.
func writeLibrary(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	err := testutil.WriteTree(afero.NewOsFs(), dir, map[string][]byte{
		"a.wav":         testutil.WAV(testutil.Tone(2048, 1), 8000),
		"album/b.wav":   testutil.WAV(testutil.Tone(2048, 2), 8000),
		"copy/a.wav":    testutil.WAV(testutil.Tone(2048, 1), 8000),
		"album/art.txt": []byte("not audio"),
	})
	if err != nil {
		t.Fatal(err)
	}
	return dir
}

func writeSettings(t *testing.T, music string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.toml")
	body := fmt.Sprintf("[[sources]]\nid = 0\npath = %q\n", music)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunIndex(t *testing.T) {
	clearEnv(t)
	configPath := writeSettings(t, writeLibrary(t))

	var out bytes.Buffer
	if err := runIndex(context.Background(), configPath, indexer.ModeInitial, &out); err != nil {
		t.Fatalf("runIndex: %v", err)
	}
	if !strings.Contains(out.String(), "source 0 (initial): 2 inserted, 1 duplicates") {
		t.Errorf("unexpected report: %q", out.String())
	}

	out.Reset()
	if err := runIndex(context.Background(), configPath, indexer.ModeIncremental, &out); err != nil {
		t.Fatalf("incremental runIndex: %v", err)
	}
	if !strings.Contains(out.String(), "0 inserted") {
		t.Errorf("expected incremental run to insert nothing: %q", out.String())
	}
}

func TestServerEndToEnd(t *testing.T) {
	clearEnv(t)
	music := writeLibrary(t)
	configPath := writeSettings(t, music)

	if err := runIndex(context.Background(), configPath, indexer.ModeInitial, &bytes.Buffer{}); err != nil {
		t.Fatalf("runIndex: %v", err)
	}

	config, err := startup.ReadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	db, err := database.New(context.Background(), config.DatabasePath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if _, err := db.AddUser(context.Background(), "alice", "wonderland"); err != nil {
		t.Fatal(err)
	}

	idx := indexer.New(indexer.NewOrchestrator(db, config.IndexOptions()), config.IndexSources())
	defer idx.Stop()

	h := handlers.New(db, resolver.New(db), idx, afero.NewOsFs())
	srv := httptest.NewServer(buildHandler(h.Router(), db, config))
	defer srv.Close()

	get := func(path string, auth bool) *http.Response {
		req, _ := http.NewRequest(http.MethodGet, srv.URL+path, http.NoBody)
		if auth {
			req.SetBasicAuth("alice", "wonderland")
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		return resp
	}

	resp := get("/", false)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without credentials, got %d", resp.StatusCode)
	}

	resp = get("/", true)
	var entries []database.CatalogEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatalf("decode catalog: %v", err)
	}
	resp.Body.Close()
	if len(entries) != 2 {
		t.Fatalf("expected 2 catalog entries, got %d", len(entries))
	}

	resp = get(fmt.Sprintf("/%d", entries[0].Hash), true)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "audio/wav" {
		t.Errorf("stream: status %d, type %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}

	resp = get("/livez", false)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected open liveness probe, got %d", resp.StatusCode)
	}
}
