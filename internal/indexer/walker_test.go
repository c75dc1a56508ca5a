package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/spf13/afero"

	"eleanor-server/internal/testutil"
)

func collect(t *testing.T, ctx context.Context, root string) ([]Candidate, error) {
	t.Helper()
	out, errc := Walk(ctx, root)
	var got []Candidate
	for c := range out {
		got = append(got, c)
	}
	return got, <-errc
}

func relPaths(cands []Candidate) []string {
	paths := make([]string, 0, len(cands))
	for _, c := range cands {
		paths = append(paths, c.RelPath)
	}
	sort.Strings(paths)
	return paths
}

func TestWalkFiltersNonAudio(t *testing.T) {
	root := t.TempDir()
	err := testutil.WriteTree(afero.NewOsFs(), root, map[string][]byte{
		"a.flac":            []byte("x"),
		"Album/01.mp3":      []byte("x"),
		"Album/cover.jpg":   []byte("x"),
		"Album/notes.txt":   []byte("x"),
		"Deep/er/track.WAV": []byte("x"),
		"playlist.m3u":      []byte("x"),
		"noext":             []byte("x"),
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := collect(t, context.Background(), root)
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	want := []string{"Album/01.mp3", "Deep/er/track.WAV", "a.flac"}
	paths := relPaths(got)
	if len(paths) != len(want) {
		t.Fatalf("Walk() = %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("Walk()[%d] = %q, want %q", i, paths[i], want[i])
		}
	}

	for _, c := range got {
		if c.Path != filepath.Join(c.Dir, c.Filename) {
			t.Errorf("candidate %+v: Path != Dir/Filename", c)
		}
	}
}

func TestWalkDoesNotFollowSymlinks(t *testing.T) {
	root := t.TempDir()
	if err := testutil.WriteTree(afero.NewOsFs(), root, map[string][]byte{
		"real/song.ogg": []byte("x"),
	}); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(root, "real", "song.ogg"), filepath.Join(root, "link.ogg")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	if err := os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "linkdir")); err != nil {
		t.Fatal(err)
	}

	got, err := collect(t, context.Background(), root)
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	if paths := relPaths(got); len(paths) != 1 || paths[0] != "real/song.ogg" {
		t.Errorf("Walk() = %v, want only real/song.ogg", paths)
	}
}

func TestWalkUnreadableRoot(t *testing.T) {
	_, err := collect(t, context.Background(), filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Error("Walk() on a missing root should fail")
	}

	file := filepath.Join(t.TempDir(), "file.mp3")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := collect(t, context.Background(), file); err == nil {
		t.Error("Walk() on a file root should fail")
	}
}

func TestWalkCancelled(t *testing.T) {
	root := t.TempDir()
	files := map[string][]byte{}
	for i := range 200 {
		files[fmt.Sprintf("d%d/t%03d.mp3", i%10, i)] = []byte("x")
	}
	if err := testutil.WriteTree(afero.NewOsFs(), root, files); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	out, errc := Walk(ctx, root)
	<-out
	cancel()
	for range out {
	}
	// Either the walk finished before noticing or it reports cancellation;
	// both channels must close.
	<-errc
}
