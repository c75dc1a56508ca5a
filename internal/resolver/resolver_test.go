package resolver

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"eleanor-server/internal/database"
)

type mockLookup struct {
	entries map[uint32]*database.CatalogEntry
	err     error
}

func (m *mockLookup) FindByHash(_ context.Context, hash uint32) (*database.CatalogEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	e, ok := m.entries[hash]
	if !ok {
		return nil, database.ErrNotFound
	}
	return e, nil
}

func TestResolve(t *testing.T) {
	r := New(&mockLookup{entries: map[uint32]*database.CatalogEntry{
		42: {Path: "/music/Album", Filename: "01 Intro.flac", Hash: 42},
	}})

	got, err := r.Resolve(context.Background(), 42)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "/music/Album/01 Intro.flac" {
		t.Errorf("Resolve() = %q", got)
	}

	_, err = r.Resolve(context.Background(), 7)
	if !errors.Is(err, ErrUnknownHash) {
		t.Errorf("Resolve(unknown) error = %v, want ErrUnknownHash", err)
	}
}

func TestResolveStoreFailureIsNotUnknown(t *testing.T) {
	r := New(&mockLookup{err: errors.New("disk I/O error")})

	_, err := r.Resolve(context.Background(), 1)
	if err == nil {
		t.Fatal("Resolve() expected error")
	}
	if errors.Is(err, ErrUnknownHash) {
		t.Error("store failure must not be reported as unknown hash")
	}
}

func TestResolveAgainstStore(t *testing.T) {
	db, err := database.New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	ctx := context.Background()
	e := &database.CatalogEntry{Path: "/srv/music/a", Filename: "x.mp3", SourceID: 1, Hash: 0xDEADBEEF}
	if _, _, err := db.InsertOrIgnore(ctx, e); err != nil {
		t.Fatal(err)
	}

	got, err := New(db).Resolve(ctx, 0xDEADBEEF)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "/srv/music/a/x.mp3" {
		t.Errorf("Resolve() = %q", got)
	}
}

func TestParseHash(t *testing.T) {
	tests := []struct {
		in      string
		want    uint32
		wantErr bool
	}{
		{"0", 0, false},
		{"42", 42, false},
		{"4294967295", 4294967295, false},
		{"4294967296", 0, true},
		{"-1", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHash(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseHash(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseHash(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}
