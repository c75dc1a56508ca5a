package filesystem

import (
	"errors"
	"io"
	"os"
	"syscall"
	"testing"

	"github.com/spf13/afero"
)

// staleFs fails the first n Open calls with a stale handle error.
type staleFs struct {
	afero.Fs
	n, opens int
}

func (s *staleFs) Open(name string) (afero.File, error) {
	s.opens++
	if s.opens <= s.n {
		return nil, &os.PathError{Op: "open", Path: name, Err: syscall.ESTALE}
	}
	return s.Fs.Open(name)
}

func TestRetryFs_Open(t *testing.T) {
	mem := afero.NewMemMapFs()
	if err := afero.WriteFile(mem, "/music/a.wav", []byte("riff"), 0o644); err != nil {
		t.Fatal(err)
	}

	base := &staleFs{Fs: mem, n: 1}
	fs := NewRetryFs(base, fastConfig())

	f, err := fs.Open("/music/a.wav")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil || string(data) != "riff" {
		t.Errorf("read %q, %v", data, err)
	}
	if base.opens != 2 {
		t.Errorf("opens = %d, want 2", base.opens)
	}
}

func TestRetryFs_OpenGivesUp(t *testing.T) {
	base := &staleFs{Fs: afero.NewMemMapFs(), n: 10}
	fs := NewRetryFs(base, fastConfig())

	if _, err := fs.Open("/music/a.wav"); !errors.Is(err, syscall.ESTALE) {
		t.Errorf("Open() error = %v, want ESTALE", err)
	}
	if base.opens != fastConfig().MaxRetries+1 {
		t.Errorf("opens = %d, want %d", base.opens, fastConfig().MaxRetries+1)
	}
}

func TestRetryFs_StatMissing(t *testing.T) {
	fs := NewRetryFs(afero.NewMemMapFs(), fastConfig())

	if _, err := fs.Stat("/nope"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Stat() error = %v, want ErrNotExist", err)
	}
	if fs.Name() != "RetryFs(MemMapFS)" {
		t.Errorf("Name() = %q", fs.Name())
	}
}
