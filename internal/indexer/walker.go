package indexer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charlievieth/fastwalk"

	"eleanor-server/internal/logging"
	"eleanor-server/internal/mediatypes"
)

// Candidate is an audio file found under a source root.
type Candidate struct {
	Path     string // full path
	Dir      string
	Filename string
	RelPath  string // slash-separated, relative to the root
}

// checkRoot fails if root is not a readable directory.
func checkRoot(root string) error {
	f, err := os.Open(root) //nolint:gosec // root comes from configuration
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", root)
	}
	if _, err := f.Readdirnames(1); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Walk enumerates the regular audio files under root. Symbolic links are not
// followed, so each file is visited once. Candidates arrive in no particular
// order; the channel is closed when the walk ends, after which the error
// channel yields the walk error, if any. Cancelling ctx stops the walk.
func Walk(ctx context.Context, root string) (<-chan Candidate, <-chan error) {
	out := make(chan Candidate, 64)
	errc := make(chan error, 1)

	go func() {
		defer close(errc)
		defer close(out)

		if err := checkRoot(root); err != nil {
			errc <- fmt.Errorf("read source root: %w", err)
			return
		}

		conf := &fastwalk.Config{Follow: false}
		err := fastwalk.Walk(conf, root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				logging.Warn("Error accessing path %s: %v", path, err)
				return nil
			}
			if !d.Type().IsRegular() || !mediatypes.IsAudio(path) {
				return nil
			}

			rel, err := filepath.Rel(root, path)
			if err != nil {
				return nil //nolint:nilerr // unrelatable path, skip it
			}

			c := Candidate{
				Path:     path,
				Dir:      filepath.Dir(path),
				Filename: d.Name(),
				RelPath:  filepath.ToSlash(rel),
			}
			select {
			case out <- c:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			errc <- err
		}
	}()

	return out, errc
}
