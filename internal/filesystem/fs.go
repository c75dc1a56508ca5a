package filesystem

import (
	"os"

	"github.com/spf13/afero"
)

// RetryFs wraps an afero.Fs so that Open and Stat retry stale NFS handles.
// All other operations pass through to the base filesystem.
type RetryFs struct {
	afero.Fs
	config RetryConfig
}

// NewRetryFs wraps base with the given retry configuration.
func NewRetryFs(base afero.Fs, config RetryConfig) *RetryFs {
	return &RetryFs{Fs: base, config: config}
}

// Open opens name for reading.
func (r *RetryFs) Open(name string) (afero.File, error) {
	return withRetry("open", name, r.config, func() (afero.File, error) {
		return r.Fs.Open(name)
	})
}

// Stat returns file info for name.
func (r *RetryFs) Stat(name string) (os.FileInfo, error) {
	return withRetry("stat", name, r.config, func() (os.FileInfo, error) {
		return r.Fs.Stat(name)
	})
}

// Name identifies the wrapper in afero diagnostics.
func (r *RetryFs) Name() string {
	return "RetryFs(" + r.Fs.Name() + ")"
}
