package handlers

import (
	"context"

	"github.com/spf13/afero"

	"eleanor-server/internal/database"
	"eleanor-server/internal/indexer"
	"eleanor-server/internal/streaming"
)

// Catalog lists the indexed library.
type Catalog interface {
	ListAll(ctx context.Context) ([]database.CatalogEntry, error)
}

// PathResolver maps a content hash to the stored file path.
type PathResolver interface {
	Resolve(ctx context.Context, hash uint32) (string, error)
}

// IndexController is the part of the indexer service the handlers drive.
type IndexController interface {
	TriggerReindex() bool
	IsReady() bool
	GetHealthStatus() indexer.HealthStatus
}

// Handlers serves the catalog, stream, cover and probe endpoints.
type Handlers struct {
	catalog  Catalog
	resolver PathResolver
	indexer  IndexController
	fs       afero.Fs

	streamConfig streaming.TimeoutWriterConfig
}

// New creates Handlers. Audio files are opened through fs.
func New(catalog Catalog, resolver PathResolver, idx IndexController, fs afero.Fs) *Handlers {
	return &Handlers{
		catalog:  catalog,
		resolver: resolver,
		indexer:  idx,
		fs:       fs,

		streamConfig: streaming.DefaultTimeoutWriterConfig(),
	}
}
