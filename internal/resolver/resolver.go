package resolver

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"eleanor-server/internal/database"
	"eleanor-server/internal/metrics"
)

// ErrUnknownHash is returned when no catalog entry has the requested hash.
var ErrUnknownHash = errors.New("unknown hash")

// Lookup is the catalog query the resolver needs.
type Lookup interface {
	FindByHash(ctx context.Context, hash uint32) (*database.CatalogEntry, error)
}

// Resolver maps content hashes to file paths.
type Resolver struct {
	store Lookup
}

// New creates a Resolver backed by store.
func New(store Lookup) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the stored path of the entry with hash. It does not touch
// the filesystem; a file that has since disappeared still resolves.
func (r *Resolver) Resolve(ctx context.Context, hash uint32) (string, error) {
	e, err := r.Entry(ctx, hash)
	if err != nil {
		return "", err
	}
	return e.Path + "/" + e.Filename, nil
}

// Entry returns the full catalog entry for hash.
func (r *Resolver) Entry(ctx context.Context, hash uint32) (*database.CatalogEntry, error) {
	e, err := r.store.FindByHash(ctx, hash)
	switch {
	case errors.Is(err, database.ErrNotFound):
		metrics.ResolverLookupsTotal.WithLabelValues("miss").Inc()
		return nil, fmt.Errorf("%w: %d", ErrUnknownHash, hash)
	case err != nil:
		metrics.ResolverLookupsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("lookup hash %d: %w", hash, err)
	}
	metrics.ResolverLookupsTotal.WithLabelValues("hit").Inc()
	return e, nil
}

// ParseHash parses a decimal hash as it appears in request paths.
func ParseHash(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid hash %q: %w", s, err)
	}
	return uint32(v), nil
}
