package indexer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"eleanor-server/internal/audio"
	"eleanor-server/internal/database"
	"eleanor-server/internal/hasher"
	"eleanor-server/internal/logging"
	"eleanor-server/internal/metrics"
	"eleanor-server/internal/tags"
	"eleanor-server/internal/workers"
)

// Source is a configured library root.
type Source struct {
	ID   uint8
	Path string
}

// Store is the subset of the catalog the orchestrator writes to.
type Store interface {
	InsertOrIgnore(ctx context.Context, e *database.CatalogEntry) (int64, bool, error)
	FilenamesBySource(ctx context.Context, sourceID uint8) (map[string]struct{}, error)
	RelPathsBySource(ctx context.Context, sourceID uint8) (map[string]struct{}, error)
	DeleteBySource(ctx context.Context, sourceID uint8) (int64, error)
}

// Packets is an open audio stream as seen by the orchestrator.
type Packets interface {
	hasher.PacketSource
	Duration() time.Duration
	Close() error
}

// Options configures an Orchestrator. Zero values select defaults.
type Options struct {
	Workers       int // per-source file workers
	SourceWorkers int // sources indexed concurrently by IndexAll
	Match         MatchPolicy
	OnError       ErrorPolicy

	// Gate, when set, is consulted before each file. A false return stops
	// the worker as if the run were cancelled.
	Gate Gate
}

// Gate holds workers back under resource pressure.
type Gate interface {
	WaitIfPaused() bool
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = workers.ForFiles(16)
	}
	if o.SourceWorkers <= 0 {
		o.SourceWorkers = workers.ForSources(4)
	}
	if o.Match == "" {
		o.Match = MatchFilename
	}
	if o.OnError == "" {
		o.OnError = ErrorAbort
	}
	return o
}

// FileError is a per-file failure recorded in a Report.
type FileError struct {
	Path    string `json:"path"`
	Message string `json:"error"`
	Err     error  `json:"-"`
}

func (e *FileError) Error() string {
	return e.Path + ": " + e.Message
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// SourceError is a fatal error for one source.
type SourceError struct {
	SourceID uint8
	Err      error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %d: %v", e.SourceID, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// Report summarizes one source's index run.
type Report struct {
	SourceID   uint8         `json:"source_id"`
	Mode       string        `json:"mode"`
	Purged     int64         `json:"purged"`
	Seen       int           `json:"seen"`
	Inserted   int           `json:"inserted"`
	Duplicates int           `json:"duplicates"`
	Skipped    int           `json:"skipped"`
	Partial    int           `json:"partial"`
	Failures   []*FileError  `json:"failures,omitempty"`
	Aborted    bool          `json:"aborted,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
}

type outcome string

const (
	outcomeInserted  outcome = "inserted"
	outcomeDuplicate outcome = "duplicate"
	outcomeSkipped   outcome = "skipped"
	outcomeFailed    outcome = "failed"
	outcomeCancelled outcome = "cancelled"
)

type fileResult struct {
	cand    Candidate
	outcome outcome
	partial bool
	err     error
}

// Orchestrator runs index passes over sources.
type Orchestrator struct {
	store Store
	opts  Options

	probe    func(path string) (Packets, error)
	readTags func(path string) (tags.Tags, error)

	processed atomic.Int64
}

// NewOrchestrator creates an Orchestrator writing to store.
func NewOrchestrator(store Store, opts Options) *Orchestrator {
	return &Orchestrator{
		store: store,
		opts:  opts.withDefaults(),
		probe: func(path string) (Packets, error) {
			return audio.Probe(path)
		},
		readTags: tags.Read,
	}
}

// Processed returns the number of candidates handled since creation.
func (o *Orchestrator) Processed() int64 {
	return o.processed.Load()
}

// IndexAll indexes every source with mode. Sources run concurrently and
// independently: a failing source never cancels or rolls back another. The
// returned reports are in source order; the error joins one SourceError per
// failed source.
func (o *Orchestrator) IndexAll(ctx context.Context, sources []Source, mode Mode) ([]*Report, error) {
	reports := make([]*Report, len(sources))
	errs := make([]error, len(sources))

	var g errgroup.Group
	g.SetLimit(o.opts.SourceWorkers)

	for i, src := range sources {
		g.Go(func() error {
			reports[i], errs[i] = o.IndexSource(ctx, src, mode)
			return nil
		})
	}
	_ = g.Wait()

	return reports, errors.Join(errs...)
}

// IndexSource runs one index pass over src. A non-nil error means the source
// failed as a whole (unreadable root, store failure, cancellation, or the
// abort policy tripping); the report is still returned and reflects the work
// done before the failure.
func (o *Orchestrator) IndexSource(ctx context.Context, src Source, mode Mode) (*Report, error) {
	start := time.Now()
	report := &Report{SourceID: src.ID, Mode: mode.String(), StartedAt: start}

	err := o.indexSource(ctx, src, mode, report)
	report.Duration = time.Since(start)

	status := "success"
	if err != nil {
		status = "error"
		logging.Error("Indexing source %d (%s) failed: %v", src.ID, src.Path, err)
		err = &SourceError{SourceID: src.ID, Err: err}
	}
	metrics.IndexerRunsTotal.WithLabelValues(mode.String(), status).Inc()
	metrics.IndexerRunDuration.WithLabelValues(mode.String()).Observe(report.Duration.Seconds())

	logging.Info("Source %d %s pass: %d seen, %d inserted, %d duplicates, %d skipped, %d failed in %v",
		src.ID, mode, report.Seen, report.Inserted, report.Duplicates, report.Skipped,
		len(report.Failures), report.Duration.Round(time.Millisecond))

	return report, err
}

func (o *Orchestrator) indexSource(ctx context.Context, src Source, mode Mode, report *Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if mode == ModePurge {
		n, err := o.store.DeleteBySource(ctx, src.ID)
		if err != nil {
			return fmt.Errorf("purge: %w", err)
		}
		report.Purged = n
		logging.Info("Purged %d entries from source %d", n, src.ID)
	}

	var known map[string]struct{}
	if mode == ModeIncremental {
		var err error
		if o.opts.Match == MatchPath {
			known, err = o.store.RelPathsBySource(ctx, src.ID)
		} else {
			known, err = o.store.FilenamesBySource(ctx, src.ID)
		}
		if err != nil {
			return fmt.Errorf("load known entries: %w", err)
		}
		logging.Debug("Source %d has %d known entries (match by %s)", src.ID, len(known), o.opts.Match)
	}

	walkCtx, cancelWalk := context.WithCancel(ctx)
	defer cancelWalk()

	candidates, walkErrc := Walk(walkCtx, src.Path)
	jobs := make(chan Candidate)
	results := make(chan fileResult)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(jobs)
		for c := range candidates {
			if known != nil && o.isKnown(known, c) {
				results <- fileResult{cand: c, outcome: outcomeSkipped}
				continue
			}
			select {
			case jobs <- c:
			case <-walkCtx.Done():
				// Keep draining so the walker can exit.
			}
		}
	}()

	for range o.opts.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range jobs {
				// Stop between files, never in the middle of one.
				if walkCtx.Err() != nil || !o.admit() {
					results <- fileResult{cand: c, outcome: outcomeCancelled}
					continue
				}
				results <- o.processFile(ctx, src, c)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var firstFailure *FileError
	for r := range results {
		if r.outcome == outcomeCancelled {
			continue
		}
		report.Seen++
		o.processed.Add(1)
		metrics.IndexerFilesProcessed.WithLabelValues(string(r.outcome)).Inc()

		if r.partial {
			report.Partial++
		}

		switch r.outcome {
		case outcomeInserted:
			report.Inserted++
		case outcomeDuplicate:
			report.Duplicates++
		case outcomeSkipped:
			report.Skipped++
		case outcomeFailed:
			fe := &FileError{Path: r.cand.Path, Message: r.err.Error(), Err: r.err}
			report.Failures = append(report.Failures, fe)
			logging.Warn("Failed to index %s: %v", r.cand.Path, r.err)
			if o.opts.OnError == ErrorAbort && firstFailure == nil {
				firstFailure = fe
				report.Aborted = true
				cancelWalk()
			}
		}
	}

	walkErr := <-walkErrc

	switch {
	case ctx.Err() != nil:
		return ctx.Err()
	case firstFailure != nil:
		return fmt.Errorf("aborted after %d files: %w", report.Seen, firstFailure)
	case walkErr != nil:
		return walkErr
	}
	return nil
}

func (o *Orchestrator) admit() bool {
	return o.opts.Gate == nil || o.opts.Gate.WaitIfPaused()
}

func (o *Orchestrator) isKnown(known map[string]struct{}, c Candidate) bool {
	key := c.Filename
	if o.opts.Match == MatchPath {
		key = c.RelPath
	}
	_, ok := known[key]
	return ok
}

// processFile probes, hashes, tags and stores one candidate.
func (o *Orchestrator) processFile(ctx context.Context, src Source, c Candidate) fileResult {
	start := time.Now()
	defer func() {
		metrics.IndexerFileDuration.Observe(time.Since(start).Seconds())
	}()

	res := fileResult{cand: c}

	stream, err := o.probe(c.Path)
	if err != nil {
		res.outcome, res.err = outcomeFailed, err
		return res
	}

	hash, err := hasher.Sum(stream)
	duration := stream.Duration()
	if closeErr := stream.Close(); closeErr != nil {
		logging.Debug("Closing %s: %v", c.Path, closeErr)
	}
	if err != nil {
		if !hasher.IsPartial(err) {
			res.outcome, res.err = outcomeFailed, err
			return res
		}
		res.partial = true
		metrics.PartialHashesTotal.Inc()
		logging.Warn("Partial hash for %s: %v", c.Path, err)
	}

	t, err := o.readTags(c.Path)
	if err != nil {
		logging.Debug("Tags unavailable for %s: %v", c.Path, err)
		t = tags.Tags{}
	}

	entry := &database.CatalogEntry{
		Path:        c.Dir,
		Filename:    c.Filename,
		RelPath:     c.RelPath,
		SourceID:    src.ID,
		Hash:        hash,
		Artist:      t.Artist,
		AlbumArtist: t.AlbumArtist,
		Name:        t.Title,
		Album:       t.Album,
		Duration:    millis(duration),
		Genres:      t.Genre,
		Track:       t.Track,
		Year:        t.Year,
	}

	// A file that has been hashed is always recorded, even if the run is
	// cancelled meanwhile.
	_, inserted, err := o.store.InsertOrIgnore(context.WithoutCancel(ctx), entry)
	switch {
	case err != nil:
		res.outcome, res.err = outcomeFailed, err
	case inserted:
		res.outcome = outcomeInserted
	default:
		res.outcome = outcomeDuplicate
		logging.Debug("Duplicate hash %d, skipped %s", hash, c.Path)
	}
	return res
}

func millis(d time.Duration) uint32 {
	ms := d.Milliseconds()
	if ms < 0 {
		return 0
	}
	if ms > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(ms)
}
