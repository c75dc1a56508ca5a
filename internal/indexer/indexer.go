package indexer

import (
	"context"
	"errors"
	"sync"
	"time"

	"eleanor-server/internal/logging"
	"eleanor-server/internal/metrics"
)

// Minimum files to index before marking server as ready
const minFilesForReady = 100

// ErrIndexInProgress is returned when a run is requested while one is active.
var ErrIndexInProgress = errors.New("index already in progress")

// Indexer schedules index runs over the configured sources and tracks their
// state for health checks.
type Indexer struct {
	orch    *Orchestrator
	sources []Source

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	indexMu              sync.Mutex
	isIndexing           bool
	currentMode          Mode
	lastIndexTime        time.Time
	lastReports          []*Report
	initialIndexComplete bool
	initialIndexError    error
	startTime            time.Time

	onIndexComplete func()
}

// New creates an Indexer for sources.
func New(orch *Orchestrator, sources []Source) *Indexer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Indexer{
		orch:      orch,
		sources:   sources,
		ctx:       ctx,
		cancel:    cancel,
		startTime: time.Now(),
	}
}

// SetOnIndexComplete sets a callback to be invoked when a run completes.
func (idx *Indexer) SetOnIndexComplete(callback func()) {
	idx.onIndexComplete = callback
}

// Start runs the startup index with mode in the background.
func (idx *Indexer) Start(mode Mode) {
	idx.wg.Add(1)
	go func() {
		defer idx.wg.Done()

		logging.Info("Starting %s index of %d sources in background...", mode, len(idx.sources))
		_, err := idx.Run(idx.ctx, mode)

		idx.indexMu.Lock()
		idx.initialIndexComplete = true
		if err != nil && !errors.Is(err, ErrIndexInProgress) {
			idx.initialIndexError = err
		}
		idx.indexMu.Unlock()
	}()
}

// TriggerReindex starts a purge run over every source in the background.
// It returns false if a run is already in progress.
func (idx *Indexer) TriggerReindex() bool {
	if !idx.tryStartIndexing(ModePurge) {
		logging.Info("Index already in progress, skipping reindex request")
		return false
	}

	idx.wg.Add(1)
	go func() {
		defer idx.wg.Done()
		if _, err := idx.run(idx.ctx, ModePurge); err != nil {
			logging.Error("Reindex finished with errors: %v", err)
		}
	}()
	return true
}

// Run indexes every source with mode and blocks until done.
func (idx *Indexer) Run(ctx context.Context, mode Mode) ([]*Report, error) {
	if !idx.tryStartIndexing(mode) {
		return nil, ErrIndexInProgress
	}
	return idx.run(ctx, mode)
}

func (idx *Indexer) run(ctx context.Context, mode Mode) ([]*Report, error) {
	defer idx.finishIndexing()

	metrics.IndexerIsRunning.Set(1)
	defer metrics.IndexerIsRunning.Set(0)

	start := time.Now()
	reports, err := idx.orch.IndexAll(ctx, idx.sources, mode)

	idx.indexMu.Lock()
	idx.lastReports = reports
	idx.lastIndexTime = time.Now()
	idx.indexMu.Unlock()

	metrics.IndexerLastRunTimestamp.Set(float64(time.Now().Unix()))
	logging.Info("Index run (%s) completed in %v", mode, time.Since(start).Round(time.Millisecond))

	if idx.onIndexComplete != nil {
		idx.onIndexComplete()
	}
	return reports, err
}

// Stop cancels any running index and waits for it to finish the files in
// flight.
func (idx *Indexer) Stop() {
	idx.cancel()
	idx.wg.Wait()
}

// IsIndexing reports whether a run is in progress.
func (idx *Indexer) IsIndexing() bool {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()
	return idx.isIndexing
}

// IsReady returns true once the startup run has finished or enough files
// have been processed for the catalog to be useful.
func (idx *Indexer) IsReady() bool {
	if idx.orch.Processed() >= minFilesForReady {
		return true
	}

	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()
	return idx.initialIndexComplete
}

// LastReports returns the reports of the most recent completed run.
func (idx *Indexer) LastReports() []*Report {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()
	return idx.lastReports
}

// HealthStatus contains health check information.
type HealthStatus struct {
	Ready             bool      `json:"ready"`
	Indexing          bool      `json:"indexing"`
	Mode              string    `json:"mode,omitempty"`
	StartTime         time.Time `json:"startTime"`
	Uptime            string    `json:"uptime"`
	LastIndexed       time.Time `json:"lastIndexed,omitempty"`
	InitialIndexError string    `json:"initialIndexError,omitempty"`
	FilesProcessed    int64     `json:"filesProcessed"`
	Sources           int       `json:"sources"`
	LastReports       []*Report `json:"lastReports,omitempty"`
}

// GetHealthStatus returns detailed health information.
func (idx *Indexer) GetHealthStatus() HealthStatus {
	processed := idx.orch.Processed()

	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()

	status := HealthStatus{
		Ready:          idx.initialIndexComplete || processed >= minFilesForReady,
		Indexing:       idx.isIndexing,
		StartTime:      idx.startTime,
		Uptime:         time.Since(idx.startTime).String(),
		LastIndexed:    idx.lastIndexTime,
		FilesProcessed: processed,
		Sources:        len(idx.sources),
		LastReports:    idx.lastReports,
	}
	if idx.isIndexing {
		status.Mode = idx.currentMode.String()
	}
	if idx.initialIndexError != nil {
		status.InitialIndexError = idx.initialIndexError.Error()
	}
	return status
}

// tryStartIndexing attempts to start indexing, returns false if already in progress.
func (idx *Indexer) tryStartIndexing(mode Mode) bool {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()

	if idx.isIndexing {
		return false
	}
	idx.isIndexing = true
	idx.currentMode = mode
	return true
}

// finishIndexing marks indexing as complete.
func (idx *Indexer) finishIndexing() {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()
	idx.isIndexing = false
}
