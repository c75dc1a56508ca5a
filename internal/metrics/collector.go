package metrics

import (
	"context"
	"os"
	"time"

	"eleanor-server/internal/logging"
)

// StatsProvider reports current catalog statistics.
type StatsProvider interface {
	CountBySource(ctx context.Context) (map[uint8]int64, error)
}

// Collector periodically refreshes catalog gauges.
type Collector struct {
	statsProvider StatsProvider
	dbPath        string
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector. dbPath may be empty.
func NewCollector(provider StatsProvider, dbPath string, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		dbPath:        dbPath,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

// Collect refreshes the gauges immediately, e.g. after an index run.
func (c *Collector) Collect() {
	c.collect()
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.dbPath != "" {
		if info, err := os.Stat(c.dbPath); err == nil {
			DBSizeBytes.Set(float64(info.Size()))
		}
	}

	if c.statsProvider == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	counts, err := c.statsProvider.CountBySource(ctx)
	if err != nil {
		logging.Warn("Metrics collection failed: %v", err)
		return
	}

	// A purged source drops out of counts; clear it before repopulating.
	CatalogEntries.Reset()
	var total int64
	for id, n := range counts {
		CatalogEntries.WithLabelValues(SourceLabel(id)).Set(float64(n))
		total += n
	}

	logging.Debug("Metrics collected: entries=%d, sources=%d", total, len(counts))
}
