package workers

import (
	"os"
	"runtime"
	"strconv"
)

// Environment variables that override the computed counts.
const (
	FileWorkersEnv   = "INDEX_WORKERS"
	SourceWorkersEnv = "SOURCE_WORKERS"
)

// Count returns multiplier workers per available CPU, at least 1 and at most
// limit (0 means no limit). GOMAXPROCS is used so container CPU limits are
// respected. A positive integer in envVar overrides the calculation but is
// still capped by limit.
func Count(envVar string, multiplier float64, limit int) int {
	if envVar != "" {
		if override := os.Getenv(envVar); override != "" {
			if count, err := strconv.Atoi(override); err == nil && count > 0 {
				if limit > 0 && count > limit {
					return limit
				}
				return count
			}
		}
	}

	workers := int(float64(runtime.GOMAXPROCS(0)) * multiplier)

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// ForFiles returns the per-source file worker count. Probing and hashing
// decode audio (CPU) between file reads (I/O), so 1.5 workers per CPU.
func ForFiles(limit int) int {
	return Count(FileWorkersEnv, 1.5, limit)
}

// ForSources returns how many sources are indexed concurrently.
func ForSources(limit int) int {
	return Count(SourceWorkersEnv, 0.5, limit)
}
