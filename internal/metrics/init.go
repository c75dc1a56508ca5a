package metrics

import "strconv"

// InitializeMetrics pre-populates the expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup with the configured source ids.
func InitializeMetrics(sourceIDs []uint8) {
	volumes := []string{"database", "unknown"}
	for _, id := range sourceIDs {
		volume := SourceLabel(id)
		volumes = append(volumes, volume)
		CatalogEntries.WithLabelValues(volume)
	}

	for _, op := range []string{"stat", "open"} {
		for _, vol := range volumes {
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}

	for _, mode := range []string{"initial", "new", "purge"} {
		IndexerRunsTotal.WithLabelValues(mode, "success")
		IndexerRunsTotal.WithLabelValues(mode, "error")
		IndexerRunDuration.WithLabelValues(mode)
	}

	for _, outcome := range []string{"inserted", "duplicate", "skipped", "failed"} {
		IndexerFilesProcessed.WithLabelValues(outcome)
	}

	for _, result := range []string{"hit", "miss", "error"} {
		ResolverLookupsTotal.WithLabelValues(result)
	}

	for _, op := range []string{"insert_or_ignore", "filenames_by_source", "relpaths_by_source",
		"delete_by_source", "find_by_hash", "list_all", "count_by_source",
		"add_user", "remove_user", "authenticate"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}
}

// SourceLabel is the label used for a source in metrics and volume names.
func SourceLabel(id uint8) string {
	return "source-" + strconv.Itoa(int(id))
}
