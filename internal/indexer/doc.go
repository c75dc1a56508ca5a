// Package indexer builds the audio catalog from the configured sources.
//
// A pass over one source walks its tree for audio files, probes and hashes
// each candidate on a bounded worker pool, reads its tags and inserts it
// into the catalog unless the hash is already present. Three modes exist:
//   - initial: ingest everything; existing hashes are kept as they are
//   - new: skip candidates already cataloged for the source
//   - purge: delete the source's entries first, then ingest everything
//
// Sources are independent. IndexAll runs them concurrently and a failure in
// one never rolls back or cancels another.
//
// Per-file failures (corrupt or unsupported files) are collected in the
// source's Report by default; the abort policy stops the source at the first
// one instead. Decode errors part way through a file are not failures: the
// hash of the packets read so far is recorded.
//
// The Indexer type wraps an Orchestrator with the state needed by health
// checks and the reindex endpoint.
package indexer
