/*
Package workers sizes the indexer's worker pools.

Counts are derived from runtime.GOMAXPROCS rather than runtime.NumCPU, so a
container limited to 2 CPUs on a 64-core node gets 2-based counts:

	files := workers.ForFiles(16)    // 1.5 per CPU, max 16
	sources := workers.ForSources(4) // 0.5 per CPU, max 4

Operators can pin either count:

	INDEX_WORKERS=4 SOURCE_WORKERS=1 eleanor-server serve

Overrides are still capped by the limit passed in. Explicit values in
settings.toml take precedence over both and bypass this package.
*/
package workers
