// Package handlers provides the HTTP handlers of the catalog server.
//
// Routes (see [Handlers.Router]):
//
//	GET  /                   full catalog as JSON, or msgpack on request
//	POST /                   purge-mode reindex of every source
//	GET  /{hash}             audio bytes of the entry with that hash
//	GET  /{hash}/cover       embedded artwork of that entry
//	GET  /health, /healthz   detailed health
//	GET  /livez, /readyz     probes
//	GET  /version            build information
//
// An unknown hash is 404. A hash whose file has since disappeared is 410.
// Streams go through [streaming.TimeoutWriter], so a client that stops
// reading is dropped after the write timeout.
package handlers
