package handlers

import (
	"mime"
	"net/http"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"eleanor-server/internal/logging"
)

const msgpackType = "application/msgpack"

// ListCatalog returns every catalog entry as an array. Clients that accept
// application/msgpack get MessagePack; everyone else gets JSON with the same
// field names.
func (h *Handlers) ListCatalog(w http.ResponseWriter, r *http.Request) {
	entries, err := h.catalog.ListAll(r.Context())
	if err != nil {
		logging.Error("ListCatalog: %v", err)
		writeJSONError(w, "Failed to list catalog", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Add("Vary", "Accept")

	if acceptsMsgpack(r.Header.Get("Accept")) {
		w.Header().Set("Content-Type", msgpackType)
		if err := msgpack.NewEncoder(w).Encode(entries); err != nil {
			logging.Error("failed to encode msgpack response: %v", err)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, entries)
}

// acceptsMsgpack reports whether an Accept header names MessagePack with a
// non-zero quality.
func acceptsMsgpack(accept string) bool {
	for _, part := range strings.Split(accept, ",") {
		mt, params, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		if mt != msgpackType && mt != "application/x-msgpack" {
			continue
		}
		if q, ok := params["q"]; ok && strings.Trim(q, "0.") == "" {
			continue
		}
		return true
	}
	return false
}

// TriggerReindex starts a purge-mode index of every source in the background.
func (h *Handlers) TriggerReindex(w http.ResponseWriter, _ *http.Request) {
	if !h.indexer.TriggerReindex() {
		writeJSONStatus(w, "already_running", "Indexing is already in progress", http.StatusConflict)
		return
	}
	writeJSONStatus(w, "started", "Re-indexing started", http.StatusAccepted)
}
