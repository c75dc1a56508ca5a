package handlers

import (
	"github.com/gorilla/mux"
)

// Router registers every endpoint on a new mux.Router.
func (h *Handlers) Router() *mux.Router {
	r := mux.NewRouter()

	// Probes and version, left open by the auth middleware
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	r.HandleFunc("/", h.ListCatalog).Methods("GET").Name("catalog")
	r.HandleFunc("/", h.TriggerReindex).Methods("POST").Name("reindex")
	r.HandleFunc("/{hash:[0-9]+}", h.StreamAudio).Methods("GET", "HEAD").Name("stream")
	r.HandleFunc("/{hash:[0-9]+}/cover", h.GetCover).Methods("GET").Name("cover")

	return r
}
