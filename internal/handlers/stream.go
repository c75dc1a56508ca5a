package handlers

import (
	"errors"
	"net/http"
	"os"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/spf13/afero"

	"eleanor-server/internal/logging"
	"eleanor-server/internal/mediatypes"
	"eleanor-server/internal/metrics"
	"eleanor-server/internal/resolver"
	"eleanor-server/internal/streaming"
	"eleanor-server/internal/tags"
)

// StreamAudio serves the file whose content hash is given in the path.
// Range requests are honoured.
func (h *Handlers) StreamAudio(w http.ResponseWriter, r *http.Request) {
	f, path, ok := h.openByHash(w, r)
	if !ok {
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		logging.Error("StreamAudio: stat %s: %v", path, err)
		writeJSONError(w, "Failed to read file", http.StatusInternalServerError)
		return
	}
	if info.IsDir() {
		logging.Error("StreamAudio: %s is a directory", path)
		writeJSONError(w, "Failed to read file", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", mediatypes.GuessFromPath(path))
	w.Header().Set("Cache-Control", "private, max-age=86400")

	tw := streaming.NewTimeoutWriter(r.Context(), w, h.streamConfig)
	http.ServeContent(tw, r, info.Name(), info.ModTime(), f)

	written, elapsed := tw.Stats()
	metrics.StreamBytesTotal.Add(float64(written))
	if err := tw.Close(); err != nil {
		if reason := streaming.AbortReason(err); reason != "" {
			metrics.StreamAborts.WithLabelValues(reason).Inc()
		}
		logging.Debug("StreamAudio: %s ended after %d bytes in %v: %v", path, written, elapsed, err)
	}
}

// GetCover serves the artwork embedded in the file with the given hash.
func (h *Handlers) GetCover(w http.ResponseWriter, r *http.Request) {
	f, path, ok := h.openByHash(w, r)
	if !ok {
		return
	}
	defer f.Close()

	pic, err := tags.ReadPicture(f)
	if errors.Is(err, tags.ErrNoPicture) {
		writeJSONError(w, "No embedded picture", http.StatusNotFound)
		return
	}
	if err != nil {
		logging.Error("GetCover: %s: %v", path, err)
		writeJSONError(w, "Failed to read picture", http.StatusInternalServerError)
		return
	}

	mime := pic.MIMEType
	if mime == "" {
		mime = mediatypes.DefaultMimeType
	}
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(pic.Data)))
	w.Header().Set("Cache-Control", "private, max-age=86400")
	if _, err := w.Write(pic.Data); err != nil {
		logging.Debug("GetCover: write %s: %v", path, err)
	}
}

// openByHash resolves the hash path variable and opens the file.
// On failure it writes the response and returns ok=false.
func (h *Handlers) openByHash(w http.ResponseWriter, r *http.Request) (f afero.File, path string, ok bool) {
	hash, err := resolver.ParseHash(mux.Vars(r)["hash"])
	if err != nil {
		writeJSONError(w, "Invalid hash", http.StatusBadRequest)
		return nil, "", false
	}

	path, err = h.resolver.Resolve(r.Context(), hash)
	if errors.Is(err, resolver.ErrUnknownHash) {
		writeJSONError(w, "Unknown hash", http.StatusNotFound)
		return nil, "", false
	}
	if err != nil {
		logging.Error("resolve %d: %v", hash, err)
		writeJSONError(w, "Failed to resolve hash", http.StatusInternalServerError)
		return nil, "", false
	}

	f, err = h.fs.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		logging.Warn("hash %d resolves to missing file %s", hash, path)
		writeJSONError(w, "File no longer exists", http.StatusGone)
		return nil, "", false
	}
	if err != nil {
		logging.Error("open %s: %v", path, err)
		writeJSONError(w, "Failed to open file", http.StatusInternalServerError)
		return nil, "", false
	}
	return f, path, true
}
