package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"eleanor-server/internal/logging"
)

// responseWriter captures status code and bytes written.
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
	wroteHeader  bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

// Unwrap lets http.ResponseController reach the connection.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// LoggingConfig selects which requests are logged.
type LoggingConfig struct {
	SkipPaths       []string // path prefixes never logged
	LogStreams      bool     // log GET /{hash}; players issue many range requests per track
	LogHealthChecks bool
}

// DefaultLoggingConfig logs everything except audio streams.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{LogHealthChecks: true}
}

var probePaths = map[string]bool{
	"/health":  true,
	"/healthz": true,
	"/livez":   true,
	"/readyz":  true,
}

func (c LoggingConfig) skips(path string) bool {
	for _, prefix := range c.SkipPaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	switch {
	case probePaths[path]:
		return !c.LogHealthChecks
	case isStreamPath(path):
		return !c.LogStreams
	}
	return false
}

// isStreamPath reports whether path is /{hash}, the audio stream route.
func isStreamPath(path string) bool {
	seg := strings.TrimPrefix(path, "/")
	return seg != "" && strings.Trim(seg, "0123456789") == ""
}

// Logger writes one W3C extended log line per request:
//
//	#Fields: date time c-ip cs-username cs-method cs-uri-stem cs-uri-query sc-status sc-bytes time-taken sc(Content-Encoding) cs(User-Agent) cs(Referer)
func Logger(config LoggingConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if config.skips(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			rw := newResponseWriter(w)
			next.ServeHTTP(rw, r)
			logging.Println(formatLine(time.Now().UTC(), r, rw, time.Since(start)))
		})
	}
}

func formatLine(now time.Time, r *http.Request, rw *responseWriter, took time.Duration) string {
	user := ""
	if u, _, ok := r.BasicAuth(); ok {
		user = u
	}

	fields := []string{
		now.Format(time.DateOnly),
		now.Format(time.TimeOnly),
		w3cField(clientIP(r)),
		w3cField(user),
		w3cField(r.Method),
		w3cField(r.URL.Path),
		w3cField(r.URL.RawQuery),
		strconv.Itoa(rw.statusCode),
		strconv.FormatInt(rw.bytesWritten, 10),
		strconv.FormatInt(took.Milliseconds(), 10),
		w3cField(rw.Header().Get("Content-Encoding")),
		w3cField(r.Header.Get("User-Agent")),
		w3cField(r.Header.Get("Referer")),
	}
	return strings.Join(fields, " ")
}

// w3cField sanitizes a value for a log line: "-" when empty, quoted with
// doubled quotes when it contains whitespace or quotes.
func w3cField(s string) string {
	s = sanitizeLogField(s)
	switch {
	case s == "":
		return "-"
	case strings.ContainsAny(s, " \t\""):
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

// sanitizeLogField strips control characters so a request cannot forge log lines.
func sanitizeLogField(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r':
			return ' '
		case r == '\t':
			return r
		case r < 0x20 || r == 0x7f:
			return -1
		}
		return r
	}, s)
}

// clientIP prefers proxy headers, then the connection's remote host.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
