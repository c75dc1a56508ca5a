package middleware

import (
	"context"
	"net/http"

	"eleanor-server/internal/logging"
)

// Authenticator checks a username and password pair.
type Authenticator interface {
	Authenticate(ctx context.Context, name, password string) (bool, error)
}

// AuthConfig holds configuration for the basic auth middleware
type AuthConfig struct {
	Realm string
	// PublicPaths are served without credentials.
	PublicPaths []string
}

// DefaultAuthConfig leaves the health and version probes open.
func DefaultAuthConfig() AuthConfig {
	return AuthConfig{
		Realm:       "eleanor",
		PublicPaths: []string{"/health", "/healthz", "/livez", "/readyz", "/version"},
	}
}

// BasicAuth requires HTTP basic credentials accepted by auth on every
// request outside PublicPaths.
func BasicAuth(auth Authenticator, config AuthConfig) func(http.Handler) http.Handler {
	public := make(map[string]bool, len(config.PublicPaths))
	for _, p := range config.PublicPaths {
		public[p] = true
	}
	challenge := `Basic realm="` + config.Realm + `", charset="UTF-8"`

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if public[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			name, password, ok := r.BasicAuth()
			if !ok {
				w.Header().Set("WWW-Authenticate", challenge)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			valid, err := auth.Authenticate(r.Context(), name, password)
			if err != nil {
				logging.Error("auth: failed to check credentials for %q: %v", sanitizeLogField(name), err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			if !valid {
				logging.Debug("auth: rejected credentials for %q", sanitizeLogField(name))
				w.Header().Set("WWW-Authenticate", challenge)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
