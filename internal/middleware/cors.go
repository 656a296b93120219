// Package middleware provides HTTP middleware for the tutor server.
package middleware

import "net/http"

const (
	allowMethods = "GET, POST, PUT, OPTIONS"
	allowHeaders = "Content-Type, Last-Event-ID"
)

// CORS returns middleware that handles CORS headers for the SPA, the JSON
// API and the chat event stream. "*" echoes any origin but never grants
// credentials; the client cookie only travels to explicitly listed origins.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	explicit := make(map[string]struct{}, len(allowedOrigins))
	wildcard := false
	for _, o := range allowedOrigins {
		if o == "*" {
			wildcard = true
			continue
		}
		explicit[o] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			w.Header().Add("Vary", "Origin")

			_, listed := explicit[origin]
			if origin != "" && (listed || wildcard) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", allowMethods)
				w.Header().Set("Access-Control-Allow-Headers", allowHeaders)
				if listed {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
