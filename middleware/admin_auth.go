package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// AdminAuth protects destructive endpoints (clear-site, exclusions,
// settings) with an API key. Only the bcrypt hash of the key is
// configured; the plain key never touches disk.
type AdminAuth struct {
	apiKeyHash string
	enabled    bool
}

// NewAdminAuth creates the admin authentication middleware.
func NewAdminAuth(apiKeyHash string, enabled bool) *AdminAuth {
	if enabled && apiKeyHash == "" {
		log.Warn().Msg("Admin authentication enabled but no API key hash configured - admin routes will be inaccessible")
	}
	return &AdminAuth{
		apiKeyHash: apiKeyHash,
		enabled:    enabled,
	}
}

// Protect wraps an HTTP handler with admin authentication.
func (a *AdminAuth) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.enabled {
			next.ServeHTTP(w, r)
			return
		}

		if a.apiKeyHash == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"ok":false,"error":"Admin authentication not configured"}`))
			return
		}

		providedKey := r.Header.Get("X-Admin-Key")
		if providedKey == "" {
			if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
				providedKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if providedKey == "" {
			log.Warn().
				Str("path", r.URL.Path).
				Str("ip", r.RemoteAddr).
				Msg("Admin route accessed without API key")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"ok":false,"error":"Missing admin API key. Provide via X-Admin-Key header or Authorization: Bearer <key>"}`))
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(a.apiKeyHash), []byte(providedKey)); err != nil {
			log.Warn().
				Str("path", r.URL.Path).
				Str("ip", r.RemoteAddr).
				Msg("Admin route accessed with invalid API key")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"ok":false,"error":"Invalid admin API key"}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}
