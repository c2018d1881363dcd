package server

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// adminKey extracts the key from 'Authorization: Bearer <key>' or 'X-API-Key: <key>'.
// ok is false when an Authorization header is present but malformed.
func adminKey(r *http.Request) (key string, ok bool) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		scheme, token, found := strings.Cut(authHeader, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || token == "" || strings.Contains(token, " ") {
			return "", false
		}
		return token, true
	}
	return r.Header.Get("X-API-Key"), true
}

func (s *Server) denyAdmin(w http.ResponseWriter, r *http.Request, reason, body string) {
	s.logger.Warn().
		Str("method", r.Method).
		Str("uri", r.RequestURI).
		Str("remote_addr", r.RemoteAddr).
		Msg(reason)
	http.Error(w, body, http.StatusUnauthorized)
}

// adminMiddleware only lets requests through that carry the configured admin key
func (s *Server) adminMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.adminAPIKey == "" {
			s.logger.Error().Msg("ADMIN_API_KEY not configured")
			http.Error(w, "Admin API not configured", http.StatusInternalServerError)
			return
		}

		key, ok := adminKey(r)
		switch {
		case !ok:
			s.denyAdmin(w, r, "Invalid Authorization header format for admin endpoint", "Invalid Authorization header format")
			return
		case key == "":
			s.denyAdmin(w, r, "Missing admin key", "Unauthorized")
			return
		case subtle.ConstantTimeCompare([]byte(key), []byte(s.adminAPIKey)) != 1:
			s.denyAdmin(w, r, "Invalid admin API key provided", "Unauthorized")
			return
		}

		next(w, r)
	}
}
