package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/dvcrn/jobsocial-client/internal/apiclient"
)

const apiPrefix = "/api"

// forwardedHeaders are copied from the incoming request to the upstream call
var forwardedHeaders = []string{"Content-Type", "Accept", "Accept-Language", "X-Request-ID"}

// proxyHandler forwards /api/<path> to <base>/<path> through the authenticated client
func (s *Server) proxyHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.logger.Error().Err(err).Msg("Error reading request body")
		http.Error(w, "Failed to read request body", http.StatusInternalServerError)
		return
	}
	defer r.Body.Close()

	path := strings.TrimPrefix(r.URL.Path, apiPrefix)
	if r.URL.RawQuery != "" {
		path += "?" + r.URL.RawQuery
	}

	header := http.Header{}
	for _, name := range forwardedHeaders {
		if v := r.Header.Get(name); v != "" {
			header.Set(name, v)
		}
	}

	opts := apiclient.Options{Method: r.Method, Header: header}
	if len(body) > 0 {
		opts.Body = body
	}

	result, err := s.client.Do(r.Context(), path, opts)
	if err != nil {
		s.writeError(w, path, err)
		return
	}
	if result.Body == nil {
		w.WriteHeader(result.StatusCode)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(result.StatusCode)
	w.Write(result.Body)
}

func (s *Server) writeError(w http.ResponseWriter, path string, err error) {
	var reqErr *apiclient.RequestError
	switch {
	case errors.As(err, &reqErr):
		s.logger.Warn().Str("path", path).Int("status_code", reqErr.StatusCode).Str("message", reqErr.Message).Msg("Upstream request failed")
		writeJSON(w, reqErr.StatusCode, map[string]string{"detail": reqErr.Message})
	case errors.Is(err, apiclient.ErrSessionExpired):
		s.logger.Warn().Str("path", path).Msg("Session expired, login required")
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Session expired"})
	case errors.Is(err, apiclient.ErrUnauthenticated):
		s.logger.Warn().Str("path", path).Err(err).Msg("No usable session, login required")
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Not authenticated"})
	case errors.Is(err, apiclient.ErrBodyConflict):
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
	default:
		s.logger.Error().Str("path", path).Err(err).Msg("Error communicating with upstream API")
		writeJSON(w, http.StatusBadGateway, map[string]string{"detail": "Failed to communicate with upstream API: " + err.Error()})
	}
}
