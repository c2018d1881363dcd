package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dvcrn/jobsocial-client/internal/auth"
)

// sessionHandler handles POST (store a token pair) and DELETE (sign out) on /admin/session
func (s *Server) sessionHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.setSession(w, r)
	case http.MethodDelete:
		if err := s.client.Logout(r.Context()); err != nil {
			s.logger.Error().Err(err).Msg("Failed to clear session")
			http.Error(w, "Failed to clear session", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "Signed out"})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) setSession(w http.ResponseWriter, r *http.Request) {
	var reqBody auth.TokenPair
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		s.logger.Error().Err(err).Msg("Failed to parse request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if !reqBody.Complete() {
		http.Error(w, "Missing required fields: access_token, refresh_token", http.StatusBadRequest)
		return
	}

	if err := s.client.Session().SetSession(reqBody); err != nil {
		s.logger.Error().Err(err).Msg("Failed to store session")
		http.Error(w, "Failed to update session", http.StatusInternalServerError)
		return
	}

	s.logger.Info().Msg("Session updated through admin API")
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "Session updated successfully"})
}

// sessionStatusHandler handles GET /admin/session/status
func (s *Server) sessionStatusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	st, err := s.client.Session().Status()
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read session status")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// sessionRefreshHandler handles POST /admin/session/refresh
func (s *Server) sessionRefreshHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	session := s.client.Session()
	_, generation, err := session.Snapshot()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	if _, err := session.Refresh(r.Context(), generation); err != nil {
		status := http.StatusBadGateway
		if auth.RefreshImpossible(err) || errors.Is(err, auth.ErrRefreshRejected) {
			status = http.StatusUnauthorized
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "Session refreshed"})
}
