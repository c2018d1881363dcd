package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dvcrn/jobsocial-client/internal/apiclient"
	"github.com/rs/zerolog"
)

// Server is a local gateway that forwards /api/ calls to the backend with the
// stored session attached, plus admin endpoints to manage that session.
type Server struct {
	client      *apiclient.Client
	adminAPIKey string
	mux         *http.ServeMux
	logger      zerolog.Logger
}

func New(logger zerolog.Logger, client *apiclient.Client, adminAPIKey string) *Server {
	s := &Server{
		client:      client,
		adminAPIKey: adminAPIKey,
		mux:         http.NewServeMux(),
		logger:      logger,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/health", s.healthHandler)
	s.mux.HandleFunc("/api/", s.proxyHandler)
	s.mux.HandleFunc("/admin/session", s.adminMiddleware(s.sessionHandler))
	s.mux.HandleFunc("/admin/session/status", s.adminMiddleware(s.sessionStatusHandler))
	s.mux.HandleFunc("/admin/session/refresh", s.adminMiddleware(s.sessionRefreshHandler))
	s.mux.HandleFunc("/", s.notFoundHandler)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.loggingMiddleware(s.mux).ServeHTTP(w, r)
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		s.logger.Debug().
			Str("method", r.Method).
			Str("uri", r.RequestURI).
			Str("remote_addr", r.RemoteAddr).
			Str("user_agent", r.UserAgent()).
			Msg("Incoming request")
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("uri", r.RequestURI).
			Int("status_code", rec.status).
			Dur("duration", time.Since(start)).
			Msg("Finished request")
	})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) notFoundHandler(w http.ResponseWriter, r *http.Request) {
	s.logger.Warn().
		Str("method", r.Method).
		Str("uri", r.RequestURI).
		Str("remote_addr", r.RemoteAddr).
		Msg("Unhandled route")
	http.NotFound(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
