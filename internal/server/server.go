package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"pump-portal-sniper/internal/metrics"
)

// StatsSource exposes runtime counters from a bot component
type StatsSource interface {
	Stats() map[string]interface{}
}

// Server exposes health, status, and metrics endpoints while the bot runs
type Server struct {
	server  *http.Server
	logger  *logrus.Logger
	sources map[string]StatsSource
	started time.Time
}

// New creates a status server listening on addr. Sources are keyed by the
// component name they appear under in the status payload.
func New(addr string, sources map[string]StatsSource, logger *logrus.Logger) *Server {
	s := &Server{
		logger:  logger,
		sources: sources,
		started: time.Now(),
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return s
}

// Serve blocks until the listener fails or Shutdown is called
func (s *Server) Serve() error {
	s.logger.WithField("addr", s.server.Addr).Info("Status server listening")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	payload := map[string]interface{}{
		"uptime_seconds": int(time.Since(s.started).Seconds()),
	}
	for name, source := range s.sources {
		payload[name] = source.Stats()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.WithError(err).Warn("Failed to write status response")
	}
}
