// Package metrics exposes evolution progress and price loading as Prometheus
// metrics, served over HTTP while a run is in progress.
package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Server provides HTTP server for Prometheus metrics
type Server struct {
	port     int
	server   *http.Server
	listener net.Listener
	recorder *Recorder
	log      zerolog.Logger
}

// NewServer creates a new metrics server. recorder may be nil, in which case
// /progress reports no data.
func NewServer(port int, recorder *Recorder, log zerolog.Logger) *Server {
	return &Server{
		port:     port,
		recorder: recorder,
		log:      log.With().Str("component", "metrics_server").Logger(),
	}
}

// Routes returns the server's handler tree
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	mux.HandleFunc("/progress", s.handleProgress)

	return HTTPMiddleware(mux)
}

type progressResponse struct {
	RunID      string  `json:"run_id"`
	Generation int     `json:"generation"`
	Best       float64 `json:"best"`
	Mean       float64 `json:"mean"`
	StdDev     float64 `json:"std_dev"`
	Mutations  int     `json:"mutations"`
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	if s.recorder == nil {
		http.Error(w, "no run in progress", http.StatusNotFound)
		return
	}

	resp := progressResponse{RunID: s.recorder.RunID()}
	if stats, ok := s.recorder.Latest(); ok {
		resp.Generation = stats.Generation
		resp.Best = stats.Best
		resp.Mean = stats.Mean
		resp.StdDev = stats.StdDev
		resp.Mutations = stats.Mutations
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode progress")
	}
}

// Start binds the port and serves in the background
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.port, err)
	}
	s.listener = listener

	s.server = &http.Server{
		Handler:      s.Routes(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.log.Info().Str("addr", listener.Addr().String()).Msg("Starting metrics server")

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("Metrics server error")
		}
	}()

	return nil
}

// Addr returns the bound address once the server is started
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown gracefully shuts down the metrics server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	s.log.Info().Msg("Shutting down metrics server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown metrics server: %w", err)
	}

	s.log.Info().Msg("Metrics server shutdown complete")
	return nil
}
