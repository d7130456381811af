// Package opsserver provides the small operations HTTP surface
// (/health, /ready, /metrics) each stockmesh process binds on a side port,
// separate from its primary gRPC or HTTP listener.
package opsserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/stockmesh/stockmesh/pkg/metrics"
)

// ReadinessFunc reports whether the process is ready to accept traffic and
// a set of named checks to surface in the /ready response.
type ReadinessFunc func() (ready bool, checks map[string]string)

// Server serves the ops endpoints for one process.
type Server struct {
	mux     *http.ServeMux
	ready   ReadinessFunc
	version string
}

// New builds an ops server. readiness may be nil, in which case /ready
// always reports ready with no checks.
func New(version string, readiness ReadinessFunc) *Server {
	s := &Server{
		mux:     http.NewServeMux(),
		ready:   readiness,
		version: version,
	}
	s.mux.HandleFunc("/health", s.healthHandler)
	s.mux.HandleFunc("/ready", s.readyHandler)
	s.mux.Handle("/metrics", metrics.Handler())
	return s
}

// Start binds addr and serves until the process exits or ListenAndServe
// returns an error.
func (s *Server) Start(addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      s.mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return server.ListenAndServe()
}

// Handler returns the ops mux for embedding in another server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version,omitempty"`
}

type readyResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(healthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   s.version,
	})
}

func (s *Server) readyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ready := true
	var checks map[string]string
	if s.ready != nil {
		ready, checks = s.ready()
	}

	status := "ready"
	code := http.StatusOK
	if !ready {
		status = "not ready"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(readyResponse{
		Status:    status,
		Timestamp: time.Now(),
		Checks:    checks,
	})
}
