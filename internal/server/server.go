// Package server exposes the settlement pipeline over HTTP: the schedule
// trigger endpoint plus liveness and readiness probes.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/raceday/internal/service"
)

// Runner is the slice of the pipeline the server invokes.
type Runner interface {
	Run(ctx context.Context, opts service.RunOptions) (*service.RunSummary, error)
}

// StorePinger checks data store connectivity for readiness probes.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// Config holds the configuration for the trigger server.
type Config struct {
	ServiceName string
	Version     string
	Port        int
	Logger      *logrus.Logger
	Pipeline    Runner
	Store       StorePinger
}

// Server is the HTTP front for schedule-invoked settlement runs.
type Server struct {
	serviceName string
	version     string
	port        int
	server      *http.Server
	logger      *logrus.Logger
	pipeline    Runner
	store       StorePinger
	mu          sync.RWMutex
	ready       bool
}

// NewServer creates a trigger server.
func NewServer(cfg Config) *Server {
	port := cfg.Port
	if port == 0 {
		port = 8090
	}

	return &Server{
		serviceName: cfg.ServiceName,
		version:     cfg.Version,
		port:        port,
		logger:      cfg.Logger,
		pipeline:    cfg.Pipeline,
		store:       cfg.Store,
	}
}

// SetReady marks the server as ready to accept trigger calls.
func (s *Server) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
}

// IsReady returns whether the server is ready.
func (s *Server) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Handler returns the route table, exported for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/settle", s.handleSettle)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	return mux
}

// Start starts the trigger server in the background and shuts it down when
// ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         ":" + strconv.Itoa(s.port),
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Minute, // a full batch can take minutes under the provider rate limit
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{
				"port":    s.port,
				"service": s.serviceName,
			}).Info("Trigger server starting")
		}
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			if s.logger != nil {
				s.logger.WithError(err).Error("Trigger server error")
			}
		}
	}()

	go func() {
		<-ctx.Done()
		s.Shutdown()
	}()

	return nil
}

// Shutdown gracefully shuts down the trigger server.
func (s *Server) Shutdown() error {
	if s.server == nil {
		return nil
	}
	if s.logger != nil {
		s.logger.Info("Trigger server shutting down")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// handleSettle runs one settlement invocation. The body is optional: an
// empty POST settles everything due today with configured defaults.
func (s *Server) handleSettle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Message: "POST required"})
		return
	}

	// No pipeline means the service came up without valid credentials.
	if s.pipeline == nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "service is not configured"})
		return
	}

	var opts service.RunOptions
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err == nil && len(body) > 0 {
		if err := json.Unmarshal(body, &opts); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Message: fmt.Sprintf("invalid request body: %v", err)})
			return
		}
	}

	summary, err := s.pipeline.Run(r.Context(), opts)
	if err != nil {
		// The candidate scan itself failed; nothing was attempted.
		if s.logger != nil {
			s.logger.WithError(err).Error("Settlement run failed before fetching")
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: err.Error()})
		return
	}

	// Partial failure is still a 200: callers read failed_count.
	writeJSON(w, http.StatusOK, summary)
}

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Service: s.serviceName,
		Version: s.version,
	})
}

type readyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	healthy := true

	if !s.IsReady() {
		healthy = false
		checks["service"] = "not_ready"
	} else {
		checks["service"] = "ok"
	}

	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			healthy = false
			checks["store"] = fmt.Sprintf("error: %v", err)
		} else {
			checks["store"] = "ok"
		}
	}

	status := http.StatusOK
	label := "ready"
	if !healthy {
		status = http.StatusServiceUnavailable
		label = "not_ready"
	}
	writeJSON(w, status, readyResponse{Status: label, Checks: checks})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
