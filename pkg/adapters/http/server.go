// Package http exposes a cell stack over HTTP for inspection and remote
// stepping. State never lives server-side: every request carries its own
// state and receives the new one back, so the endpoint scales across
// independent runs without coordination.
package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cellstack/cellstack"
	"github.com/cellstack/cellstack/pkg/domain"
	"github.com/cellstack/cellstack/pkg/registry"
	"github.com/cellstack/cellstack/pkg/tensor"
)

// Server serves a single stack.
type Server struct {
	stack  *cellstack.Stack
	logger *slog.Logger
}

// NewHandler creates an HTTP handler exposing the stack.
func NewHandler(stack *cellstack.Stack, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{stack: stack, logger: logger}

	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Get("/v1/spec", s.handleSpec)
	r.Post("/v1/state", s.handleInitialState)
	r.Post("/v1/step", s.handleStep)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSpec returns the stack's serialized descriptor.
func (s *Server) handleSpec(w http.ResponseWriter, r *http.Request) {
	desc, err := registry.Serialize(s.stack)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, desc)
}

type initialStateRequest struct {
	BatchSize int `json:"batch_size"`
}

type initialStateResponse struct {
	State domain.State `json:"state"`
}

func (s *Server) handleInitialState(w http.ResponseWriter, r *http.Request) {
	var req initialStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	state, err := s.stack.InitialState(req.BatchSize)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, initialStateResponse{State: state})
}

type stepRequest struct {
	Input    *tensor.Tensor `json:"input"`
	State    domain.State   `json:"state"`
	Training bool           `json:"training,omitempty"`
}

type stepResponse struct {
	Output *tensor.Tensor `json:"output"`
	State  domain.State   `json:"state"`
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	var req stepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.Input == nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("missing input tensor"))
		return
	}

	output, state, err := s.stack.StepTraining(r.Context(), req.Input, req.State, req.Training)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, stepResponse{Output: output, State: state})
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.logger.Error("request failed", "err", err)
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
