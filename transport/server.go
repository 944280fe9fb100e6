package transport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/devlaiger/taskflow/agent"
	"github.com/devlaiger/taskflow/engine"
	"github.com/devlaiger/taskflow/model"
	"github.com/devlaiger/taskflow/tool"
	"github.com/devlaiger/taskflow/workflow"
)

// ServiceName and Version are reported by GET /.
const (
	ServiceName = "taskflow"
	Version     = "0.1.0"
)

// Server wires the engine, agent/tool registries, and workflow templates
// behind a chi router, grounded on hector's chi+otel+prometheus HTTP
// layer (pkg/transport/http_metrics_middleware.go) but without the A2A
// protocol surface, which has no analogue in this domain.
type Server struct {
	engine  *engine.Engine
	agents  *agent.Registry
	tools   *tool.Registry
	metrics *Metrics

	httpServer *http.Server
	router     chi.Router
}

// NewServer builds the router and wraps it in an *http.Server listening on
// addr. Routes are exactly the HTTP surface: /, /health, /agents, /tools,
// /workflows, /workflows/{id}, /workflows/{id}/cancel,
// /workflows/templates/{name}, plus /metrics for Prometheus scraping.
// metrics is shared with the caller so the same collectors can also be
// installed into eng via engine.WithAttemptRecorder.
func NewServer(addr string, eng *engine.Engine, agents *agent.Registry, tools *tool.Registry, metrics *Metrics) *Server {
	s := &Server{
		engine:  eng,
		agents:  agents,
		tools:   tools,
		metrics: metrics,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(observability(s.metrics))

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Get("/agents", s.handleListAgents)
	r.Get("/tools", s.handleListTools)
	r.Post("/workflows", s.handleSubmitWorkflow)
	r.Get("/workflows/{id}", s.handleGetWorkflow)
	r.Post("/workflows/{id}/cancel", s.handleCancelWorkflow)
	r.Get("/workflows/templates/{name}", s.handleGetTemplate)
	r.Handle("/metrics", s.metrics.Handler())

	s.router = r
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Addr returns the server's configured listen address.
func (s *Server) Addr() string { return s.httpServer.Addr }

// ListenAndServe blocks serving HTTP until the server is shut down, or
// returns immediately with a non-nil error on any other failure.
func (s *Server) ListenAndServe() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully drains in-flight requests, honoring ctx's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response body", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"name": ServiceName, "version": Version})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.agents.List())
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tools.List())
}

func (s *Server) handleSubmitWorkflow(w http.ResponseWriter, r *http.Request) {
	var req model.WorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	s.metrics.RecordWorkflowStarted()
	result, err := s.engine.Execute(r.Context(), req)
	if err != nil {
		// Execute reports validation/registry failures inside result; its
		// error return is always nil today and is checked defensively.
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.metrics.RecordWorkflowFinished(string(result.Status))

	status := http.StatusOK
	if result.Status == model.WorkflowFailed && result.Error != "" && len(result.AgentResults) == 0 {
		// A workflow that never ran any agent failed validation at
		// submission time (bad DAG, unknown agent_type): report 400.
		status = http.StatusBadRequest
	}
	writeJSON(w, status, result)
}

func (s *Server) handleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	result, ok := s.engine.Status(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown workflow id")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCancelWorkflow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cancelled := s.engine.Cancel(id)
	writeJSON(w, http.StatusOK, map[string]bool{"cancelled": cancelled})
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	req, ok := workflow.Lookup(name)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown template")
		return
	}
	writeJSON(w, http.StatusOK, req)
}
