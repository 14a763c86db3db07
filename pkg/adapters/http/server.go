package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aretw0/mender/internal/presentation/graph"
	"github.com/aretw0/mender/pkg/domain"
	"github.com/aretw0/mender/pkg/ports"
	"github.com/aretw0/mender/pkg/session"
)

// RunFactory builds the orchestrator for a new run. The given hooks feed
// the event stream and must be attached to the orchestrator.
type RunFactory func(runID string, hooks domain.LifecycleHooks) ports.Orchestrator

// Server exposes run management and diagnostics over HTTP.
type Server struct {
	Manager *session.Manager
	Factory RunFactory
	Streams *StreamManager
	Metrics http.Handler
	Version string
	Logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithMetrics mounts a metrics handler on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.Metrics = h }
}

// WithVersion sets the version reported by GET /info.
func WithVersion(v string) Option {
	return func(s *Server) { s.Version = v }
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.Logger = logger }
}

// NewServer creates a server backed by a run manager.
func NewServer(manager *session.Manager, factory RunFactory, opts ...Option) *Server {
	s := &Server{
		Manager: manager,
		Factory: factory,
		Streams: NewStreamManager(),
		Version: "dev",
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.Logger
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}

	r.Route("/runs", func(r chi.Router) {
		r.Get("/", s.ListRuns)
		r.Post("/", s.CreateRun)
		r.Route("/{runID}", func(r chi.Router) {
			r.Get("/", s.GetRun)
			r.Delete("/", s.DeleteRun)
			r.Post("/step", s.StepRun)
			r.Post("/run", s.RunToCompletion)
			r.Get("/history", s.GetHistory)
			r.Get("/graph", s.GetGraph)
			r.Get("/events", s.SubscribeEvents)
		})
	})
	r.Get("/reports", s.ListReports)
	r.Get("/reports/{runID}", s.GetReport)
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// StepResponse is returned by the step and run endpoints.
type StepResponse struct {
	Summary domain.Summary `json:"summary"`
	Error   string         `json:"error,omitempty"`
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "mender-http",
		"version": strings.TrimSpace(s.Version),
	})
}

// CreateRun handles POST /runs.
func (s *Server) CreateRun(w http.ResponseWriter, r *http.Request) {
	id, err := s.Manager.Start(r.Context(), func(runID string) ports.Orchestrator {
		return s.Factory(runID, s.Streams.Hooks(runID))
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/runs/"+id)
	s.writeJSON(w, http.StatusCreated, map[string]string{"run_id": id})
}

// ListRuns handles GET /runs.
func (s *Server) ListRuns(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string][]string{"runs": s.Manager.List()})
}

// GetRun handles GET /runs/{runID}.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	summary, err := s.Manager.Summary(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

// DeleteRun handles DELETE /runs/{runID}.
func (s *Server) DeleteRun(w http.ResponseWriter, r *http.Request) {
	if err := s.Manager.Delete(r.Context(), chi.URLParam(r, "runID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StepRun handles POST /runs/{runID}/step.
func (s *Server) StepRun(w http.ResponseWriter, r *http.Request) {
	summary, err := s.Manager.Step(r.Context(), chi.URLParam(r, "runID"))
	s.writeStep(w, r, summary, err)
}

// RunToCompletion handles POST /runs/{runID}/run.
func (s *Server) RunToCompletion(w http.ResponseWriter, r *http.Request) {
	summary, err := s.Manager.Run(r.Context(), chi.URLParam(r, "runID"))
	s.writeStep(w, r, summary, err)
}

// GetHistory handles GET /runs/{runID}/history.
func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request) {
	report, err := s.Manager.Report(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report.History)
}

// GetGraph handles GET /runs/{runID}/graph. With ?format=link it returns a
// mermaid.live URL instead of the diagram source.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	report, err := s.Manager.Report(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	code := graph.GenerateMermaid(report.History, &graph.Overlay{CurrentState: report.Summary.State})

	if r.URL.Query().Get("format") == "link" {
		link, err := graph.LiveLink(code)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]string{"mermaid": code, "url": link})
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, code)
}

// ListReports handles GET /reports.
func (s *Server) ListReports(w http.ResponseWriter, r *http.Request) {
	store := s.Manager.Reports()
	if store == nil {
		s.writeJSON(w, http.StatusOK, map[string][]string{"reports": {}})
		return
	}
	ids, err := store.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"reports": ids})
}

// GetReport handles GET /reports/{runID}.
func (s *Server) GetReport(w http.ResponseWriter, r *http.Request) {
	store := s.Manager.Reports()
	if store == nil {
		s.writeError(w, r, domain.ErrReportNotFound)
		return
	}
	report, err := store.Load(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

// SubscribeEvents handles GET /runs/{runID}/events (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	if _, err := s.Manager.Summary(r.Context(), runID); err != nil {
		s.writeError(w, r, err)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(runID)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Info("SSE client disconnected", "run_id", runID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: transition\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) writeStep(w http.ResponseWriter, r *http.Request, summary domain.Summary, err error) {
	switch {
	case err == nil:
		s.writeJSON(w, http.StatusOK, StepResponse{Summary: summary})
	case errors.Is(err, domain.ErrStepBudgetExhausted):
		s.writeJSON(w, http.StatusOK, StepResponse{Summary: summary, Error: err.Error()})
	case errors.Is(err, domain.ErrTerminated):
		s.writeJSON(w, http.StatusConflict, StepResponse{Summary: summary, Error: err.Error()})
	default:
		var ce *domain.CollaboratorError
		if errors.As(err, &ce) {
			s.Logger.Error("collaborator failed", "op", ce.Op, "err", err)
			s.writeJSON(w, http.StatusBadGateway, StepResponse{Summary: summary, Error: err.Error()})
			return
		}
		s.writeError(w, r, err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrRunNotFound), errors.Is(err, domain.ErrReportNotFound):
		status = http.StatusNotFound
	case r.Context().Err() != nil:
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		s.Logger.Error("request failed", "path", r.URL.Path, "err", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "err", err)
	}
}
