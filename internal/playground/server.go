package playground

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yuribarsotti/agentlab/core"
	"github.com/yuribarsotti/agentlab/logging"
	"github.com/yuribarsotti/agentlab/runner"
	"github.com/yuribarsotti/agentlab/session"
)

const instrumentationName = "github.com/yuribarsotti/agentlab/internal/playground"

// Options configures the server.
type Options struct {
	SessionStore core.SessionStore
	Logger       logging.Logger

	TracerProvider trace.TracerProvider

	// MaxConcurrentRuns is applied to every entry's runner.
	MaxConcurrentRuns int
}

type entry struct {
	Entry
	name   string
	runner *runner.Runner
}

// Server serves the playground API.
type Server struct {
	agents map[string]*entry
	teams  map[string]*entry
	order  Catalog
	opts   Options
	tracer trace.Tracer
}

// NewServer builds every catalog entry from deps.
func NewServer(catalog Catalog, deps Deps, optFns ...func(o *Options)) (*Server, error) {
	opts := Options{
		SessionStore:      session.NewInMemoryStore(),
		Logger:            logging.NoOpLogger{},
		MaxConcurrentRuns: 10,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.TracerProvider == nil {
		opts.TracerProvider = otel.GetTracerProvider()
	}

	s := &Server{
		agents: make(map[string]*entry, len(catalog.Agents)),
		teams:  make(map[string]*entry, len(catalog.Teams)),
		order:  catalog,
		opts:   opts,
		tracer: opts.TracerProvider.Tracer(instrumentationName),
	}

	for _, e := range catalog.Agents {
		a, err := deps.buildAgent(e.Kind)
		if err != nil {
			return nil, fmt.Errorf("agent %s: %w", e.ID, err)
		}

		s.agents[e.ID] = s.newEntry(e, a)
	}

	for _, e := range catalog.Teams {
		t, err := deps.buildTeam(e.Kind)
		if err != nil {
			return nil, fmt.Errorf("team %s: %w", e.ID, err)
		}

		s.teams[e.ID] = s.newEntry(e, t)
	}

	return s, nil
}

func (s *Server) newEntry(e Entry, a core.Agent) *entry {
	return &entry{
		Entry: e,
		name:  a.Name(),
		runner: runner.New(a, func(o *runner.Options) {
			o.SessionStore = s.opts.SessionStore
			o.Logger = s.opts.Logger
			o.TracerProvider = s.opts.TracerProvider
			o.MaxConcurrentRuns = s.opts.MaxConcurrentRuns
		}),
	}
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/playground/status", s.handleStatus)
	mux.HandleFunc("GET /v1/playground/agents", s.listHandler(s.order.Agents, s.agents, "agent_id"))
	mux.HandleFunc("POST /v1/playground/agents/{id}/runs", s.runHandler(s.agents))
	mux.HandleFunc("GET /v1/playground/teams", s.listHandler(s.order.Teams, s.teams, "team_id"))
	mux.HandleFunc("POST /v1/playground/teams/{id}/runs", s.runHandler(s.teams))

	return mux
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"playground": "available"})
}

func (s *Server) listHandler(order []Entry, entries map[string]*entry, idKey string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		out := make([]map[string]string, 0, len(order))

		for _, e := range order {
			out = append(out, map[string]string{
				idKey:         e.ID,
				"name":        entries[e.ID].name,
				"kind":        e.Kind,
				"description": e.Description,
			})
		}

		writeJSON(w, http.StatusOK, out)
	}
}

// RunRequest is the body of a run request.
type RunRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	Stream    bool   `json:"stream,omitempty"`
}

// RunResponse is returned by non streaming runs.
type RunResponse struct {
	RunID     string       `json:"run_id"`
	SessionID string       `json:"session_id"`
	Agent     string       `json:"agent"`
	Content   string       `json:"content"`
	Events    []core.Event `json:"events"`
}

func (s *Server) runHandler(entries map[string]*entry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, ok := entries[r.PathValue("id")]
		if !ok {
			writeDetail(w, http.StatusNotFound, "Agent not found")
			return
		}

		var req RunRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil || strings.TrimSpace(req.Message) == "" {
			writeDetail(w, http.StatusUnprocessableEntity, "message is required")
			return
		}

		if req.SessionID == "" {
			req.SessionID = core.NewID()
		}

		ctx, span := s.tracer.Start(r.Context(), "playground.run", trace.WithAttributes(
			attribute.String("playground.entry", e.ID),
			attribute.String("playground.session_id", req.SessionID),
			attribute.Bool("playground.stream", req.Stream),
		))
		defer span.End()

		runID, events, errs, err := e.runner.RunAs(ctx, req.SessionID, req.UserID, core.NewTextContent("user", req.Message))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			s.opts.Logger.Error("playground.run.error", "entry", e.ID, "error", err.Error())

			status := http.StatusInternalServerError
			if errors.Is(err, runner.ErrTooManyRuns) {
				status = http.StatusTooManyRequests
			}

			writeDetail(w, status, err.Error())

			return
		}

		s.opts.Logger.Info("playground.run.start", "entry", e.ID, "run_id", runID, "session_id", req.SessionID)

		if req.Stream {
			s.stream(w, events, errs)
			return
		}

		var collected []core.Event
		for ev := range events {
			if !ev.IsPartial() {
				collected = append(collected, ev)
			}
		}

		if err := <-errs; err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			writeDetail(w, http.StatusInternalServerError, err.Error())

			return
		}

		writeJSON(w, http.StatusOK, RunResponse{
			RunID:     runID,
			SessionID: req.SessionID,
			Agent:     e.name,
			Content:   core.FinalText(collected, ""),
			Events:    collected,
		})
	}
}

// stream writes one JSON event per line, then an error line if the run
// failed.
func (s *Server) stream(w http.ResponseWriter, events <-chan core.Event, errs <-chan error) {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)

	for ev := range events {
		if err := enc.Encode(ev); err != nil {
			s.opts.Logger.Warn("playground.stream.error", "error", err.Error())
			continue
		}

		if flusher != nil {
			flusher.Flush()
		}
	}

	if err := <-errs; err != nil {
		_ = enc.Encode(map[string]string{"error": err.Error()})
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
