// Package portfolio serves the portfolio site's chat endpoint: an
// authenticated, rate limited POST /chat answered by a retrieval chain.
package portfolio

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yuribarsotti/agentlab/logging"
)

// APIKeyHeader carries the static API key.
const APIKeyHeader = "x-key"

// Answerer produces the chat answer for a query.
type Answerer interface {
	Answer(ctx context.Context, query string) (string, error)
}

// InteractionLogger records each answered interaction.
type InteractionLogger interface {
	LogInteraction(ctx context.Context, input, output string) error
}

// Options configures the server.
type Options struct {
	APIKey         string
	AllowedOrigins []string

	// RateLimit requests are allowed per fixed RateWindow for each remote
	// address.
	RateLimit  int
	RateWindow time.Duration

	// Now is the clock used for rate windows. Defaults to time.Now.
	Now func() time.Time

	// Interactions is optional. Its failures are logged, never returned.
	Interactions InteractionLogger

	Logger         logging.Logger
	TracerProvider trace.TracerProvider
}

// Server is the chat HTTP handler.
type Server struct {
	answerer Answerer
	opts     Options
	tracer   trace.Tracer

	mu        sync.Mutex
	windows   map[string]*window
	lastSweep time.Time
}

type window struct {
	start time.Time
	count int
}

// NewServer creates a Server.
func NewServer(answerer Answerer, optFns ...func(o *Options)) *Server {
	opts := Options{
		RateLimit:  12,
		RateWindow: time.Minute,
		Logger:     logging.NoOpLogger{},
		Now:        time.Now,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	if opts.TracerProvider == nil {
		opts.TracerProvider = otel.GetTracerProvider()
	}

	return &Server{
		answerer: answerer,
		opts:     opts,
		tracer:   opts.TracerProvider.Tracer("github.com/yuribarsotti/agentlab/internal/portfolio"),
		windows:  make(map[string]*window),
	}
}

// Handler returns the routed handler wrapped in CORS.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", s.handleChat)

	return s.cors(mux)
}

type question struct {
	Query string `json:"query"`
}

type answer struct {
	Response string `json:"response"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.tracer.Start(r.Context(), "portfolio.chat")
	defer span.End()

	addr := remoteAddr(r)
	span.SetAttributes(attribute.String("client.address", addr))

	if !s.allow(addr) {
		span.SetStatus(codes.Error, "rate limited")
		writeDetail(w, http.StatusTooManyRequests, "Rate limit exceeded")

		return
	}

	key := r.Header.Get(APIKeyHeader)
	if key == "" || key != s.opts.APIKey {
		span.SetStatus(codes.Error, "unauthorized")
		writeDetail(w, http.StatusUnauthorized, "Token?")

		return
	}

	var q question
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&q); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	resp, err := s.answerer.Answer(ctx, q.Query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.opts.Logger.Error("portfolio.chat.error", "error", err.Error())
		writeDetail(w, http.StatusInternalServerError, "Internal error")

		return
	}

	if s.opts.Interactions != nil {
		if err := s.opts.Interactions.LogInteraction(ctx, q.Query, resp); err != nil {
			s.opts.Logger.Warn("portfolio.telegram.error", "error", err.Error())
		}
	}

	writeJSON(w, http.StatusOK, answer{Response: resp})
}

// allow counts a request against the fixed window of addr.
func (s *Server) allow(addr string) bool {
	if s.opts.RateLimit <= 0 {
		return true
	}

	now := s.opts.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastSweep) >= s.opts.RateWindow {
		for a, w := range s.windows {
			if now.Sub(w.start) >= s.opts.RateWindow {
				delete(s.windows, a)
			}
		}

		s.lastSweep = now
	}

	w, ok := s.windows[addr]
	if !ok || now.Sub(w.start) >= s.opts.RateWindow {
		w = &window{start: now}
		s.windows[addr] = w
	}

	if w.count >= s.opts.RateLimit {
		return false
	}

	w.count++

	return true
}

var corsMethods = "DELETE, GET, HEAD, OPTIONS, PATCH, POST, PUT"

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}

		allowed := slices.Contains(s.opts.AllowedOrigins, origin)
		preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""

		w.Header().Add("Vary", "Origin")

		if preflight {
			if !allowed {
				http.Error(w, "Disallowed CORS origin", http.StatusBadRequest)
				return
			}

			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", corsMethods)
			h.Set("Access-Control-Allow-Headers", "Accept, Accept-Language, Content-Language, Content-Type, "+APIKeyHeader)
			h.Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusOK)

			return
		}

		if allowed {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		next.ServeHTTP(w, r)
	})
}

func remoteAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
