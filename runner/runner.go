package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/yuribarsotti/agentlab/core"
	"github.com/yuribarsotti/agentlab/logging"
	"github.com/yuribarsotti/agentlab/memory"
	"github.com/yuribarsotti/agentlab/session"
)

const instrumentationName = "github.com/yuribarsotti/agentlab/runner"

// ErrTooManyRuns is returned when MaxConcurrentRuns runs are already active.
var ErrTooManyRuns = errors.New("too many concurrent runs")

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// MaxConcurrentRuns limits concurrently executing runs. Zero means unlimited.
	MaxConcurrentRuns int
	// EventBufferSize sets channel buffering for events.
	EventBufferSize int
	// MaxModelCalls limits the number of model calls per run.
	MaxModelCalls int
	// UserID owns sessions created implicitly by Run.
	UserID string

	SessionStore core.SessionStore
	MemoryStore  core.MemoryStore
	Logger       logging.Logger

	// TracerProvider and MeterProvider default to the otel globals.
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// Runner coordinates agent execution: prepares the session, creates run
// contexts, streams events, persists history and applies state deltas.
// Public methods are safe for concurrent use.
type Runner struct {
	agent core.Agent
	opts  Options

	tracer   trace.Tracer
	runs     metric.Int64Counter
	duration metric.Float64Histogram

	mu         sync.Mutex
	activeRuns map[string]context.CancelFunc
}

var _ core.Runner = (*Runner)(nil)

// New constructs a Runner for the root agent with optional overrides.
func New(agent core.Agent, optFns ...func(o *Options)) *Runner {
	opts := Options{
		MaxConcurrentRuns: 10,
		EventBufferSize:   100,
		MaxModelCalls:     100,
		SessionStore:      session.NewInMemoryStore(),
		MemoryStore:       memory.NewInMemoryStore(),
		Logger:            logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.TracerProvider == nil {
		opts.TracerProvider = otel.GetTracerProvider()
	}

	if opts.MeterProvider == nil {
		opts.MeterProvider = otel.GetMeterProvider()
	}

	meter := opts.MeterProvider.Meter(instrumentationName)

	// Instrument construction only fails on invalid names.
	runs, _ := meter.Int64Counter("agentlab.runs", metric.WithDescription("Number of agent runs"))
	duration, _ := meter.Float64Histogram("agentlab.run.duration", metric.WithUnit("s"), metric.WithDescription("Agent run duration"))

	return &Runner{
		agent:      agent,
		opts:       opts,
		tracer:     opts.TracerProvider.Tracer(instrumentationName),
		runs:       runs,
		duration:   duration,
		activeRuns: make(map[string]context.CancelFunc),
	}
}

// Agent returns the root agent.
func (r *Runner) Agent() core.Agent { return r.agent }

// SessionStore returns the store sessions are persisted in.
func (r *Runner) SessionStore() core.SessionStore { return r.opts.SessionStore }

// Run starts an asynchronous run for the configured user.
func (r *Runner) Run(ctx context.Context, sessionID string, userContent core.Content) (string, <-chan core.Event, <-chan error, error) {
	return r.RunAs(ctx, sessionID, r.opts.UserID, userContent)
}

// RunAs starts an asynchronous run on behalf of userID. The session is
// created for userID when it does not exist yet.
func (r *Runner) RunAs(ctx context.Context, sessionID, userID string, userContent core.Content) (string, <-chan core.Event, <-chan error, error) {
	sess, err := r.loadSession(sessionID, userID)
	if err != nil {
		return "", nil, nil, err
	}

	runID := core.NewID()

	ctx, cancel := context.WithCancel(ctx)

	r.mu.Lock()
	if r.opts.MaxConcurrentRuns > 0 && len(r.activeRuns) >= r.opts.MaxConcurrentRuns {
		r.mu.Unlock()
		cancel()

		return "", nil, nil, fmt.Errorf("%w: limit %d", ErrTooManyRuns, r.opts.MaxConcurrentRuns)
	}

	r.activeRuns[runID] = cancel
	r.mu.Unlock()

	userEvent := core.NewUserContentEvent(runID, &userContent)
	if err := r.opts.SessionStore.AppendEvent(sessionID, userEvent); err != nil {
		r.finish(runID)
		return "", nil, nil, fmt.Errorf("failed to append user event: %w", err)
	}

	sess.AddEvent(userEvent)

	ctx, span := r.tracer.Start(ctx, "agentlab.run", trace.WithAttributes(
		attribute.String("agentlab.agent", r.agent.Name()),
		attribute.String("agentlab.session_id", sessionID),
		attribute.String("agentlab.run_id", runID),
	))

	agentEmit := make(chan core.Event, r.opts.EventBufferSize)
	resumeCh := make(chan struct{}, 1)
	eventsCh := make(chan core.Event, r.opts.EventBufferSize)
	errorsCh := make(chan error, 1)

	runCtx := core.NewRunContext(ctx, sessionID, runID,
		core.AgentInfo{Name: r.agent.Name(), Type: fmt.Sprintf("%T", r.agent)},
		userContent, agentEmit, sess,
		core.RunContextOptions{
			UserID:        sess.UserID,
			MaxModelCalls: r.opts.MaxModelCalls,
			Resume:        resumeCh,
			SessionStore:  r.opts.SessionStore,
			MemoryStore:   r.opts.MemoryStore,
			Logger:        r.opts.Logger,
		},
	)

	r.opts.Logger.Info("runner.run.start", "agent", r.agent.Name(), "session_id", sessionID, "run_id", runID)

	agentDone := make(chan error, 1)

	go func() {
		defer close(agentEmit)

		agentDone <- r.runAgent(runCtx)
	}()

	go func() {
		start := time.Now()

		defer func() {
			r.finish(runID)
			close(eventsCh)
			close(errorsCh)
		}()

		procErr := r.processEvents(runCtx, agentEmit, resumeCh, eventsCh)

		runErr := <-agentDone
		if runErr != nil {
			runErr = fmt.Errorf("agent execution failed: %w", runErr)
		}

		if err := errors.Join(runErr, procErr); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			r.opts.Logger.Error("runner.run.error", "run_id", runID, "error", err.Error())

			errorsCh <- err
		} else {
			r.opts.Logger.Info("runner.run.complete", "run_id", runID, "model_calls", runCtx.Limiter.Count())
		}

		attrs := metric.WithAttributes(
			attribute.String("agentlab.agent", r.agent.Name()),
			attribute.Bool("agentlab.error", runErr != nil || procErr != nil),
		)
		r.runs.Add(context.Background(), 1, attrs)
		r.duration.Record(context.Background(), time.Since(start).Seconds(), attrs)

		span.SetAttributes(attribute.Int("agentlab.model_calls", runCtx.Limiter.Count()))
		span.End()
	}()

	return runID, eventsCh, errorsCh, nil
}

// Cancel cancels a running run by ID.
func (r *Runner) Cancel(runID string) error {
	r.mu.Lock()
	cancel, exists := r.activeRuns[runID]
	r.mu.Unlock()

	if !exists {
		return fmt.Errorf("run %s not found", runID)
	}

	cancel()

	return nil
}

func (r *Runner) finish(runID string) {
	r.mu.Lock()
	cancel, ok := r.activeRuns[runID]
	delete(r.activeRuns, runID)
	r.mu.Unlock()

	if ok {
		cancel()
	}
}

func (r *Runner) loadSession(sessionID, userID string) (*core.Session, error) {
	sess, err := r.opts.SessionStore.Get(sessionID)
	if err == nil {
		return sess, nil
	}

	if !errors.Is(err, core.ErrSessionNotFound) {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	sess, err = r.opts.SessionStore.Create(sessionID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return sess, nil
}

func (r *Runner) runAgent(runCtx *core.RunContext) error {
	if err := r.agent.Start(runCtx); err != nil {
		return err
	}

	defer func() {
		if err := r.agent.Stop(runCtx); err != nil {
			r.opts.Logger.Warn("runner.agent.stop_failed", "agent", r.agent.Name(), "error", err.Error())
		}
	}()

	return r.agent.Run(runCtx)
}

// processEvents persists and delivers agent events until the agent closes
// its channel. After a persistence failure the run is cancelled and the
// remaining events are drained.
func (r *Runner) processEvents(runCtx *core.RunContext, agentEmit <-chan core.Event, resumeCh chan<- struct{}, eventsCh chan<- core.Event) error {
	var procErr error

	for ev := range agentEmit {
		if procErr != nil {
			continue
		}

		if !ev.IsPartial() {
			if err := r.persist(runCtx.SessionID, ev); err != nil {
				procErr = err
				r.finish(runCtx.RunID)

				continue
			}
		}

		select {
		case <-runCtx.Done():
			continue
		case eventsCh <- ev:
		}

		if !ev.IsPartial() {
			select {
			case resumeCh <- struct{}{}:
			default:
			}
		}
	}

	return procErr
}

func (r *Runner) persist(sessionID string, ev core.Event) error {
	if len(ev.Actions.StateDelta) > 0 {
		if err := r.opts.SessionStore.ApplyDelta(sessionID, ev.Actions.StateDelta); err != nil {
			return fmt.Errorf("failed to apply state delta: %w", err)
		}
	}

	if err := r.opts.SessionStore.AppendEvent(sessionID, ev); err != nil {
		return fmt.Errorf("failed to append event to session: %w", err)
	}

	if ev.Actions.TransferToAgent != nil && *ev.Actions.TransferToAgent != "" {
		r.opts.Logger.Debug("runner.event.transfer", "target", *ev.Actions.TransferToAgent, "session_id", sessionID)
	}

	if ev.Actions.Escalate != nil && *ev.Actions.Escalate {
		r.opts.Logger.Debug("runner.event.escalate", "session_id", sessionID)
	}

	return nil
}
