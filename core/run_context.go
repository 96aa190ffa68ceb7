package core

import (
	"context"
	"fmt"
	"maps"

	"github.com/yuribarsotti/agentlab/logging"
)

// RunContext is the mutable, per-run execution scope handed to Agent.Run.
// It aggregates the cancellation context, run identifiers, the user input,
// the emission channel, backing stores, a working Session snapshot, a staged
// StateDelta and the Branch label of hierarchical flows.
//
// SetState stages mutations in StateDelta until EmitEvent attaches them to
// an event and applies them to the snapshot. The runner persists the event
// (and therefore the delta) to the SessionStore.
type RunContext struct {
	Context          context.Context
	SessionID, RunID string
	UserID           string
	Agent            AgentInfo
	UserContent      Content
	Emit             chan<- Event
	Resume           <-chan struct{}
	SessionStore     SessionStore
	MemoryStore      MemoryStore
	Limiter          *ModelLimiter
	Session          *Session
	StateDelta       map[string]any
	Branch           string

	*loggerAdapter
}

// RunContextOptions groups the optional collaborators of a RunContext.
type RunContextOptions struct {
	UserID        string
	MaxModelCalls int
	Resume        <-chan struct{}
	SessionStore  SessionStore
	MemoryStore   MemoryStore
	Logger        logging.Logger
}

// NewRunContext constructs a RunContext with an empty state delta. A nil
// session is replaced by an empty one bound to sessionID.
func NewRunContext(ctx context.Context, sessionID, runID string, agent AgentInfo, userContent Content, emit chan<- Event, sess *Session, opts RunContextOptions) *RunContext {
	if sess == nil {
		sess = NewSession(sessionID)
	}

	return &RunContext{
		Context:       ctx,
		SessionID:     sessionID,
		RunID:         runID,
		UserID:        opts.UserID,
		Agent:         agent,
		UserContent:   userContent,
		Emit:          emit,
		Resume:        opts.Resume,
		SessionStore:  opts.SessionStore,
		MemoryStore:   opts.MemoryStore,
		Limiter:       NewModelLimiter(opts.MaxModelCalls),
		Session:       sess,
		StateDelta:    map[string]any{},
		loggerAdapter: newLoggerAdapter(opts.Logger),
	}
}

// Done returns a channel closed when the underlying context is cancelled.
func (rc *RunContext) Done() <-chan struct{} { return rc.Context.Done() }

// Err returns the cancellation error (if any) from the underlying context.
func (rc *RunContext) Err() error { return rc.Context.Err() }

// GetState returns a staged value if present, else the session value.
func (rc *RunContext) GetState(k string) (any, bool) {
	if v, ok := rc.StateDelta[k]; ok {
		return v, v != nil
	}

	if rc.Session != nil {
		return rc.Session.GetState(k)
	}

	return nil, false
}

// SetState stages a state mutation.
func (rc *RunContext) SetState(k string, v any) { rc.StateDelta[k] = v }

// ApplyStateDelta merges all pairs from d into the staged StateDelta.
func (rc *RunContext) ApplyStateDelta(d map[string]any) { maps.Copy(rc.StateDelta, d) }

// State returns the session state overlaid with the staged delta.
func (rc *RunContext) State() map[string]any {
	state := map[string]any{}
	if rc.Session != nil {
		state = rc.Session.StateSnapshot()
	}

	for k, v := range rc.StateDelta {
		if v == nil {
			delete(state, k)
			continue
		}

		state[k] = v
	}

	return state
}

// MemoryScope returns the key memories are stored under: the user id when
// known, else the session id.
func (rc *RunContext) MemoryScope() string {
	if rc.UserID != "" {
		return rc.UserID
	}

	return rc.SessionID
}

// SearchMemory queries the MemoryStore for relevant content.
func (rc *RunContext) SearchMemory(q string, limit int) ([]SearchResult, error) {
	if rc.MemoryStore == nil {
		return []SearchResult{}, nil
	}

	return rc.MemoryStore.Search(rc.MemoryScope(), q, limit)
}

// StoreMemory appends content plus metadata to the MemoryStore.
func (rc *RunContext) StoreMemory(content string, md map[string]any) error {
	if rc.MemoryStore == nil {
		return fmt.Errorf("memory store: %w", ErrNotConfigured)
	}

	return rc.MemoryStore.Store(rc.MemoryScope(), content, md)
}

// CommitStateDelta persists the staged delta directly then clears it.
func (rc *RunContext) CommitStateDelta() error {
	if len(rc.StateDelta) == 0 {
		return nil
	}

	if rc.SessionStore == nil {
		return fmt.Errorf("session store: %w", ErrNotConfigured)
	}

	if err := rc.SessionStore.ApplyDelta(rc.SessionID, rc.StateDelta); err != nil {
		return err
	}

	if rc.Session != nil {
		rc.Session.ApplyStateDelta(rc.StateDelta)
	}

	rc.StateDelta = map[string]any{}

	return nil
}

// History returns the conversation visible from this context's branch.
func (rc *RunContext) History() []Event {
	if rc.Session == nil {
		return nil
	}

	return rc.Session.ConversationHistory(rc.Branch)
}

// GetAgentName returns the logical agent name for this run.
func (rc *RunContext) GetAgentName() string { return rc.Agent.Name }

// Clone returns a shallow copy with a deep-copied delta buffer.
func (rc *RunContext) Clone() *RunContext {
	c := *rc
	c.StateDelta = maps.Clone(rc.StateDelta)

	if c.StateDelta == nil {
		c.StateDelta = map[string]any{}
	}

	return &c
}

// WithBranch clones the context and sets the Branch label.
func (rc *RunContext) WithBranch(b string) *RunContext {
	c := rc.Clone()
	c.Branch = b

	return c
}

// WithAgent clones the context for execution by another agent.
func (rc *RunContext) WithAgent(info AgentInfo) *RunContext {
	c := rc.Clone()
	c.Agent = info

	return c
}

// NewChildContext derives a context for a nested execution path with its
// own emission channel and an empty delta. An empty branch keeps the parent's.
func (rc *RunContext) NewChildContext(emit chan<- Event, resume <-chan struct{}, branch string) *RunContext {
	c := *rc
	c.Emit = emit
	c.Resume = resume
	c.StateDelta = map[string]any{}

	if branch != "" {
		c.Branch = branch
	}

	return &c
}

// EmitEvent fills missing correlation fields and sends the event on Emit.
// Non-partial events also carry the staged StateDelta and are recorded in
// the session snapshot; partial events leave the delta staged.
func (rc *RunContext) EmitEvent(ev Event) error {
	if ev.InvocationID == "" {
		ev.InvocationID = rc.RunID
	}

	if ev.Author == "" {
		ev.Author = rc.Agent.Name
	}

	if ev.Branch == nil && rc.Branch != "" {
		b := rc.Branch
		ev.Branch = &b
	}

	if ev.IsPartial() {
		return rc.Forward(ev)
	}

	if len(rc.StateDelta) > 0 {
		if ev.Actions.StateDelta == nil {
			ev.Actions.StateDelta = map[string]any{}
		}

		maps.Copy(ev.Actions.StateDelta, rc.StateDelta)
		rc.StateDelta = map[string]any{}
	}

	if rc.Session != nil {
		if len(ev.Actions.StateDelta) > 0 {
			rc.Session.ApplyStateDelta(ev.Actions.StateDelta)
		}

		rc.Session.AddEvent(ev)
	}

	return rc.Forward(ev)
}

// Forward sends an already recorded event (for example one produced by a
// child context) on Emit without touching the snapshot.
func (rc *RunContext) Forward(ev Event) error {
	if rc.Emit == nil {
		return fmt.Errorf("emit channel: %w", ErrNotConfigured)
	}

	select {
	case <-rc.Context.Done():
		return rc.Context.Err()
	case rc.Emit <- ev:
	}

	return nil
}

// WaitForResume blocks until Resume signals or the context is cancelled.
// It returns immediately when no Resume channel is configured.
func (rc *RunContext) WaitForResume() error {
	if rc.Resume == nil {
		return nil
	}

	select {
	case <-rc.Resume:
		return nil
	case <-rc.Context.Done():
		return rc.Context.Err()
	}
}
