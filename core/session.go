package core

import (
	"maps"
	"strings"
	"sync"
	"time"
)

// Session is a conversational container tracking key/value state plus an
// ordered event history. It is safe for concurrent access.
type Session struct {
	ID       string            `json:"id"`
	UserID   string            `json:"user_id,omitempty"`
	State    map[string]any    `json:"state"`
	Events   []Event           `json:"events"`
	Created  time.Time         `json:"created"`
	Updated  time.Time         `json:"updated"`
	Metadata map[string]string `json:"metadata"`
	mu       sync.RWMutex
}

// NewSession creates a new session with the given ID.
func NewSession(id string) *Session {
	now := time.Now().UTC()

	return &Session{
		ID:       id,
		State:    map[string]any{},
		Events:   []Event{},
		Created:  now,
		Updated:  now,
		Metadata: map[string]string{},
	}
}

// GetState returns the value and existence flag for a state key.
func (s *Session) GetState(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.State[key]

	return v, ok
}

// SetState sets a key/value pair updating the Updated timestamp.
func (s *Session) SetState(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.State[key] = value
	s.Updated = time.Now().UTC()
}

// ApplyStateDelta merges the provided key/value pairs into State. A nil value deletes the key.
func (s *Session) ApplyStateDelta(delta map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, v := range delta {
		if v == nil {
			delete(s.State, k)
			continue
		}

		s.State[k] = v
	}

	s.Updated = time.Now().UTC()
}

// StateSnapshot returns a shallow copy of State.
func (s *Session) StateSnapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return maps.Clone(s.State)
}

// AddEvent appends an event to the history.
func (s *Session) AddEvent(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Events = append(s.Events, ev)
	s.Updated = time.Now().UTC()
}

// GetEvents returns a copy of the full event slice.
func (s *Session) GetEvents() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]Event, len(s.Events))
	copy(events, s.Events)

	return events
}

// GetConversationHistory returns the root branch conversation.
func (s *Session) GetConversationHistory() []Event {
	return s.ConversationHistory("")
}

// ConversationHistory returns user, assistant and tool events visible from
// branch: partial fragments are dropped, as are events recorded on branches
// that are neither branch itself nor one of its ancestors.
func (s *Session) ConversationHistory(branch string) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]Event, 0, len(s.Events))

	for _, ev := range s.Events {
		if ev.Content == nil || ev.IsPartial() || ev.IsError() {
			continue
		}

		switch ev.Content.Role {
		case "user", "assistant", "tool":
		default:
			continue
		}

		if !branchVisible(ev.BranchName(), branch) {
			continue
		}

		res = append(res, ev)
	}

	return res
}

// branchVisible reports whether an event on evBranch is visible from branch.
func branchVisible(evBranch, branch string) bool {
	if evBranch == "" || evBranch == branch {
		return true
	}

	return strings.HasPrefix(branch, evBranch+".")
}

// Clone returns a deep copy of the session safe for independent mutation.
func (s *Session) Clone() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clone := &Session{
		ID:       s.ID,
		UserID:   s.UserID,
		State:    maps.Clone(s.State),
		Events:   make([]Event, len(s.Events)),
		Created:  s.Created,
		Updated:  s.Updated,
		Metadata: maps.Clone(s.Metadata),
	}

	if clone.State == nil {
		clone.State = map[string]any{}
	}

	if clone.Metadata == nil {
		clone.Metadata = map[string]string{}
	}

	copy(clone.Events, s.Events)

	return clone
}

// SessionStore persists sessions and their evolving state / event history.
// Get returns ErrSessionNotFound for unknown ids.
type SessionStore interface {
	Create(id, userID string) (*Session, error)
	Get(id string) (*Session, error)
	AppendEvent(sessionID string, event Event) error
	ApplyDelta(sessionID string, delta map[string]any) error
	Delete(id string) error
	List(userID string) ([]string, error)
}
