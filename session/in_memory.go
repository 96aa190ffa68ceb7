package session

import (
	"sort"
	"sync"

	"github.com/yuribarsotti/agentlab/core"
)

// InMemoryStore is a volatile SessionStore keeping sessions in a process
// local map. Returned sessions are clones, so callers never share internal state.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*core.Session
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*core.Session)}
}

// Get returns a clone of an existing session or core.ErrSessionNotFound.
func (s *InMemoryStore) Get(sessionID string) (*core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sess, ok := s.sessions[sessionID]; ok {
		return sess.Clone(), nil
	}

	return nil, core.ErrSessionNotFound
}

// Create creates (or resets) the session with the given id.
func (s *InMemoryStore) Create(sessionID, userID string) (*core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := core.NewSession(sessionID)
	sess.UserID = userID
	s.sessions[sessionID] = sess

	return sess.Clone(), nil
}

// AppendEvent adds an event to a session.
func (s *InMemoryStore) AppendEvent(sessionID string, ev core.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return core.ErrSessionNotFound
	}

	sess.AddEvent(ev)

	return nil
}

// ApplyDelta merges a key/value delta into the session state.
func (s *InMemoryStore) ApplyDelta(sessionID string, delta map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return core.ErrSessionNotFound
	}

	sess.ApplyStateDelta(delta)

	return nil
}

// Delete removes a session. Deleting an unknown id is not an error.
func (s *InMemoryStore) Delete(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)

	return nil
}

// List returns the ids of sessions owned by userID (all sessions when
// userID is empty), most recently updated first.
func (s *InMemoryStore) List(userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*core.Session

	for _, sess := range s.sessions {
		if userID == "" || sess.UserID == userID {
			matched = append(matched, sess)
		}
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].Updated.After(matched[j].Updated) })

	ids := make([]string, len(matched))
	for i, sess := range matched {
		ids[i] = sess.ID
	}

	return ids, nil
}
