package core

import (
	"context"
	"maps"
	"strings"
	"sync"
)

type mockSessionStore struct {
	mu      sync.Mutex
	applied map[string]map[string]any
}

func (s *mockSessionStore) Get(id string) (*Session, error)       { return NewSession(id), nil }
func (s *mockSessionStore) Create(id, _ string) (*Session, error) { return NewSession(id), nil }
func (s *mockSessionStore) AppendEvent(string, Event) error       { return nil }
func (s *mockSessionStore) Delete(string) error                   { return nil }
func (s *mockSessionStore) List(string) ([]string, error)         { return nil, nil }
func (s *mockSessionStore) ApplyDelta(id string, delta map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.applied == nil {
		s.applied = map[string]map[string]any{}
	}

	s.applied[id] = maps.Clone(delta)

	return nil
}

type mockMemoryStore struct {
	stored map[string][]string
}

func (m *mockMemoryStore) Search(scope, q string, limit int) ([]SearchResult, error) {
	var res []SearchResult

	for i, c := range m.stored[scope] {
		if strings.Contains(c, q) {
			res = append(res, SearchResult{ID: string(rune('a' + i)), Content: c, Score: 1})
		}
	}

	return res, nil
}

func (m *mockMemoryStore) Store(scope, content string, _ map[string]any) error {
	if m.stored == nil {
		m.stored = map[string][]string{}
	}

	m.stored[scope] = append(m.stored[scope], content)

	return nil
}

func (m *mockMemoryStore) List(scope string) ([]SearchResult, error) { return m.Search(scope, "", 0) }
func (m *mockMemoryStore) Delete(string, string) error               { return nil }
func (m *mockMemoryStore) Clear(scope string) error {
	delete(m.stored, scope)
	return nil
}

func newRunContextForTest() (*RunContext, chan Event) {
	emit := make(chan Event, 8)
	sess := NewSession("sess-x")

	rc := NewRunContext(context.Background(), "sess-x", "run-x", AgentInfo{Name: "Agent1", Type: "test"}, NewTextContent("user", "hi"), emit, sess, RunContextOptions{
		SessionStore: &mockSessionStore{},
		MemoryStore:  &mockMemoryStore{},
	})

	return rc, emit
}
