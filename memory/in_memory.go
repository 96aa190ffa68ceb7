package memory

import (
	"fmt"
	"maps"
	"sync"

	"github.com/yuribarsotti/agentlab/core"
)

// InMemoryStore is a process local MemoryStore keeping memories per scope
// in insertion order. Safe for concurrent use.
type InMemoryStore struct {
	mu      sync.RWMutex
	seq     int
	storage map[string][]core.SearchResult // scope -> memories
}

// NewInMemoryStore creates a new in-memory memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{storage: make(map[string][]core.SearchResult)}
}

// Search ranks the scope's memories with KeywordScore.
func (m *InMemoryStore) Search(scope string, query string, limit int) ([]core.SearchResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Rank(query, m.copyScope(scope), limit), nil
}

// Store appends a new memory.
func (m *InMemoryStore) Store(scope string, content string, metadata map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	m.storage[scope] = append(m.storage[scope], core.SearchResult{
		ID:       fmt.Sprintf("mem_%d", m.seq),
		Content:  content,
		Metadata: maps.Clone(metadata),
	})

	return nil
}

// List returns every memory of the scope in insertion order.
func (m *InMemoryStore) List(scope string) ([]core.SearchResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.copyScope(scope), nil
}

// Delete removes a memory by id.
func (m *InMemoryStore) Delete(scope string, memoryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := m.storage[scope]
	for i, item := range items {
		if item.ID == memoryID {
			m.storage[scope] = append(items[:i:i], items[i+1:]...)
			return nil
		}
	}

	return fmt.Errorf("memory %q not found", memoryID)
}

// Clear removes every memory of the scope.
func (m *InMemoryStore) Clear(scope string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.storage, scope)

	return nil
}

func (m *InMemoryStore) copyScope(scope string) []core.SearchResult {
	items := m.storage[scope]

	out := make([]core.SearchResult, len(items))
	for i, item := range items {
		item.Metadata = maps.Clone(item.Metadata)
		out[i] = item
	}

	return out
}
