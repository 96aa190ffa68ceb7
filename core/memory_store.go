package core

// MemoryStore persists and recalls memory snippets. The scope is a user id
// when one is known for the run, otherwise the session id.
type MemoryStore interface {
	Search(scope string, query string, limit int) ([]SearchResult, error)
	Store(scope string, content string, metadata map[string]any) error
	List(scope string) ([]SearchResult, error)
	Delete(scope string, memoryID string) error
	Clear(scope string) error
}

// SearchResult represents a retrieved memory item with a relevance score and arbitrary metadata.
type SearchResult struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}
