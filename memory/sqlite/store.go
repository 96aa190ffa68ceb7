// Package sqlite persists user memories in SQLite. Search ranks rows with
// memory.KeywordScore, matching the in-memory store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yuribarsotti/agentlab/core"
	"github.com/yuribarsotti/agentlab/internal/sqlitedb"
	"github.com/yuribarsotti/agentlab/memory"
)

// DefaultTable is the memory table name used when none is configured.
const DefaultTable = "user_memories"

// Options configures a Store.
type Options struct {
	Table string
}

// Store is a SQLite backed core.MemoryStore.
type Store struct {
	db    *sql.DB
	table string
}

// Open opens path and prepares the memory table.
func Open(path string, optFns ...func(o *Options)) (*Store, error) {
	db, err := sqlitedb.Open(path)
	if err != nil {
		return nil, err
	}

	s, err := New(db, optFns...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// New wraps an open database.
func New(db *sql.DB, optFns ...func(o *Options)) (*Store, error) {
	opts := Options{Table: DefaultTable}
	for _, fn := range optFns {
		fn(&opts)
	}

	if err := sqlitedb.ValidateTableName(opts.Table); err != nil {
		return nil, err
	}

	schema := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
    id TEXT PRIMARY KEY,
    scope TEXT NOT NULL,
    content TEXT NOT NULL,
    metadata TEXT NOT NULL DEFAULT '{}',
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_%[1]s_scope ON %[1]s(scope, created_at);`, opts.Table)

	if err := sqlitedb.Migrate(context.Background(), db, sqlitedb.Migration{
		Name: "memories_v1_" + opts.Table,
		SQL:  schema,
	}); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db, table: opts.Table}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

// Store inserts a memory for scope.
func (s *Store) Store(scope, content string, metadata map[string]any) error {
	if metadata == nil {
		metadata = map[string]any{}
	}

	raw, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("encode memory metadata: %w", err)
	}

	if _, err := s.db.Exec(
		fmt.Sprintf("INSERT INTO %s (id, scope, content, metadata, created_at) VALUES (?, ?, ?, ?, ?)", s.table),
		uuid.NewString(), scope, content, string(raw), time.Now().UTC().UnixNano(),
	); err != nil {
		return fmt.Errorf("store memory: %w", err)
	}

	return nil
}

// Search returns the best keyword matches for query within scope.
func (s *Store) Search(scope, query string, limit int) ([]core.SearchResult, error) {
	all, err := s.List(scope)
	if err != nil {
		return nil, err
	}

	return memory.Rank(query, all, limit), nil
}

// List returns all memories of scope, oldest first.
func (s *Store) List(scope string) ([]core.SearchResult, error) {
	rows, err := s.db.Query(
		fmt.Sprintf("SELECT id, content, metadata FROM %s WHERE scope = ? ORDER BY created_at, rowid", s.table), scope,
	)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}
	defer rows.Close()

	var out []core.SearchResult

	for rows.Next() {
		var (
			r       core.SearchResult
			rawMeta string
		)

		if err := rows.Scan(&r.ID, &r.Content, &rawMeta); err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}

		if err := json.Unmarshal([]byte(rawMeta), &r.Metadata); err != nil {
			return nil, fmt.Errorf("decode memory metadata: %w", err)
		}

		out = append(out, r)
	}

	return out, rows.Err()
}

// Delete removes one memory of scope.
func (s *Store) Delete(scope, id string) error {
	res, err := s.db.Exec(fmt.Sprintf("DELETE FROM %s WHERE scope = ? AND id = ?", s.table), scope, id)
	if err != nil {
		return fmt.Errorf("delete memory: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("memory %q not found", id)
	}

	return nil
}

// Clear removes all memories of scope.
func (s *Store) Clear(scope string) error {
	if _, err := s.db.Exec(fmt.Sprintf("DELETE FROM %s WHERE scope = ?", s.table), scope); err != nil {
		return fmt.Errorf("clear memories: %w", err)
	}

	return nil
}
