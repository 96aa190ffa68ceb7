// Package sqlite persists knowledge vectors in SQLite. Vectors are stored
// as JSON arrays and queries scan the table with cosine similarity, which
// is adequate for the small corpora the demos index.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/yuribarsotti/agentlab/internal/sqlitedb"
	"github.com/yuribarsotti/agentlab/knowledge"
)

// DefaultTable is the vector table name used when none is configured.
const DefaultTable = "knowledge_vectors"

// Options configures a Store.
type Options struct {
	Table string
}

// Store is a SQLite backed knowledge.VectorStore.
type Store struct {
	db    *sql.DB
	table string
}

var _ knowledge.VectorStore = (*Store)(nil)

// Open opens path and prepares the vector table.
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
CREATE TABLE IF NOT EXISTS %s (
    id TEXT PRIMARY KEY,
    content TEXT NOT NULL,
    source TEXT NOT NULL DEFAULT '',
    metadata TEXT NOT NULL DEFAULT '{}',
    vector TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);`, opts.Table)

	if err := sqlitedb.Migrate(context.Background(), db, sqlitedb.Migration{
		Name: "knowledge_v1_" + opts.Table,
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

// Upsert inserts or replaces documents in one transaction.
func (s *Store) Upsert(ctx context.Context, docs []knowledge.Document, vectors [][]float64) error {
	if len(docs) != len(vectors) {
		return fmt.Errorf("upsert: %d documents but %d vectors", len(docs), len(vectors))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s (id, content, source, metadata, vector, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET content = excluded.content, source = excluded.source,
    metadata = excluded.metadata, vector = excluded.vector, updated_at = excluded.updated_at`, s.table))
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := sqlitedb.ToMillis(time.Now())

	for i, d := range docs {
		md, err := json.Marshal(d.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata of %s: %w", d.ID, err)
		}

		vec, err := json.Marshal(vectors[i])
		if err != nil {
			return fmt.Errorf("encode vector of %s: %w", d.ID, err)
		}

		if _, err := stmt.ExecContext(ctx, d.ID, d.Content, d.Source, string(md), string(vec), now); err != nil {
			return fmt.Errorf("upsert %s: %w", d.ID, err)
		}
	}

	return tx.Commit()
}

// Query scans every row and returns the k most similar documents.
func (s *Store) Query(ctx context.Context, vector []float64, k int) ([]knowledge.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT id, content, source, metadata, vector FROM %s ORDER BY rowid", s.table))
	if err != nil {
		return nil, fmt.Errorf("query vectors: %w", err)
	}
	defer rows.Close()

	var docs []knowledge.Document

	for rows.Next() {
		var (
			d           knowledge.Document
			md, vecJSON string
			vec         []float64
		)

		if err := rows.Scan(&d.ID, &d.Content, &d.Source, &md, &vecJSON); err != nil {
			return nil, fmt.Errorf("scan vector row: %w", err)
		}

		if err := json.Unmarshal([]byte(md), &d.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata of %s: %w", d.ID, err)
		}

		if err := json.Unmarshal([]byte(vecJSON), &vec); err != nil {
			return nil, fmt.Errorf("decode vector of %s: %w", d.ID, err)
		}

		d.Score = knowledge.CosineSimilarity(vector, vec)
		docs = append(docs, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vectors: %w", err)
	}

	return knowledge.TopK(docs, k), nil
}

// Count returns the number of stored documents.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(1) FROM %s", s.table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count vectors: %w", err)
	}

	return n, nil
}

// Clear removes every document.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", s.table)); err != nil {
		return fmt.Errorf("clear vectors: %w", err)
	}

	return nil
}
