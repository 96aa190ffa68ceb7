// Package sqlite provides a SQLite backed core.SessionStore. Each store
// owns a table namespace so several apps can share one database file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/yuribarsotti/agentlab/core"
	"github.com/yuribarsotti/agentlab/internal/sqlitedb"
)

// DefaultTable is the session table name used when none is configured.
const DefaultTable = "agent_sessions"

// Options configures a Store.
type Options struct {
	// Table is the session table name; events live in "<Table>_events".
	Table string
}

// Store persists sessions in SQLite.
type Store struct {
	db     *sql.DB
	table  string
	events string
}

// Open opens path and prepares the session tables.
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

	s := &Store{db: db, table: opts.Table, events: opts.Table + "_events"}

	schema := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL DEFAULT '',
    state TEXT NOT NULL DEFAULT '{}',
    metadata TEXT NOT NULL DEFAULT '{}',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS %[2]s (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL REFERENCES %[1]s(id) ON DELETE CASCADE,
    event TEXT NOT NULL,
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_%[2]s_session ON %[2]s(session_id, seq);
CREATE INDEX IF NOT EXISTS idx_%[1]s_user ON %[1]s(user_id, updated_at);`, s.table, s.events)

	if err := sqlitedb.Migrate(context.Background(), db, sqlitedb.Migration{
		Name: "sessions_v1_" + s.table,
		SQL:  schema,
	}); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return s, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

// Create creates the session, replacing any existing one with the same id.
func (s *Store) Create(id, userID string) (*core.Session, error) {
	sess := core.NewSession(id)
	sess.UserID = userID

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin create session: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE session_id = ?", s.events), id); err != nil {
		return nil, fmt.Errorf("reset session events: %w", err)
	}

	if _, err := tx.Exec(
		fmt.Sprintf(`INSERT OR REPLACE INTO %s (id, user_id, state, metadata, created_at, updated_at)
VALUES (?, ?, '{}', '{}', ?, ?)`, s.table),
		id, userID, sqlitedb.ToMillis(sess.Created), sqlitedb.ToMillis(sess.Updated),
	); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create session: %w", err)
	}

	return sess, nil
}

// Get loads a session and its events; unknown ids yield core.ErrSessionNotFound.
func (s *Store) Get(id string) (*core.Session, error) {
	var (
		userID, stateJSON, metaJSON string
		created, updated            int64
	)

	err := s.db.QueryRow(
		fmt.Sprintf("SELECT user_id, state, metadata, created_at, updated_at FROM %s WHERE id = ?", s.table), id,
	).Scan(&userID, &stateJSON, &metaJSON, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrSessionNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	sess := core.NewSession(id)
	sess.UserID = userID
	sess.Created = sqlitedb.FromMillis(created)
	sess.Updated = sqlitedb.FromMillis(updated)

	if err := json.Unmarshal([]byte(stateJSON), &sess.State); err != nil {
		return nil, fmt.Errorf("decode session state: %w", err)
	}

	if err := json.Unmarshal([]byte(metaJSON), &sess.Metadata); err != nil {
		return nil, fmt.Errorf("decode session metadata: %w", err)
	}

	rows, err := s.db.Query(fmt.Sprintf("SELECT event FROM %s WHERE session_id = ? ORDER BY seq", s.events), id)
	if err != nil {
		return nil, fmt.Errorf("list session events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan session event: %w", err)
		}

		var ev core.Event
		if err := json.Unmarshal([]byte(raw), &ev); err != nil {
			return nil, fmt.Errorf("decode session event: %w", err)
		}

		sess.Events = append(sess.Events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session events: %w", err)
	}

	return sess, nil
}

// AppendEvent stores a non-partial event at the end of the session history.
func (s *Store) AppendEvent(sessionID string, ev core.Event) error {
	if ev.IsPartial() {
		return nil
	}

	raw, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	now := sqlitedb.ToMillis(time.Now())

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin append event: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(fmt.Sprintf("UPDATE %s SET updated_at = ? WHERE id = ?", s.table), now, sessionID)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrSessionNotFound
	}

	if _, err := tx.Exec(
		fmt.Sprintf("INSERT INTO %s (session_id, event, created_at) VALUES (?, ?, ?)", s.events),
		sessionID, string(raw), now,
	); err != nil {
		return fmt.Errorf("append event: %w", err)
	}

	return tx.Commit()
}

// ApplyDelta merges delta into the stored state; nil values delete keys.
func (s *Store) ApplyDelta(sessionID string, delta map[string]any) error {
	if len(delta) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin apply delta: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var stateJSON string

	err = tx.QueryRow(fmt.Sprintf("SELECT state FROM %s WHERE id = ?", s.table), sessionID).Scan(&stateJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrSessionNotFound
	}

	if err != nil {
		return fmt.Errorf("load session state: %w", err)
	}

	state := map[string]any{}
	if err := json.Unmarshal([]byte(stateJSON), &state); err != nil {
		return fmt.Errorf("decode session state: %w", err)
	}

	for k, v := range delta {
		if v == nil {
			delete(state, k)
			continue
		}

		state[k] = v
	}

	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session state: %w", err)
	}

	if _, err := tx.Exec(
		fmt.Sprintf("UPDATE %s SET state = ?, updated_at = ? WHERE id = ?", s.table),
		string(raw), sqlitedb.ToMillis(time.Now()), sessionID,
	); err != nil {
		return fmt.Errorf("save session state: %w", err)
	}

	return tx.Commit()
}

// Delete removes a session and its events.
func (s *Store) Delete(id string) error {
	if _, err := s.db.Exec(fmt.Sprintf("DELETE FROM %s WHERE session_id = ?", s.events), id); err != nil {
		return fmt.Errorf("delete session events: %w", err)
	}

	if _, err := s.db.Exec(fmt.Sprintf("DELETE FROM %s WHERE id = ?", s.table), id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	return nil
}

// List returns session ids for userID (all when empty), newest first.
func (s *Store) List(userID string) ([]string, error) {
	query := fmt.Sprintf("SELECT id FROM %s", s.table)
	args := []any{}

	if userID != "" {
		query += " WHERE user_id = ?"

		args = append(args, userID)
	}

	query += " ORDER BY updated_at DESC, id"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session id: %w", err)
		}

		ids = append(ids, id)
	}

	return ids, rows.Err()
}
