// Package session houses core.SessionStore implementations: a process local
// store here and a SQLite backed store in session/sqlite.
package session
