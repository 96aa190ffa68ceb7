// Package memory contains MemoryStore implementations: a process local
// store here and a SQLite backed store in memory/sqlite. Both rank results
// with KeywordScore.
package memory
