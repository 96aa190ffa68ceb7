package core

import "errors"

var (
	// ErrSessionNotFound is returned by SessionStore implementations for unknown ids.
	ErrSessionNotFound = errors.New("session not found")

	// ErrModelCallLimit is returned once a run exceeds its model call budget.
	ErrModelCallLimit = errors.New("exceeded max model calls")

	// ErrNotConfigured is returned when an optional store is missing.
	ErrNotConfigured = errors.New("not configured")
)
