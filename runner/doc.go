// Package runner executes a root agent inside a conversational session.
//
// A Runner loads (or creates) the session, records the user message, drives
// the agent on a fresh core.RunContext and streams the produced events to the
// caller. Non-partial events are persisted to the SessionStore together with
// their state deltas before they are delivered. Every run is wrapped in an
// OpenTelemetry span and counted in the runner's metrics.
package runner
