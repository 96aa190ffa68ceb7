// Package testutil contains helpers shared by package tests: session
// builders and a harness that runs an agent against an in-memory session
// and collects its events.
package testutil
