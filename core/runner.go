package core

import "context"

// Runner executes a root agent within a conversational session.
//
// Events of one run are delivered in production order and the events channel
// is closed when the run ends. The error channel carries at most one
// terminal error and is closed afterwards.
type Runner interface {
	// Run starts an asynchronous run bound to sessionID and returns the run id
	// plus its event and error streams. The immediate error covers startup
	// failures such as an unreadable session.
	Run(ctx context.Context, sessionID string, userContent Content) (string, <-chan Event, <-chan error, error)

	// Cancel requests termination of an in-flight run. Unknown ids return an error.
	Cancel(runID string) error
}
