// Package agentlab provides a high-level façade over the runner and service
// abstractions (sessions, memory & logging) for building agent programs.
// Most applications interact with this package by:
//  1. Building a root agent (model agent, team, workflow, ...)
//  2. Creating an App via New() (optionally overriding the in-memory stores)
//  3. Sending messages asynchronously (Invoke) or synchronously (InvokeSync, Prompt)
//
// All defaults are safe for local development and testing; production
// deployments typically supply SQLite backed stores and a structured logger.
package agentlab

import (
	"context"
	"errors"

	"github.com/yuribarsotti/agentlab/core"
	"github.com/yuribarsotti/agentlab/runner"
)

// ErrNoAnswer is returned by Prompt when the run produced no final text.
var ErrNoAnswer = errors.New("agent produced no answer")

// Options configures the App. It is passed straight to the runner.
type Options = runner.Options

// App binds a root agent to its runner and stores.
type App struct {
	agent  core.Agent
	runner *runner.Runner
}

// New creates an App for root. Any unset store is initialised with an
// in-memory implementation.
func New(root core.Agent, optFns ...func(o *Options)) *App {
	return &App{agent: root, runner: runner.New(root, optFns...)}
}

// Agent returns the root agent.
func (a *App) Agent() core.Agent { return a.agent }

// Runner returns the underlying runner.
func (a *App) Runner() *runner.Runner { return a.runner }

// SessionStore returns the store used for conversation history.
func (a *App) SessionStore() core.SessionStore { return a.runner.SessionStore() }

// Invoke starts an asynchronous run returning event & error channels.
func (a *App) Invoke(ctx context.Context, sessionID, userID string, userContent core.Content) (string, <-chan core.Event, <-chan error, error) {
	return a.runner.RunAs(ctx, sessionID, userID, userContent)
}

// InvokeSync drains the async channels, accumulating every event.
func (a *App) InvokeSync(ctx context.Context, sessionID, userID string, userContent core.Content) (string, []core.Event, error) {
	runID, eventsCh, errorsCh, err := a.Invoke(ctx, sessionID, userID, userContent)
	if err != nil {
		return "", nil, err
	}

	var events []core.Event

	for {
		select {
		case <-ctx.Done():
			return runID, events, ctx.Err()
		case ev, ok := <-eventsCh:
			if !ok {
				return runID, events, <-errorsCh
			}

			events = append(events, ev)
		}
	}
}

// Prompt sends text as the user's message and returns the final answer.
func (a *App) Prompt(ctx context.Context, sessionID, userID, text string) (string, error) {
	_, events, err := a.InvokeSync(ctx, sessionID, userID, core.NewTextContent("user", text))
	if err != nil {
		return "", err
	}

	answer := core.FinalText(events, "")
	if answer == "" {
		return "", ErrNoAnswer
	}

	return answer, nil
}
