// Package graph implements a small typed state graph: nodes transform a
// state value and edges (static or conditional) decide which node runs next.
//
//	g := graph.New[graph.MessagesState]()
//	g.AddNode("chatbot", graph.ChatbotNode(llm))
//	g.AddEdge(graph.START, "chatbot")
//	g.AddEdge("chatbot", graph.END)
//
//	runnable, err := g.Compile()
//	out, err := runnable.Invoke(ctx, graph.MessagesState{Messages: msgs})
package graph

import (
	"context"
	"errors"
	"fmt"
)

// Reserved node names marking the entry and exit of a graph.
const (
	START = "__start__"
	END   = "__end__"
)

// DefaultRecursionLimit bounds the number of node executions per Invoke.
const DefaultRecursionLimit = 25

var (
	// ErrRecursionLimit is returned when a run exceeds its step budget.
	ErrRecursionLimit = errors.New("graph recursion limit reached")
	// ErrInvalidGraph wraps every Compile validation failure.
	ErrInvalidGraph = errors.New("invalid graph")
)

// NodeFunc transforms the state.
type NodeFunc[S any] func(ctx context.Context, state S) (S, error)

// RouteFunc picks the next node from the state after a node ran.
type RouteFunc[S any] func(ctx context.Context, state S) (string, error)

// Graph is a builder. It is not safe for concurrent mutation.
type Graph[S any] struct {
	nodes       map[string]NodeFunc[S]
	order       []string
	edges       map[string]string
	conditional map[string]conditionalEdge[S]
	errs        []error
}

type conditionalEdge[S any] struct {
	route   RouteFunc[S]
	targets []string
}

// New returns an empty graph builder.
func New[S any]() *Graph[S] {
	return &Graph[S]{
		nodes:       map[string]NodeFunc[S]{},
		edges:       map[string]string{},
		conditional: map[string]conditionalEdge[S]{},
	}
}

// AddNode registers fn under name. Errors are reported by Compile.
func (g *Graph[S]) AddNode(name string, fn NodeFunc[S]) *Graph[S] {
	switch {
	case name == "" || name == START || name == END:
		g.errs = append(g.errs, fmt.Errorf("reserved or empty node name %q", name))
	case g.nodes[name] != nil:
		g.errs = append(g.errs, fmt.Errorf("duplicate node %q", name))
	case fn == nil:
		g.errs = append(g.errs, fmt.Errorf("node %q has no function", name))
	default:
		g.nodes[name] = fn
		g.order = append(g.order, name)
	}

	return g
}

// AddEdge connects from to to. A node has at most one outgoing edge.
func (g *Graph[S]) AddEdge(from, to string) *Graph[S] {
	if g.hasOutgoing(from) {
		g.errs = append(g.errs, fmt.Errorf("node %q already has an outgoing edge", from))
		return g
	}

	g.edges[from] = to

	return g
}

// AddConditionalEdges routes from a node to one of targets, chosen by route
// at run time.
func (g *Graph[S]) AddConditionalEdges(from string, route RouteFunc[S], targets ...string) *Graph[S] {
	switch {
	case route == nil:
		g.errs = append(g.errs, fmt.Errorf("conditional edge from %q has no route function", from))
	case g.hasOutgoing(from):
		g.errs = append(g.errs, fmt.Errorf("node %q already has an outgoing edge", from))
	default:
		g.conditional[from] = conditionalEdge[S]{route: route, targets: targets}
	}

	return g
}

func (g *Graph[S]) hasOutgoing(from string) bool {
	_, static := g.edges[from]
	_, routed := g.conditional[from]

	return static || routed
}

// Compile validates the graph: every edge endpoint exists, START has an
// outgoing edge, every node has one, and END is reachable from START.
func (g *Graph[S]) Compile(optFns ...func(o *RunOptions)) (*Runnable[S], error) {
	opts := RunOptions{RecursionLimit: DefaultRecursionLimit}
	for _, fn := range optFns {
		fn(&opts)
	}

	errs := append([]error(nil), g.errs...)

	known := func(name string) bool { return name == END || g.nodes[name] != nil }

	if _, ok := g.edges[START]; !ok {
		if _, ok := g.conditional[START]; !ok {
			errs = append(errs, errors.New("no edge from START"))
		}
	}

	for from, to := range g.edges {
		if from != START && g.nodes[from] == nil {
			errs = append(errs, fmt.Errorf("edge from unknown node %q", from))
		}

		if !known(to) {
			errs = append(errs, fmt.Errorf("edge to unknown node %q", to))
		}
	}

	for from, ce := range g.conditional {
		if from != START && g.nodes[from] == nil {
			errs = append(errs, fmt.Errorf("conditional edge from unknown node %q", from))
		}

		if len(ce.targets) == 0 {
			errs = append(errs, fmt.Errorf("conditional edge from %q has no targets", from))
		}

		for _, to := range ce.targets {
			if !known(to) {
				errs = append(errs, fmt.Errorf("conditional edge to unknown node %q", to))
			}
		}
	}

	for _, name := range g.order {
		_, static := g.edges[name]
		_, cond := g.conditional[name]

		if !static && !cond {
			errs = append(errs, fmt.Errorf("node %q has no outgoing edge", name))
		}
	}

	if len(errs) == 0 && !g.reachesEnd() {
		errs = append(errs, errors.New("END is not reachable from START"))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidGraph, err)
	}

	r := &Runnable[S]{
		nodes:       g.nodes,
		edges:       g.edges,
		conditional: g.conditional,
		opts:        opts,
	}

	return r, nil
}

func (g *Graph[S]) successors(name string) []string {
	if to, ok := g.edges[name]; ok {
		return []string{to}
	}

	return g.conditional[name].targets
}

func (g *Graph[S]) reachesEnd() bool {
	seen := map[string]bool{START: true}
	queue := []string{START}

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]

		for _, next := range g.successors(n) {
			if next == END {
				return true
			}

			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}

	return false
}

// RunOptions tunes compiled graph execution.
type RunOptions struct {
	RecursionLimit int
}

// Step is one node execution reported by Stream.
type Step[S any] struct {
	Node  string
	State S
}

// Runnable is a compiled, immutable graph. It is safe for concurrent use.
type Runnable[S any] struct {
	nodes       map[string]NodeFunc[S]
	edges       map[string]string
	conditional map[string]conditionalEdge[S]
	opts        RunOptions
}

// Invoke runs the graph to END and returns the final state.
func (r *Runnable[S]) Invoke(ctx context.Context, state S) (S, error) {
	err := r.run(ctx, state, func(step Step[S]) error {
		state = step.State
		return nil
	})

	return state, err
}

// Stream runs the graph in the background and yields the state after each
// node. The step channel is closed when the run ends; the error channel
// carries at most one error.
func (r *Runnable[S]) Stream(ctx context.Context, state S) (<-chan Step[S], <-chan error) {
	steps := make(chan Step[S])
	errCh := make(chan error, 1)

	go func() {
		defer close(errCh)
		defer close(steps)

		err := r.run(ctx, state, func(step Step[S]) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case steps <- step:
				return nil
			}
		})
		if err != nil {
			errCh <- err
		}
	}()

	return steps, errCh
}

func (r *Runnable[S]) run(ctx context.Context, state S, yield func(Step[S]) error) error {
	current, err := r.next(ctx, START, state)
	if err != nil {
		return err
	}

	for steps := 0; current != END; steps++ {
		if r.opts.RecursionLimit > 0 && steps >= r.opts.RecursionLimit {
			return fmt.Errorf("%w: %d steps", ErrRecursionLimit, r.opts.RecursionLimit)
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		state, err = r.nodes[current](ctx, state)
		if err != nil {
			return fmt.Errorf("node %s: %w", current, err)
		}

		if err := yield(Step[S]{Node: current, State: state}); err != nil {
			return err
		}

		if current, err = r.next(ctx, current, state); err != nil {
			return err
		}
	}

	return nil
}

func (r *Runnable[S]) next(ctx context.Context, from string, state S) (string, error) {
	if to, ok := r.edges[from]; ok {
		return to, nil
	}

	ce := r.conditional[from]

	to, err := ce.route(ctx, state)
	if err != nil {
		return "", fmt.Errorf("route from %s: %w", from, err)
	}

	for _, t := range ce.targets {
		if t == to {
			return to, nil
		}
	}

	return "", fmt.Errorf("route from %s returned undeclared target %q", from, to)
}
