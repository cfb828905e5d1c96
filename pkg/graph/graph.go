// Package graph provides a small directed-graph executor for sequential
// workflows. Nodes mutate a shared state value; edges are either fixed or
// chosen by a router function inspecting the state after the node runs.
package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Sentinel errors for graph construction and execution.
var (
	ErrUnknownNode = errors.New("unknown node")
	ErrDuplicate   = errors.New("duplicate registration")
	ErrNoEntry     = errors.New("no entry point set")
	ErrNoRoute     = errors.New("no outgoing route")
	ErrStepLimit   = errors.New("step limit exceeded")
)

// NodeFunc performs one unit of work against the shared state.
type NodeFunc[S any] func(ctx context.Context, state S) error

// RouterFunc selects the next node name from the state after a node has run.
// Returning an error terminates the run with that error attributed to the
// routed node.
type RouterFunc[S any] func(state S) (string, error)

// StepError attributes an execution failure to the node that produced it.
type StepError struct {
	Node string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s: %v", e.Node, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Graph holds a static topology of named nodes connected by fixed edges and
// conditional routers. Build it once, then Execute per run; a Graph is
// read-only after construction and safe for concurrent runs.
type Graph[S any] struct {
	name      string
	nodes     map[string]NodeFunc[S]
	edges     map[string]string
	routers   map[string]RouterFunc[S]
	terminals map[string]bool
	entry     string
	logger    *slog.Logger
}

// New creates an empty Graph with the given name for log attribution.
func New[S any](name string, logger *slog.Logger) *Graph[S] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Graph[S]{
		name:      name,
		nodes:     make(map[string]NodeFunc[S]),
		edges:     make(map[string]string),
		routers:   make(map[string]RouterFunc[S]),
		terminals: make(map[string]bool),
		logger:    logger.With("graph", name),
	}
}

// AddNode registers a named node.
func (g *Graph[S]) AddNode(name string, fn NodeFunc[S]) error {
	if _, ok := g.nodes[name]; ok {
		return fmt.Errorf("%w: node %s", ErrDuplicate, name)
	}
	g.nodes[name] = fn
	return nil
}

// AddEdge registers a fixed edge from one node to another.
func (g *Graph[S]) AddEdge(from, to string) error {
	if err := g.checkNodes(from, to); err != nil {
		return err
	}
	if _, ok := g.edges[from]; ok {
		return fmt.Errorf("%w: edge from %s", ErrDuplicate, from)
	}
	if _, ok := g.routers[from]; ok {
		return fmt.Errorf("%w: %s already has a router", ErrDuplicate, from)
	}
	g.edges[from] = to
	return nil
}

// AddRouter registers a conditional router on a node. The router runs after
// the node completes and must return the name of a registered node.
func (g *Graph[S]) AddRouter(from string, fn RouterFunc[S]) error {
	if _, ok := g.nodes[from]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, from)
	}
	if _, ok := g.edges[from]; ok {
		return fmt.Errorf("%w: %s already has a fixed edge", ErrDuplicate, from)
	}
	if _, ok := g.routers[from]; ok {
		return fmt.Errorf("%w: router on %s", ErrDuplicate, from)
	}
	g.routers[from] = fn
	return nil
}

// SetEntry marks the node execution starts from.
func (g *Graph[S]) SetEntry(name string) error {
	if _, ok := g.nodes[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, name)
	}
	g.entry = name
	return nil
}

// SetTerminal marks a node as a valid exit point. A node with neither an
// edge, a router, nor a terminal mark fails the run with ErrNoRoute.
func (g *Graph[S]) SetTerminal(name string) error {
	if _, ok := g.nodes[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, name)
	}
	g.terminals[name] = true
	return nil
}

// Execute drives the state from the entry node to a terminal node, returning
// the ordered trace of visited node names. On failure the trace covers every
// node that ran, including the failing one, and the returned error is a
// *StepError naming it. The graph is acyclic by construction policy; as a
// guard, a run visiting more nodes than exist in the graph is aborted.
func (g *Graph[S]) Execute(ctx context.Context, state S) ([]string, error) {
	if g.entry == "" {
		return nil, ErrNoEntry
	}

	var trace []string
	current := g.entry

	for steps := 0; ; steps++ {
		if steps >= len(g.nodes) {
			return trace, &StepError{Node: current, Err: ErrStepLimit}
		}
		if err := ctx.Err(); err != nil {
			return trace, &StepError{Node: current, Err: err}
		}

		node, ok := g.nodes[current]
		if !ok {
			return trace, &StepError{Node: current, Err: ErrUnknownNode}
		}

		trace = append(trace, current)
		g.logger.Debug("executing node", "node", current)

		if err := node(ctx, state); err != nil {
			return trace, &StepError{Node: current, Err: err}
		}

		next, err := g.next(current, state)
		if err != nil {
			return trace, &StepError{Node: current, Err: err}
		}
		if next == "" {
			return trace, nil
		}
		current = next
	}
}

func (g *Graph[S]) next(current string, state S) (string, error) {
	if to, ok := g.edges[current]; ok {
		return to, nil
	}

	if router, ok := g.routers[current]; ok {
		next, err := router(state)
		if err != nil {
			return "", err
		}
		if _, ok := g.nodes[next]; !ok {
			return "", fmt.Errorf("%w: router chose %s", ErrUnknownNode, next)
		}
		return next, nil
	}

	if g.terminals[current] {
		return "", nil
	}

	return "", fmt.Errorf("%w: node %s", ErrNoRoute, current)
}

func (g *Graph[S]) checkNodes(names ...string) error {
	for _, name := range names {
		if _, ok := g.nodes[name]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownNode, name)
		}
	}
	return nil
}
