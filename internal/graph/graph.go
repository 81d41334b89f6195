package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/roach88/ratelens/internal/ast"
)

var (
	// ErrDanglingTarget is returned when a target names a step that does
	// not exist.
	ErrDanglingTarget = errors.New("dangling target")

	// ErrDuplicateStep is returned when two nodes share a step number.
	ErrDuplicateStep = errors.New("duplicate step")
)

// Edge is a resolved outgoing edge. Target is always a step or DONE.
type Edge struct {
	Label  ast.BranchLabel `json:"label"`
	Target ast.Target      `json:"target"`
}

// Graph is an immutable step graph.
type Graph struct {
	nodes map[int]ast.Node
	steps []int
	edges map[int][]Edge
}

// Assemble builds a graph from decoded nodes. Node order does not matter.
// All dangling targets are reported together.
func Assemble(nodes []ast.Node) (*Graph, error) {
	g := &Graph{
		nodes: make(map[int]ast.Node, len(nodes)),
		edges: make(map[int][]Edge, len(nodes)),
	}

	for _, n := range nodes {
		step := n.Meta().Step
		if _, dup := g.nodes[step]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateStep, step)
		}
		g.nodes[step] = n
		g.steps = append(g.steps, step)
	}
	sort.Ints(g.steps)

	var errs []error
	for i, step := range g.steps {
		fallThrough := ast.Done()
		if i+1 < len(g.steps) {
			fallThrough = ast.StepTarget(g.steps[i+1])
		}

		branches := ast.Branches(g.nodes[step])
		if len(branches) == 0 {
			branches = []ast.Branch{{Label: ast.BranchNext, Target: ast.FallThrough()}}
		}

		edges := make([]Edge, 0, len(branches))
		for _, b := range branches {
			target := b.Target
			if target.IsFallThrough() {
				target = fallThrough
			}
			if to, ok := target.Step(); ok {
				if _, exists := g.nodes[to]; !exists {
					errs = append(errs, fmt.Errorf("%w: step %d %s branch targets missing step %d", ErrDanglingTarget, step, b.Label, to))
					continue
				}
			}
			edges = append(edges, Edge{Label: b.Label, Target: target})
		}
		g.edges[step] = edges
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return g, nil
}

// Len returns the number of steps.
func (g *Graph) Len() int {
	return len(g.steps)
}

// Steps returns every step number in ascending order.
func (g *Graph) Steps() []int {
	out := make([]int, len(g.steps))
	copy(out, g.steps)
	return out
}

// Node returns the node at step.
func (g *Graph) Node(step int) (ast.Node, bool) {
	n, ok := g.nodes[step]
	return n, ok
}

// Nodes returns every node in step order.
func (g *Graph) Nodes() []ast.Node {
	out := make([]ast.Node, 0, len(g.steps))
	for _, s := range g.steps {
		out = append(out, g.nodes[s])
	}
	return out
}

// Edges returns the resolved outgoing edges of step.
func (g *Graph) Edges(step int) []Edge {
	edges := g.edges[step]
	out := make([]Edge, len(edges))
	copy(out, edges)
	return out
}

// Successors returns the distinct steps reachable in one hop from step, in
// edge order. DONE is not a step and is omitted.
func (g *Graph) Successors(step int) []int {
	var out []int
	seen := make(map[int]bool)
	for _, e := range g.edges[step] {
		if to, ok := e.Target.Step(); ok && !seen[to] {
			seen[to] = true
			out = append(out, to)
		}
	}
	return out
}

// Entry returns the first step.
func (g *Graph) Entry() (int, bool) {
	if len(g.steps) == 0 {
		return 0, false
	}
	return g.steps[0], true
}

// Unreachable returns the steps that cannot be reached from the entry step,
// in ascending order.
func (g *Graph) Unreachable() []int {
	entry, ok := g.Entry()
	if !ok {
		return []int{}
	}

	seen := map[int]bool{entry: true}
	queue := []int{entry}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range g.Successors(cur) {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}

	out := []int{}
	for _, s := range g.steps {
		if !seen[s] {
			out = append(out, s)
		}
	}
	return out
}
