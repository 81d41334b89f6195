package graph

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Loop is a strongly connected set of steps.
//
// Loops are informational, not errors: rating programs iterate over
// drivers, vehicles and category items by jumping backwards.
type Loop struct {
	Steps   []int  `json:"steps"`   // members, ascending
	Path    []int  `json:"path"`    // one traversal: [3, 4, 3]
	Message string `json:"message"` // human-readable description
}

// Loops finds every cycle in the graph using Tarjan's algorithm. Loops are
// ordered by their smallest step. An acyclic graph returns an empty slice.
func (g *Graph) Loops() []Loop {
	adj := make(map[int][]int, len(g.steps))
	for _, s := range g.steps {
		adj[s] = g.Successors(s)
	}

	loops := []Loop{}
	for _, scc := range tarjanSCC(g.steps, adj) {
		if len(scc) > 1 || hasSelfLoop(scc[0], adj) {
			loops = append(loops, sccToLoop(scc, adj))
		}
	}
	sort.Slice(loops, func(i, j int) bool { return loops[i].Steps[0] < loops[j].Steps[0] })
	return loops
}

// hasSelfLoop checks if a step has an edge to itself.
func hasSelfLoop(step int, adj map[int][]int) bool {
	for _, next := range adj[step] {
		if next == step {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components. Roots are visited in the
// order given so results are deterministic.
func tarjanSCC(order []int, adj map[int][]int) [][]int {
	var (
		index   = 0
		stack   []int
		indices = make(map[int]int)
		lowlink = make(map[int]int)
		onStack = make(map[int]bool)
		sccs    [][]int
	)

	var strongConnect func(int)
	strongConnect = func(v int) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range adj[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is a root: pop its component
		if lowlink[v] == indices[v] {
			var scc []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sort.Ints(scc)
			sccs = append(sccs, scc)
		}
	}

	for _, v := range order {
		if _, visited := indices[v]; !visited {
			strongConnect(v)
		}
	}
	return sccs
}

func sccToLoop(scc []int, adj map[int][]int) Loop {
	if len(scc) == 1 {
		s := scc[0]
		return Loop{
			Steps:   scc,
			Path:    []int{s, s},
			Message: fmt.Sprintf("Step %d loops back to itself", s),
		}
	}

	path := reconstructCyclePath(scc, adj)
	parts := make([]string, len(path))
	for i, s := range path {
		parts[i] = strconv.Itoa(s)
	}
	return Loop{
		Steps:   scc,
		Path:    path,
		Message: "Loop through steps " + strings.Join(parts, " → "),
	}
}

// reconstructCyclePath walks edges inside the component from its smallest
// step until it returns to the start.
func reconstructCyclePath(scc []int, adj map[int][]int) []int {
	members := make(map[int]bool, len(scc))
	for _, s := range scc {
		members[s] = true
	}

	start := scc[0]
	current := start
	path := []int{current}
	visited := make(map[int]bool)

	for {
		visited[current] = true

		next, found := 0, false
		for _, w := range adj[current] {
			if members[w] && (!visited[w] || w == start) {
				next, found = w, true
				break
			}
		}
		if !found {
			break
		}

		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}
