package differ

import (
	"sort"

	"github.com/roach88/ratelens/internal/ast"
	"github.com/roach88/ratelens/internal/graph"
)

// Diff compares two assembled graphs. Changes are ordered by step, then by
// field order within the node. Identical graphs produce an empty slice.
func Diff(a, b *graph.Graph) ([]Change, error) {
	changes := []Change{}

	for _, step := range unionSteps(a.Steps(), b.Steps()) {
		na, inA := a.Node(step)
		nb, inB := b.Node(step)

		switch {
		case !inB:
			changes = append(changes, Change{Path: stepPath(step), Step: step, Kind: Removed, OldValue: string(na.Kind())})
		case !inA:
			changes = append(changes, Change{Path: stepPath(step), Step: step, Kind: Added, NewValue: string(nb.Kind())})
		default:
			cs, err := diffNodes(step, na, nb)
			if err != nil {
				return nil, err
			}
			changes = append(changes, cs...)
		}
	}
	return changes, nil
}

// diffNodes compares two nodes at the same step. Nodes of different
// variants yield a single change on the type field.
func diffNodes(step int, a, b ast.Node) ([]Change, error) {
	if a.Kind() != b.Kind() {
		return []Change{{
			Path:     fieldPath(step, "type"),
			Step:     step,
			Field:    "type",
			Kind:     Changed,
			OldValue: string(a.Kind()),
			NewValue: string(b.Kind()),
		}}, nil
	}

	fa, err := nodeFields(a)
	if err != nil {
		return nil, err
	}
	fb, err := nodeFields(b)
	if err != nil {
		return nil, err
	}

	var out []Change
	compareFields(step, "", fa, fb, &out)
	return out, nil
}

// compareFields matches fields by name, walking a's order first and then
// fields only b has.
func compareFields(step int, prefix string, a, b []field, out *[]Change) {
	inB := make(map[string]field, len(b))
	for _, f := range b {
		inB[f.name] = f
	}
	inA := make(map[string]bool, len(a))

	for _, fa := range a {
		inA[fa.name] = true
		path := join(prefix, fa.name)

		fb, ok := inB[fa.name]
		if !ok {
			*out = append(*out, Change{Path: fieldPath(step, path), Step: step, Field: path, Kind: Removed, OldValue: fa.value})
			continue
		}

		switch {
		case fa.isLeaf() && fb.isLeaf():
			if fa.value != fb.value {
				*out = append(*out, Change{Path: fieldPath(step, path), Step: step, Field: path, Kind: Changed, OldValue: fa.value, NewValue: fb.value})
			}
		case !fa.isLeaf() && !fb.isLeaf():
			compareFields(step, path, fa.children, fb.children, out)
		default:
			*out = append(*out, Change{Path: fieldPath(step, path), Step: step, Field: path, Kind: Changed, OldValue: fa.value, NewValue: fb.value})
		}
	}

	for _, fb := range b {
		if inA[fb.name] {
			continue
		}
		path := join(prefix, fb.name)
		*out = append(*out, Change{Path: fieldPath(step, path), Step: step, Field: path, Kind: Added, NewValue: fb.value})
	}
}

func join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

func unionSteps(a, b []int) []int {
	seen := make(map[int]bool, len(a)+len(b))
	out := make([]int, 0, len(a)+len(b))
	for _, s := range append(append([]int{}, a...), b...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Ints(out)
	return out
}
