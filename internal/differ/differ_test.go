package differ

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ratelens/internal/ast"
	"github.com/roach88/ratelens/internal/catalog"
	"github.com/roach88/ratelens/internal/decoder"
	"github.com/roach88/ratelens/internal/graph"
	"github.com/roach88/ratelens/internal/ir"
)

func assemble(t *testing.T, nodes ...ast.Node) *graph.Graph {
	t.Helper()
	g, err := graph.Assemble(nodes)
	require.NoError(t, err)
	return g
}

func decodeGraph(t *testing.T, instructions []ir.Instruction) *graph.Graph {
	t.Helper()
	d, err := decoder.New(catalog.MustDefault())
	require.NoError(t, err)
	nodes, errs := decoder.Split(d.DecodeAll(instructions))
	require.Empty(t, errs)
	return assemble(t, nodes...)
}

func compareAt(step int, op string) ast.CompareNode {
	return ast.CompareNode{
		Header:   ast.Header{Step: step, InsType: 1},
		Left:     ast.Literal(step, "A"),
		Operator: op,
		Right:    ast.Literal(step, "1"),
	}
}

var sampleProgram = []ir.Instruction{
	{Step: 1, Type: 50, Operands: "GI_1|>|1^GI_2|=|[Y]", SeqTrue: ir.IntPtr(2), SeqFalse: ir.IntPtr(3)},
	{Step: 2, Type: 0, Operands: "GR_1|*|2|!R2", TargetVar: "GR_2"},
	{Step: 3, Type: 86, Operands: "[A]|GI_3||B", TargetVar: "PL_1", SeqTrue: ir.IntPtr(-2)},
}

func TestDiff_OperatorChange(t *testing.T) {
	a := assemble(t, compareAt(3, ">"))
	b := assemble(t, compareAt(3, ">="))

	changes, err := Diff(a, b)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, Change{
		Path:     "step=3/operator",
		Step:     3,
		Field:    "operator",
		Kind:     Changed,
		OldValue: ">",
		NewValue: ">=",
	}, changes[0])
}

func TestDiff_Reflexive(t *testing.T) {
	a := decodeGraph(t, sampleProgram)
	b := decodeGraph(t, sampleProgram)

	changes, err := Diff(a, b)
	require.NoError(t, err)
	assert.NotNil(t, changes)
	assert.Empty(t, changes)

	changes, err = Diff(a, a)
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestDiff_AddedRemovedSteps(t *testing.T) {
	a := assemble(t, compareAt(1, "="), compareAt(2, "="))
	b := assemble(t, compareAt(1, "="), compareAt(4, "="))

	changes, err := Diff(a, b)
	require.NoError(t, err)

	want := []Change{
		{Path: "step=2", Step: 2, Kind: Removed, OldValue: "compare"},
		{Path: "step=4", Step: 4, Kind: Added, NewValue: "compare"},
	}
	if diff := cmp.Diff(want, changes); diff != "" {
		t.Errorf("changes mismatch (-want +got):\n%s", diff)
	}
}

func TestDiff_VariantChangeIsOneRecord(t *testing.T) {
	a := assemble(t, compareAt(1, "="))
	b := assemble(t, ast.EmptyNode{Header: ast.Header{Step: 1, InsType: 6}})

	changes, err := Diff(a, b)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "step=1/type", changes[0].Path)
	assert.Equal(t, "compare", changes[0].OldValue)
	assert.Equal(t, "empty", changes[0].NewValue)
}

func TestDiff_ReorderedConditions(t *testing.T) {
	a := decodeGraph(t, []ir.Instruction{{Step: 1, Type: 50, Operands: "GI_1|>|1^GI_2|=|2", SeqTrue: ir.IntPtr(-2), SeqFalse: ir.IntPtr(-2)}})
	b := decodeGraph(t, []ir.Instruction{{Step: 1, Type: 50, Operands: "GI_2|=|2^GI_1|>|1", SeqTrue: ir.IntPtr(-2), SeqFalse: ir.IntPtr(-2)}})

	changes, err := Diff(a, b)
	require.NoError(t, err)

	var paths []string
	for _, c := range changes {
		paths = append(paths, c.Path)
		assert.Equal(t, Changed, c.Kind)
	}
	assert.Equal(t, []string{
		"step=1/conditions[0]/left/raw",
		"step=1/conditions[0]/operator",
		"step=1/conditions[0]/right/raw",
		"step=1/conditions[1]/left/raw",
		"step=1/conditions[1]/operator",
		"step=1/conditions[1]/right/raw",
	}, paths)
}

func TestDiff_NestedAndOptionalFields(t *testing.T) {
	a := decodeGraph(t, sampleProgram)

	changed := append([]ir.Instruction{}, sampleProgram...)
	changed[0] = ir.Instruction{Step: 1, Type: 50, Operands: "GI_1|>|1^GI_2|=|[Y]^GI_4|<|3", SeqTrue: ir.IntPtr(2), SeqFalse: ir.IntPtr(-2)}
	changed[1] = ir.Instruction{Step: 2, Type: 0, Operands: "GR_1|*|2", TargetVar: "GR_2"}
	changed[2] = ir.Instruction{Step: 3, Type: 86, Operands: "[B]|GI_3||B", SeqTrue: ir.IntPtr(-2)}
	b := decodeGraph(t, changed)

	changes, err := Diff(a, b)
	require.NoError(t, err)

	want := []Change{
		{Path: "step=1/false_target", Step: 1, Field: "false_target", Kind: Changed, OldValue: "Step 3", NewValue: "DONE"},
		{Path: "step=1/conditions[2]", Step: 1, Field: "conditions[2]", Kind: Added, NewValue: "GI_4 < 3"},
		{Path: "step=2/rounding", Step: 2, Field: "rounding", Kind: Removed, OldValue: "!R2"},
		{Path: "step=3/dest", Step: 3, Field: "dest", Kind: Removed, OldValue: "PL_1"},
		{Path: "step=3/parts[0]/raw", Step: 3, Field: "parts[0]/raw", Kind: Changed, OldValue: "[A]", NewValue: "[B]"},
	}
	if diff := cmp.Diff(want, changes); diff != "" {
		t.Errorf("changes mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, Summary{Added: 1, Removed: 2, Changed: 2}, Summarize(changes))
}

func TestDiff_InsTypeWithinVariant(t *testing.T) {
	a := decodeGraph(t, []ir.Instruction{{Step: 1, Type: 50, Operands: "GI_1|=|1", SeqTrue: ir.IntPtr(-2), SeqFalse: ir.IntPtr(-2)}})
	b := decodeGraph(t, []ir.Instruction{{Step: 1, Type: 52, Operands: "GI_1|=|1", SeqTrue: ir.IntPtr(-2), SeqFalse: ir.IntPtr(-2)}})

	changes, err := Diff(a, b)
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, "step=1/ins_type", changes[0].Path)
	assert.Equal(t, "step=1/joiner", changes[1].Path)
	assert.Equal(t, "AND", changes[1].OldValue)
	assert.Equal(t, "OR", changes[1].NewValue)
}

func TestChange_String(t *testing.T) {
	assert.Equal(t, "~ step=3/operator: > -> >=", Change{Path: "step=3/operator", Kind: Changed, OldValue: ">", NewValue: ">="}.String())
	assert.Equal(t, "+ step=4: if", Change{Path: "step=4", Kind: Added, NewValue: "if"}.String())
	assert.Equal(t, "- step=2: raw", Change{Path: "step=2", Kind: Removed, OldValue: "raw"}.String())
}
