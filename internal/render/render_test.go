package render

import (
	"errors"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ratelens/internal/ast"
	"github.com/roach88/ratelens/internal/catalog"
	"github.com/roach88/ratelens/internal/decoder"
	"github.com/roach88/ratelens/internal/graph"
	"github.com/roach88/ratelens/internal/ir"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New(catalog.MustDefault())
	require.NoError(t, err)
	return r
}

func cond(step int, left, op, right string) ast.CompareNode {
	return ast.CompareNode{
		Header:   ast.Header{Step: step, InsType: 1},
		Left:     ast.Literal(step, left),
		Operator: op,
		Right:    ast.Literal(step, right),
	}
}

func TestRender_IfJoinsConditionsInOrder(t *testing.T) {
	r := newTestRenderer(t)
	n := ast.IfNode{
		Header:     ast.Header{Step: 1, InsType: 1},
		Conditions: []ast.CompareNode{cond(1, "A", "=", "1"), cond(1, "B", "<>", "2")},
		Joiner:     ast.JoinAnd,
		True:       ast.StepTarget(5),
		False:      ast.Done(),
	}

	got, err := r.Render(n)
	require.NoError(t, err)
	assert.Equal(t, "**IF**: IF A = 1 **AND** B <> 2 THEN go to Step 5, ELSE go to DONE", got)

	a := strings.Index(got, "A = 1")
	b := strings.Index(got, "B <> 2")
	step := strings.Index(got, "Step 5")
	done := strings.Index(got, "DONE")
	assert.True(t, a < b && b < step && step < done, got)
}

func TestRender_IfNegated(t *testing.T) {
	r := newTestRenderer(t)
	n := ast.IfNode{
		Header:     ast.Header{Step: 2, InsType: 51},
		Conditions: []ast.CompareNode{cond(2, "A", "=", "1"), cond(2, "B", "=", "2")},
		Joiner:     ast.JoinOr,
		Negated:    true,
		True:       ast.FallThrough(),
		False:      ast.StepTarget(9),
	}

	got, err := r.Render(n)
	require.NoError(t, err)
	assert.Equal(t, "**IF No**: IF **NOT** (A = 1 **OR** B = 2) THEN go to the next step, ELSE go to Step 9", got)
}

func TestRender_DoneNeverStepMinusTwo(t *testing.T) {
	r := newTestRenderer(t)
	d, err := decoder.New(catalog.MustDefault())
	require.NoError(t, err)

	for _, ins := range []ir.Instruction{
		{Step: 1, Type: 1, Operands: "GI_1|=|1", SeqTrue: ir.IntPtr(-2), SeqFalse: ir.IntPtr(-2)},
		{Step: 2, Type: 5, Operands: "a", SeqTrue: ir.IntPtr(-2)},
		{Step: 3, Type: 6, SeqTrue: ir.IntPtr(-2)},
		{Step: 4, Type: 0, Operands: "GI_1|+|1", Next: ir.IntPtr(-2)},
	} {
		n, err := d.Decode(ins)
		require.NoError(t, err)
		got, err := r.Render(n)
		require.NoError(t, err)
		assert.Contains(t, got, "DONE")
		assert.NotContains(t, got, "Step -2")
	}
}

func TestRender_MinusOneTargetIsDone(t *testing.T) {
	r := newTestRenderer(t)
	d, err := decoder.New(catalog.MustDefault())
	require.NoError(t, err)

	for _, ins := range []ir.Instruction{
		{Step: 1, Type: 1, Operands: "GI_1|=|1", SeqTrue: ir.IntPtr(2), SeqFalse: ir.IntPtr(-1)},
		{Step: 2, Type: 5, Operands: "a", Next: ir.IntPtr(-1)},
		{Step: 3, Type: 0, Operands: "GI_1|+|1", SeqTrue: ir.IntPtr(-1)},
	} {
		n, err := d.Decode(ins)
		require.NoError(t, err)
		got, err := r.Render(n)
		require.NoError(t, err)
		assert.Contains(t, got, "DONE")
		assert.NotContains(t, got, "the next step")
		assert.NotContains(t, got, "Step -1")
	}
}

func TestRender_PartsFilterBlanks(t *testing.T) {
	r := newTestRenderer(t)
	n := ast.AssignmentNode{
		Header: ast.Header{Step: 4, InsType: 5},
		Parts: []ast.Operand{
			ast.Literal(4, "b"),
			ast.Literal(4, ""),
			ast.Literal(4, "  "),
			ast.Literal(4, "a"),
			ast.Literal(4, "b"),
		},
	}

	got, err := r.Render(n)
	require.NoError(t, err)
	assert.Equal(t, "**Set String**: b a b", got)
}

func TestRender_Rounding(t *testing.T) {
	r := newTestRenderer(t)
	base := ast.ArithmeticNode{
		Header:   ast.Header{Step: 1, InsType: 0},
		Left:     ast.Literal(1, "10"),
		Operator: "/",
		Right:    ast.Literal(1, "3"),
	}

	tests := []struct {
		name     string
		rounding *ast.Rounding
		want     string
	}{
		{"absent", nil, "**Arithmetic**: 10 / 3"},
		{"places", &ast.Rounding{Mode: "R", Places: 2, HasPlaces: true}, "**Arithmetic**: 10 / 3 • rounded to 2 places"},
		{"up", &ast.Rounding{Mode: "RP", Places: 0, HasPlaces: true}, "**Arithmetic**: 10 / 3 • rounded up to 0 places"},
		{"mode only", &ast.Rounding{Mode: "RN"}, "**Arithmetic**: 10 / 3 • rounded"},
		{"no rounding", &ast.Rounding{Mode: "NR", Places: 2, HasPlaces: true}, "**Arithmetic**: 10 / 3 • not rounded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := base
			n.Rounding = tt.rounding
			got, err := r.Render(n)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRender_Operands(t *testing.T) {
	r := newTestRenderer(t)
	dest := ast.Operand{Step: 1, Kind: ast.OperandVariable, Raw: "GR_2", Value: "GR_2"}
	n := ast.FunctionNode{
		Header: ast.Header{Step: 1, InsType: 2},
		Dest:   &dest,
		Name:   "CALL",
		Args: []ast.Operand{
			{Step: 1, Kind: ast.OperandVariable, Raw: "~GI_1", Value: "GI_1", Resolved: "Driver age"},
			{Step: 1, Kind: ast.OperandCategoryItem, Raw: "[Y]", Value: "Y"},
			{Step: 1, Kind: ast.OperandTableIndex, Raw: "{3}", Value: "3"},
			ast.Literal(1, "7"),
		},
		Next: ast.StepTarget(8),
	}

	got, err := r.Render(n)
	require.NoError(t, err)
	assert.Equal(t, "**Function Call**: Set `GR_2` = CALL(`~GI_1` (Driver age), *Y*, `{3}`, 7), then go to Step 8", got)
}

func TestRender_EmptyAndUnknownLabel(t *testing.T) {
	r := newTestRenderer(t)

	got, err := r.Render(ast.EmptyNode{Header: ast.Header{Step: 1, InsType: 6}})
	require.NoError(t, err)
	assert.Equal(t, "No operation", got)

	got, err = r.Render(ast.EmptyNode{Header: ast.Header{Step: 1, InsType: 250}})
	require.NoError(t, err)
	assert.Equal(t, "No operation", got)

	got, err = r.Render(ast.SetUnderwritingFailNode{Header: ast.Header{Step: 1, InsType: 250}, Next: ast.Done()})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "**Type 250**: "), got)
}

func TestRender_Deterministic(t *testing.T) {
	r := newTestRenderer(t)
	d, err := decoder.New(catalog.MustDefault())
	require.NoError(t, err)

	ins := ir.Instruction{Step: 1, Type: 50, Operands: "GI_1|>|1^GI_2|<|[X]", SeqTrue: ir.IntPtr(3), SeqFalse: ir.IntPtr(-2)}
	first, err := d.Decode(ins)
	require.NoError(t, err)
	want, err := r.Render(first)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		n, err := d.Decode(ins)
		require.NoError(t, err)
		got, err := r.Render(n)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestNew_MissingTemplate(t *testing.T) {
	table, err := LoadTable([]byte(`
version: "test"
templates:
  compare: '{{.Left}}'
  if: 'IF {{.Condition}}'
`))
	require.NoError(t, err)

	_, err = New(catalog.MustDefault(), WithTable(table))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingTemplate))
	assert.Contains(t, err.Error(), "mask")
}

func TestNew_BrokenPattern(t *testing.T) {
	data := strings.Replace(string(defaultTable), "empty: 'No operation'", "empty: '{{.Nope}}'", 1)
	table, err := LoadTable([]byte(data))
	require.NoError(t, err)

	_, err = New(catalog.MustDefault(), WithTable(table))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestNew_NilCatalog(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
}

func TestLoadTable_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown id", "version: \"1\"\ntemplates:\n  bogus: 'x'\n"},
		{"empty pattern", "version: \"1\"\ntemplates:\n  raw: ''\n"},
		{"bad syntax", "version: \"1\"\ntemplates:\n  raw: '{{.Value'\n"},
		{"missing version", "templates:\n  raw: 'x'\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadTable([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestDefaultTable_CoversEveryKind(t *testing.T) {
	table, err := DefaultTable()
	require.NoError(t, err)
	assert.Equal(t, "1", table.Version())
	assert.ElementsMatch(t, ast.AllKinds(), table.Kinds())
}

func TestSelfCheck_Default(t *testing.T) {
	r := newTestRenderer(t)
	assert.NoError(t, r.SelfCheck())
}

func goldenProgram(t *testing.T) *graph.Graph {
	t.Helper()
	d, err := decoder.New(catalog.MustDefault(), decoder.WithResolver(decoder.Dictionary{"GI_1": "Driver age"}))
	require.NoError(t, err)

	results := d.DecodeAll([]ir.Instruction{
		{Step: 1, Type: 1, Operands: "GI_1|>|18", SeqTrue: ir.IntPtr(2), SeqFalse: ir.IntPtr(4)},
		{Step: 2, Type: 0, Operands: "GR_1|*|1.5|!R2", TargetVar: "GR_2"},
		{Step: 3, Type: 6, SeqTrue: ir.IntPtr(1)},
		{Step: 4, Type: 5, Operands: "[Y]||X", TargetVar: "PL_7", SeqTrue: ir.IntPtr(-2)},
		{Step: 5, Type: 254},
	})
	nodes, errs := decoder.Split(results)
	require.Empty(t, errs)

	g, err := graph.Assemble(nodes)
	require.NoError(t, err)
	return g
}

func TestRenderGraph_Golden(t *testing.T) {
	r := newTestRenderer(t)
	out, err := r.RenderGraph(goldenProgram(t))
	require.NoError(t, err)

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "program", []byte(out))
}

func TestRenderAll(t *testing.T) {
	r := newTestRenderer(t)
	steps, err := r.RenderAll(goldenProgram(t))
	require.NoError(t, err)
	require.Len(t, steps, 5)
	assert.Equal(t, Rendering{Step: 3, Text: "**Empty**: Go to Step 1"}, steps[2])
}
