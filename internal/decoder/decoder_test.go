package decoder

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ratelens/internal/ast"
	"github.com/roach88/ratelens/internal/catalog"
	"github.com/roach88/ratelens/internal/ir"
)

func decodeOK(t *testing.T, d *Decoder, ins ir.Instruction) ast.Node {
	t.Helper()
	node, err := d.Decode(ins)
	require.NoError(t, err)
	require.NotNil(t, node)
	return node
}

func TestDecode_If(t *testing.T) {
	d := newTestDecoder(t)
	node := decodeOK(t, d, ir.Instruction{Step: 1, Type: 1, Operands: "|~GR_5369|=|[Y]|", SeqTrue: ir.IntPtr(2), SeqFalse: ir.IntPtr(4)})

	n, ok := node.(ast.IfNode)
	require.True(t, ok, "got %T", node)
	assert.Equal(t, ast.Header{Step: 1, InsType: 1}, n.Meta())
	assert.Equal(t, ast.JoinAnd, n.Joiner)
	assert.False(t, n.Negated)
	assert.True(t, n.True.Equal(ast.StepTarget(2)))
	assert.True(t, n.False.Equal(ast.StepTarget(4)))

	require.Len(t, n.Conditions, 1)
	c := n.Conditions[0]
	assert.Equal(t, ast.Operand{Step: 1, Kind: ast.OperandVariable, Raw: "~GR_5369", Value: "GR_5369"}, c.Left)
	assert.Equal(t, "=", c.Operator)
	assert.Equal(t, ast.Operand{Step: 1, Kind: ast.OperandCategoryItem, Raw: "[Y]", Value: "Y"}, c.Right)
}

func TestDecode_IfDoneAndFallThrough(t *testing.T) {
	d := newTestDecoder(t)
	n := decodeOK(t, d, ir.Instruction{Step: 3, Type: 1, Operands: "GI_1|>|0", SeqFalse: ir.IntPtr(-2)}).(ast.IfNode)

	assert.True(t, n.True.IsFallThrough())
	assert.True(t, n.False.IsDone())
}

func TestDecode_MinusOneTargetIsDone(t *testing.T) {
	d := newTestDecoder(t)
	n := decodeOK(t, d, ir.Instruction{Step: 3, Type: 1, Operands: "GI_1|>|0", SeqTrue: ir.IntPtr(4), SeqFalse: ir.IntPtr(-1)}).(ast.IfNode)
	assert.True(t, n.False.IsDone())

	a := decodeOK(t, d, ir.Instruction{Step: 4, Type: 0, Operands: "GI_1|+|1", Next: ir.IntPtr(-1)}).(ast.ArithmeticNode)
	assert.True(t, a.Next.IsDone())
}

func TestDecode_WordOperands(t *testing.T) {
	d := newTestDecoder(t)
	n := decodeOK(t, d, ir.Instruction{Step: 2, Type: 1, Operands: "|AB_12|=|GI_1 x|", SeqTrue: ir.IntPtr(3)}).(ast.IfNode)

	require.Len(t, n.Conditions, 1)
	assert.Equal(t, ast.Operand{Step: 2, Kind: ast.OperandLiteral, Raw: "AB_12", Value: "AB_12"}, n.Conditions[0].Left)
	assert.Equal(t, ast.Operand{Step: 2, Kind: ast.OperandLiteral, Raw: "GI_1 x", Value: "GI_1 x"}, n.Conditions[0].Right)
}

func TestDecode_MultiIf(t *testing.T) {
	d := newTestDecoder(t)

	tests := []struct {
		code    int
		joiner  ast.Joiner
		negated bool
	}{
		{50, ast.JoinAnd, false},
		{51, ast.JoinOr, true},
		{52, ast.JoinOr, false},
		{53, ast.JoinAnd, false},
		{54, ast.JoinOr, true},
		{55, ast.JoinOr, false},
	}

	for _, tt := range tests {
		t.Run(catalog.MustDefault().Label(tt.code), func(t *testing.T) {
			ins := ir.Instruction{Step: 7, Type: tt.code, Operands: "|GI_1|=|1|^|GI_2|<>|2|^|PC_3|>=|[High]|", SeqTrue: ir.IntPtr(8), SeqFalse: ir.IntPtr(-2)}
			n := decodeOK(t, d, ins).(ast.IfNode)

			assert.Equal(t, tt.joiner, n.Joiner)
			assert.Equal(t, tt.negated, n.Negated)
			require.Len(t, n.Conditions, 3)
			assert.Equal(t, []string{"=", "<>", ">="}, []string{n.Conditions[0].Operator, n.Conditions[1].Operator, n.Conditions[2].Operator})
			assert.Equal(t, "GI_2", n.Conditions[1].Left.Value)
			assert.Equal(t, "High", n.Conditions[2].Right.Value)
		})
	}
}

func TestDecode_IfNoKeepsOperatorsIntact(t *testing.T) {
	d := newTestDecoder(t)
	n := decodeOK(t, d, ir.Instruction{Step: 1, Type: 51, Operands: "|GI_1|=|1|^|GI_2|<|2|"}).(ast.IfNode)

	// Negation is recorded on the node, never folded into operators.
	assert.True(t, n.Negated)
	assert.Equal(t, "=", n.Conditions[0].Operator)
	assert.Equal(t, "<", n.Conditions[1].Operator)
}

func TestDecode_Predicate(t *testing.T) {
	d := newTestDecoder(t)

	n := decodeOK(t, d, ir.Instruction{Step: 2, Type: 95, Operands: "~GI_573|=|"}).(ast.IfNode)
	require.Len(t, n.Conditions, 1)
	c := n.Conditions[0]
	assert.Equal(t, "GI_573", c.Left.Value)
	assert.Equal(t, "=", c.Operator)
	assert.Equal(t, ast.OperandCategoryItem, c.Right.Kind)
	assert.Equal(t, "a date", c.Right.Value)
	assert.True(t, n.True.IsFallThrough())

	n = decodeOK(t, d, ir.Instruction{Step: 2, Type: 98, Operands: "GI_9"}).(ast.IfNode)
	assert.Equal(t, "=", n.Conditions[0].Operator)
	assert.Equal(t, "numeric", n.Conditions[0].Right.Value)

	n = decodeOK(t, d, ir.Instruction{Step: 2, Type: 99, Operands: "GI_9|<>|[x]"}).(ast.IfNode)
	assert.Equal(t, "<>", n.Conditions[0].Operator)
	assert.Equal(t, "x", n.Conditions[0].Right.Value)
}

func TestDecode_DateAddition(t *testing.T) {
	d := newTestDecoder(t)
	node := decodeOK(t, d, ir.Instruction{Step: 3, Type: 126, Operands: "GI_573|0|{0}", TargetVar: "PC_1060", SeqTrue: ir.IntPtr(-2), SeqFalse: ir.IntPtr(-2)})

	n, ok := node.(ast.FunctionNode)
	require.True(t, ok, "got %T", node)
	assert.Equal(t, "DATE_ADDITION", n.Name)
	require.NotNil(t, n.Dest)
	assert.Equal(t, "PC_1060", n.Dest.Value)
	assert.Nil(t, n.Rounding)
	assert.True(t, n.Next.IsDone())

	require.Len(t, n.Args, 3)
	assert.Equal(t, ast.OperandVariable, n.Args[0].Kind)
	assert.Equal(t, ast.OperandLiteral, n.Args[1].Kind)
	assert.Equal(t, ast.OperandTableIndex, n.Args[2].Kind)
	assert.Equal(t, "0", n.Args[2].Value)
}

func TestDecode_Arithmetic(t *testing.T) {
	d := newTestDecoder(t)

	n := decodeOK(t, d, ir.Instruction{Step: 4, Type: 0, Operands: "GI_1|*|1.05|!R2", TargetVar: "PC_9", Next: ir.IntPtr(6)}).(ast.ArithmeticNode)
	assert.Equal(t, "GI_1", n.Left.Value)
	assert.Equal(t, "*", n.Operator)
	assert.Equal(t, "1.05", n.Right.Value)
	assert.Equal(t, &ast.Rounding{Mode: "R", Places: 2, HasPlaces: true}, n.Rounding)
	assert.Equal(t, "PC_9", n.Dest.Value)
	assert.True(t, n.Next.Equal(ast.StepTarget(6)))

	plain := decodeOK(t, d, ir.Instruction{Step: 5, Type: 0, Operands: "GI_1|+|GI_2"}).(ast.ArithmeticNode)
	assert.Nil(t, plain.Rounding, "absent rounding is empty, not a sentinel")
	assert.Nil(t, plain.Dest)
	assert.True(t, plain.Next.IsFallThrough())
}

func TestDecode_NextPreferredOverSeqTrue(t *testing.T) {
	d := newTestDecoder(t)
	n := decodeOK(t, d, ir.Instruction{Step: 1, Type: 0, Operands: "GI_1|+|1", SeqTrue: ir.IntPtr(9), Next: ir.IntPtr(3)}).(ast.ArithmeticNode)
	assert.True(t, n.Next.Equal(ast.StepTarget(3)))
}

func TestDecode_FunctionWithRounding(t *testing.T) {
	d := newTestDecoder(t)
	n := decodeOK(t, d, ir.Instruction{Step: 1, Type: 133, Operands: "GC_47!RN"}).(ast.FunctionNode)
	assert.Equal(t, "SQRT", n.Name)
	require.Len(t, n.Args, 1)
	assert.Equal(t, "GC_47", n.Args[0].Value)
	assert.Equal(t, &ast.Rounding{Mode: "RN"}, n.Rounding)
}

func TestDecode_AssignmentAndConcat(t *testing.T) {
	d := newTestDecoder(t)

	a := decodeOK(t, d, ir.Instruction{Step: 1, Type: 5, Operands: "DGI_110|[Hello]"}).(ast.AssignmentNode)
	require.Len(t, a.Parts, 2)
	assert.Equal(t, "GI_110", a.Parts[0].Value)
	assert.Equal(t, "Hello", a.Parts[1].Value)

	c := decodeOK(t, d, ir.Instruction{Step: 2, Type: 86, Operands: "[FirstName]|| |GI_5", TargetVar: "PC_1"}).(ast.StringConcatNode)
	require.Len(t, c.Parts, 4, "blank segments are kept; rendering filters them")
	assert.Equal(t, "[FirstName]", c.Parts[0].Raw)
	assert.Equal(t, "FirstName", c.Parts[0].Value)
	assert.True(t, c.Parts[1].IsBlank())
	assert.True(t, c.Parts[2].IsBlank())
	assert.Equal(t, "PC_1", c.Dest.Value)
}

func TestDecode_Mask(t *testing.T) {
	d := newTestDecoder(t)
	n := decodeOK(t, d, ir.Instruction{Step: 1, Type: 4, Operands: "GI_20|[###-##]"}).(ast.MaskNode)
	assert.Equal(t, "GI_20", n.Left.Value)
	assert.Equal(t, "###-##", n.Right.Value)
}

func TestDecode_EmptyAndJump(t *testing.T) {
	d := newTestDecoder(t)

	empty := decodeOK(t, d, ir.Instruction{Step: 1, Type: 6})
	assert.Equal(t, ast.KindEmpty, empty.Kind())

	jump := decodeOK(t, d, ir.Instruction{Step: 2, Type: 6, SeqTrue: ir.IntPtr(10)})
	j, ok := jump.(ast.JumpNode)
	require.True(t, ok, "got %T", jump)
	assert.True(t, j.Target.Equal(ast.StepTarget(10)))

	done := decodeOK(t, d, ir.Instruction{Step: 3, Type: 6, Next: ir.IntPtr(-2)}).(ast.JumpNode)
	assert.True(t, done.Target.IsDone())
}

func TestDecode_MarkerVariants(t *testing.T) {
	d := newTestDecoder(t)

	rank := decodeOK(t, d, ir.Instruction{Step: 1, Type: 14, Operands: "GC_12|GI_4"}).(ast.RankFlagNode)
	assert.Len(t, rank.Args, 2)

	noArgs := decodeOK(t, d, ir.Instruction{Step: 2, Type: 70}).(ast.RankFlagNode)
	assert.Empty(t, noArgs.Args)

	ds := decodeOK(t, d, ir.Instruction{Step: 3, Type: 200, Operands: "PQ_5"}).(ast.QueryDataSourceNode)
	assert.Equal(t, "PQ_5", ds.Args[0].Value)

	fail := decodeOK(t, d, ir.Instruction{Step: 4, Type: 254, Operands: "ignored", Next: ir.IntPtr(-2)}).(ast.SetUnderwritingFailNode)
	assert.True(t, fail.Next.IsDone())

	raw := decodeOK(t, d, ir.Instruction{Step: 5, Type: 3, Operands: "GC_1|ASC"}).(ast.RawNode)
	assert.Equal(t, "GC_1|ASC", raw.Value)
}

func TestDecode_Errors(t *testing.T) {
	d := newTestDecoder(t)

	tests := []struct {
		name string
		ins  ir.Instruction
		want error
	}{
		{"unknown opcode", ir.Instruction{Step: 9, Type: 999, Operands: "x"}, ErrUnknownOpcode},
		{"unterminated category", ir.Instruction{Step: 9, Type: 1, Operands: "|GI_1|=|[Y|"}, ErrMalformedOperand},
		{"bad compare operator", ir.Instruction{Step: 9, Type: 1, Operands: "|GI_1|=>|1|"}, ErrMalformedOperand},
		{"bad arithmetic operator", ir.Instruction{Step: 9, Type: 0, Operands: "GI_1|plus|1"}, ErrMalformedOperand},
		{"bad rounding", ir.Instruction{Step: 9, Type: 0, Operands: "GI_1|+|1|!QQ"}, ErrMalformedOperand},
		{"bad destination", ir.Instruction{Step: 9, Type: 0, Operands: "GI_1|+|1", TargetVar: "[oops"}, ErrMalformedOperand},
		{"compare missing operand", ir.Instruction{Step: 9, Type: 1, Operands: "|GI_1|=|"}, ErrArityMismatch},
		{"if empty", ir.Instruction{Step: 9, Type: 1}, ErrArityMismatch},
		{"multi if short condition", ir.Instruction{Step: 9, Type: 50, Operands: "|GI_1|=|1|^|GI_2|"}, ErrArityMismatch},
		{"arithmetic too many", ir.Instruction{Step: 9, Type: 0, Operands: "GI_1|+|1|2"}, ErrArityMismatch},
		{"date diff one arg", ir.Instruction{Step: 9, Type: 57, Operands: "GI_1"}, ErrArityMismatch},
		{"mask one arg", ir.Instruction{Step: 9, Type: 4, Operands: "GI_1"}, ErrArityMismatch},
		{"function no args", ir.Instruction{Step: 9, Type: 133}, ErrArityMismatch},
		{"predicate no args", ir.Instruction{Step: 9, Type: 95}, ErrArityMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := d.Decode(tt.ins)
			require.Error(t, err)
			assert.Nil(t, node)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)

			var de *DecodeError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, 9, de.Step)
			assert.Equal(t, tt.ins.Type, de.InsType)
			assert.Equal(t, tt.ins.Operands, de.Raw)
			assert.Contains(t, de.Error(), "step 9")
		})
	}
}

func TestDecode_Deterministic(t *testing.T) {
	d := newTestDecoder(t, WithResolver(Dictionary{"GI_1": "Driver age"}))
	ins := ir.Instruction{Step: 1, Type: 50, Operands: "|GI_1|>=|25|^|GI_2|<>|[N]|", SeqTrue: ir.IntPtr(2), SeqFalse: ir.IntPtr(-2)}

	a := decodeOK(t, d, ins)
	b := decodeOK(t, d, ins)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("decode not deterministic (-first +second):\n%s", diff)
	}
	assert.Equal(t, "Driver age", a.(ast.IfNode).Conditions[0].Left.Resolved)
}

func TestDecode_EveryCatalogCodeHasAShape(t *testing.T) {
	d := newTestDecoder(t)

	// Operands sized to the minimum of each entry; IF entries get one full
	// condition. No opcode may fail for reasons other than operand content.
	for _, e := range catalog.MustDefault().Entries() {
		ins := ir.Instruction{Step: 1, Type: e.Code, Operands: operandsFor(e)}
		_, err := d.Decode(ins)
		assert.NoError(t, err, "code %d (%s)", e.Code, e.Name)
	}
}

func operandsFor(e catalog.Entry) string {
	switch e.Template {
	case ast.KindIf, ast.KindCompare:
		return "|GI_1|=|1|"
	case ast.KindArithmetic:
		return "GI_1|+|1"
	}
	segs := make([]string, e.MinArgs)
	for i := range segs {
		segs[i] = "GI_1"
	}
	out := ""
	for i, s := range segs {
		if i > 0 {
			out += "|"
		}
		out += s
	}
	return out
}

func TestNew_RequiresCatalog(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}
