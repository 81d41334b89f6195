package decoder

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"

	"github.com/roach88/ratelens/internal/ast"
	"github.com/roach88/ratelens/internal/catalog"
	"github.com/roach88/ratelens/internal/ir"
)

// Resolver maps a variable key (e.g. GI_573) to a human description.
type Resolver interface {
	Resolve(key string) (string, bool)
}

// Dictionary is a Resolver backed by a plain map.
type Dictionary map[string]string

// Resolve implements Resolver.
func (d Dictionary) Resolve(key string) (string, bool) {
	desc, ok := d[key]
	return desc, ok && desc != ""
}

// Decoder decodes instructions against an opcode catalog.
type Decoder struct {
	catalog  *catalog.Catalog
	resolver Resolver
	parser   *participle.Parser[segment]
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithResolver fills Operand.Resolved for variable operands.
func WithResolver(r Resolver) Option {
	return func(d *Decoder) {
		d.resolver = r
	}
}

// New creates a Decoder.
func New(c *catalog.Catalog, opts ...Option) (*Decoder, error) {
	if c == nil {
		return nil, fmt.Errorf("decoder: nil catalog")
	}
	p, err := buildSegmentParser()
	if err != nil {
		return nil, fmt.Errorf("decoder: building segment parser: %w", err)
	}

	d := &Decoder{catalog: c, parser: p}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Decode converts one instruction into a node. Failures are returned as
// *DecodeError wrapping ErrUnknownOpcode, ErrMalformedOperand or
// ErrArityMismatch.
func (d *Decoder) Decode(ins ir.Instruction) (ast.Node, error) {
	node, err := d.decode(ins)
	if err != nil {
		return nil, &DecodeError{Step: ins.Step, InsType: ins.Type, Raw: ins.Operands, Err: err}
	}
	return node, nil
}

func (d *Decoder) decode(ins ir.Instruction) (ast.Node, error) {
	entry, err := d.catalog.Lookup(ins.Type)
	if err != nil {
		return nil, err
	}

	h := ast.Header{Step: ins.Step, InsType: ins.Type}
	next := successor(ins)

	switch entry.Template {
	case ast.KindIf:
		return d.decodeIf(h, entry, ins)
	case ast.KindCompare:
		segs := splitSegments(ins.Operands)
		if err := checkArity(entry, len(segs)); err != nil {
			return nil, err
		}
		return d.decodeCompare(h, segs)
	case ast.KindArithmetic:
		return d.decodeArithmetic(h, entry, ins, next)
	case ast.KindFunction:
		return d.decodeFunction(h, entry, ins, next)
	case ast.KindAssignment:
		dest, parts, err := d.decodeParts(h, entry, ins)
		if err != nil {
			return nil, err
		}
		return ast.AssignmentNode{Header: h, Dest: dest, Parts: parts, Next: next}, nil
	case ast.KindStringConcat:
		dest, parts, err := d.decodeParts(h, entry, ins)
		if err != nil {
			return nil, err
		}
		return ast.StringConcatNode{Header: h, Dest: dest, Parts: parts, Next: next}, nil
	case ast.KindMask:
		return d.decodeMask(h, entry, ins, next)
	case ast.KindQueryDataSource:
		args, err := d.decodeArgs(h.Step, entry, splitSegments(ins.Operands))
		if err != nil {
			return nil, err
		}
		return ast.QueryDataSourceNode{Header: h, Args: args, Next: next}, nil
	case ast.KindRankFlag:
		args, err := d.decodeArgs(h.Step, entry, splitSegments(ins.Operands))
		if err != nil {
			return nil, err
		}
		return ast.RankFlagNode{Header: h, Args: args, Next: next}, nil
	case ast.KindSetUnderwritingFail:
		return ast.SetUnderwritingFailNode{Header: h, Next: next}, nil
	case ast.KindJump:
		return ast.JumpNode{Header: h, Target: next}, nil
	case ast.KindEmpty:
		// An empty step with an explicit successor is a jump.
		if !next.IsFallThrough() {
			return ast.JumpNode{Header: h, Target: next}, nil
		}
		return ast.EmptyNode{Header: h, Next: next}, nil
	case ast.KindRaw:
		return ast.RawNode{Header: h, Value: ins.Operands, Next: next}, nil
	default:
		return nil, fmt.Errorf("opcode %d: unsupported template %q", ins.Type, entry.Template)
	}
}

// successor is the sequential target of a non-branching instruction: the
// explicit next field when present, otherwise seq_t.
func successor(ins ir.Instruction) ast.Target {
	if ins.Next != nil {
		return ast.TargetFromRaw(ins.Next)
	}
	return ast.TargetFromRaw(ins.SeqTrue)
}

func checkArity(entry catalog.Entry, n int) error {
	if entry.AcceptsArgs(n) {
		return nil
	}
	if entry.MaxArgs == catalog.Unbounded {
		return arity("%s expects at least %d operand(s), got %d", entry.Name, entry.MinArgs, n)
	}
	if entry.MinArgs == entry.MaxArgs {
		return arity("%s expects %d operand(s), got %d", entry.Name, entry.MinArgs, n)
	}
	return arity("%s expects %d to %d operand(s), got %d", entry.Name, entry.MinArgs, entry.MaxArgs, n)
}

func (d *Decoder) decodeIf(h ast.Header, entry catalog.Entry, ins ir.Instruction) (ast.Node, error) {
	var conds []ast.CompareNode
	for i, part := range splitConditions(ins.Operands) {
		segs := splitSegments(part)
		if err := checkArity(entry, len(segs)); err != nil {
			return nil, fmt.Errorf("condition %d: %w", i, err)
		}
		if entry.IsPredicate() {
			segs = predicateSegments(segs, entry.Predicate)
		}
		cmp, err := d.decodeCompare(h, segs)
		if err != nil {
			return nil, fmt.Errorf("condition %d: %w", i, err)
		}
		conds = append(conds, cmp)
	}

	return ast.IfNode{
		Header:     h,
		Conditions: conds,
		Joiner:     entry.Joiner,
		Negated:    entry.Negated,
		True:       ast.TargetFromRaw(ins.SeqTrue),
		False:      ast.TargetFromRaw(ins.SeqFalse),
	}, nil
}

// predicateSegments completes an IS_* check to left/operator/right form.
// A missing operator defaults to = and a missing or blank right side is
// the predicate itself.
func predicateSegments(segs []string, predicate string) []string {
	out := []string{segs[0], "=", "[" + predicate + "]"}
	if len(segs) > 1 && strings.TrimSpace(segs[1]) != "" {
		out[1] = segs[1]
	}
	if len(segs) > 2 && strings.TrimSpace(segs[2]) != "" {
		out[2] = segs[2]
	}
	return out
}

func (d *Decoder) decodeCompare(h ast.Header, segs []string) (ast.CompareNode, error) {
	op := strings.TrimSpace(segs[1])
	if !compareOperators[op] {
		return ast.CompareNode{}, malformed("comparison operator %q", op)
	}
	left, err := d.tokenize(h.Step, segs[0])
	if err != nil {
		return ast.CompareNode{}, err
	}
	right, err := d.tokenize(h.Step, segs[2])
	if err != nil {
		return ast.CompareNode{}, err
	}
	return ast.CompareNode{Header: h, Left: left, Operator: op, Right: right}, nil
}

func (d *Decoder) decodeArithmetic(h ast.Header, entry catalog.Entry, ins ir.Instruction, next ast.Target) (ast.Node, error) {
	segs, rounding, err := extractRounding(splitSegments(ins.Operands))
	if err != nil {
		return nil, err
	}
	if err := checkArity(entry, len(segs)); err != nil {
		return nil, err
	}

	op := strings.TrimSpace(segs[1])
	if !arithmeticOperators[op] {
		return nil, malformed("arithmetic operator %q", op)
	}
	left, err := d.tokenize(h.Step, segs[0])
	if err != nil {
		return nil, err
	}
	right, err := d.tokenize(h.Step, segs[2])
	if err != nil {
		return nil, err
	}
	dest, err := d.destination(h.Step, ins)
	if err != nil {
		return nil, err
	}

	return ast.ArithmeticNode{
		Header:   h,
		Dest:     dest,
		Left:     left,
		Operator: op,
		Right:    right,
		Rounding: rounding,
		Next:     next,
	}, nil
}

func (d *Decoder) decodeFunction(h ast.Header, entry catalog.Entry, ins ir.Instruction, next ast.Target) (ast.Node, error) {
	segs, rounding, err := extractRounding(splitSegments(ins.Operands))
	if err != nil {
		return nil, err
	}
	args, err := d.decodeArgs(h.Step, entry, segs)
	if err != nil {
		return nil, err
	}
	dest, err := d.destination(h.Step, ins)
	if err != nil {
		return nil, err
	}

	return ast.FunctionNode{
		Header:   h,
		Dest:     dest,
		Name:     entry.Name,
		Args:     args,
		Rounding: rounding,
		Next:     next,
	}, nil
}

func (d *Decoder) decodeParts(h ast.Header, entry catalog.Entry, ins ir.Instruction) (*ast.Operand, []ast.Operand, error) {
	parts, err := d.decodeArgs(h.Step, entry, splitSegments(ins.Operands))
	if err != nil {
		return nil, nil, err
	}
	dest, err := d.destination(h.Step, ins)
	if err != nil {
		return nil, nil, err
	}
	return dest, parts, nil
}

func (d *Decoder) decodeMask(h ast.Header, entry catalog.Entry, ins ir.Instruction, next ast.Target) (ast.Node, error) {
	args, err := d.decodeArgs(h.Step, entry, splitSegments(ins.Operands))
	if err != nil {
		return nil, err
	}
	if len(args) < 2 {
		return nil, arity("%s expects 2 operand(s), got %d", entry.Name, len(args))
	}
	dest, err := d.destination(h.Step, ins)
	if err != nil {
		return nil, err
	}
	return ast.MaskNode{Header: h, Dest: dest, Left: args[0], Right: args[1], Next: next}, nil
}

// decodeArgs checks arity and tokenizes every segment in order.
func (d *Decoder) decodeArgs(step int, entry catalog.Entry, segs []string) ([]ast.Operand, error) {
	if err := checkArity(entry, len(segs)); err != nil {
		return nil, err
	}
	args := make([]ast.Operand, 0, len(segs))
	for _, s := range segs {
		op, err := d.tokenize(step, s)
		if err != nil {
			return nil, err
		}
		args = append(args, op)
	}
	return args, nil
}

// destination decodes the ins_tar field, if any.
func (d *Decoder) destination(step int, ins ir.Instruction) (*ast.Operand, error) {
	if strings.TrimSpace(ins.TargetVar) == "" {
		return nil, nil
	}
	op, err := d.tokenize(step, ins.TargetVar)
	if err != nil {
		return nil, fmt.Errorf("destination: %w", err)
	}
	return &op, nil
}
