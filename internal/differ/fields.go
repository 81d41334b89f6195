package differ

import (
	"fmt"
	"strconv"

	"github.com/roach88/ratelens/internal/ast"
)

// field is one named position in a node. Leaves carry a value; composites
// carry children and a one-line summary used when the whole composite is
// added or removed.
type field struct {
	name     string
	value    string
	children []field
}

func (f field) isLeaf() bool {
	return f.children == nil
}

func leaf(name, value string) field {
	return field{name: name, value: value}
}

func composite(name, summary string, children ...field) field {
	if children == nil {
		children = []field{}
	}
	return field{name: name, value: summary, children: children}
}

// operandField keeps kind, raw and resolved. Value is derived from raw and
// would only duplicate every operand change.
func operandField(name string, o ast.Operand) field {
	children := []field{
		leaf("kind", string(o.Kind)),
		leaf("raw", o.Raw),
	}
	if o.Resolved != "" {
		children = append(children, leaf("resolved", o.Resolved))
	}
	return composite(name, o.Raw, children...)
}

func optionalOperand(name string, o *ast.Operand) []field {
	if o == nil {
		return nil
	}
	return []field{operandField(name, *o)}
}

func operandList(name string, ops []ast.Operand) []field {
	out := make([]field, 0, len(ops))
	for i, o := range ops {
		out = append(out, operandField(indexed(name, i), o))
	}
	return out
}

func conditionField(name string, c ast.CompareNode) field {
	return composite(name, c.Left.Raw+" "+c.Operator+" "+c.Right.Raw,
		operandField("left", c.Left),
		leaf("operator", c.Operator),
		operandField("right", c.Right),
	)
}

func roundingField(r *ast.Rounding) []field {
	if r == nil {
		return nil
	}
	return []field{leaf("rounding", "!"+r.String())}
}

func targetField(name string, t ast.Target) field {
	return leaf(name, t.String())
}

func indexed(name string, i int) string {
	return name + "[" + strconv.Itoa(i) + "]"
}

// fieldCollector flattens a node into its ordered field list. Field names
// follow the node's JSON names.
type fieldCollector struct {
	fields []field
}

func nodeFields(n ast.Node) ([]field, error) {
	c := &fieldCollector{}
	if err := n.Accept(c); err != nil {
		return nil, fmt.Errorf("collect fields: %w", err)
	}
	return append([]field{leaf("ins_type", strconv.Itoa(n.Meta().InsType))}, c.fields...), nil
}

func (c *fieldCollector) add(fs ...field) {
	c.fields = append(c.fields, fs...)
}

func (c *fieldCollector) VisitRaw(n ast.RawNode) error {
	c.add(leaf("value", n.Value), targetField("next", n.Next))
	return nil
}

func (c *fieldCollector) VisitCompare(n ast.CompareNode) error {
	c.add(operandField("left", n.Left), leaf("operator", n.Operator), operandField("right", n.Right))
	return nil
}

func (c *fieldCollector) VisitIf(n ast.IfNode) error {
	for i, cond := range n.Conditions {
		c.add(conditionField(indexed("conditions", i), cond))
	}
	c.add(
		leaf("joiner", string(n.Joiner)),
		leaf("negated", strconv.FormatBool(n.Negated)),
		targetField("true_target", n.True),
		targetField("false_target", n.False),
	)
	return nil
}

func (c *fieldCollector) VisitArithmetic(n ast.ArithmeticNode) error {
	c.add(optionalOperand("dest", n.Dest)...)
	c.add(operandField("left", n.Left), leaf("operator", n.Operator), operandField("right", n.Right))
	c.add(roundingField(n.Rounding)...)
	c.add(targetField("next", n.Next))
	return nil
}

func (c *fieldCollector) VisitFunction(n ast.FunctionNode) error {
	c.add(optionalOperand("dest", n.Dest)...)
	c.add(leaf("name", n.Name))
	c.add(operandList("args", n.Args)...)
	c.add(roundingField(n.Rounding)...)
	c.add(targetField("next", n.Next))
	return nil
}

func (c *fieldCollector) VisitAssignment(n ast.AssignmentNode) error {
	c.add(optionalOperand("dest", n.Dest)...)
	c.add(operandList("parts", n.Parts)...)
	c.add(targetField("next", n.Next))
	return nil
}

func (c *fieldCollector) VisitStringConcat(n ast.StringConcatNode) error {
	c.add(optionalOperand("dest", n.Dest)...)
	c.add(operandList("parts", n.Parts)...)
	c.add(targetField("next", n.Next))
	return nil
}

func (c *fieldCollector) VisitJump(n ast.JumpNode) error {
	c.add(targetField("target", n.Target))
	return nil
}

func (c *fieldCollector) VisitMask(n ast.MaskNode) error {
	c.add(optionalOperand("dest", n.Dest)...)
	c.add(operandField("left", n.Left), operandField("right", n.Right), targetField("next", n.Next))
	return nil
}

func (c *fieldCollector) VisitQueryDataSource(n ast.QueryDataSourceNode) error {
	c.add(operandList("args", n.Args)...)
	c.add(targetField("next", n.Next))
	return nil
}

func (c *fieldCollector) VisitRankFlag(n ast.RankFlagNode) error {
	c.add(operandList("args", n.Args)...)
	c.add(targetField("next", n.Next))
	return nil
}

func (c *fieldCollector) VisitSetUnderwritingFail(n ast.SetUnderwritingFailNode) error {
	c.add(targetField("next", n.Next))
	return nil
}

func (c *fieldCollector) VisitEmpty(n ast.EmptyNode) error {
	c.add(targetField("next", n.Next))
	return nil
}
