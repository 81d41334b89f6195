package render

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/ratelens/internal/ast"
	"github.com/roach88/ratelens/internal/catalog"
)

// ErrMissingTemplate is returned when a node variant has no pattern.
var ErrMissingTemplate = errors.New("missing template")

const (
	fallThroughText = "the next step"
	noRounding      = "NR"
)

// Renderer renders nodes with a catalog for labels and a template table for
// bodies. It is safe for concurrent use.
type Renderer struct {
	catalog *catalog.Catalog
	table   *Table
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithTable replaces the embedded template table.
func WithTable(t *Table) Option {
	return func(r *Renderer) {
		r.table = t
	}
}

// New builds a Renderer and runs SelfCheck.
func New(c *catalog.Catalog, opts ...Option) (*Renderer, error) {
	if c == nil {
		return nil, errors.New("render: nil catalog")
	}
	r := &Renderer{catalog: c}
	for _, opt := range opts {
		opt(r)
	}
	if r.table == nil {
		t, err := DefaultTable()
		if err != nil {
			return nil, err
		}
		r.table = t
	}
	if err := r.SelfCheck(); err != nil {
		return nil, err
	}
	return r, nil
}

// TemplateVersion returns the version of the template table in use.
func (r *Renderer) TemplateVersion() string {
	return r.table.Version()
}

// Render returns the markdown explanation of one node:
//
//	**<label>**: <body>
//
// An EmptyNode renders as its bare template text.
func (r *Renderer) Render(n ast.Node) (string, error) {
	body, err := r.body(n)
	if err != nil {
		return "", err
	}
	if n.Kind() == ast.KindEmpty {
		return body, nil
	}
	return fmt.Sprintf("**%s**: %s", r.catalog.Label(n.Meta().InsType), body), nil
}

func (r *Renderer) body(n ast.Node) (string, error) {
	tmpl, err := r.table.lookup(n.Kind())
	if err != nil {
		return "", err
	}

	b := &viewBuilder{r: r}
	if err := n.Accept(b); err != nil {
		return "", err
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, b.view); err != nil {
		return "", fmt.Errorf("render %s: %w", n.Kind(), err)
	}
	return sb.String(), nil
}

// view is the data every pattern executes against. Fields a variant does
// not use stay empty.
type view struct {
	Value     string
	Left      string
	Operator  string
	Right     string
	Condition string
	True      string
	False     string
	Target    string
	Next      string
	Dest      string
	Name      string
	Args      string
	Parts     string
	Rounding  string
}

type viewBuilder struct {
	r    *Renderer
	view view
}

func (b *viewBuilder) VisitRaw(n ast.RawNode) error {
	b.view.Value = n.Value
	b.view.Next = nextText(n.Next)
	return nil
}

func (b *viewBuilder) VisitCompare(n ast.CompareNode) error {
	b.view.Left = operandText(n.Left)
	b.view.Operator = n.Operator
	b.view.Right = operandText(n.Right)
	return nil
}

func (b *viewBuilder) VisitIf(n ast.IfNode) error {
	conds := make([]string, 0, len(n.Conditions))
	for _, c := range n.Conditions {
		text, err := b.r.body(c)
		if err != nil {
			return err
		}
		conds = append(conds, text)
	}

	joined := strings.Join(conds, " **"+string(n.Joiner)+"** ")
	if n.Negated {
		joined = "**NOT** (" + joined + ")"
	}
	b.view.Condition = joined
	b.view.True = targetText(n.True)
	b.view.False = targetText(n.False)
	return nil
}

func (b *viewBuilder) VisitArithmetic(n ast.ArithmeticNode) error {
	b.view.Dest = destText(n.Dest)
	b.view.Left = operandText(n.Left)
	b.view.Operator = n.Operator
	b.view.Right = operandText(n.Right)
	b.view.Rounding = b.r.roundingText(n.Rounding)
	b.view.Next = nextText(n.Next)
	return nil
}

func (b *viewBuilder) VisitFunction(n ast.FunctionNode) error {
	b.view.Dest = destText(n.Dest)
	b.view.Name = n.Name
	b.view.Args = argsText(n.Args)
	b.view.Rounding = b.r.roundingText(n.Rounding)
	b.view.Next = nextText(n.Next)
	return nil
}

func (b *viewBuilder) VisitAssignment(n ast.AssignmentNode) error {
	b.view.Dest = destText(n.Dest)
	b.view.Parts = partsText(n.Parts)
	b.view.Next = nextText(n.Next)
	return nil
}

func (b *viewBuilder) VisitStringConcat(n ast.StringConcatNode) error {
	b.view.Dest = destText(n.Dest)
	b.view.Parts = partsText(n.Parts)
	b.view.Next = nextText(n.Next)
	return nil
}

func (b *viewBuilder) VisitJump(n ast.JumpNode) error {
	b.view.Target = targetText(n.Target)
	return nil
}

func (b *viewBuilder) VisitMask(n ast.MaskNode) error {
	b.view.Dest = destText(n.Dest)
	b.view.Left = operandText(n.Left)
	b.view.Right = operandText(n.Right)
	b.view.Next = nextText(n.Next)
	return nil
}

func (b *viewBuilder) VisitQueryDataSource(n ast.QueryDataSourceNode) error {
	b.view.Args = argsText(n.Args)
	b.view.Next = nextText(n.Next)
	return nil
}

func (b *viewBuilder) VisitRankFlag(n ast.RankFlagNode) error {
	b.view.Args = argsText(n.Args)
	b.view.Next = nextText(n.Next)
	return nil
}

func (b *viewBuilder) VisitSetUnderwritingFail(n ast.SetUnderwritingFailNode) error {
	b.view.Next = nextText(n.Next)
	return nil
}

func (b *viewBuilder) VisitEmpty(n ast.EmptyNode) error {
	b.view.Next = nextText(n.Next)
	return nil
}

// targetText renders a branch target. DONE is always the literal marker.
func targetText(t ast.Target) string {
	switch {
	case t.IsDone():
		return "DONE"
	case t.IsFallThrough():
		return fallThroughText
	}
	step, _ := t.Step()
	return "Step " + strconv.Itoa(step)
}

// nextText is targetText for sequential successors, empty on fall-through.
func nextText(t ast.Target) string {
	if t.IsFallThrough() {
		return ""
	}
	return targetText(t)
}

func operandText(o ast.Operand) string {
	switch o.Kind {
	case ast.OperandVariable:
		text := "`" + o.Raw + "`"
		if o.Resolved != "" {
			text += " (" + o.Resolved + ")"
		}
		return text
	case ast.OperandCategoryItem:
		if o.Value == "" {
			return o.Raw
		}
		return "*" + o.Value + "*"
	case ast.OperandTableIndex:
		return "`" + o.Raw + "`"
	default:
		return o.Value
	}
}

func destText(d *ast.Operand) string {
	if d == nil || d.IsBlank() {
		return ""
	}
	return operandText(*d)
}

// partsText drops blank parts and joins the rest with one space, keeping
// the original order.
func partsText(parts []ast.Operand) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p.IsBlank() {
			continue
		}
		out = append(out, operandText(p))
	}
	return strings.Join(out, " ")
}

func argsText(args []ast.Operand) string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a.IsBlank() {
			continue
		}
		out = append(out, operandText(a))
	}
	return strings.Join(out, ", ")
}

func (r *Renderer) roundingText(rd *ast.Rounding) string {
	if rd == nil {
		return ""
	}
	phrase, ok := r.table.rounding[rd.Mode]
	if !ok {
		phrase = "rounded (" + rd.Mode + ")"
	}
	if rd.HasPlaces && rd.Mode != noRounding {
		phrase += fmt.Sprintf(" to %d places", rd.Places)
	}
	return " • " + phrase
}
