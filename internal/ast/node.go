package ast

// Header carries the origin of a node: the instruction's step number and
// its opcode.
type Header struct {
	Step    int `json:"step"`
	InsType int `json:"ins_type"`
}

// Meta returns the header. Promoted onto every variant.
func (h Header) Meta() Header { return h }

// Node is any decoded instruction.
type Node interface {
	Kind() Kind
	Meta() Header
	Accept(v Visitor) error
}

// Joiner combines the conditions of an IfNode.
type Joiner string

const (
	JoinAnd Joiner = "AND"
	JoinOr  Joiner = "OR"
)

// RawNode holds an instruction kept verbatim.
type RawNode struct {
	Header
	Value string `json:"value"`
	Next  Target `json:"next"`
}

// CompareNode is one comparison: left operator right.
type CompareNode struct {
	Header
	Left     Operand `json:"left"`
	Operator string  `json:"operator"`
	Right    Operand `json:"right"`
}

// IfNode evaluates its conditions in order, combined by Joiner. When Negated
// is set the combined result is inverted (the "IF No" family).
type IfNode struct {
	Header
	Conditions []CompareNode `json:"conditions"`
	Joiner     Joiner        `json:"joiner"`
	Negated    bool          `json:"negated"`
	True       Target        `json:"true_target"`
	False      Target        `json:"false_target"`
}

// ArithmeticNode computes left operator right into Dest.
type ArithmeticNode struct {
	Header
	Dest     *Operand  `json:"dest,omitempty"`
	Left     Operand   `json:"left"`
	Operator string    `json:"operator"`
	Right    Operand   `json:"right"`
	Rounding *Rounding `json:"rounding,omitempty"`
	Next     Target    `json:"next"`
}

// FunctionNode applies a named function to its arguments.
type FunctionNode struct {
	Header
	Dest     *Operand  `json:"dest,omitempty"`
	Name     string    `json:"name"`
	Args     []Operand `json:"args"`
	Rounding *Rounding `json:"rounding,omitempty"`
	Next     Target    `json:"next"`
}

// AssignmentNode stores its parts into Dest.
type AssignmentNode struct {
	Header
	Dest  *Operand  `json:"dest,omitempty"`
	Parts []Operand `json:"parts"`
	Next  Target    `json:"next"`
}

// StringConcatNode concatenates its parts into Dest.
type StringConcatNode struct {
	Header
	Dest  *Operand  `json:"dest,omitempty"`
	Parts []Operand `json:"parts"`
	Next  Target    `json:"next"`
}

// JumpNode transfers control unconditionally.
type JumpNode struct {
	Header
	Target Target `json:"target"`
}

// MaskNode applies Right as a mask over Left.
type MaskNode struct {
	Header
	Dest  *Operand `json:"dest,omitempty"`
	Left  Operand  `json:"left"`
	Right Operand  `json:"right"`
	Next  Target   `json:"next"`
}

// QueryDataSourceNode calls an external data source.
type QueryDataSourceNode struct {
	Header
	Args []Operand `json:"args"`
	Next Target    `json:"next"`
}

// RankFlagNode is one of the driver/vehicle ranking, flagging and
// assignment operations. The opcode alone determines the operation.
type RankFlagNode struct {
	Header
	Args []Operand `json:"args"`
	Next Target    `json:"next"`
}

// SetUnderwritingFailNode marks the policy as failing underwriting.
type SetUnderwritingFailNode struct {
	Header
	Next Target `json:"next"`
}

// EmptyNode is a no-op.
type EmptyNode struct {
	Header
	Next Target `json:"next"`
}

func (RawNode) Kind() Kind                 { return KindRaw }
func (CompareNode) Kind() Kind             { return KindCompare }
func (IfNode) Kind() Kind                  { return KindIf }
func (ArithmeticNode) Kind() Kind          { return KindArithmetic }
func (FunctionNode) Kind() Kind            { return KindFunction }
func (AssignmentNode) Kind() Kind          { return KindAssignment }
func (StringConcatNode) Kind() Kind        { return KindStringConcat }
func (JumpNode) Kind() Kind                { return KindJump }
func (MaskNode) Kind() Kind                { return KindMask }
func (QueryDataSourceNode) Kind() Kind     { return KindQueryDataSource }
func (RankFlagNode) Kind() Kind            { return KindRankFlag }
func (SetUnderwritingFailNode) Kind() Kind { return KindSetUnderwritingFail }
func (EmptyNode) Kind() Kind               { return KindEmpty }

func (n RawNode) Accept(v Visitor) error                 { return v.VisitRaw(n) }
func (n CompareNode) Accept(v Visitor) error             { return v.VisitCompare(n) }
func (n IfNode) Accept(v Visitor) error                  { return v.VisitIf(n) }
func (n ArithmeticNode) Accept(v Visitor) error          { return v.VisitArithmetic(n) }
func (n FunctionNode) Accept(v Visitor) error            { return v.VisitFunction(n) }
func (n AssignmentNode) Accept(v Visitor) error          { return v.VisitAssignment(n) }
func (n StringConcatNode) Accept(v Visitor) error        { return v.VisitStringConcat(n) }
func (n JumpNode) Accept(v Visitor) error                { return v.VisitJump(n) }
func (n MaskNode) Accept(v Visitor) error                { return v.VisitMask(n) }
func (n QueryDataSourceNode) Accept(v Visitor) error     { return v.VisitQueryDataSource(n) }
func (n RankFlagNode) Accept(v Visitor) error            { return v.VisitRankFlag(n) }
func (n SetUnderwritingFailNode) Accept(v Visitor) error { return v.VisitSetUnderwritingFail(n) }
func (n EmptyNode) Accept(v Visitor) error               { return v.VisitEmpty(n) }

// Envelope pairs a node with its kind for serialization.
type Envelope struct {
	Kind Kind `json:"kind"`
	Node Node `json:"node"`
}

// Wrap returns the envelope for n.
func Wrap(n Node) Envelope {
	return Envelope{Kind: n.Kind(), Node: n}
}
