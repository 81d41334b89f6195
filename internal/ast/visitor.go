package ast

// Visitor dispatches on node variant. Implement it to render, compare, or
// analyze nodes; every variant must be handled.
type Visitor interface {
	VisitRaw(RawNode) error
	VisitCompare(CompareNode) error
	VisitIf(IfNode) error
	VisitArithmetic(ArithmeticNode) error
	VisitFunction(FunctionNode) error
	VisitAssignment(AssignmentNode) error
	VisitStringConcat(StringConcatNode) error
	VisitJump(JumpNode) error
	VisitMask(MaskNode) error
	VisitQueryDataSource(QueryDataSourceNode) error
	VisitRankFlag(RankFlagNode) error
	VisitSetUnderwritingFail(SetUnderwritingFailNode) error
	VisitEmpty(EmptyNode) error
}
