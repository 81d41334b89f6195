package ast

// BranchLabel names an outgoing control-flow edge.
type BranchLabel string

const (
	BranchTrue  BranchLabel = "true"
	BranchFalse BranchLabel = "false"
	BranchNext  BranchLabel = "next"
	BranchJump  BranchLabel = "jump"
)

// Branch is one outgoing edge as recorded on a node.
type Branch struct {
	Label  BranchLabel
	Target Target
}

// Branches returns the outgoing edges recorded on n, in a fixed order:
// true before false for IfNode. A CompareNode has none.
func Branches(n Node) []Branch {
	var c branchCollector
	_ = n.Accept(&c)
	return c.out
}

type branchCollector struct {
	out []Branch
}

func (c *branchCollector) next(t Target) error {
	c.out = []Branch{{Label: BranchNext, Target: t}}
	return nil
}

func (c *branchCollector) VisitRaw(n RawNode) error { return c.next(n.Next) }

func (c *branchCollector) VisitCompare(CompareNode) error { return nil }

func (c *branchCollector) VisitIf(n IfNode) error {
	c.out = []Branch{
		{Label: BranchTrue, Target: n.True},
		{Label: BranchFalse, Target: n.False},
	}
	return nil
}

func (c *branchCollector) VisitArithmetic(n ArithmeticNode) error { return c.next(n.Next) }
func (c *branchCollector) VisitFunction(n FunctionNode) error     { return c.next(n.Next) }
func (c *branchCollector) VisitAssignment(n AssignmentNode) error { return c.next(n.Next) }
func (c *branchCollector) VisitStringConcat(n StringConcatNode) error {
	return c.next(n.Next)
}

func (c *branchCollector) VisitJump(n JumpNode) error {
	c.out = []Branch{{Label: BranchJump, Target: n.Target}}
	return nil
}

func (c *branchCollector) VisitMask(n MaskNode) error { return c.next(n.Next) }
func (c *branchCollector) VisitQueryDataSource(n QueryDataSourceNode) error {
	return c.next(n.Next)
}
func (c *branchCollector) VisitRankFlag(n RankFlagNode) error { return c.next(n.Next) }
func (c *branchCollector) VisitSetUnderwritingFail(n SetUnderwritingFailNode) error {
	return c.next(n.Next)
}
func (c *branchCollector) VisitEmpty(n EmptyNode) error { return c.next(n.Next) }
