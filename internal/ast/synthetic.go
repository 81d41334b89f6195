package ast

import "fmt"

// Synthetic returns a minimal, fully populated instance of the given
// variant. Used by startup self-checks to exercise every template.
func Synthetic(kind Kind) (Node, error) {
	h := Header{Step: 1, InsType: 0}
	left := Operand{Step: 1, Kind: OperandVariable, Raw: "GI_1", Value: "GI_1"}
	right := Literal(1, "1")
	cmp := CompareNode{Header: h, Left: left, Operator: "=", Right: right}

	switch kind {
	case KindRaw:
		return RawNode{Header: h, Value: "raw", Next: FallThrough()}, nil
	case KindCompare:
		return cmp, nil
	case KindIf:
		return IfNode{Header: h, Conditions: []CompareNode{cmp}, Joiner: JoinAnd, True: StepTarget(2), False: Done()}, nil
	case KindArithmetic:
		return ArithmeticNode{Header: h, Left: left, Operator: "+", Right: right, Rounding: &Rounding{Mode: "R", Places: 2, HasPlaces: true}}, nil
	case KindFunction:
		return FunctionNode{Header: h, Name: "SQRT", Args: []Operand{left}}, nil
	case KindAssignment:
		return AssignmentNode{Header: h, Dest: &left, Parts: []Operand{right}}, nil
	case KindStringConcat:
		return StringConcatNode{Header: h, Parts: []Operand{left, right}}, nil
	case KindJump:
		return JumpNode{Header: h, Target: Done()}, nil
	case KindMask:
		return MaskNode{Header: h, Left: left, Right: right}, nil
	case KindQueryDataSource:
		return QueryDataSourceNode{Header: h}, nil
	case KindRankFlag:
		return RankFlagNode{Header: h}, nil
	case KindSetUnderwritingFail:
		return SetUnderwritingFailNode{Header: h}, nil
	case KindEmpty:
		return EmptyNode{Header: h}, nil
	default:
		return nil, fmt.Errorf("unknown node kind %q", kind)
	}
}
