package ast

// Kind identifies a node variant. Kinds double as template ids in the
// opcode catalog and the template table.
type Kind string

const (
	KindRaw                 Kind = "raw"
	KindCompare             Kind = "compare"
	KindIf                  Kind = "if"
	KindArithmetic          Kind = "arithmetic"
	KindFunction            Kind = "function"
	KindAssignment          Kind = "assignment"
	KindStringConcat        Kind = "string_concat"
	KindJump                Kind = "jump"
	KindMask                Kind = "mask"
	KindQueryDataSource     Kind = "query_data_source"
	KindRankFlag            Kind = "rank_flag"
	KindSetUnderwritingFail Kind = "set_underwriting_fail"
	KindEmpty               Kind = "empty"
)

var allKinds = []Kind{
	KindRaw,
	KindCompare,
	KindIf,
	KindArithmetic,
	KindFunction,
	KindAssignment,
	KindStringConcat,
	KindJump,
	KindMask,
	KindQueryDataSource,
	KindRankFlag,
	KindSetUnderwritingFail,
	KindEmpty,
}

// AllKinds returns every node variant in declaration order.
func AllKinds() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds)
	return out
}

// Valid reports whether k names a known variant.
func (k Kind) Valid() bool {
	for _, known := range allKinds {
		if k == known {
			return true
		}
	}
	return false
}

func (k Kind) String() string {
	return string(k)
}
