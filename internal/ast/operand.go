package ast

import (
	"strconv"
	"strings"
)

// OperandKind classifies a decoded operand segment.
type OperandKind string

const (
	OperandLiteral      OperandKind = "literal"
	OperandVariable     OperandKind = "variable"
	OperandCategoryItem OperandKind = "category_item"
	OperandTableIndex   OperandKind = "table_index"
)

// Operand is one decoded value reference.
//
// Raw keeps the segment exactly as it appeared (trimmed of surrounding
// whitespace). Value is the payload with markers removed: brackets for
// category items and table indexes, the leading ~ or D modifier for
// variables. Resolved carries a dictionary description when one was found.
type Operand struct {
	Step     int         `json:"step"`
	Kind     OperandKind `json:"kind"`
	Raw      string      `json:"raw"`
	Value    string      `json:"value"`
	Resolved string      `json:"resolved,omitempty"`
}

// Literal builds a literal operand.
func Literal(step int, text string) Operand {
	return Operand{Step: step, Kind: OperandLiteral, Raw: text, Value: text}
}

// IsBlank reports whether the operand carries no text.
func (o Operand) IsBlank() bool {
	return strings.TrimSpace(o.Value) == "" && strings.TrimSpace(o.Raw) == ""
}

// Rounding describes a rounding suffix such as !R2 or !RN.
type Rounding struct {
	Mode      string `json:"mode"`
	Places    int    `json:"places"`
	HasPlaces bool   `json:"has_places"`
}

// String returns the rounding spec in its source form without the leading !.
func (r Rounding) String() string {
	if r.HasPlaces {
		return r.Mode + strconv.Itoa(r.Places)
	}
	return r.Mode
}
