package decoder

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/roach88/ratelens/internal/ast"
)

// segment is the grammar of a single operand segment. Exactly one token.
type segment struct {
	Category *string `  @Category`
	Index    *string `| @Index`
	Variable *string `| @Variable`
	Literal  *string `| @Literal`
}

// Rule order matters: variables must win over the catch-all literal.
var segmentLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Category", Pattern: `\[[^\[\]{}|]*\]`},
	{Name: "Index", Pattern: `\{[^\[\]{}|]*\}`},
	{Name: "Variable", Pattern: `[~D]?[A-Z]{2}_\d+(?:\.\d+)?\b`},
	{Name: "Literal", Pattern: `[^\[\]{}|]+`},
})

func buildSegmentParser() (*participle.Parser[segment], error) {
	return participle.Build[segment](
		participle.Lexer(segmentLexer),
	)
}

// tokenize converts one segment into an Operand.
func (d *Decoder) tokenize(step int, text string) (ast.Operand, error) {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return ast.Literal(step, ""), nil
	}

	seg, err := d.parser.ParseString("", raw)
	if err != nil {
		// Without brackets or braces any text is a plain word.
		if !strings.ContainsAny(raw, "[]{}") {
			return ast.Operand{Step: step, Kind: ast.OperandLiteral, Raw: raw, Value: raw}, nil
		}
		return ast.Operand{}, malformed("segment %q: %v", raw, err)
	}

	op := ast.Operand{Step: step, Raw: raw}
	switch {
	case seg.Category != nil:
		op.Kind = ast.OperandCategoryItem
		op.Value = strings.TrimSpace(strings.Trim(*seg.Category, "[]"))
	case seg.Index != nil:
		op.Kind = ast.OperandTableIndex
		op.Value = strings.TrimSpace(strings.Trim(*seg.Index, "{}"))
	case seg.Variable != nil:
		key := *seg.Variable
		if key[2] != '_' {
			// leading ~ or D modifier
			key = key[1:]
		}
		if !d.catalog.IsVariablePrefix(key[:2]) {
			op.Kind = ast.OperandLiteral
			op.Value = raw
			return op, nil
		}
		op.Kind = ast.OperandVariable
		op.Value = key
		op.Resolved = d.resolve(key)
	default:
		op.Kind = ast.OperandLiteral
		op.Value = *seg.Literal
	}
	return op, nil
}

// resolve looks a variable up in the dictionary, falling back to the key
// without its sub-id.
func (d *Decoder) resolve(key string) string {
	if d.resolver == nil {
		return ""
	}
	if desc, ok := d.resolver.Resolve(key); ok {
		return desc
	}
	if base, _, found := strings.Cut(key, "."); found {
		if desc, ok := d.resolver.Resolve(base); ok {
			return desc
		}
	}
	return ""
}
