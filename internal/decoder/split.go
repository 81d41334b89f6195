package decoder

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/roach88/ratelens/internal/ast"
)

var roundingPattern = regexp.MustCompile(`^(.*?)\s*!([A-Z]{1,2})(\d*)$`)

var roundingModes = map[string]bool{
	"R":  true,
	"RP": true,
	"RM": true,
	"RN": true,
	"RS": true,
	"NR": true,
}

var compareOperators = map[string]bool{
	"=":  true,
	"<>": true,
	"!=": true,
	">":  true,
	"<":  true,
	">=": true,
	"<=": true,
	"@":  true,
}

var arithmeticOperators = map[string]bool{
	"+": true,
	"-": true,
	"*": true,
	"/": true,
	"^": true,
	"%": true,
	"&": true,
	"@": true,
}

// splitSegments strips one leading and one trailing pipe and splits the
// rest on pipes. An empty operand string yields no segments.
func splitSegments(s string) []string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "|")
	s = strings.TrimSuffix(s, "|")
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Split(s, "|")
}

// splitConditions splits a multi-IF operand string on ^ outside brackets.
func splitConditions(s string) []string {
	var (
		parts []string
		depth int
		start int
	)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[', '{':
			depth++
		case ']', '}':
			if depth > 0 {
				depth--
			}
		case '^':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

// extractRounding removes a trailing rounding suffix from segs. The suffix
// may be its own segment (GI_1|+|2|!R2) or glued onto the last
// operand (GI_1|+|2!R2).
func extractRounding(segs []string) ([]string, *ast.Rounding, error) {
	if len(segs) == 0 {
		return segs, nil, nil
	}
	last := strings.TrimSpace(segs[len(segs)-1])
	if !strings.Contains(last, "!") {
		return segs, nil, nil
	}

	m := roundingPattern.FindStringSubmatch(last)
	if m == nil {
		return nil, nil, malformed("rounding spec %q", last)
	}
	mode, digits := m[2], m[3]
	if !roundingModes[mode] {
		return nil, nil, malformed("rounding mode %q", mode)
	}

	r := &ast.Rounding{Mode: mode}
	if digits != "" {
		n, err := strconv.Atoi(digits)
		if err != nil {
			return nil, nil, malformed("rounding places %q", digits)
		}
		r.Places = n
		r.HasPlaces = true
	}

	out := make([]string, len(segs)-1, len(segs))
	copy(out, segs[:len(segs)-1])
	if strings.TrimSpace(m[1]) != "" {
		out = append(out, m[1])
	}
	return out, r, nil
}
