package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/roach88/ratelens/internal/ast"
)

//go:embed opcodes.yaml
var defaultTable []byte

//go:embed schema.cue
var schemaCUE string

// ErrUnknownOpcode is returned when a code has no catalog entry.
var ErrUnknownOpcode = errors.New("unknown opcode")

// Unbounded is the MaxArgs value meaning "no upper limit".
const Unbounded = -1

// Entry describes one instruction type.
type Entry struct {
	Code     int        `json:"code"`
	Name     string     `json:"name"`
	Label    string     `json:"label"`
	Template ast.Kind   `json:"template"`
	MinArgs  int        `json:"min_args"`
	MaxArgs  int        `json:"max_args"`
	Joiner   ast.Joiner `json:"joiner,omitempty"`
	Negated  bool       `json:"negated,omitempty"`

	// Predicate is the right-hand literal of IS_* checks.
	Predicate string `json:"predicate,omitempty"`
}

// IsPredicate reports whether the entry is a single-operand IS_* check.
func (e Entry) IsPredicate() bool {
	return e.Predicate != ""
}

// AcceptsArgs reports whether n operand segments fit the entry's bounds.
func (e Entry) AcceptsArgs(n int) bool {
	if n < e.MinArgs {
		return false
	}
	return e.MaxArgs == Unbounded || n <= e.MaxArgs
}

// Catalog is an immutable opcode table.
type Catalog struct {
	version  string
	entries  map[int]Entry
	codes    []int
	prefixes map[string]bool
}

type rawEntry struct {
	Code      int    `yaml:"code"`
	Name      string `yaml:"name"`
	Template  string `yaml:"template"`
	Label     string `yaml:"label"`
	Joiner    string `yaml:"joiner"`
	Negated   bool   `yaml:"negated"`
	Predicate string `yaml:"predicate"`
	MinArgs   *int   `yaml:"min_args"`
	MaxArgs   *int   `yaml:"max_args"`
}

type rawTable struct {
	Version          string     `yaml:"version"`
	VariablePrefixes []string   `yaml:"variable_prefixes"`
	Opcodes          []rawEntry `yaml:"opcodes"`
}

// defaultArity gives the operand bounds of each template when an entry
// does not override them. IF bounds count segments per condition.
var defaultArity = map[ast.Kind][2]int{
	ast.KindIf:           {3, 3},
	ast.KindCompare:      {3, 3},
	ast.KindArithmetic:   {3, 3},
	ast.KindMask:         {2, 2},
	ast.KindFunction:     {1, Unbounded},
	ast.KindAssignment:   {1, Unbounded},
	ast.KindStringConcat: {1, Unbounded},
}

var loadDefault = sync.OnceValues(func() (*Catalog, error) {
	return Load(defaultTable)
})

// Default returns the embedded catalog. It is loaded once per process.
func Default() (*Catalog, error) {
	return loadDefault()
}

// MustDefault is like Default but panics on error.
// Use only in tests or when the embedded table is known to be valid.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

// Load parses and validates a YAML opcode table.
func Load(data []byte) (*Catalog, error) {
	if err := validateSchema(data); err != nil {
		return nil, err
	}

	var raw rawTable
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c := &Catalog{
		version:  raw.Version,
		entries:  make(map[int]Entry, len(raw.Opcodes)),
		prefixes: make(map[string]bool, len(raw.VariablePrefixes)),
	}
	for _, p := range raw.VariablePrefixes {
		c.prefixes[p] = true
	}

	title := cases.Title(language.English)
	for i, re := range raw.Opcodes {
		if _, dup := c.entries[re.Code]; dup {
			return nil, fmt.Errorf("catalog: opcodes[%d]: duplicate code %d", i, re.Code)
		}
		tmpl := ast.Kind(re.Template)
		if !tmpl.Valid() {
			return nil, fmt.Errorf("catalog: opcodes[%d]: unknown template %q", i, re.Template)
		}

		e := Entry{
			Code:      re.Code,
			Name:      re.Name,
			Label:     re.Label,
			Template:  tmpl,
			Joiner:    ast.Joiner(re.Joiner),
			Negated:   re.Negated,
			Predicate: re.Predicate,
			MinArgs:   0,
			MaxArgs:   Unbounded,
		}
		if e.Label == "" {
			e.Label = title.String(strings.ReplaceAll(strings.ToLower(re.Name), "_", " "))
		}
		if tmpl == ast.KindIf && e.Joiner == "" {
			e.Joiner = ast.JoinAnd
		}
		if bounds, ok := defaultArity[tmpl]; ok {
			e.MinArgs, e.MaxArgs = bounds[0], bounds[1]
		}
		if re.MinArgs != nil {
			e.MinArgs = *re.MinArgs
		}
		if re.MaxArgs != nil {
			e.MaxArgs = *re.MaxArgs
		}
		if e.MaxArgs != Unbounded && e.MaxArgs < e.MinArgs {
			return nil, fmt.Errorf("catalog: opcode %d: max_args %d below min_args %d", e.Code, e.MaxArgs, e.MinArgs)
		}

		c.entries[e.Code] = e
		c.codes = append(c.codes, e.Code)
	}
	sort.Ints(c.codes)

	return c, nil
}

// validateSchema checks the raw table against the embedded CUE schema.
func validateSchema(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse catalog: %w", err)
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile catalog schema: %w", err)
	}

	value := schema.LookupPath(cue.ParsePath("#Catalog")).Unify(ctx.Encode(doc))
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("catalog schema: %w", err)
	}
	return nil
}

// Lookup returns the entry for code.
func (c *Catalog) Lookup(code int) (Entry, error) {
	e, ok := c.entries[code]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %d", ErrUnknownOpcode, code)
	}
	return e, nil
}

// Label returns the display label for code, or "Type N" when the code is
// not in the catalog.
func (c *Catalog) Label(code int) string {
	if e, ok := c.entries[code]; ok {
		return e.Label
	}
	return fmt.Sprintf("Type %d", code)
}

// Entries returns every entry ordered by code.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, 0, len(c.codes))
	for _, code := range c.codes {
		out = append(out, c.entries[code])
	}
	return out
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.codes)
}

// Version returns the table version string.
func (c *Catalog) Version() string {
	return c.version
}

// Templates returns the distinct template ids referenced by the catalog,
// sorted.
func (c *Catalog) Templates() []ast.Kind {
	seen := make(map[ast.Kind]bool)
	var out []ast.Kind
	for _, e := range c.entries {
		if !seen[e.Template] {
			seen[e.Template] = true
			out = append(out, e.Template)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// IsVariablePrefix reports whether p is a known two-letter variable prefix.
func (c *Catalog) IsVariablePrefix(p string) bool {
	return c.prefixes[p]
}
