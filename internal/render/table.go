package render

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"
	"text/template"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/ratelens/internal/ast"
)

//go:embed templates.yaml
var defaultTable []byte

//go:embed schema.cue
var schemaCUE string

// Table is an immutable set of compiled rendering patterns.
type Table struct {
	version  string
	patterns map[ast.Kind]string
	compiled map[ast.Kind]*template.Template
	rounding map[string]string
}

type rawTable struct {
	Version   string            `yaml:"version"`
	Templates map[string]string `yaml:"templates"`
	Rounding  map[string]string `yaml:"rounding"`
}

var loadDefault = sync.OnceValues(func() (*Table, error) {
	return LoadTable(defaultTable)
})

// DefaultTable returns the embedded template table, loaded once.
func DefaultTable() (*Table, error) {
	return loadDefault()
}

// LoadTable parses, validates and compiles a YAML template table.
//
// A table may omit variants; the omission surfaces as ErrMissingTemplate
// when a Renderer is built on it.
func LoadTable(data []byte) (*Table, error) {
	if err := validateSchema(data); err != nil {
		return nil, err
	}

	var raw rawTable
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	t := &Table{
		version:  raw.Version,
		patterns: make(map[ast.Kind]string, len(raw.Templates)),
		compiled: make(map[ast.Kind]*template.Template, len(raw.Templates)),
		rounding: make(map[string]string, len(raw.Rounding)),
	}
	for id, pattern := range raw.Templates {
		kind := ast.Kind(id)
		if !kind.Valid() {
			return nil, fmt.Errorf("templates: unknown template id %q", id)
		}
		tmpl, err := template.New(id).Option("missingkey=error").Parse(pattern)
		if err != nil {
			return nil, fmt.Errorf("templates: %s: %w", id, err)
		}
		t.patterns[kind] = pattern
		t.compiled[kind] = tmpl
	}
	for mode, phrase := range raw.Rounding {
		t.rounding[mode] = phrase
	}
	return t, nil
}

func validateSchema(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile template schema: %w", err)
	}

	value := schema.LookupPath(cue.ParsePath("#Table")).Unify(ctx.Encode(doc))
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("template schema: %w", err)
	}
	return nil
}

// Version returns the table version string.
func (t *Table) Version() string {
	return t.version
}

// Pattern returns the source pattern for kind.
func (t *Table) Pattern(kind ast.Kind) (string, bool) {
	p, ok := t.patterns[kind]
	return p, ok
}

// Kinds returns the variants the table covers, sorted.
func (t *Table) Kinds() []ast.Kind {
	out := make([]ast.Kind, 0, len(t.patterns))
	for k := range t.patterns {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (t *Table) lookup(kind ast.Kind) (*template.Template, error) {
	tmpl, ok := t.compiled[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingTemplate, kind)
	}
	return tmpl, nil
}
