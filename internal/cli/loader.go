package cli

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	cueyaml "cuelang.org/go/encoding/yaml"
	"gopkg.in/yaml.v3"

	"github.com/roach88/ratelens/internal/catalog"
	"github.com/roach88/ratelens/internal/decoder"
	"github.com/roach88/ratelens/internal/graph"
	"github.com/roach88/ratelens/internal/ir"
	"github.com/roach88/ratelens/internal/render"
)

//go:embed schema/program.cue
var programSchema string

// LoadError represents an error that occurred while loading an input file.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeUnsupported = "E003" // Unsupported file extension
	ErrCodeLoadFailed  = "E004" // File could not be parsed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeSchema      = "E006" // Program does not match #Program
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeStore       = "E008" // Version store error

	// Decode errors
	ErrCodeUnknownOpcode    = "E201"
	ErrCodeMalformedOperand = "E202"
	ErrCodeArityMismatch    = "E203"

	// Assembly errors
	ErrCodeDanglingTarget = "E301"
	ErrCodeDuplicateStep  = "E302"

	// Configuration errors
	ErrCodeMissingTemplate = "E401"
	ErrCodeInvalidTable    = "E402"
)

// MapErrorCode maps a core error to its CLI error code.
func MapErrorCode(err error) string {
	var loadErr *LoadError
	switch {
	case errors.As(err, &loadErr):
		return loadErr.Code
	case errors.Is(err, decoder.ErrUnknownOpcode):
		return ErrCodeUnknownOpcode
	case errors.Is(err, decoder.ErrMalformedOperand):
		return ErrCodeMalformedOperand
	case errors.Is(err, decoder.ErrArityMismatch):
		return ErrCodeArityMismatch
	case errors.Is(err, graph.ErrDanglingTarget):
		return ErrCodeDanglingTarget
	case errors.Is(err, graph.ErrDuplicateStep):
		return ErrCodeDuplicateStep
	case errors.Is(err, render.ErrMissingTemplate):
		return ErrCodeMissingTemplate
	default:
		return ErrCodeGeneric
	}
}

// LoadProgram reads a program from a .json, .yaml/.yml or .cue file and
// validates it against the #Program schema.
func LoadProgram(path string) (ir.Program, error) {
	data, err := readInput(path)
	if err != nil {
		return ir.Program{}, err
	}

	ctx := cuecontext.New()
	var value cue.Value
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".cue":
		// JSON is valid CUE.
		value = ctx.CompileBytes(data, cue.Filename(path))
	case ".yaml", ".yml":
		f, err := cueyaml.Extract(path, data)
		if err != nil {
			return ir.Program{}, &LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}
		}
		value = ctx.BuildFile(f)
	default:
		return ir.Program{}, &LoadError{
			Code:    ErrCodeUnsupported,
			Message: fmt.Sprintf("unsupported program file %s: want .json, .yaml, .yml or .cue", path),
		}
	}
	if err := value.Err(); err != nil {
		return ir.Program{}, cueLoadError(ErrCodeLoadFailed, err)
	}

	schema := ctx.CompileString(programSchema, cue.Filename("program.cue"))
	if err := schema.Err(); err != nil {
		return ir.Program{}, fmt.Errorf("compile program schema: %w", err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Program")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return ir.Program{}, cueLoadError(ErrCodeSchema, err)
	}

	var p ir.Program
	if err := unified.Decode(&p); err != nil {
		return ir.Program{}, cueLoadError(ErrCodeSchema, err)
	}
	return p, nil
}

// LoadDictionary reads a YAML map of variable keys to descriptions.
func LoadDictionary(path string) (decoder.Dictionary, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, err
	}
	var dict map[string]string
	if err := yaml.Unmarshal(data, &dict); err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("parse dictionary %s: %v", path, err)}
	}
	return decoder.Dictionary(dict), nil
}

// loadCatalog returns the embedded catalog, or the one at path.
func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	data, err := readInput(path)
	if err != nil {
		return nil, err
	}
	c, err := catalog.Load(data)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeInvalidTable, Message: fmt.Sprintf("catalog %s: %v", path, err)}
	}
	return c, nil
}

// loadTemplates returns nil for the embedded table, or the one at path.
func loadTemplates(path string) (*render.Table, error) {
	if path == "" {
		return nil, nil
	}
	data, err := readInput(path)
	if err != nil {
		return nil, err
	}
	t, err := render.LoadTable(data)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeInvalidTable, Message: fmt.Sprintf("templates %s: %v", path, err)}
	}
	return t, nil
}

func readInput(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("file not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("read %s: %v", path, err)}
	}
	return data, nil
}

// cueLoadError converts a CUE error, keeping the first known position.
func cueLoadError(code string, err error) *LoadError {
	le := &LoadError{Code: code, Message: cueerrors.Details(err, nil)}
	for _, e := range cueerrors.Errors(err) {
		if pos := e.Position(); pos.IsValid() {
			le.Pos = pos
			le.Message = e.Error()
			break
		}
	}
	return le
}
