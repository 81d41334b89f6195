package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario for one rating program.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are named after it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Program is the path of the program file under test (.json, .yaml, .cue).
	// Relative paths are resolved against the scenario file location.
	Program string `yaml:"program"`

	// CompareTo optionally names a second version. The result then carries
	// the structural diff from Program to CompareTo.
	CompareTo string `yaml:"compare_to,omitempty"`

	// Dictionary adds variable descriptions on top of the program's own.
	Dictionary map[string]string `yaml:"dictionary,omitempty"`

	// Assertions validate the result.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates one aspect of the result.
type Assertion struct {
	// Type specifies the assertion type (see the Assert* constants).
	Type string `yaml:"type"`

	// Step is the step number (step_text, step_contains, node_kind, decode_error).
	Step int `yaml:"step,omitempty"`

	// Text is the exact rendered text (step_text) or a substring (step_contains).
	Text string `yaml:"text,omitempty"`

	// Kind is the expected node kind (node_kind).
	Kind string `yaml:"kind,omitempty"`

	// Class is the expected decode error class (decode_error), e.g. "unknown_opcode".
	Class string `yaml:"class,omitempty"`

	// Steps lists step numbers (loop, unreachable).
	Steps []int `yaml:"steps,omitempty"`

	// Path, Change, Old and New describe a change record (change).
	// Old and New are optional; when empty they are not compared.
	Path   string `yaml:"path,omitempty"`
	Change string `yaml:"change,omitempty"`
	Old    string `yaml:"old,omitempty"`
	New    string `yaml:"new,omitempty"`

	// Count is the expected number of change records (change_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertStepText     = "step_text"
	AssertStepContains = "step_contains"
	AssertNodeKind     = "node_kind"
	AssertDecodeError  = "decode_error"
	AssertLoop         = "loop"
	AssertUnreachable  = "unreachable"
	AssertChange       = "change"
	AssertChangeCount  = "change_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
//
// Program paths are resolved relative to the scenario file's directory.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving program paths relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	// Read file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve program paths relative to base path BEFORE validation
	scenario.Program = resolve(basePath, scenario.Program)
	scenario.CompareTo = resolve(basePath, scenario.CompareTo)

	// Validate required fields (now with resolved paths)
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

func resolve(basePath, p string) string {
	if p == "" || filepath.IsAbs(p) || basePath == "" {
		return p
	}
	return filepath.Join(basePath, p)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Program == "" {
		return fmt.Errorf("program is required")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	// Validate program paths exist
	for _, p := range []string{s.Program, s.CompareTo} {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("program file not found: %s", p)
		}
	}

	// Validate assertions
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion, s.CompareTo != ""); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, comparing bool) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertStepText, AssertStepContains:
		if a.Step == 0 {
			return fmt.Errorf("assertions[%d]: step is required for %s", index, a.Type)
		}
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for %s", index, a.Type)
		}
	case AssertNodeKind:
		if a.Step == 0 || a.Kind == "" {
			return fmt.Errorf("assertions[%d]: step and kind are required for node_kind", index)
		}
	case AssertDecodeError:
		if a.Step == 0 || a.Class == "" {
			return fmt.Errorf("assertions[%d]: step and class are required for decode_error", index)
		}
	case AssertLoop:
		if len(a.Steps) == 0 {
			return fmt.Errorf("assertions[%d]: steps list is required for loop", index)
		}
	case AssertUnreachable:
		// An empty list asserts that every step is reachable.
	case AssertChange:
		if !comparing {
			return fmt.Errorf("assertions[%d]: change requires compare_to", index)
		}
		if a.Path == "" || a.Change == "" {
			return fmt.Errorf("assertions[%d]: path and change are required for change", index)
		}
	case AssertChangeCount:
		if !comparing {
			return fmt.Errorf("assertions[%d]: change_count requires compare_to", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for change_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
