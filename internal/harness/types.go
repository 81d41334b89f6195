package harness

import "github.com/roach88/ratelens/internal/differ"

// StepOutcome is what happened to one step of the program.
type StepOutcome struct {
	Step  int    `json:"step"`
	Kind  string `json:"kind,omitempty"`  // node kind when the step decoded
	Text  string `json:"text,omitempty"`  // rendered text, read back from the store
	Class string `json:"class,omitempty"` // decode error class when it did not
	Error string `json:"error,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every assertion held.
	Pass bool `json:"pass"`

	// Program is "<name>@<version>" of the scenario's program.
	Program string `json:"program"`

	// Steps holds one outcome per instruction in ascending step order.
	Steps []StepOutcome `json:"steps"`

	// AssemblyErrors lists graph assembly failures. Steps are not
	// rendered when there are any.
	AssemblyErrors []string `json:"assembly_errors,omitempty"`

	// Loops and Unreachable come from the assembled graph.
	Loops       [][]int `json:"loops,omitempty"`
	Unreachable []int   `json:"unreachable,omitempty"`

	// Changes is the structural diff against compare_to, if set.
	Changes []differ.Change `json:"changes,omitempty"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepOutcome{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Step returns the outcome for step n.
func (r *Result) Step(n int) (StepOutcome, bool) {
	for _, s := range r.Steps {
		if s.Step == n {
			return s, true
		}
	}
	return StepOutcome{}, false
}
