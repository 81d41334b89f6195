package harness

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/ratelens/internal/ir"
)

// Snapshot captures what a scenario produced.
// All fields use canonical JSON serialization for deterministic comparison.
type Snapshot struct {
	ScenarioName string `json:"scenario_name"`
	Result       *Result `json:"result"`
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical JSON serialization.
// This is required because ir.MarshalCanonical only handles primitives, slices and maps.
//
// Error messages are left out: decode error classes are stable, their
// wording is not.
func (s *Snapshot) toCanonicalMap() map[string]any {
	steps := make([]any, len(s.Result.Steps))
	for i, o := range s.Result.Steps {
		step := map[string]any{"step": o.Step}
		if o.Kind != "" {
			step["kind"] = o.Kind
		}
		if o.Text != "" {
			step["text"] = o.Text
		}
		if o.Class != "" {
			step["class"] = o.Class
		}
		steps[i] = step
	}

	result := map[string]any{
		"scenario_name": s.ScenarioName,
		"program":       s.Result.Program,
		"steps":         steps,
	}
	if len(s.Result.AssemblyErrors) > 0 {
		result["assembly_errors"] = s.Result.AssemblyErrors
	}
	if len(s.Result.Loops) > 0 {
		loops := make([]any, len(s.Result.Loops))
		for i, l := range s.Result.Loops {
			loops[i] = intList(l)
		}
		result["loops"] = loops
	}
	if len(s.Result.Unreachable) > 0 {
		result["unreachable"] = intList(s.Result.Unreachable)
	}
	if len(s.Result.Changes) > 0 {
		changes := make([]any, len(s.Result.Changes))
		for i, c := range s.Result.Changes {
			change := map[string]any{
				"path": c.Path,
				"kind": string(c.Kind),
			}
			if c.OldValue != nil {
				change["old"] = fmt.Sprint(c.OldValue)
			}
			if c.NewValue != nil {
				change["new"] = fmt.Sprint(c.NewValue)
			}
			changes[i] = change
		}
		result["changes"] = changes
	}
	return result
}

func intList(ns []int) []any {
	out := make([]any, len(ns))
	for i, n := range ns {
		out[i] = n
	}
	return out
}

// RunWithGolden executes a scenario and compares its snapshot against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares the given result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := Snapshot{ScenarioName: scenarioName, Result: result}
	data, err := ir.MarshalCanonical(snapshot.toCanonicalMap())
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
