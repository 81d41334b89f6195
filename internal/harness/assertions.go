package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/ratelens/internal/differ"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string        // Assertion type for categorization
	Expected string        // Human-readable expected outcome
	Actual   string        // Human-readable actual outcome
	Steps    []StepOutcome // Every step outcome for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	// Header with assertion type
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)

	// Expected vs Actual (most important info)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Steps) > 0 {
		fmt.Fprintf(&buf, "\nSteps:\n")
		for _, s := range e.Steps {
			if s.Class != "" {
				fmt.Fprintf(&buf, "  [%d] %s: %s\n", s.Step, s.Class, s.Error)
				continue
			}
			fmt.Fprintf(&buf, "  [%d] %s %s\n", s.Step, s.Kind, s.Text)
		}
	}

	return buf.String()
}

// stepOutcome finds the step an assertion names, or fails it.
func stepOutcome(result *Result, assertion Assertion) (StepOutcome, error) {
	s, ok := result.Step(assertion.Step)
	if !ok {
		return StepOutcome{}, &AssertionError{
			Type:     assertion.Type,
			Expected: fmt.Sprintf("step %d", assertion.Step),
			Actual:   "no such step",
			Steps:    result.Steps,
		}
	}
	return s, nil
}

// assertStepText checks the rendered text of a step, exactly or as a
// substring.
func assertStepText(result *Result, assertion Assertion, exact bool) error {
	s, err := stepOutcome(result, assertion)
	if err != nil {
		return err
	}

	if exact && s.Text == assertion.Text {
		return nil
	}
	if !exact && s.Text != "" && strings.Contains(s.Text, assertion.Text) {
		return nil
	}

	actual := fmt.Sprintf("%q", s.Text)
	if s.Text == "" {
		actual = "step was not rendered"
	}
	return &AssertionError{
		Type:     assertion.Type,
		Expected: fmt.Sprintf("step %d text %q", assertion.Step, assertion.Text),
		Actual:   actual,
		Steps:    result.Steps,
	}
}

// assertNodeKind checks that a step decoded to the given kind.
func assertNodeKind(result *Result, assertion Assertion) error {
	s, err := stepOutcome(result, assertion)
	if err != nil {
		return err
	}
	if s.Kind == assertion.Kind {
		return nil
	}

	actual := s.Kind
	if s.Class != "" {
		actual = "decode error " + s.Class
	}
	return &AssertionError{
		Type:     AssertNodeKind,
		Expected: fmt.Sprintf("step %d decodes to %s", assertion.Step, assertion.Kind),
		Actual:   actual,
		Steps:    result.Steps,
	}
}

// assertDecodeError checks that a step failed with the given class.
func assertDecodeError(result *Result, assertion Assertion) error {
	s, err := stepOutcome(result, assertion)
	if err != nil {
		return err
	}
	if s.Class == assertion.Class {
		return nil
	}

	actual := "decoded to " + s.Kind
	if s.Class != "" {
		actual = "decode error " + s.Class
	}
	return &AssertionError{
		Type:     AssertDecodeError,
		Expected: fmt.Sprintf("step %d fails with %s", assertion.Step, assertion.Class),
		Actual:   actual,
		Steps:    result.Steps,
	}
}

// assertLoop checks that some loop consists of exactly the given steps.
// Order does not matter.
func assertLoop(result *Result, assertion Assertion) error {
	want := slices.Sorted(slices.Values(assertion.Steps))
	for _, loop := range result.Loops {
		if slices.Equal(slices.Sorted(slices.Values(loop)), want) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertLoop,
		Expected: fmt.Sprintf("loop through %v", want),
		Actual:   fmt.Sprintf("loops %v", result.Loops),
	}
}

// assertUnreachable checks the exact set of unreachable steps.
func assertUnreachable(result *Result, assertion Assertion) error {
	want := slices.Sorted(slices.Values(assertion.Steps))
	got := slices.Sorted(slices.Values(result.Unreachable))
	if slices.Equal(want, got) {
		return nil
	}
	return &AssertionError{
		Type:     AssertUnreachable,
		Expected: fmt.Sprintf("unreachable %v", want),
		Actual:   fmt.Sprintf("unreachable %v", got),
	}
}

// assertChange checks that the diff contains a matching change record.
func assertChange(result *Result, assertion Assertion) error {
	for _, c := range result.Changes {
		if c.Path != assertion.Path || string(c.Kind) != assertion.Change {
			continue
		}
		if assertion.Old != "" && fmt.Sprint(c.OldValue) != assertion.Old {
			continue
		}
		if assertion.New != "" && fmt.Sprint(c.NewValue) != assertion.New {
			continue
		}
		return nil
	}
	return &AssertionError{
		Type:     AssertChange,
		Expected: fmt.Sprintf("%s change at %s", assertion.Change, assertion.Path),
		Actual:   formatChanges(result.Changes),
	}
}

// assertChangeCount checks the number of change records.
func assertChangeCount(result *Result, assertion Assertion) error {
	if len(result.Changes) == assertion.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertChangeCount,
		Expected: fmt.Sprintf("%d change(s)", assertion.Count),
		Actual:   fmt.Sprintf("%d change(s): %s", len(result.Changes), formatChanges(result.Changes)),
	}
}

func formatChanges(changes []differ.Change) string {
	if len(changes) == 0 {
		return "no changes"
	}
	parts := make([]string, len(changes))
	for i, c := range changes {
		parts[i] = c.String()
	}
	return strings.Join(parts, "; ")
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertStepText:
			err = assertStepText(result, assertion, true)
		case AssertStepContains:
			err = assertStepText(result, assertion, false)
		case AssertNodeKind:
			err = assertNodeKind(result, assertion)
		case AssertDecodeError:
			err = assertDecodeError(result, assertion)
		case AssertLoop:
			err = assertLoop(result, assertion)
		case AssertUnreachable:
			err = assertUnreachable(result, assertion)
		case AssertChange:
			err = assertChange(result, assertion)
		case AssertChangeCount:
			err = assertChangeCount(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
