package ast

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/roach88/ratelens/internal/ir"
)

// TargetKind distinguishes the three shapes a control-flow target can take.
type TargetKind uint8

const (
	// TargetNext falls through to the following step in step order.
	TargetNext TargetKind = iota
	// TargetStep addresses a specific step.
	TargetStep
	// TargetDone terminates the program.
	TargetDone
)

// doneMarker is the rendered and serialized form of a DONE target.
const doneMarker = "DONE"

// Target is a branch or successor target: a step address, DONE, or an
// implicit fall-through. The zero value is a fall-through.
type Target struct {
	kind TargetKind
	step int
}

// StepTarget returns a target addressing step n.
func StepTarget(n int) Target {
	return Target{kind: TargetStep, step: n}
}

// Done returns the DONE target.
func Done() Target {
	return Target{kind: TargetDone}
}

// FallThrough returns the implicit next-step target.
func FallThrough() Target {
	return Target{}
}

// TargetFromRaw interprets a legacy target field. Absent values and 0 fall
// through; -2 and -1 are DONE; anything else is a step address.
func TargetFromRaw(raw *int) Target {
	if raw == nil {
		return FallThrough()
	}
	switch v := *raw; v {
	case ir.TargetDone, ir.TargetExit:
		return Done()
	case ir.TargetNone:
		return FallThrough()
	default:
		return StepTarget(v)
	}
}

// Kind returns the target shape.
func (t Target) Kind() TargetKind { return t.kind }

// IsDone reports whether t terminates the program.
func (t Target) IsDone() bool { return t.kind == TargetDone }

// IsFallThrough reports whether t is the implicit next step.
func (t Target) IsFallThrough() bool { return t.kind == TargetNext }

// Step returns the addressed step and true, or 0 and false when t is not a
// step address.
func (t Target) Step() (int, bool) {
	if t.kind != TargetStep {
		return 0, false
	}
	return t.step, true
}

// Equal reports whether two targets are identical.
func (t Target) Equal(o Target) bool {
	return t.kind == o.kind && t.step == o.step
}

// String renders the target the way explanations show it.
func (t Target) String() string {
	switch t.kind {
	case TargetDone:
		return doneMarker
	case TargetStep:
		return "Step " + strconv.Itoa(t.step)
	default:
		return "next"
	}
}

// MarshalJSON encodes DONE as "DONE", a step as its number, and a
// fall-through as null.
func (t Target) MarshalJSON() ([]byte, error) {
	switch t.kind {
	case TargetDone:
		return json.Marshal(doneMarker)
	case TargetStep:
		return json.Marshal(t.step)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts the forms produced by MarshalJSON.
func (t *Target) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = FallThrough()
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != doneMarker {
			return fmt.Errorf("invalid target %q", s)
		}
		*t = Done()
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid target %s: %w", data, err)
	}
	*t = StepTarget(n)
	return nil
}
