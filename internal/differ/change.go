package differ

import (
	"fmt"
	"strconv"
)

// ChangeKind classifies a Change.
type ChangeKind string

const (
	Added   ChangeKind = "added"
	Removed ChangeKind = "removed"
	Changed ChangeKind = "changed"
)

// Change is one structural difference between two program versions.
//
// Field is the path below the step ("operator", "conditions[1]/left/raw").
// It is empty when a whole step was added or removed.
type Change struct {
	Path     string     `json:"path"`
	Step     int        `json:"step"`
	Field    string     `json:"field,omitempty"`
	Kind     ChangeKind `json:"kind"`
	OldValue any        `json:"old_value,omitempty"`
	NewValue any        `json:"new_value,omitempty"`
}

// String formats the change for logs and text output.
func (c Change) String() string {
	switch c.Kind {
	case Added:
		return fmt.Sprintf("+ %s: %v", c.Path, c.NewValue)
	case Removed:
		return fmt.Sprintf("- %s: %v", c.Path, c.OldValue)
	default:
		return fmt.Sprintf("~ %s: %v -> %v", c.Path, c.OldValue, c.NewValue)
	}
}

func stepPath(step int) string {
	return "step=" + strconv.Itoa(step)
}

func fieldPath(step int, field string) string {
	if field == "" {
		return stepPath(step)
	}
	return stepPath(step) + "/" + field
}

// Summary counts changes by kind.
type Summary struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
	Changed int `json:"changed"`
}

// Summarize counts changes by kind.
func Summarize(changes []Change) Summary {
	var s Summary
	for _, c := range changes {
		switch c.Kind {
		case Added:
			s.Added++
		case Removed:
			s.Removed++
		case Changed:
			s.Changed++
		}
	}
	return s
}
