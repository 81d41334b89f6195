package ir

import "sort"

// Reserved target values in the legacy encoding.
const (
	// TargetDone terminates the program.
	TargetDone = -2

	// TargetExit is the older exit marker. It terminates the program too.
	TargetExit = -1

	// TargetNone is an unset target; the instruction falls through.
	TargetNone = 0
)

// Instruction is one raw rating-program instruction as exported by the
// legacy system.
type Instruction struct {
	Step      int    `json:"n" yaml:"n"`
	Type      int    `json:"t" yaml:"t"`
	Operands  string `json:"ins" yaml:"ins"`
	TargetVar string `json:"ins_tar,omitempty" yaml:"ins_tar,omitempty"`
	SeqTrue   *int   `json:"seq_t,omitempty" yaml:"seq_t,omitempty"`
	SeqFalse  *int   `json:"seq_f,omitempty" yaml:"seq_f,omitempty"`
	Next      *int   `json:"next,omitempty" yaml:"next,omitempty"`
}

// Program is a named, versioned list of instructions.
type Program struct {
	Name         string            `json:"program" yaml:"program"`
	Version      string            `json:"version" yaml:"version"`
	Description  string            `json:"description,omitempty" yaml:"description,omitempty"`
	Instructions []Instruction     `json:"instructions" yaml:"instructions"`
	Dictionary   map[string]string `json:"dictionary,omitempty" yaml:"dictionary,omitempty"`
}

// IntPtr returns a pointer to n. Handy for building instructions inline.
func IntPtr(n int) *int {
	return &n
}

// SortedSteps returns the instructions ordered by step number.
// The input slice is not modified.
func SortedSteps(instructions []Instruction) []Instruction {
	out := make([]Instruction, len(instructions))
	copy(out, instructions)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Step < out[j].Step })
	return out
}

// toCanonicalMap converts an instruction into the generic shape accepted by
// MarshalCanonical. Unset optional fields are omitted.
func (i Instruction) toCanonicalMap() map[string]any {
	m := map[string]any{
		"n":   i.Step,
		"t":   i.Type,
		"ins": i.Operands,
	}
	if i.TargetVar != "" {
		m["ins_tar"] = i.TargetVar
	}
	if i.SeqTrue != nil {
		m["seq_t"] = *i.SeqTrue
	}
	if i.SeqFalse != nil {
		m["seq_f"] = *i.SeqFalse
	}
	if i.Next != nil {
		m["next"] = *i.Next
	}
	return m
}

// CanonicalInstructions serializes instructions (in step order) to
// canonical JSON.
func CanonicalInstructions(instructions []Instruction) ([]byte, error) {
	sorted := SortedSteps(instructions)
	list := make([]any, len(sorted))
	for i, ins := range sorted {
		list[i] = ins.toCanonicalMap()
	}
	return MarshalCanonical(list)
}
