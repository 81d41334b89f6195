package differ

import (
	"strconv"

	"github.com/roach88/ratelens/internal/ir"
)

// DiffInstructions compares two raw instruction lists without decoding
// them. Records are matched by step number; when a list repeats a step the
// first record wins.
func DiffInstructions(a, b []ir.Instruction) []Change {
	ia, ib := byStep(a), byStep(b)

	var steps []int
	for s := range ia {
		steps = append(steps, s)
	}
	for s := range ib {
		steps = append(steps, s)
	}

	changes := []Change{}
	for _, step := range unionSteps(steps, nil) {
		ra, inA := ia[step]
		rb, inB := ib[step]
		switch {
		case !inB:
			changes = append(changes, Change{Path: stepPath(step), Step: step, Kind: Removed, OldValue: ra.Operands})
		case !inA:
			changes = append(changes, Change{Path: stepPath(step), Step: step, Kind: Added, NewValue: rb.Operands})
		default:
			var out []Change
			compareFields(step, "", instructionFields(ra), instructionFields(rb), &out)
			changes = append(changes, out...)
		}
	}
	return changes
}

func byStep(list []ir.Instruction) map[int]ir.Instruction {
	m := make(map[int]ir.Instruction, len(list))
	for _, ins := range list {
		if _, dup := m[ins.Step]; !dup {
			m[ins.Step] = ins
		}
	}
	return m
}

// instructionFields uses the record's wire names. Absent optional fields
// are omitted so that setting one reads as added.
func instructionFields(ins ir.Instruction) []field {
	fs := []field{
		leaf("t", strconv.Itoa(ins.Type)),
		leaf("ins", ins.Operands),
	}
	if ins.TargetVar != "" {
		fs = append(fs, leaf("ins_tar", ins.TargetVar))
	}
	for _, opt := range []struct {
		name string
		v    *int
	}{
		{"seq_t", ins.SeqTrue},
		{"seq_f", ins.SeqFalse},
		{"next", ins.Next},
	} {
		if opt.v != nil {
			fs = append(fs, leaf(opt.name, strconv.Itoa(*opt.v)))
		}
	}
	return fs
}
