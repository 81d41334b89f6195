package testutil

import (
	"encoding/json"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ratelens/internal/ir"
)

// ProgramBuilder assembles ir.Program fixtures step by step.
//
//	p := testutil.NewProgram("AUTO", "1").
//		If(1, "GI_1|>|18", 2, -2).
//		Set(2, "PL_7", "[Y]").
//		Build()
type ProgramBuilder struct {
	p ir.Program
}

// NewProgram starts a program with the given name and version.
func NewProgram(name, version string) *ProgramBuilder {
	return &ProgramBuilder{p: ir.Program{Name: name, Version: version}}
}

// Describe sets the program description.
func (b *ProgramBuilder) Describe(text string) *ProgramBuilder {
	b.p.Description = text
	return b
}

// Define adds a dictionary entry.
func (b *ProgramBuilder) Define(key, description string) *ProgramBuilder {
	if b.p.Dictionary == nil {
		b.p.Dictionary = make(map[string]string)
	}
	b.p.Dictionary[key] = description
	return b
}

// Add appends a raw instruction.
func (b *ProgramBuilder) Add(ins ir.Instruction) *ProgramBuilder {
	b.p.Instructions = append(b.p.Instructions, ins)
	return b
}

// If appends an IF (code 1) with both targets.
func (b *ProgramBuilder) If(step int, operands string, seqTrue, seqFalse int) *ProgramBuilder {
	return b.Add(ir.Instruction{Step: step, Type: 1, Operands: operands, SeqTrue: ir.IntPtr(seqTrue), SeqFalse: ir.IntPtr(seqFalse)})
}

// Arithmetic appends an arithmetic instruction (code 0) writing to dest.
func (b *ProgramBuilder) Arithmetic(step int, dest, operands string) *ProgramBuilder {
	return b.Add(ir.Instruction{Step: step, Type: 0, Operands: operands, TargetVar: dest})
}

// Set appends a Set String instruction (code 5) writing to dest.
func (b *ProgramBuilder) Set(step int, dest, operands string) *ProgramBuilder {
	return b.Add(ir.Instruction{Step: step, Type: 5, Operands: operands, TargetVar: dest})
}

// Jump appends an EMPTY instruction (code 6) with an explicit successor.
func (b *ProgramBuilder) Jump(step, target int) *ProgramBuilder {
	return b.Add(ir.Instruction{Step: step, Type: 6, Next: ir.IntPtr(target)})
}

// Then sets the explicit successor of the last instruction.
func (b *ProgramBuilder) Then(target int) *ProgramBuilder {
	if n := len(b.p.Instructions); n > 0 {
		b.p.Instructions[n-1].Next = ir.IntPtr(target)
	}
	return b
}

// Build returns a copy of the program.
func (b *ProgramBuilder) Build() ir.Program {
	p := b.p
	p.Instructions = slices.Clone(b.p.Instructions)
	p.Dictionary = maps.Clone(b.p.Dictionary)
	return p
}

// SampleProgram is a small program exercising branches, DONE targets,
// a resolved variable and a loop.
func SampleProgram() ir.Program {
	return NewProgram("AUTO_PREMIUM", "1").
		Describe("Base premium adjustments").
		Define("GI_1", "Driver age").
		If(1, "GI_1|>|18", 2, 4).
		Arithmetic(2, "GR_2", "GR_1|*|1.5|!R2").
		Jump(3, 1).
		Set(4, "PL_7", "[Y]|X").Then(-2).
		Build()
}

// WriteProgram writes p under dir as JSON or YAML, picked by the
// extension of name, and returns the path.
func WriteProgram(t testing.TB, dir, name string, p ir.Program) string {
	t.Helper()

	var (
		data []byte
		err  error
	)
	switch filepath.Ext(name) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(p)
	default:
		data, err = json.MarshalIndent(p, "", "  ")
	}
	if err != nil {
		t.Fatalf("marshal program: %v", err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write program: %v", err)
	}
	return path
}
