package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/ratelens/internal/ir"
	"github.com/roach88/ratelens/internal/testutil"
)

// createTestStore creates a new store in a temp dir with sequential ids.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")

	ids := testutil.NewSequentialIDs("version")
	s, err := Open(path, WithIDGenerator(ids.Next))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestProgram creates a small program with one IF and one assignment.
func createTestProgram(name, version string) ir.Program {
	return ir.Program{
		Name:    name,
		Version: version,
		Instructions: []ir.Instruction{
			{Step: 2, Type: 5, Operands: "[Y]", TargetVar: "PL_1", SeqTrue: ir.IntPtr(-2)},
			{Step: 1, Type: 1, Operands: "GI_1|>|18", SeqTrue: ir.IntPtr(2), SeqFalse: ir.IntPtr(-2)},
		},
		Dictionary: map[string]string{"GI_1": "Driver age"},
	}
}
