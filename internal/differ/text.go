package differ

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// contextLines is the number of unchanged lines kept around each change.
const contextLines = 3

type lineOp struct {
	op      diffmatchpatch.Operation
	text    string
	oldLine int
	newLine int
}

// TextDiff returns a unified line diff of two rendered documents, or ""
// when they are equal.
func TextDiff(oldName, newName, oldText, newText string) string {
	if oldText == newText {
		return ""
	}

	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	a, b, lines := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCleanupSemantic(diffs)
	diffs = dmp.DiffCharsToLines(diffs, lines)

	ops := toLineOps(diffs)

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- %s\n+++ %s\n", oldName, newName)
	for _, h := range hunks(ops) {
		writeHunk(&sb, ops[h[0]:h[1]])
	}
	return sb.String()
}

func toLineOps(diffs []diffmatchpatch.Diff) []lineOp {
	var ops []lineOp
	oldLine, newLine := 0, 0
	for _, d := range diffs {
		parts := strings.Split(d.Text, "\n")
		if parts[len(parts)-1] == "" {
			parts = parts[:len(parts)-1]
		}
		for _, p := range parts {
			ops = append(ops, lineOp{op: d.Type, text: p, oldLine: oldLine, newLine: newLine})
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				oldLine++
				newLine++
			case diffmatchpatch.DiffDelete:
				oldLine++
			case diffmatchpatch.DiffInsert:
				newLine++
			}
		}
	}
	return ops
}

// hunks returns [start, end) ranges of ops covering every change plus its
// context. Ranges closer than twice the context are merged.
func hunks(ops []lineOp) [][2]int {
	var out [][2]int
	for i, op := range ops {
		if op.op == diffmatchpatch.DiffEqual {
			continue
		}
		start := max(i-contextLines, 0)
		end := min(i+contextLines+1, len(ops))
		if n := len(out); n > 0 && start <= out[n-1][1] {
			out[n-1][1] = max(out[n-1][1], end)
			continue
		}
		out = append(out, [2]int{start, end})
	}
	return out
}

func writeHunk(sb *strings.Builder, ops []lineOp) {
	var oldCount, newCount int
	for _, op := range ops {
		if op.op != diffmatchpatch.DiffInsert {
			oldCount++
		}
		if op.op != diffmatchpatch.DiffDelete {
			newCount++
		}
	}
	fmt.Fprintf(sb, "@@ -%d,%d +%d,%d @@\n", ops[0].oldLine+1, oldCount, ops[0].newLine+1, newCount)

	for _, op := range ops {
		switch op.op {
		case diffmatchpatch.DiffEqual:
			sb.WriteString(" " + op.text + "\n")
		case diffmatchpatch.DiffDelete:
			sb.WriteString("-" + op.text + "\n")
		case diffmatchpatch.DiffInsert:
			sb.WriteString("+" + op.text + "\n")
		}
	}
}
