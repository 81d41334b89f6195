package decoder

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/ratelens/internal/ast"
	"github.com/roach88/ratelens/internal/ir"
)

// Result is the outcome of decoding one instruction: a node or an error.
type Result struct {
	Step int
	Node ast.Node
	Err  error
}

// OK reports whether the instruction decoded.
func (r Result) OK() bool {
	return r.Err == nil
}

// DecodeAll decodes every instruction concurrently. Results are returned in
// input order; a failing instruction never prevents the others from
// decoding.
func (d *Decoder) DecodeAll(instructions []ir.Instruction) []Result {
	results := make([]Result, len(instructions))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, ins := range instructions {
		g.Go(func() error {
			node, err := d.Decode(ins)
			results[i] = Result{Step: ins.Step, Node: node, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Split separates successful nodes from errors, preserving order.
func Split(results []Result) ([]ast.Node, []error) {
	nodes := make([]ast.Node, 0, len(results))
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
			continue
		}
		nodes = append(nodes, r.Node)
	}
	return nodes, errs
}
