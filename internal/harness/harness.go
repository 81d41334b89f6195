package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"

	"github.com/roach88/ratelens/internal/catalog"
	"github.com/roach88/ratelens/internal/cli"
	"github.com/roach88/ratelens/internal/decoder"
	"github.com/roach88/ratelens/internal/differ"
	"github.com/roach88/ratelens/internal/graph"
	"github.com/roach88/ratelens/internal/ir"
	"github.com/roach88/ratelens/internal/metrics"
	"github.com/roach88/ratelens/internal/render"
	"github.com/roach88/ratelens/internal/store"
	"github.com/roach88/ratelens/internal/testutil"
)

// Harness is the test execution engine.
// It runs scenarios against a fresh store with deterministic ids.
type Harness struct {
	store    *store.Store
	catalog  *catalog.Catalog
	renderer *render.Renderer
	logger   *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Load the program, save it as a version
// 3. Decode, assemble and render it; store and read back the renderings
// 4. If compare_to is set, decode the other version and diff
// 5. Evaluate assertions
//
// A program that fails to decode or assemble is not an error: the
// failures are part of the result for assertions to inspect.
func Run(scenario *Scenario) (*Result, error) {
	ids := testutil.NewSequentialIDs("version")
	st, err := store.Open(":memory:", store.WithIDGenerator(ids.Next))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	c, err := catalog.Default()
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	r, err := render.New(c)
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	h := &Harness{
		store:    st,
		catalog:  c,
		renderer: r,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	ctx := context.Background()

	p, err := cli.LoadProgram(scenario.Program)
	if err != nil {
		return nil, fmt.Errorf("failed to load program: %w", err)
	}

	result := NewResult()
	result.Program = p.Name + "@" + p.Version

	g, err := h.execute(ctx, p, scenario.Dictionary, result)
	if err != nil {
		return nil, err
	}

	if scenario.CompareTo != "" {
		if err := h.compare(ctx, g, scenario, result); err != nil {
			return nil, err
		}
	}

	// Evaluate assertions against the result
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}

	return result, nil
}

// analyze decodes p and, when every step decodes, assembles it. The graph
// is nil when a step fails to decode.
func (h *Harness) analyze(p ir.Program, extra map[string]string) ([]decoder.Result, *graph.Graph, error) {
	dict := decoder.Dictionary{}
	maps.Copy(dict, p.Dictionary)
	maps.Copy(dict, extra)

	d, err := decoder.New(h.catalog, decoder.WithResolver(dict))
	if err != nil {
		return nil, nil, err
	}
	results := d.DecodeAll(ir.SortedSteps(p.Instructions))
	nodes, errs := decoder.Split(results)
	if len(errs) > 0 {
		return results, nil, nil
	}
	g, err := graph.Assemble(nodes)
	return results, g, err
}

// execute runs the pipeline for the scenario's program and fills result.
func (h *Harness) execute(ctx context.Context, p ir.Program, dict map[string]string, result *Result) (*graph.Graph, error) {
	rec, err := h.store.SaveVersion(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("failed to save version: %w", err)
	}

	results, g, assembleErr := h.analyze(p, dict)
	for _, r := range results {
		outcome := StepOutcome{Step: r.Step}
		if r.OK() {
			outcome.Kind = string(r.Node.Kind())
		} else {
			outcome.Class = metrics.ErrorClass(r.Err)
			outcome.Error = r.Err.Error()
		}
		result.Steps = append(result.Steps, outcome)
	}

	if assembleErr != nil {
		result.AssemblyErrors = append(result.AssemblyErrors, assembleErr.Error())
		h.logger.Info("program did not assemble", "program", result.Program, "error", assembleErr)
		return nil, nil
	}
	if g == nil {
		return nil, nil
	}

	for _, l := range g.Loops() {
		result.Loops = append(result.Loops, l.Steps)
	}
	result.Unreachable = g.Unreachable()

	steps, err := h.renderer.RenderAll(g)
	if err != nil {
		return nil, fmt.Errorf("failed to render: %w", err)
	}
	if err := h.store.SaveRenderings(ctx, rec.ID, h.renderer.TemplateVersion(), steps); err != nil {
		return nil, fmt.Errorf("failed to save renderings: %w", err)
	}

	stored, err := h.store.ReadRenderings(ctx, rec.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read renderings: %w", err)
	}
	text := make(map[int]string, len(stored))
	for _, s := range stored {
		text[s.Step] = s.Text
	}
	for i := range result.Steps {
		result.Steps[i].Text = text[result.Steps[i].Step]
	}

	h.logger.Info("program executed",
		"program", result.Program,
		"version_id", rec.ID,
		"steps", len(stored),
	)
	return g, nil
}

// compare diffs the scenario's program against compare_to.
func (h *Harness) compare(ctx context.Context, g *graph.Graph, scenario *Scenario, result *Result) error {
	if g == nil {
		return fmt.Errorf("compare_to needs a program that decodes and assembles")
	}

	other, err := cli.LoadProgram(scenario.CompareTo)
	if err != nil {
		return fmt.Errorf("failed to load compare_to program: %w", err)
	}
	if _, err := h.store.SaveVersion(ctx, other); err != nil {
		return fmt.Errorf("failed to save compare_to version: %w", err)
	}

	_, og, err := h.analyze(other, scenario.Dictionary)
	if err != nil {
		return fmt.Errorf("compare_to program did not assemble: %w", err)
	}
	if og == nil {
		return fmt.Errorf("compare_to program did not decode")
	}

	changes, err := differ.Diff(g, og)
	if err != nil {
		return fmt.Errorf("failed to diff: %w", err)
	}
	result.Changes = changes
	return nil
}
