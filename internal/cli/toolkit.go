package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/ratelens/internal/catalog"
	"github.com/roach88/ratelens/internal/decoder"
	"github.com/roach88/ratelens/internal/graph"
	"github.com/roach88/ratelens/internal/ir"
	"github.com/roach88/ratelens/internal/metrics"
	"github.com/roach88/ratelens/internal/render"
)

// toolkit bundles what every command needs, built from the root flags.
type toolkit struct {
	opts       *RootOptions
	catalog    *catalog.Catalog
	renderer   *render.Renderer
	dictionary decoder.Dictionary
	metrics    *metrics.Collector
	logger     *slog.Logger
}

// newLogger configures slog the same way for every command: text on the
// error writer, debug level when verbose.
func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
}

func newToolkit(opts *RootOptions, cmd *cobra.Command) (*toolkit, error) {
	tk := &toolkit{
		opts:    opts,
		metrics: metrics.NewCollector(prometheus.NewRegistry()),
		logger:  newLogger(opts, cmd.ErrOrStderr()),
	}

	c, err := loadCatalog(opts.Catalog)
	if err != nil {
		return nil, err
	}
	tk.catalog = c
	tk.logger.Debug("catalog loaded", "version", c.Version(), "opcodes", c.Len())

	table, err := loadTemplates(opts.Templates)
	if err != nil {
		return nil, err
	}
	var renderOpts []render.Option
	if table != nil {
		renderOpts = append(renderOpts, render.WithTable(table))
	}
	r, err := render.New(c, renderOpts...)
	if err != nil {
		code := ErrCodeInvalidTable
		if errors.Is(err, render.ErrMissingTemplate) {
			code = ErrCodeMissingTemplate
		}
		return nil, &LoadError{Code: code, Message: err.Error()}
	}
	tk.renderer = r
	tk.logger.Debug("templates loaded", "version", r.TemplateVersion())

	if opts.Dictionary != "" {
		dict, err := LoadDictionary(opts.Dictionary)
		if err != nil {
			return nil, err
		}
		tk.dictionary = dict
	}
	return tk, nil
}

// decoderFor builds a decoder resolving variables from the program's own
// dictionary, overridden by entries from --dictionary.
func (tk *toolkit) decoderFor(p ir.Program) (*decoder.Decoder, error) {
	dict := decoder.Dictionary{}
	maps.Copy(dict, p.Dictionary)
	maps.Copy(dict, tk.dictionary)
	return decoder.New(tk.catalog, decoder.WithResolver(dict))
}

// analysis is a decoded program and, when every step decoded, its graph.
type analysis struct {
	Program     ir.Program
	Results     []decoder.Result
	DecodeErrs  []error
	Graph       *graph.Graph
	AssembleErr error
}

// OK reports whether the program decoded and assembled cleanly.
func (a *analysis) OK() bool {
	return len(a.DecodeErrs) == 0 && a.AssembleErr == nil
}

// Err returns the first failure, if any.
func (a *analysis) Err() error {
	if len(a.DecodeErrs) > 0 {
		return a.DecodeErrs[0]
	}
	return a.AssembleErr
}

// analyze decodes every instruction and, if all succeed, assembles the graph.
func (tk *toolkit) analyze(p ir.Program) (*analysis, error) {
	d, err := tk.decoderFor(p)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	results := d.DecodeAll(p.Instructions)
	tk.metrics.ObserveDuration("decode", time.Since(start))
	tk.metrics.RecordDecode(results)

	nodes, errs := decoder.Split(results)
	a := &analysis{Program: p, Results: results, DecodeErrs: errs}
	for _, err := range errs {
		tk.logger.Debug("decode failed", "program", p.Name, "code", MapErrorCode(err), "error", err)
	}
	if len(errs) > 0 {
		return a, nil
	}

	start = time.Now()
	a.Graph, a.AssembleErr = graph.Assemble(nodes)
	tk.metrics.ObserveDuration("assemble", time.Since(start))
	if a.AssembleErr != nil {
		tk.logger.Debug("assemble failed", "program", p.Name, "error", a.AssembleErr)
		return a, nil
	}
	tk.logger.Debug("program assembled",
		"program", p.Name,
		"version", p.Version,
		"steps", a.Graph.Len(),
		"loops", len(a.Graph.Loops()))
	return a, nil
}

// renderAll renders every step of a clean analysis.
func (tk *toolkit) renderAll(a *analysis) ([]render.Rendering, error) {
	start := time.Now()
	steps, err := tk.renderer.RenderAll(a.Graph)
	tk.metrics.ObserveDuration("render", time.Since(start))
	if err != nil {
		return nil, err
	}
	tk.recordRendered(a)
	return steps, nil
}

// renderDocument renders a clean analysis as one markdown document.
func (tk *toolkit) renderDocument(a *analysis) (string, error) {
	start := time.Now()
	doc, err := tk.renderer.RenderGraph(a.Graph)
	tk.metrics.ObserveDuration("render", time.Since(start))
	if err != nil {
		return "", err
	}
	tk.recordRendered(a)
	return doc, nil
}

func (tk *toolkit) recordRendered(a *analysis) {
	for _, n := range a.Graph.Nodes() {
		tk.metrics.RecordRender(n.Kind())
	}
}

// flush writes collected metrics when --metrics-file is set.
func (tk *toolkit) flush() error {
	if tk.opts.MetricsFile == "" {
		return nil
	}
	if err := tk.metrics.WriteTextfile(tk.opts.MetricsFile); err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("%s: write metrics", ErrCodeWriteFailed), err)
	}
	tk.logger.Debug("metrics written", "path", tk.opts.MetricsFile)
	return nil
}

// newFormatter builds the command's output formatter.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// commandError outputs err through the formatter and returns it as a
// command error (exit code 2).
func commandError(formatter *OutputFormatter, err error) error {
	code := MapErrorCode(err)
	_ = formatter.Error(code, err.Error(), nil)
	return WrapExitError(ExitCommandError, code, err)
}

// StepError is one per-step failure in command output.
type StepError struct {
	Step    int    `json:"step,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// stepErrors lists every decode and assembly failure of a.
func stepErrors(a *analysis) []StepError {
	var out []StepError
	for _, r := range a.Results {
		if r.Err != nil {
			out = append(out, StepError{Step: r.Step, Code: MapErrorCode(r.Err), Message: r.Err.Error()})
		}
	}
	if a.AssembleErr != nil {
		for _, err := range unjoin(a.AssembleErr) {
			out = append(out, StepError{Code: MapErrorCode(err), Message: err.Error()})
		}
	}
	return out
}

// unjoin splits an errors.Join result into its parts.
func unjoin(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}

// finish flushes metrics and returns err, or the flush error when the
// command itself succeeded.
func (tk *toolkit) finish(err error) error {
	if ferr := tk.flush(); ferr != nil && err == nil {
		return ferr
	}
	return err
}

// loopMessages lists the loop notes of g.
func loopMessages(g *graph.Graph) []string {
	loops := g.Loops()
	out := make([]string, 0, len(loops))
	for _, l := range loops {
		out = append(out, l.Message)
	}
	return out
}
