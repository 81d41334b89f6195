package cli

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/roach88/ratelens/internal/render"
)

// ExplainOptions holds flags for the explain command.
type ExplainOptions struct {
	Step   int
	Pretty bool
	Width  int
}

// ExplainResult is the JSON output of the explain command.
type ExplainResult struct {
	Program         string             `json:"program"`
	Version         string             `json:"version"`
	TemplateVersion string             `json:"template_version"`
	Steps           []render.Rendering `json:"steps"`
	Document        string             `json:"document,omitempty"`
}

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExplainOptions{}

	cmd := &cobra.Command{
		Use:   "explain <program-file>",
		Short: "Render a program as plain-English markdown",
		Long: `Decode a program, assemble its step graph and render every step
through the template table. The result is a markdown document with one
section per step followed by notes on loops and unreachable steps.

Use --step to render a single step and --pretty to format the markdown
for the terminal.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Step, "step", 0, "render only this step")
	cmd.Flags().BoolVar(&opts.Pretty, "pretty", false, "format markdown for the terminal")
	cmd.Flags().IntVar(&opts.Width, "width", 80, "word wrap width for --pretty")

	return cmd
}

func runExplain(rootOpts *RootOptions, opts *ExplainOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)

	tk, err := newToolkit(rootOpts, cmd)
	if err != nil {
		return commandError(formatter, err)
	}
	p, err := LoadProgram(path)
	if err != nil {
		return tk.finish(commandError(formatter, err))
	}
	a, err := tk.analyze(p)
	if err != nil {
		return tk.finish(commandError(formatter, err))
	}
	if !a.OK() {
		result := ValidationResult{Valid: false, Program: p.Name, Version: p.Version, Errors: stepErrors(a)}
		return tk.finish(outputValidationErrors(formatter, result))
	}

	result := ExplainResult{Program: p.Name, Version: p.Version, TemplateVersion: tk.renderer.TemplateVersion()}

	var doc string
	if opts.Step != 0 {
		n, ok := a.Graph.Node(opts.Step)
		if !ok {
			err := &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("step %d not found in %s %s", opts.Step, p.Name, p.Version)}
			return tk.finish(commandError(formatter, err))
		}
		text, err := tk.renderer.Render(n)
		if err != nil {
			return tk.finish(commandError(formatter, err))
		}
		tk.metrics.RecordRender(n.Kind())
		result.Steps = []render.Rendering{{Step: opts.Step, Text: text}}
		doc = fmt.Sprintf("### Step %d\n\n%s\n", opts.Step, text)
	} else {
		steps, err := tk.renderAll(a)
		if err != nil {
			return tk.finish(commandError(formatter, err))
		}
		doc, err = tk.renderer.RenderGraph(a.Graph)
		if err != nil {
			return tk.finish(commandError(formatter, err))
		}
		result.Steps = steps
		result.Document = doc
	}
	formatter.VerboseLog("Rendered %d step(s) with templates v%s", len(result.Steps), result.TemplateVersion)

	if formatter.Format == "json" {
		return tk.finish(formatter.Success(result))
	}

	if opts.Pretty {
		pretty, err := prettyMarkdown(doc, opts.Width)
		if err != nil {
			return tk.finish(commandError(formatter, err))
		}
		doc = pretty
	}
	fmt.Fprint(formatter.Writer, doc)
	return tk.finish(nil)
}

// prettyMarkdown formats markdown for the terminal.
func prettyMarkdown(doc string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("create markdown renderer: %w", err)
	}
	out, err := r.Render(doc)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}
