package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid           bool        `json:"valid"`
	CatalogVersion  string      `json:"catalog_version"`
	TemplateVersion string      `json:"template_version"`
	Opcodes         int         `json:"opcodes"`
	Program         string      `json:"program,omitempty"`
	Version         string      `json:"version,omitempty"`
	Steps           int         `json:"steps,omitempty"`
	Loops           []string    `json:"loops,omitempty"`
	Unreachable     []int       `json:"unreachable,omitempty"`
	Errors          []StepError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [program-file]",
		Short: "Check the opcode catalog, templates and optionally a program",
		Long: `Load the opcode catalog and template table and render a synthetic
instance of every node kind to prove every kind has a template.

With a program file, also decode every instruction and assemble the step
graph, reporting every failing step.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runValidate(rootOpts, path, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	tk, err := newToolkit(opts, cmd)
	if err != nil {
		return commandError(formatter, err)
	}

	result := ValidationResult{
		Valid:           true,
		CatalogVersion:  tk.catalog.Version(),
		TemplateVersion: tk.renderer.TemplateVersion(),
		Opcodes:         tk.catalog.Len(),
	}
	formatter.VerboseLog("Catalog v%s: %d opcodes", result.CatalogVersion, result.Opcodes)
	formatter.VerboseLog("Templates v%s: self-check passed", result.TemplateVersion)

	if path == "" {
		return tk.finish(outputValidateSuccess(formatter, result))
	}

	p, err := LoadProgram(path)
	if err != nil {
		return tk.finish(commandError(formatter, err))
	}
	a, err := tk.analyze(p)
	if err != nil {
		return tk.finish(commandError(formatter, err))
	}

	result.Program = p.Name
	result.Version = p.Version
	if !a.OK() {
		result.Valid = false
		result.Errors = stepErrors(a)
		return tk.finish(outputValidationErrors(formatter, result))
	}

	result.Steps = a.Graph.Len()
	result.Loops = loopMessages(a.Graph)
	result.Unreachable = a.Graph.Unreachable()
	return tk.finish(outputValidateSuccess(formatter, result))
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	if result.Program == "" {
		fmt.Fprintf(formatter.Writer, "✓ Catalog and templates valid (%d opcodes)\n", result.Opcodes)
		return nil
	}

	fmt.Fprintf(formatter.Writer, "✓ %s %s valid (%d steps)\n", result.Program, result.Version, result.Steps)
	for _, msg := range result.Loops {
		fmt.Fprintf(formatter.Writer, "  note: %s\n", msg)
	}
	for _, step := range result.Unreachable {
		fmt.Fprintf(formatter.Writer, "  note: Step %d is unreachable\n", step)
	}
	return nil
}

// outputValidationErrors outputs every per-step failure.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	errs := result.Errors
	exitErr := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))

	if formatter.Format == "json" {
		if err := formatter.Failure(result, errs[0].Code, errs[0].Message); err != nil {
			return err
		}
		return exitErr
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	printStepErrors(formatter, errs)
	return exitErr
}

func printStepErrors(formatter *OutputFormatter, errs []StepError) {
	for _, err := range errs {
		if err.Step != 0 {
			fmt.Fprintf(formatter.Writer, "step %d\n", err.Step)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", err.Code, err.Message)
	}
}
