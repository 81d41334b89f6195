package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ratelens/internal/ast"
)

// DecodedStep is the decode outcome of one instruction.
type DecodedStep struct {
	Step  int           `json:"step"`
	Label string        `json:"label"`
	Node  *ast.Envelope `json:"node,omitempty"`
	Error *StepError    `json:"error,omitempty"`
}

// DecodeReport is the output of the decode command.
type DecodeReport struct {
	Program     string        `json:"program"`
	Version     string        `json:"version"`
	Steps       []DecodedStep `json:"steps"`
	Loops       []string      `json:"loops,omitempty"`
	Unreachable []int         `json:"unreachable,omitempty"`
	Errors      []StepError   `json:"errors,omitempty"`
}

// NewDecodeCommand creates the decode command.
func NewDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode <program-file>",
		Short: "Decode a program into its typed AST",
		Long: `Decode every instruction of a program into a typed node and assemble
the step graph. Every step is reported, failing or not, followed by
loop and reachability notes.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runDecode(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	tk, err := newToolkit(opts, cmd)
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

	report := DecodeReport{Program: p.Name, Version: p.Version}
	for i, r := range a.Results {
		step := DecodedStep{Step: r.Step, Label: tk.catalog.Label(p.Instructions[i].Type)}
		if r.OK() {
			env := ast.Wrap(r.Node)
			step.Node = &env
		} else {
			step.Error = &StepError{Step: r.Step, Code: MapErrorCode(r.Err), Message: r.Err.Error()}
		}
		report.Steps = append(report.Steps, step)
	}
	if a.Graph != nil {
		report.Loops = loopMessages(a.Graph)
		report.Unreachable = a.Graph.Unreachable()
	}
	report.Errors = stepErrors(a)

	return tk.finish(outputDecodeReport(formatter, report))
}

func outputDecodeReport(formatter *OutputFormatter, report DecodeReport) error {
	var exitErr error
	if len(report.Errors) > 0 {
		exitErr = NewExitError(ExitFailure, fmt.Sprintf("decode failed with %d error(s)", len(report.Errors)))
	}

	if formatter.Format == "json" {
		if exitErr != nil {
			if err := formatter.Failure(report, report.Errors[0].Code, report.Errors[0].Message); err != nil {
				return err
			}
			return exitErr
		}
		return formatter.Success(report)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "%s %s: %d step(s)\n\n", report.Program, report.Version, len(report.Steps))
	for _, s := range report.Steps {
		if s.Error != nil {
			fmt.Fprintf(w, "✗ %4d  %-24s %s: %s\n", s.Step, s.Label, s.Error.Code, s.Error.Message)
			continue
		}
		fmt.Fprintf(w, "✓ %4d  %-24s %s\n", s.Step, s.Label, s.Node.Kind)
	}

	if len(report.Loops) > 0 || len(report.Unreachable) > 0 {
		fmt.Fprintln(w)
	}
	for _, msg := range report.Loops {
		fmt.Fprintf(w, "  note: %s\n", msg)
	}
	for _, step := range report.Unreachable {
		fmt.Fprintf(w, "  note: Step %d is unreachable\n", step)
	}

	// Assembly failures have no step row of their own.
	var assembly []StepError
	for _, e := range report.Errors {
		if e.Step == 0 {
			assembly = append(assembly, e)
		}
	}
	if len(assembly) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "✗ Assembly failed")
		fmt.Fprintln(w)
		printStepErrors(formatter, assembly)
	}
	return exitErr
}
