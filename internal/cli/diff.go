package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/ratelens/internal/differ"
	"github.com/roach88/ratelens/internal/ir"
)

// DiffOptions holds flags for the diff command.
type DiffOptions struct {
	Text bool
	Flat bool
}

// DiffResult is the output of the diff and store diff commands.
type DiffResult struct {
	Old     string          `json:"old"`
	New     string          `json:"new"`
	Mode    string          `json:"mode"` // "structural" | "flat" | "text"
	Changes []differ.Change `json:"changes,omitempty"`
	Summary differ.Summary  `json:"summary"`
	Text    string          `json:"text,omitempty"`
}

// NewDiffCommand creates the diff command.
func NewDiffCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DiffOptions{}

	cmd := &cobra.Command{
		Use:   "diff <old-program> <new-program>",
		Short: "Compare two program versions",
		Long: `Compare two versions of a program.

By default both programs are decoded and compared step by step, field by
field. --flat compares the raw instruction fields without decoding.
--text renders both programs and prints a unified diff of the documents.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(rootOpts, opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Text, "text", false, "unified diff of the rendered documents")
	cmd.Flags().BoolVar(&opts.Flat, "flat", false, "compare raw instruction fields")
	cmd.MarkFlagsMutuallyExclusive("text", "flat")

	return cmd
}

func runDiff(rootOpts *RootOptions, opts *DiffOptions, oldPath, newPath string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)

	tk, err := newToolkit(rootOpts, cmd)
	if err != nil {
		return commandError(formatter, err)
	}

	oldProg, err := LoadProgram(oldPath)
	if err != nil {
		return tk.finish(commandError(formatter, err))
	}
	newProg, err := LoadProgram(newPath)
	if err != nil {
		return tk.finish(commandError(formatter, err))
	}

	result, err := tk.diffPrograms(oldProg, newProg, opts)
	if err != nil {
		return tk.finish(diffError(formatter, err))
	}
	return tk.finish(outputDiff(formatter, result))
}

// diffPrograms compares two loaded programs in the mode selected by opts.
func (tk *toolkit) diffPrograms(oldProg, newProg ir.Program, opts *DiffOptions) (DiffResult, error) {
	result := DiffResult{Old: programRef(oldProg), New: programRef(newProg), Mode: "structural"}
	start := time.Now()
	defer func() { tk.metrics.ObserveDuration("diff", time.Since(start)) }()

	if opts.Flat {
		result.Mode = "flat"
		result.Changes = differ.DiffInstructions(oldProg.Instructions, newProg.Instructions)
		result.Summary = differ.Summarize(result.Changes)
		tk.metrics.RecordChanges(result.Changes)
		return result, nil
	}

	oldA, err := tk.analyze(oldProg)
	if err != nil {
		return result, err
	}
	newA, err := tk.analyze(newProg)
	if err != nil {
		return result, err
	}
	for _, a := range []*analysis{oldA, newA} {
		if !a.OK() {
			return result, &analysisError{ref: programRef(a.Program), errs: stepErrors(a)}
		}
	}

	if opts.Text {
		result.Mode = "text"
		oldDoc, err := tk.renderDocument(oldA)
		if err != nil {
			return result, err
		}
		newDoc, err := tk.renderDocument(newA)
		if err != nil {
			return result, err
		}
		result.Text = differ.TextDiff(result.Old, result.New, oldDoc, newDoc)
		return result, nil
	}

	result.Changes, err = differ.Diff(oldA.Graph, newA.Graph)
	if err != nil {
		return result, err
	}
	result.Summary = differ.Summarize(result.Changes)
	tk.metrics.RecordChanges(result.Changes)
	tk.logger.Debug("programs compared",
		"old", result.Old,
		"new", result.New,
		"added", result.Summary.Added,
		"removed", result.Summary.Removed,
		"changed", result.Summary.Changed)
	return result, nil
}

// analysisError reports that one side of a diff did not decode or assemble.
type analysisError struct {
	ref  string
	errs []StepError
}

func (e *analysisError) Error() string {
	return fmt.Sprintf("%s: %d error(s), first: %s: %s", e.ref, len(e.errs), e.errs[0].Code, e.errs[0].Message)
}

func diffError(formatter *OutputFormatter, err error) error {
	ae, ok := err.(*analysisError)
	if !ok {
		return commandError(formatter, err)
	}
	result := ValidationResult{Valid: false, Program: ae.ref, Errors: ae.errs}
	return outputValidationErrors(formatter, result)
}

func programRef(p ir.Program) string {
	return p.Name + "@" + p.Version
}

func outputDiff(formatter *OutputFormatter, result DiffResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	if result.Mode == "text" {
		if result.Text == "" {
			fmt.Fprintf(w, "✓ No differences between %s and %s\n", result.Old, result.New)
			return nil
		}
		fmt.Fprint(w, result.Text)
		return nil
	}

	if len(result.Changes) == 0 {
		fmt.Fprintf(w, "✓ No differences between %s and %s\n", result.Old, result.New)
		return nil
	}
	fmt.Fprintf(w, "%s -> %s\n\n", result.Old, result.New)
	for _, c := range result.Changes {
		fmt.Fprintln(w, c.String())
	}
	fmt.Fprintf(w, "\n%d added, %d removed, %d changed\n", result.Summary.Added, result.Summary.Removed, result.Summary.Changed)
	return nil
}
