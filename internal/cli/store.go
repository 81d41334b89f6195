package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ratelens/internal/render"
	"github.com/roach88/ratelens/internal/store"
)

// StoreOptions holds flags shared by the store subcommands.
type StoreOptions struct {
	DB      string
	Program string
}

// SaveResult is the output of store save.
type SaveResult struct {
	Record      store.VersionRecord `json:"record"`
	Rendered    int                 `json:"rendered"`
	SameContent []string            `json:"same_content,omitempty"`
	Errors      []StepError         `json:"errors,omitempty"`
}

// ShowResult is the output of store show.
type ShowResult struct {
	Record store.VersionRecord `json:"record"`
	Steps  []render.Rendering  `json:"steps"`
}

// NewStoreCommand creates the store command and its subcommands.
func NewStoreCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StoreOptions{}

	cmd := &cobra.Command{
		Use:   "store",
		Short: "Keep program versions in a SQLite database",
		Long: `Save program versions with their rendered steps, list what is stored
and compare stored versions.`,
	}

	cmd.PersistentFlags().StringVar(&opts.DB, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkPersistentFlagRequired("db")

	cmd.AddCommand(newStoreSaveCommand(rootOpts, opts))
	cmd.AddCommand(newStoreListCommand(rootOpts, opts))
	cmd.AddCommand(newStoreShowCommand(rootOpts, opts))
	cmd.AddCommand(newStoreDiffCommand(rootOpts, opts))

	return cmd
}

func newStoreSaveCommand(rootOpts *RootOptions, opts *StoreOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "save <program-file>",
		Short: "Save a program version and its rendered steps",
		Long: `Save a program version. Saving the same content again is a no-op;
saving different content under an existing program and version fails.

Steps are rendered and stored alongside when the program decodes and
assembles cleanly.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStoreSave(rootOpts, opts, args[0], cmd)
		},
	}
}

func newStoreListCommand(rootOpts *RootOptions, opts *StoreOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List stored program versions",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStoreList(rootOpts, opts, cmd)
		},
	}
	cmd.Flags().StringVar(&opts.Program, "program", "", "only list versions of this program")
	return cmd
}

func newStoreShowCommand(rootOpts *RootOptions, opts *StoreOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <program> <version>",
		Short:         "Print the stored rendering of a version",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStoreShow(rootOpts, opts, args[0], args[1], cmd)
		},
	}
}

func newStoreDiffCommand(rootOpts *RootOptions, opts *StoreOptions) *cobra.Command {
	diffOpts := &DiffOptions{}
	cmd := &cobra.Command{
		Use:           "diff <program> <old-version> <new-version>",
		Short:         "Compare two stored versions of a program",
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStoreDiff(rootOpts, opts, diffOpts, args[0], args[1], args[2], cmd)
		},
	}
	cmd.Flags().BoolVar(&diffOpts.Text, "text", false, "unified diff of the rendered documents")
	cmd.Flags().BoolVar(&diffOpts.Flat, "flat", false, "compare raw instruction fields")
	cmd.MarkFlagsMutuallyExclusive("text", "flat")
	return cmd
}

func runStoreSave(rootOpts *RootOptions, opts *StoreOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)
	ctx := cmd.Context()

	tk, err := newToolkit(rootOpts, cmd)
	if err != nil {
		return commandError(formatter, err)
	}
	p, err := LoadProgram(path)
	if err != nil {
		return tk.finish(commandError(formatter, err))
	}

	st, err := openStore(opts.DB)
	if err != nil {
		return tk.finish(commandError(formatter, err))
	}
	defer st.Close()

	rec, err := st.SaveVersion(ctx, p)
	if err != nil {
		return tk.finish(commandError(formatter, storeError(err)))
	}
	tk.logger.Info("version saved", "program", rec.Program, "version", rec.Version, "id", rec.ID, "hash", rec.ContentHash)
	result := SaveResult{Record: rec}

	same, err := st.FindByHash(ctx, rec.ContentHash)
	if err != nil {
		return tk.finish(commandError(formatter, storeError(err)))
	}
	for _, other := range same {
		if other.ID != rec.ID {
			result.SameContent = append(result.SameContent, other.Program+"@"+other.Version)
		}
	}

	a, err := tk.analyze(p)
	if err != nil {
		return tk.finish(commandError(formatter, err))
	}
	if a.OK() {
		steps, err := tk.renderAll(a)
		if err != nil {
			return tk.finish(commandError(formatter, err))
		}
		if err := st.SaveRenderings(ctx, rec.ID, tk.renderer.TemplateVersion(), steps); err != nil {
			return tk.finish(commandError(formatter, storeError(err)))
		}
		result.Rendered = len(steps)
	} else {
		result.Errors = stepErrors(a)
		tk.logger.Warn("version saved without renderings", "program", rec.Program, "version", rec.Version, "errors", len(result.Errors))
	}

	if formatter.Format == "json" {
		return tk.finish(formatter.Success(result))
	}

	fmt.Fprintf(formatter.Writer, "✓ Saved %s@%s (seq %d, %s)\n", rec.Program, rec.Version, rec.Seq, shortHash(rec.ContentHash))
	if len(result.Errors) > 0 {
		fmt.Fprintf(formatter.Writer, "  %d step(s) failed to decode or assemble; no renderings stored\n", len(result.Errors))
	} else {
		fmt.Fprintf(formatter.Writer, "  %d step(s) rendered\n", result.Rendered)
	}
	for _, ref := range result.SameContent {
		fmt.Fprintf(formatter.Writer, "  same content as %s\n", ref)
	}
	return tk.finish(nil)
}

func runStoreList(rootOpts *RootOptions, opts *StoreOptions, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)

	st, err := openStore(opts.DB)
	if err != nil {
		return commandError(formatter, err)
	}
	defer st.Close()

	records, err := st.ListVersions(cmd.Context(), opts.Program)
	if err != nil {
		return commandError(formatter, storeError(err))
	}

	if formatter.Format == "json" {
		return formatter.Success(records)
	}

	if len(records) == 0 {
		fmt.Fprintln(formatter.Writer, "No versions stored")
		return nil
	}
	for _, rec := range records {
		fmt.Fprintf(formatter.Writer, "%4d  %-24s %-12s %s\n", rec.Seq, rec.Program, rec.Version, shortHash(rec.ContentHash))
	}
	return nil
}

func runStoreShow(rootOpts *RootOptions, opts *StoreOptions, program, version string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)
	ctx := cmd.Context()

	st, err := openStore(opts.DB)
	if err != nil {
		return commandError(formatter, err)
	}
	defer st.Close()

	_, rec, err := st.LoadVersion(ctx, program, version)
	if err != nil {
		return commandError(formatter, storeError(err))
	}
	steps, err := st.ReadRenderings(ctx, rec.ID)
	if err != nil {
		return commandError(formatter, storeError(err))
	}

	if formatter.Format == "json" {
		return formatter.Success(ShowResult{Record: rec, Steps: steps})
	}

	if len(steps) == 0 {
		fmt.Fprintf(formatter.Writer, "No renderings stored for %s@%s\n", rec.Program, rec.Version)
		return nil
	}
	for _, s := range steps {
		fmt.Fprintf(formatter.Writer, "### Step %d\n\n%s\n\n", s.Step, s.Text)
	}
	return nil
}

func runStoreDiff(rootOpts *RootOptions, opts *StoreOptions, diffOpts *DiffOptions, program, oldVersion, newVersion string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)
	ctx := cmd.Context()

	tk, err := newToolkit(rootOpts, cmd)
	if err != nil {
		return commandError(formatter, err)
	}

	st, err := openStore(opts.DB)
	if err != nil {
		return tk.finish(commandError(formatter, err))
	}
	defer st.Close()

	oldProg, _, err := st.LoadVersion(ctx, program, oldVersion)
	if err != nil {
		return tk.finish(commandError(formatter, storeError(err)))
	}
	newProg, _, err := st.LoadVersion(ctx, program, newVersion)
	if err != nil {
		return tk.finish(commandError(formatter, storeError(err)))
	}

	result, err := tk.diffPrograms(oldProg, newProg, diffOpts)
	if err != nil {
		return tk.finish(diffError(formatter, err))
	}
	return tk.finish(outputDiff(formatter, result))
}

func openStore(path string) (*store.Store, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeStore, Message: fmt.Sprintf("open store %s: %v", path, err)}
	}
	return st, nil
}

// storeError assigns a CLI error code to a store error.
func storeError(err error) error {
	code := ErrCodeStore
	if errors.Is(err, store.ErrNotFound) {
		code = ErrCodeNotFound
	}
	return &LoadError{Code: code, Message: err.Error()}
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
