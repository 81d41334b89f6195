// Ratelens decodes legacy rating-program instruction exports into a typed
// AST, explains them as markdown and diffs program versions.
//
// Usage:
//
//	# Check the embedded opcode catalog and templates
//	ratelens validate
//
//	# Explain a program, one step or all of them
//	ratelens explain program.json
//	ratelens explain program.yaml --step 40 --pretty
//
//	# Compare two versions
//	ratelens diff v1.json v2.json
//	ratelens diff v1.json v2.json --text
//
//	# Keep versions in a database
//	ratelens store save program.json --db versions.db
//	ratelens store diff AUTO_PREMIUM 1 2 --db versions.db
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/ratelens/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			// Usage errors never reached an output formatter.
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
