package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool    `json:"valid"`
	Timeline string  `json:"timeline,omitempty"`
	Hash     string  `json:"hash,omitempty"`
	Errors   []Issue `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <definition>",
		Short: "Check a definition without running it",
		Long: `Validate a YAML or CUE timeline definition.

Reports every structural problem at once (unknown kinds, bad durations,
misplaced offsets, unnamed events, ...) with its source position, then
builds the tree to check that every child fits its parent's window.
Nothing is scheduled or emitted.

Exit codes:
  0 - Definition is valid
  1 - Definition has problems
  2 - Command error (file not found, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	doc, _, issues, err := compileDefinition(fsOf(opts), path)
	if err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			_ = formatter.Error(ErrCodeCommand, exitErr.Error(), nil)
		}
		return err
	}

	if len(issues) > 0 {
		if formatter.IsJSON() {
			_ = formatter.Success(ValidationResult{Valid: false, Errors: issues})
			return NewExitError(ExitFailure, fmt.Sprintf("%s: %d %s", path, len(issues), plural(len(issues), "problem", "problems")))
		}
		return issuesError(formatter, path, issues)
	}

	hash, err := doc.Hash()
	if err != nil {
		return WrapExitError(ExitFailure, "failed to hash definition", err)
	}
	formatter.VerboseLog("Validated %s (%s)", path, doc.Format)

	if formatter.IsJSON() {
		return formatter.Success(ValidationResult{Valid: true, Timeline: doc.Name(), Hash: hash})
	}
	fmt.Fprintf(formatter.Writer, "✓ %s valid (timeline %s, hash %s)\n", path, doc.Name(), shortHash(hash))
	return nil
}

// shortHash abbreviates a content hash for display.
func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
