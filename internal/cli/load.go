package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/roach88/timeweave/internal/compiler"
	"github.com/roach88/timeweave/internal/timeline"
)

// Issue is one definition problem as reported to the user.
type Issue struct {
	Code    string `json:"code"`
	Path    string `json:"path"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

func (i Issue) String() string {
	pos := compiler.Position{File: i.File, Line: i.Line, Column: i.Column}
	if s := pos.String(); s != "" {
		return fmt.Sprintf("%s: [%s] %s: %s", s, i.Code, i.Path, i.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", i.Code, i.Path, i.Message)
}

// fsOf returns the filesystem definitions are read from.
func fsOf(opts *RootOptions) afero.Fs {
	if opts.Fs != nil {
		return opts.Fs
	}
	return afero.NewOsFs()
}

// loadDefinition reads a definition file. A missing file is a command
// error; a file that does not parse comes back as issues.
func loadDefinition(fs afero.Fs, path string) (*compiler.Document, []Issue, error) {
	if err := checkReadable(fs, path, "definition"); err != nil {
		return nil, nil, err
	}
	doc, err := compiler.Load(fs, path)
	if err != nil {
		if issues := issuesFrom(err); len(issues) > 0 {
			return nil, issues, nil
		}
		return nil, nil, WrapExitError(ExitCommandError, "failed to load definition", err)
	}
	return doc, nil, nil
}

// compileDefinition loads and compiles path. Definition problems come back
// as issues; anything else is an exit error.
func compileDefinition(fs afero.Fs, path string, opts ...compiler.Option) (*compiler.Document, timeline.Timeline, []Issue, error) {
	doc, issues, err := loadDefinition(fs, path)
	if err != nil || len(issues) > 0 {
		return nil, nil, issues, err
	}
	tl, err := compiler.Compile(doc, opts...)
	if err != nil {
		if issues := issuesFrom(err); len(issues) > 0 {
			return doc, nil, issues, nil
		}
		return doc, nil, nil, WrapExitError(ExitFailure, "failed to compile definition", err)
	}
	return doc, tl, nil, nil
}

// issuesFrom flattens joined compile errors into issues, in order.
func issuesFrom(err error) []Issue {
	var issues []Issue
	var walk func(error)
	walk = func(err error) {
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range joined.Unwrap() {
				walk(e)
			}
			return
		}
		var ce *compiler.CompileError
		if errors.As(err, &ce) {
			issues = append(issues, Issue{
				Code:    ce.Code,
				Path:    ce.Path,
				Message: ce.Message,
				File:    ce.Pos.File,
				Line:    ce.Pos.Line,
				Column:  ce.Pos.Column,
			})
		}
	}
	walk(err)
	return issues
}

// issuesError reports issues through the formatter and returns the
// matching exit error.
func issuesError(f *OutputFormatter, path string, issues []Issue) error {
	if f.IsJSON() {
		_ = f.Error(issues[0].Code, fmt.Sprintf("%s: %d %s", path, len(issues), plural(len(issues), "problem", "problems")), issues)
	} else {
		for _, issue := range issues {
			fmt.Fprintf(f.Writer, "✗ %s\n", issue)
		}
	}
	return NewExitError(ExitFailure, fmt.Sprintf("%s: %d %s", path, len(issues), plural(len(issues), "problem", "problems")))
}

// parseOrigin accepts "now" (or empty), RFC 3339 timestamps and plain
// dates, which are taken as UTC midnight.
func parseOrigin(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "now" {
		return now.UTC().Truncate(time.Second), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid origin %q: want RFC 3339, YYYY-MM-DD or now", s)
}

// checkReadable fails with a command error when path does not exist.
func checkReadable(fs afero.Fs, path, what string) error {
	if _, err := fs.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return NewExitError(ExitCommandError, fmt.Sprintf("%s not found: %s", what, path))
		}
		return WrapExitError(ExitCommandError, fmt.Sprintf("cannot read %s", what), err)
	}
	return nil
}
