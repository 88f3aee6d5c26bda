package compiler

import (
	"fmt"

	"cuelang.org/go/cue/errors"
)

// Compile error codes (E200-E299)
const (
	ErrInvalidKind         = "E201" // kind is not event, sequential or concurrent
	ErrInvalidDuration     = "E202" // duration or offset does not parse or is negative
	ErrMisplacedOffset     = "E203" // offset outside a concurrent parent
	ErrInvalidFactor       = "E204" // negative repeat or parallel
	ErrInvalidDistribution = "E205" // unknown distribution or bad cron expression
	ErrInvalidValue        = "E206" // var or attr value outside the value model
	ErrMissingName         = "E207" // events must be named
	ErrEventChildren       = "E208" // events cannot have children
	ErrEventDuration       = "E209" // event duration without repeat
	ErrWindowExceeded      = "E210" // child does not fit its sequential parent
	ErrMissingTimeline     = "E211" // no top-level timeline
	ErrSyntax              = "E212" // source does not parse
	ErrBuild               = "E299" // any other construction failure
)

// Position locates a definition element in its source file.
type Position struct {
	File   string
	Line   int
	Column int
}

// IsValid reports whether p carries a line.
func (p Position) IsValid() bool { return p.Line > 0 }

func (p Position) String() string {
	if !p.IsValid() {
		return p.File
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// CompileError is a problem with one element of a definition.
type CompileError struct {
	// Path addresses the element, e.g. "timeline.children[2].duration".
	Path    string
	Code    string
	Message string
	Pos     Position

	// Err is the underlying cause, if any.
	Err error
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: [%s] %s: %s", e.Pos, e.Code, e.Path, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Path, e.Message)
}

func (e *CompileError) Unwrap() error { return e.Err }

// formatCUEError extracts position info from CUE errors.
func formatCUEError(path string, err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &CompileError{Path: path, Code: ErrSyntax, Message: err.Error(), Err: err}
	}

	first := errs[0]
	ce := &CompileError{Path: path, Code: ErrSyntax, Message: first.Error(), Err: err}
	if positions := errors.Positions(first); len(positions) > 0 {
		p := positions[0]
		ce.Pos = Position{File: p.Filename(), Line: p.Line(), Column: p.Column()}
	}
	return ce
}
