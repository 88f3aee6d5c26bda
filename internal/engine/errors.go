package engine

import (
	"errors"
	"fmt"
)

// RuntimeError is an engine-side failure while running a schedule.
//
// Errors returned by actions are not RuntimeErrors: Run hands them back to
// the caller exactly as the action produced them.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// RunID identifies the affected run.
	RunID string

	// Seq and Name identify the moment being fired, when there is one.
	Seq  int64
	Name string

	// Err is the underlying cause.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeSinkFailed indicates a sink rejected an emitted event.
	ErrCodeSinkFailed RuntimeErrorCode = "SINK_FAILED"

	// ErrCodeNoRun indicates Emit was called outside a running action.
	ErrCodeNoRun RuntimeErrorCode = "NO_RUN"

	// ErrCodeInvalidEvent indicates an emitted event could not be identified.
	ErrCodeInvalidEvent RuntimeErrorCode = "INVALID_EVENT"
)

func (e *RuntimeError) Error() string {
	switch {
	case e.RunID != "" && e.Name != "":
		return fmt.Sprintf("%s: %s (run=%s, seq=%d, event=%s)", e.Code, e.Message, e.RunID, e.Seq, e.Name)
	case e.RunID != "":
		return fmt.Sprintf("%s: %s (run=%s)", e.Code, e.Message, e.RunID)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

func (e *RuntimeError) Unwrap() error { return e.Err }

// IsSinkError reports whether err is, or wraps, a sink failure.
func IsSinkError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeSinkFailed
	}
	return false
}

// IsNoRunError reports whether err came from Emit outside a run.
func IsNoRunError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeNoRun
	}
	return false
}
