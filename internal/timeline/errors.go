package timeline

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrWindowDurationExceeded is matched by *WindowDurationExceededError.
	ErrWindowDurationExceeded = errors.New("window duration exceeded")

	// ErrNegativeDuration is returned when a composite is declared with a
	// negative span.
	ErrNegativeDuration = errors.New("duration must not be negative")

	// ErrNegativeOffset is returned when a concurrent child is placed before
	// its parent's start.
	ErrNegativeOffset = errors.New("offset must not be negative")

	// ErrSealed is returned when attaching to a composite that already
	// belongs to a parent, or attaching a child that already has one.
	ErrSealed = errors.New("timeline is sealed")

	// ErrCycle is returned when an attach would make a node its own
	// descendant.
	ErrCycle = errors.New("timeline would contain itself")

	// ErrInvalidFactor is returned by Repeat and Parallelize for negative
	// factors.
	ErrInvalidFactor = errors.New("factor must not be negative")

	// ErrDurationOverflow is returned when a placement or combinator would
	// produce a span larger than time.Duration can hold.
	ErrDurationOverflow = errors.New("duration overflows")

	// ErrNilTimeline is returned when attaching a nil child.
	ErrNilTimeline = errors.New("timeline is nil")
)

// WindowDurationExceededError reports a child that does not fit inside its
// sequential parent.
type WindowDurationExceededError struct {
	// Child is the timeline whose attach was rejected.
	Child Timeline

	// Offset is where the child would have started.
	Offset time.Duration

	// ParentDuration is the parent's fixed span.
	ParentDuration time.Duration
}

func (e *WindowDurationExceededError) Error() string {
	name := ""
	if e.Child != nil && e.Child.Name() != "" {
		name = fmt.Sprintf(" %q", e.Child.Name())
	}
	var d time.Duration
	if e.Child != nil {
		d = e.Child.Duration()
	}
	return fmt.Sprintf("%s: child%s of duration %s at offset %s ends at %s, parent duration is %s",
		ErrWindowDurationExceeded, name, d, e.Offset, e.Offset+d, e.ParentDuration)
}

// Is reports whether target is ErrWindowDurationExceeded.
func (e *WindowDurationExceededError) Is(target error) bool {
	return target == ErrWindowDurationExceeded
}

// IsWindowDurationExceeded reports whether err, or anything it wraps, is a
// window overflow.
func IsWindowDurationExceeded(err error) bool {
	var we *WindowDurationExceededError
	return errors.As(err, &we)
}
