package timeline

import (
	"fmt"
	"math"
	"time"

	"github.com/roach88/timeweave/internal/distribution"
	"github.com/roach88/timeweave/internal/ir"
)

// Concurrent runs its children at independently chosen offsets. Children
// may overlap.
type Concurrent struct {
	composite
}

// NewConcurrent creates an empty concurrent window with an initial
// duration d. The duration grows as children are placed past it.
func NewConcurrent(name string, d time.Duration) (*Concurrent, error) {
	if d < 0 {
		return nil, ErrNegativeDuration
	}
	return &Concurrent{composite: composite{attrs: attrs{name: name}, duration: d}}, nil
}

// Kind implements Timeline.
func (c *Concurrent) Kind() Kind { return KindConcurrent }

// WithBindings sets variables visible to every descendant.
func (c *Concurrent) WithBindings(b ir.Object) *Concurrent {
	c.bindings = b
	return c
}

// WithDistribution sets the default placement for descendant leaves.
func (c *Concurrent) WithDistribution(d distribution.Func) *Concurrent {
	c.dist = d
	return c
}

// Attach places child at offset from c's start, extending c's duration to
// the child's end if it reaches past it.
func (c *Concurrent) Attach(child Timeline, offset time.Duration) error {
	if err := c.checkAttach(c, child); err != nil {
		return err
	}
	if offset < 0 {
		return ErrNegativeOffset
	}
	if offset > math.MaxInt64-child.Duration() {
		return fmt.Errorf("place %q at %s: %w", child.Name(), offset, ErrDurationOverflow)
	}
	c.place(child, offset)
	return nil
}

func (c *Concurrent) place(child Timeline, offset time.Duration) {
	child.seal()
	c.children = append(c.children, OffsetTimeline{Offset: offset, Timeline: child})
	if end := offset + child.Duration(); end > c.duration {
		c.duration = end
	}
}
