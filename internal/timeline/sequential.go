package timeline

import (
	"time"

	"github.com/roach88/timeweave/internal/distribution"
	"github.com/roach88/timeweave/internal/ir"
)

// Sequential runs its children one after another. The Nth child starts
// where the sum of the previous children's durations ends.
type Sequential struct {
	composite
	cumulative time.Duration
}

// NewSequential creates an empty sequential window of fixed duration d.
func NewSequential(name string, d time.Duration) (*Sequential, error) {
	if d < 0 {
		return nil, ErrNegativeDuration
	}
	return &Sequential{composite: composite{attrs: attrs{name: name}, duration: d}}, nil
}

// Kind implements Timeline.
func (s *Sequential) Kind() Kind { return KindSequential }

// Cumulative is the sum of the durations of all attached children, which
// is also where the next child would start.
func (s *Sequential) Cumulative() time.Duration { return s.cumulative }

// Remaining is the span still available for children.
func (s *Sequential) Remaining() time.Duration { return s.duration - s.cumulative }

// WithBindings sets variables visible to every descendant.
func (s *Sequential) WithBindings(b ir.Object) *Sequential {
	s.bindings = b
	return s
}

// WithDistribution sets the default placement for descendant leaves.
func (s *Sequential) WithDistribution(d distribution.Func) *Sequential {
	s.dist = d
	return s
}

// Attach appends child after the previously attached children.
// It fails with *WindowDurationExceededError, leaving s unchanged, when the
// child would end past s.Duration().
func (s *Sequential) Attach(child Timeline) error {
	if err := s.checkAttach(s, child); err != nil {
		return err
	}
	if child.Duration() > s.Remaining() {
		return &WindowDurationExceededError{
			Child:          child,
			Offset:         s.cumulative,
			ParentDuration: s.duration,
		}
	}
	s.place(child)
	return nil
}

// place appends without checks. Callers guarantee the child fits.
func (s *Sequential) place(child Timeline) {
	child.seal()
	s.children = append(s.children, OffsetTimeline{Offset: s.cumulative, Timeline: child})
	s.cumulative += child.Duration()
}
