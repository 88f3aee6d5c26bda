package schedule

import (
	"errors"
	"fmt"
	"iter"
	"math"
	"time"

	"github.com/roach88/timeweave/internal/distribution"
	"github.com/roach88/timeweave/internal/scope"
	"github.com/roach88/timeweave/internal/timeline"
)

var (
	// ErrInvalidStretch is returned for a stretch factor that is not a
	// finite positive number, or that would stretch the tree past the
	// largest representable offset.
	ErrInvalidStretch = errors.New("stretch must be a finite number greater than zero")

	// ErrNegativeStart is returned for a negative starting offset.
	ErrNegativeStart = errors.New("starting offset must not be negative")
)

// DefaultStretch leaves offsets unchanged.
const DefaultStretch = 1.0

type config struct {
	stretch float64
	dist    distribution.Func
}

// Option configures Schedule.
type Option func(*config)

// WithStretch rescales every offset relative to the starting offset:
// emitted = start + factor*(raw-start).
func WithStretch(factor float64) Option {
	return func(c *config) {
		c.stretch = factor
	}
}

// WithDistribution sets the placement used by leaves whose ancestors
// declare none. Without it leaves sit at the start of their window.
func WithDistribution(d distribution.Func) Option {
	return func(c *config) {
		c.dist = d
	}
}

// Root is the caller-facing scheduler for a whole tree.
type Root struct {
	inner   Scheduler
	start   time.Duration
	stretch float64
	emitted int
}

// Schedule prepares a lazy schedule of root starting at start. The tree is
// expected to be valid; building it through timeline's Attach guarantees
// that. s is the outermost scope and may be nil.
func Schedule(root timeline.Timeline, start time.Duration, s *scope.Scope, opts ...Option) (*Root, error) {
	if root == nil {
		return nil, timeline.ErrNilTimeline
	}
	if start < 0 {
		return nil, ErrNegativeStart
	}
	cfg := config{stretch: DefaultStretch}
	for _, opt := range opts {
		opt(&cfg)
	}
	if !(cfg.stretch > 0) || math.IsInf(cfg.stretch, 0) {
		return nil, fmt.Errorf("stretch %v: %w", cfg.stretch, ErrInvalidStretch)
	}
	// Moments stay within [start, start+duration], so this bounds every
	// stretched offset.
	if float64(start)+float64(root.Duration())*cfg.stretch >= math.MaxInt64 {
		return nil, fmt.Errorf("stretch %v overflows a %s window: %w", cfg.stretch, root.Duration(), ErrInvalidStretch)
	}
	if s == nil {
		s = scope.New()
	}

	return &Root{
		inner:   newScheduler(root, placement{start: start, scope: s, dist: cfg.dist}),
		start:   start,
		stretch: cfg.stretch,
	}, nil
}

// Next returns the next moment with its offset stretched.
func (r *Root) Next() (Moment, bool) {
	m, ok := r.inner.Next()
	if !ok {
		return Moment{}, false
	}
	if r.stretch != DefaultStretch {
		m.Offset = r.start + time.Duration(float64(m.Offset-r.start)*r.stretch)
	}
	r.emitted++
	return m, true
}

// State reports the lifecycle of the underlying root scheduler.
func (r *Root) State() State { return r.inner.State() }

// Emitted is the number of moments returned so far.
func (r *Root) Emitted() int { return r.emitted }

// Stretch is the configured stretch factor.
func (r *Root) Stretch() float64 { return r.stretch }

// All yields the remaining moments. Breaking out of the loop leaves the
// schedule where it stopped.
func (r *Root) All() iter.Seq[Moment] {
	return func(yield func(Moment) bool) {
		for {
			m, ok := r.Next()
			if !ok || !yield(m) {
				return
			}
		}
	}
}

// Drain collects every remaining moment.
func (r *Root) Drain() []Moment {
	var out []Moment
	for m := range r.All() {
		out = append(out, m)
	}
	return out
}
