package schedule

import (
	"time"

	"github.com/roach88/timeweave/internal/distribution"
	"github.com/roach88/timeweave/internal/mergeheap"
	"github.com/roach88/timeweave/internal/scope"
	"github.com/roach88/timeweave/internal/timeline"
)

// State is a scheduler's lifecycle position. It only moves forward.
type State int

const (
	// NotStarted means Next has not been called yet.
	NotStarted State = iota
	// Producing means at least one moment has been yielded.
	Producing
	// Exhausted means Next has returned false and always will.
	Exhausted
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not-started"
	case Producing:
		return "producing"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Scheduler lazily produces moments in non-decreasing offset order.
type Scheduler interface {
	// Next returns the next moment, or false once the scheduler is exhausted.
	Next() (Moment, bool)

	// State reports the lifecycle position.
	State() State
}

// lifecycle tracks State transitions for every scheduler variant.
type lifecycle struct {
	state State
}

func (l *lifecycle) State() State { return l.state }

func (l *lifecycle) advance(m Moment, ok bool) (Moment, bool) {
	if ok {
		l.state = Producing
	} else {
		l.state = Exhausted
	}
	return m, ok
}

// placement is what a parent tells a child scheduler about where it runs.
type placement struct {
	start  time.Duration
	window time.Duration
	scope  *scope.Scope
	dist   distribution.Func
}

// newScheduler builds the scheduler for node n. The node gets its own scope
// frame holding its bindings, and its distribution overrides the inherited
// one.
func newScheduler(n timeline.Timeline, p placement) Scheduler {
	frame := p.scope.Push()
	if b := n.Bindings(); len(b) > 0 {
		frame.WriteAll(b)
	}
	p.scope = frame
	if d := n.Distribution(); d != nil {
		p.dist = d
	}

	switch n.Kind() {
	case timeline.KindLeaf:
		return &leafScheduler{leaf: n.(*timeline.Leaf), at: p}
	case timeline.KindSequential:
		return &sequentialScheduler{node: n, at: p}
	default:
		return &concurrentScheduler{node: n, at: p}
	}
}

// childPlacement derives a child's placement from its parent's.
// Under a sequential parent a child's window is its own span; under a
// concurrent parent it is the rest of the parent's span.
func childPlacement(parent timeline.Timeline, p placement, c timeline.OffsetTimeline) placement {
	window := c.Duration()
	if parent.Kind() == timeline.KindConcurrent {
		window = parent.Duration() - c.Offset
	}
	return placement{
		start:  p.start + c.Offset,
		window: window,
		scope:  p.scope,
		dist:   p.dist,
	}
}

// leafScheduler yields exactly one moment.
type leafScheduler struct {
	lifecycle
	leaf *timeline.Leaf
	at   placement
}

func (s *leafScheduler) Next() (Moment, bool) {
	if s.state != NotStarted {
		return s.advance(Moment{}, false)
	}
	offset := s.at.start
	if s.at.dist != nil {
		offset = distribution.Clamp(s.at.dist(s.at.start, s.at.window), s.at.start, s.at.window)
	}
	return s.advance(Moment{Offset: offset, Scope: s.at.scope, Leaf: s.leaf}, true)
}

// sequentialScheduler concatenates child streams in child order.
type sequentialScheduler struct {
	lifecycle
	node    timeline.Timeline
	at      placement
	next    int
	current Scheduler
}

func (s *sequentialScheduler) Next() (Moment, bool) {
	if s.state == Exhausted {
		return Moment{}, false
	}
	children := s.node.Children()
	for {
		if s.current != nil {
			if m, ok := s.current.Next(); ok {
				return s.advance(m, true)
			}
			s.current = nil
		}
		if s.next >= len(children) {
			return s.advance(Moment{}, false)
		}
		c := children[s.next]
		s.next++
		s.current = newScheduler(c.Timeline, childPlacement(s.node, s.at, c))
	}
}

// concurrentScheduler merges child streams by offset.
type concurrentScheduler struct {
	lifecycle
	node   timeline.Timeline
	at     placement
	merged *mergeheap.Heap[Moment]
}

func (s *concurrentScheduler) Next() (Moment, bool) {
	if s.state == Exhausted {
		return Moment{}, false
	}
	if s.merged == nil {
		children := s.node.Children()
		sources := make([]mergeheap.Source[Moment], len(children))
		for i, c := range children {
			sources[i] = newScheduler(c.Timeline, childPlacement(s.node, s.at, c))
		}
		s.merged = mergeheap.New(momentLess, sources...)
	}
	return s.advance(s.merged.Pop())
}
