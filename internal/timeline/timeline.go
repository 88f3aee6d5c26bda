package timeline

import (
	"context"
	"time"

	"github.com/roach88/timeweave/internal/distribution"
	"github.com/roach88/timeweave/internal/ir"
	"github.com/roach88/timeweave/internal/scope"
)

// Kind identifies a Timeline variant.
type Kind int

const (
	// KindLeaf is a single zero-duration event.
	KindLeaf Kind = iota + 1
	// KindSequential places children back to back.
	KindSequential
	// KindConcurrent places children at explicit offsets.
	KindConcurrent
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "event"
	case KindSequential:
		return "sequential"
	case KindConcurrent:
		return "concurrent"
	default:
		return "unknown"
	}
}

// Action is the side effect attached to a leaf. It receives the scope the
// scheduler built for that leaf.
type Action func(ctx context.Context, s *scope.Scope) error

// Timeline is a node of the window tree. Implementations are *Leaf,
// *Sequential and *Concurrent.
type Timeline interface {
	Kind() Kind
	Name() string

	// Duration is the span covered by this node and all its descendants.
	Duration() time.Duration

	// Children returns the placed children. Callers must not modify the
	// returned slice.
	Children() []OffsetTimeline

	// Bindings are written into the node's own scope frame when scheduled.
	Bindings() ir.Object

	// Distribution places leaves inside this node's windows. Nil inherits
	// from the parent.
	Distribution() distribution.Func

	// Sealed reports whether the node has been attached to a parent.
	Sealed() bool

	seal()
}

// OffsetTimeline is a child placed Offset after its parent's start.
type OffsetTimeline struct {
	Offset   time.Duration
	Timeline Timeline
}

// Duration is the wrapped timeline's duration.
func (o OffsetTimeline) Duration() time.Duration {
	return o.Timeline.Duration()
}

// EffectiveEnd is where the child's window closes within its parent.
func (o OffsetTimeline) EffectiveEnd() time.Duration {
	return o.Offset + o.Timeline.Duration()
}

// attrs holds the metadata shared by every variant.
type attrs struct {
	name     string
	bindings ir.Object
	dist     distribution.Func
	sealed   bool
}

func (a *attrs) Name() string                    { return a.name }
func (a *attrs) Bindings() ir.Object             { return a.bindings }
func (a *attrs) Distribution() distribution.Func { return a.dist }
func (a *attrs) Sealed() bool                    { return a.sealed }
func (a *attrs) seal()                           { a.sealed = true }

// Leaf is an instantaneous event.
type Leaf struct {
	attrs
	action Action
}

// NewLeaf creates an event. A nil action is a no-op.
func NewLeaf(name string, action Action) *Leaf {
	return &Leaf{attrs: attrs{name: name}, action: action}
}

// WithBindings sets variables visible to the leaf's action.
func (l *Leaf) WithBindings(b ir.Object) *Leaf {
	l.bindings = b
	return l
}

// WithDistribution sets how the leaf is placed inside its window.
func (l *Leaf) WithDistribution(d distribution.Func) *Leaf {
	l.dist = d
	return l
}

// Kind implements Timeline.
func (l *Leaf) Kind() Kind { return KindLeaf }

// Duration is always zero.
func (l *Leaf) Duration() time.Duration { return 0 }

// Children is always empty.
func (l *Leaf) Children() []OffsetTimeline { return nil }

// Action returns the leaf's side effect, possibly nil.
func (l *Leaf) Action() Action { return l.action }

// composite is the state shared by Sequential and Concurrent.
type composite struct {
	attrs
	duration time.Duration
	children []OffsetTimeline
}

func (c *composite) Duration() time.Duration    { return c.duration }
func (c *composite) Children() []OffsetTimeline { return c.children }

func (c *composite) checkAttach(self, child Timeline) error {
	if child == nil {
		return ErrNilTimeline
	}
	if c.sealed || child.Sealed() {
		return ErrSealed
	}
	if contains(child, self) {
		return ErrCycle
	}
	return nil
}

// contains reports whether target appears anywhere in root's subtree.
func contains(root, target Timeline) bool {
	if root == target {
		return true
	}
	for _, c := range root.Children() {
		if contains(c.Timeline, target) {
			return true
		}
	}
	return false
}
