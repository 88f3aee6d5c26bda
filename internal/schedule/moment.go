package schedule

import (
	"context"
	"time"

	"github.com/roach88/timeweave/internal/scope"
	"github.com/roach88/timeweave/internal/timeline"
)

// Moment is one scheduled event: where it falls, the scope its action runs
// with and the action itself.
type Moment struct {
	// Offset is the absolute offset from the schedule's time origin.
	Offset time.Duration

	// Scope is the leaf's own frame.
	Scope *scope.Scope

	// Leaf is the node that produced this moment.
	Leaf *timeline.Leaf
}

// Name is the producing leaf's name.
func (m Moment) Name() string {
	if m.Leaf == nil {
		return ""
	}
	return m.Leaf.Name()
}

// Fire runs the leaf's action with the moment's scope. Leaves without an
// action succeed trivially. Errors are returned unmodified.
func (m Moment) Fire(ctx context.Context) error {
	if m.Leaf == nil || m.Leaf.Action() == nil {
		return nil
	}
	return m.Leaf.Action()(ctx, m.Scope)
}

func momentLess(a, b Moment) bool {
	return a.Offset < b.Offset
}
