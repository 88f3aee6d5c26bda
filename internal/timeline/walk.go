package timeline

import (
	"fmt"
	"time"
)

// Visit is called by Walk for every node. offset is the node's start
// relative to the walked root; depth is 0 for the root.
type Visit func(t Timeline, offset time.Duration, depth int) error

// Walk visits t and its descendants depth first, in child order.
// It stops at the first error returned by fn.
func Walk(t Timeline, fn Visit) error {
	return walk(t, 0, 0, fn)
}

func walk(t Timeline, offset time.Duration, depth int, fn Visit) error {
	if err := fn(t, offset, depth); err != nil {
		return err
	}
	for _, c := range t.Children() {
		if err := walk(c.Timeline, offset+c.Offset, depth+1, fn); err != nil {
			return err
		}
	}
	return nil
}

// Stats summarizes a tree.
type Stats struct {
	Leaves      int
	Sequential  int
	Concurrent  int
	MaxDepth    int
	Duration    time.Duration
	LatestStart time.Duration
}

// Summarize counts the nodes of t. Shared subtrees are counted once per
// placement, which matches the number of moments the scheduler produces.
func Summarize(t Timeline) Stats {
	st := Stats{Duration: t.Duration()}
	_ = Walk(t, func(n Timeline, offset time.Duration, depth int) error {
		switch n.Kind() {
		case KindLeaf:
			st.Leaves++
			if offset > st.LatestStart {
				st.LatestStart = offset
			}
		case KindSequential:
			st.Sequential++
		case KindConcurrent:
			st.Concurrent++
		}
		if depth > st.MaxDepth {
			st.MaxDepth = depth
		}
		return nil
	})
	return st
}

// Verify re-checks the containment invariant over the whole tree. Trees
// built through Attach always pass; Verify exists for trees assembled by
// other means and for tests.
func Verify(t Timeline) error {
	return Walk(t, func(n Timeline, _ time.Duration, _ int) error {
		for i, c := range n.Children() {
			if c.Offset < 0 {
				return fmt.Errorf("%s %q child %d: %w", n.Kind(), n.Name(), i, ErrNegativeOffset)
			}
			if c.Duration() < 0 {
				return fmt.Errorf("%s %q child %d: %w", n.Kind(), n.Name(), i, ErrNegativeDuration)
			}
			// Compared without adding, so huge offsets cannot wrap.
			if c.Offset > n.Duration()-c.Duration() {
				return fmt.Errorf("%s %q child %d: %w", n.Kind(), n.Name(), i, &WindowDurationExceededError{
					Child:          c.Timeline,
					Offset:         c.Offset,
					ParentDuration: n.Duration(),
				})
			}
		}
		return nil
	})
}
