package timeline

import (
	"fmt"
	"math"
	"time"
)

// Concat returns a sequential window of duration a+b whose children are
// a's children followed by b's, placed back to back. Bindings are merged
// with b winning on conflicts; a's distribution wins if both set one.
func Concat(a, b *Sequential) (*Sequential, error) {
	if a.duration > math.MaxInt64-b.duration {
		return nil, fmt.Errorf("concat %s + %s: %w", a.duration, b.duration, ErrDurationOverflow)
	}
	out := &Sequential{composite: composite{
		attrs:    attrs{name: joinNames(a.name, b.name), dist: a.dist},
		duration: a.duration + b.duration,
	}}
	if out.dist == nil {
		out.dist = b.dist
	}
	if a.bindings != nil || b.bindings != nil {
		out.bindings = a.bindings.Merge(b.bindings)
	}
	for _, c := range a.children {
		out.place(c.Timeline)
	}
	for _, c := range b.children {
		out.place(c.Timeline)
	}
	return out, nil
}

// Repeat returns a sequential window of duration k*a holding a's children
// k times in a row. Repeat(a, 0) is an empty window of zero duration.
func Repeat(a *Sequential, k int) (*Sequential, error) {
	if k < 0 {
		return nil, fmt.Errorf("repeat %d: %w", k, ErrInvalidFactor)
	}
	if a.duration > 0 && time.Duration(k) > math.MaxInt64/a.duration {
		return nil, fmt.Errorf("repeat %s %d times: %w", a.duration, k, ErrDurationOverflow)
	}
	out := &Sequential{composite: composite{
		attrs:    a.attrs,
		duration: time.Duration(k) * a.duration,
	}}
	for i := 0; i < k; i++ {
		for _, c := range a.children {
			out.place(c.Timeline)
		}
	}
	return out, nil
}

// Parallelize returns a concurrent window running k independent copies of
// t, all starting at offset 0. Parallelize(t, 0) is an empty window of t's
// duration.
func Parallelize(t Timeline, k int) (*Concurrent, error) {
	if t == nil {
		return nil, ErrNilTimeline
	}
	if k < 0 {
		return nil, fmt.Errorf("parallelize %d: %w", k, ErrInvalidFactor)
	}
	out := &Concurrent{composite: composite{
		attrs:    attrs{name: t.Name()},
		duration: t.Duration(),
	}}
	for i := 0; i < k; i++ {
		out.place(t, 0)
	}
	return out, nil
}

func joinNames(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "" || a == b:
		return a
	default:
		return a + "+" + b
	}
}
