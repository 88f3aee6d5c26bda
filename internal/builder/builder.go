// Package builder assembles timeline trees through configuration callbacks.
//
// Each composite is described by a function that receives a *Builder for
// that composite and calls its methods:
//
//	week, err := builder.Sequential("week", 7*24*time.Hour, func(b *builder.Builder) error {
//	    b.Set("user", ir.String("alice"))
//	    return b.Concurrent("monday", 24*time.Hour, func(b *builder.Builder) error {
//	        return b.At(9*time.Hour).Event("login", login)
//	    })
//	})
//
// The first error aborts the whole build and is returned with the path of
// the failing composite. Window overflows stay detectable with
// timeline.IsWindowDurationExceeded.
package builder

import (
	"fmt"
	"time"

	"github.com/roach88/timeweave/internal/distribution"
	"github.com/roach88/timeweave/internal/ir"
	"github.com/roach88/timeweave/internal/timeline"
)

// Func describes a composite's contents.
type Func func(b *Builder) error

// Builder adds children to one composite.
type Builder struct {
	seq  *timeline.Sequential
	conc *timeline.Concurrent

	bindings ir.Object
	at       time.Duration
}

// Sequential builds a sequential window of duration d.
func Sequential(name string, d time.Duration, fn Func) (*timeline.Sequential, error) {
	s, err := timeline.NewSequential(name, d)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label(name), err)
	}
	b := &Builder{seq: s}
	if err := b.run(name, fn); err != nil {
		return nil, err
	}
	if len(b.bindings) > 0 {
		s.WithBindings(b.bindings)
	}
	return s, nil
}

// Concurrent builds a concurrent window whose initial duration is d.
func Concurrent(name string, d time.Duration, fn Func) (*timeline.Concurrent, error) {
	c, err := timeline.NewConcurrent(name, d)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label(name), err)
	}
	b := &Builder{conc: c}
	if err := b.run(name, fn); err != nil {
		return nil, err
	}
	if len(b.bindings) > 0 {
		c.WithBindings(b.bindings)
	}
	return c, nil
}

func (b *Builder) run(name string, fn Func) error {
	if fn == nil {
		return nil
	}
	if err := fn(b); err != nil {
		return fmt.Errorf("%s: %w", label(name), err)
	}
	return nil
}

func label(name string) string {
	if name == "" {
		return "(anonymous)"
	}
	return name
}

// Timeline returns the composite being built.
func (b *Builder) Timeline() timeline.Timeline {
	if b.seq != nil {
		return b.seq
	}
	return b.conc
}

// At sets the offset of the next child of a concurrent window. Sequential
// windows derive offsets themselves and ignore it. The offset resets to 0
// after each attach.
func (b *Builder) At(offset time.Duration) *Builder {
	b.at = offset
	return b
}

// Set binds name for every descendant of this composite.
func (b *Builder) Set(name string, value ir.Value) {
	if b.bindings == nil {
		b.bindings = ir.Object{}
	}
	b.bindings[name] = value
}

// Distribute sets the default placement for leaves under this composite.
func (b *Builder) Distribute(d distribution.Func) {
	if b.seq != nil {
		b.seq.WithDistribution(d)
		return
	}
	b.conc.WithDistribution(d)
}

// Remaining is the span still free in a sequential window. Concurrent
// windows report their current duration.
func (b *Builder) Remaining() time.Duration {
	if b.seq != nil {
		return b.seq.Remaining()
	}
	return b.conc.Duration()
}

// Attach adds an already built timeline.
func (b *Builder) Attach(t timeline.Timeline) error {
	offset := b.at
	b.at = 0
	if b.seq != nil {
		return b.seq.Attach(t)
	}
	return b.conc.Attach(t, offset)
}

// EventOption customizes a leaf created by Event.
type EventOption func(*timeline.Leaf)

// Bind sets leaf-local variables.
func Bind(vars ir.Object) EventOption {
	return func(l *timeline.Leaf) {
		l.WithBindings(vars)
	}
}

// Place sets the leaf's own distribution.
func Place(d distribution.Func) EventOption {
	return func(l *timeline.Leaf) {
		l.WithDistribution(d)
	}
}

// Event adds a leaf.
func (b *Builder) Event(name string, action timeline.Action, opts ...EventOption) error {
	l := timeline.NewLeaf(name, action)
	for _, opt := range opts {
		opt(l)
	}
	return b.Attach(l)
}

// Sequential adds a nested sequential window.
func (b *Builder) Sequential(name string, d time.Duration, fn Func) error {
	offset := b.at
	s, err := Sequential(name, d, fn)
	if err != nil {
		return err
	}
	return b.At(offset).Attach(s)
}

// Concurrent adds a nested concurrent window.
func (b *Builder) Concurrent(name string, d time.Duration, fn Func) error {
	offset := b.at
	c, err := Concurrent(name, d, fn)
	if err != nil {
		return err
	}
	return b.At(offset).Attach(c)
}

// Repeat builds a sequential body of duration d and adds it k times back
// to back, as one sequential window of duration k*d. Every repetition
// occupies the full d, however much of it the body's children use.
func (b *Builder) Repeat(name string, d time.Duration, k int, fn Func) error {
	offset := b.at
	body, err := Sequential(name, d, fn)
	if err != nil {
		return err
	}
	slot, err := timeline.NewSequential(name, d)
	if err != nil {
		return fmt.Errorf("%s: %w", label(name), err)
	}
	if err := slot.Attach(body); err != nil {
		return fmt.Errorf("%s: %w", label(name), err)
	}
	r, err := timeline.Repeat(slot, k)
	if err != nil {
		return fmt.Errorf("%s: %w", label(name), err)
	}
	return b.At(offset).Attach(r)
}

// Parallel builds a sequential body of duration d and adds k independent
// copies of it, all starting together.
func (b *Builder) Parallel(name string, d time.Duration, k int, fn Func) error {
	offset := b.at
	body, err := Sequential(name, d, fn)
	if err != nil {
		return err
	}
	p, err := timeline.Parallelize(body, k)
	if err != nil {
		return fmt.Errorf("%s: %w", label(name), err)
	}
	return b.At(offset).Attach(p)
}
