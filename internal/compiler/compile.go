package compiler

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/roach88/timeweave/internal/builder"
	"github.com/roach88/timeweave/internal/distribution"
	"github.com/roach88/timeweave/internal/timeline"
)

// Option configures Compile.
type Option func(*compiler)

// WithSeed seeds the random distributions. The same seed and definition
// always produce the same schedule.
func WithSeed(seed uint64) Option {
	return func(c *compiler) {
		c.rng = distribution.NewRand(seed)
	}
}

// WithOrigin anchors cron distributions: offset 0 is origin.
func WithOrigin(origin time.Time) Option {
	return func(c *compiler) {
		c.origin = origin
	}
}

type compiler struct {
	doc    *Document
	rng    *rand.Rand
	origin time.Time
}

// Compile validates doc and builds its timeline. Validation problems are
// returned together, joined; each is a *CompileError.
func Compile(doc *Document, opts ...Option) (timeline.Timeline, error) {
	if errs := doc.Validate(); len(errs) > 0 {
		joined := make([]error, len(errs))
		for i, e := range errs {
			joined[i] = e
		}
		return nil, errors.Join(joined...)
	}

	c := &compiler{doc: doc, rng: distribution.NewRand(0)}
	for _, opt := range opts {
		opt(c)
	}
	return c.root(doc.Timeline)
}

func (c *compiler) root(def *Definition) (timeline.Timeline, error) {
	const path = "timeline"

	// Repetition needs a parent to lay copies into; a zero-length concurrent
	// window grows to fit.
	if def.Repeat != nil || def.Parallel != nil {
		t, err := builder.Concurrent(def.Name, 0, func(b *builder.Builder) error {
			return c.child(b, def, path, timeline.KindConcurrent)
		})
		if err != nil {
			return nil, c.fail(path, err)
		}
		return t, nil
	}

	d, _ := ParseDuration(def.Duration)
	var (
		t   timeline.Timeline
		err error
	)
	switch def.ResolvedKind() {
	case timeline.KindLeaf:
		leaf, err := c.leaf(def, path)
		if err != nil {
			return nil, err
		}
		return leaf, nil
	case timeline.KindSequential:
		t, err = builder.Sequential(def.Name, d, c.body(def, path))
	default:
		t, err = builder.Concurrent(def.Name, d, c.body(def, path))
	}
	if err != nil {
		return nil, c.fail(path, err)
	}
	return t, nil
}

// child adds def to the composite b is building.
func (c *compiler) child(b *builder.Builder, def *Definition, path string, parent timeline.Kind) error {
	d, _ := ParseDuration(def.Duration)
	offset, _ := ParseDuration(def.Offset)

	attach := c.node(def, path, d)
	span := d
	if def.Repeat != nil {
		inner, k := attach, *def.Repeat
		attach = func(b *builder.Builder) error {
			return b.Repeat(def.Name, d, k, inner)
		}
		span = d * time.Duration(k)
	}
	if def.Parallel != nil {
		inner, k := attach, *def.Parallel
		attach = func(b *builder.Builder) error {
			return b.Parallel(def.Name, span, k, inner)
		}
	}

	if parent == timeline.KindConcurrent {
		b.At(offset)
	}
	if err := attach(b); err != nil {
		return c.fail(path, err)
	}
	return nil
}

// node returns the function that adds def itself, without repetition.
func (c *compiler) node(def *Definition, path string, d time.Duration) builder.Func {
	switch def.ResolvedKind() {
	case timeline.KindLeaf:
		return func(b *builder.Builder) error {
			leaf, err := c.leaf(def, path)
			if err != nil {
				return err
			}
			return b.Attach(leaf)
		}
	case timeline.KindSequential:
		return func(b *builder.Builder) error {
			return b.Sequential(def.Name, d, c.body(def, path))
		}
	default:
		return func(b *builder.Builder) error {
			return b.Concurrent(def.Name, d, c.body(def, path))
		}
	}
}

// body fills a composite: its variables, its distribution, its children.
func (c *compiler) body(def *Definition, path string) builder.Func {
	kind := def.ResolvedKind()
	return func(b *builder.Builder) error {
		vars, err := toObject(def.Vars)
		if err != nil {
			return c.errorf(path+".vars", ErrInvalidValue, err)
		}
		for _, k := range vars.SortedKeys() {
			b.Set(k, vars[k])
		}

		dist, err := distribution.Parse(def.Distribution, c.rng, c.origin)
		if err != nil {
			return c.errorf(path+".distribution", ErrInvalidDistribution, err)
		}
		if dist != nil {
			b.Distribute(dist)
		}

		for i, ch := range def.Children {
			if err := c.child(b, ch, fmt.Sprintf("%s.children[%d]", path, i), kind); err != nil {
				return err
			}
		}
		return nil
	}
}

func (c *compiler) leaf(def *Definition, path string) (*timeline.Leaf, error) {
	attrs, err := toObject(def.Attrs)
	if err != nil {
		return nil, c.errorf(path+".attrs", ErrInvalidValue, err)
	}
	leaf := timeline.NewLeaf(def.Name, emitter(attrs))

	vars, err := toObject(def.Vars)
	if err != nil {
		return nil, c.errorf(path+".vars", ErrInvalidValue, err)
	}
	if len(vars) > 0 {
		leaf.WithBindings(vars)
	}

	dist, err := distribution.Parse(def.Distribution, c.rng, c.origin)
	if err != nil {
		return nil, c.errorf(path+".distribution", ErrInvalidDistribution, err)
	}
	if dist != nil {
		leaf.WithDistribution(dist)
	}
	return leaf, nil
}

// fail turns a construction error into a CompileError at path, unless a
// deeper element already did.
func (c *compiler) fail(path string, err error) error {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce
	}
	code := ErrBuild
	if timeline.IsWindowDurationExceeded(err) {
		code = ErrWindowExceeded
	}
	return c.errorf(path, code, err)
}

func (c *compiler) errorf(path, code string, err error) *CompileError {
	return c.doc.at(&CompileError{Path: path, Code: code, Message: err.Error(), Err: err})
}
