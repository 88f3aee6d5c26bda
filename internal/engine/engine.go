package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/timeweave/internal/ir"
	"github.com/roach88/timeweave/internal/schedule"
)

// Engine fires the moments of a schedule in order and routes what their
// actions emit to sinks.
//
// Thread-safety model:
//   - Run must not be called concurrently on one Engine; the clock is shared
//   - Emit is called by actions on the Run goroutine
type Engine struct {
	clock  *Clock
	runIDs RunIDGenerator
	sinks  []Sink
	limit  int
	pacer  WallClock
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithLimit stops a run after n moments have fired. Zero means no limit.
func WithLimit(n int) EngineOption {
	return func(e *Engine) {
		e.limit = n
	}
}

// WithPacer makes each moment wait until its wall time on c before firing.
func WithPacer(c WallClock) EngineOption {
	return func(e *Engine) {
		e.pacer = c
	}
}

// WithRunID sets the generator for runs that arrive without an ID.
// Default: UUIDv7Generator.
func WithRunID(gen RunIDGenerator) EngineOption {
	return func(e *Engine) {
		e.runIDs = gen
	}
}

// WithSink adds sinks. Every emitted event goes to every sink, in the order
// they were added.
func WithSink(sinks ...Sink) EngineOption {
	return func(e *Engine) {
		e.sinks = append(e.sinks, sinks...)
	}
}

// WithClock replaces the logical clock, e.g. to continue an earlier run's
// numbering with NewClockAt.
func WithClock(c *Clock) EngineOption {
	return func(e *Engine) {
		e.clock = c
	}
}

// New creates an Engine.
func New(opts ...EngineOption) *Engine {
	e := &Engine{
		clock:  NewClock(),
		runIDs: UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Summary describes a finished run.
type Summary struct {
	Run ir.Run

	// Moments is how many moments fired.
	Moments int

	// Events is how many events actions emitted.
	Events int

	// First and Last are the wall times of the first and last fired moments.
	First time.Time
	Last  time.Time

	// Truncated is set when WithLimit stopped the run with moments left.
	Truncated bool
}

// Span is the wall time covered from the first to the last fired moment.
func (s Summary) Span() time.Duration {
	if s.Moments == 0 {
		return 0
	}
	return s.Last.Sub(s.First)
}

// Run fires every moment of root. run describes the pass; a missing ID is
// generated and the stretch and engine version are filled in from root and
// the build.
//
// Run stops at the first action error and returns it unmodified, along with
// the summary so far. Cancelling ctx stops the run between moments.
func (e *Engine) Run(ctx context.Context, run ir.Run, root *schedule.Root) (Summary, error) {
	if run.ID == "" {
		run.ID = e.runIDs.Generate()
	}
	if run.EngineVersion == "" {
		run.EngineVersion = ir.EngineVersion
	}
	run.Stretch = root.Stretch()

	sum := Summary{Run: run}

	for _, s := range e.sinks {
		rec, ok := s.(RunRecorder)
		if !ok {
			continue
		}
		if err := rec.WriteRun(ctx, run); err != nil {
			return sum, &RuntimeError{
				Code:    ErrCodeSinkFailed,
				Message: "record run",
				RunID:   run.ID,
				Err:     err,
			}
		}
	}

	slog.Info("run starting",
		"run_id", run.ID,
		"timeline", run.Timeline,
		"origin", run.Origin,
		"stretch", run.Stretch,
	)

	for {
		if err := ctx.Err(); err != nil {
			slog.Info("run stopping: context cancelled", "run_id", run.ID, "moments", sum.Moments)
			return sum, err
		}

		m, ok := root.Next()
		if !ok {
			break
		}
		if e.limit > 0 && sum.Moments >= e.limit {
			sum.Truncated = true
			slog.Info("run stopping: limit reached", "run_id", run.ID, "limit", e.limit)
			break
		}

		at := run.Origin.Add(m.Offset)
		if e.pacer != nil {
			if err := waitUntil(ctx, e.pacer, at); err != nil {
				return sum, err
			}
		}

		f := &firing{
			engine: e,
			stamp: Stamp{
				RunID:  run.ID,
				Seq:    e.clock.Next(),
				Offset: m.Offset,
				At:     at,
				Name:   m.Name(),
			},
		}

		slog.Debug("firing moment",
			"run_id", run.ID,
			"seq", f.stamp.Seq,
			"name", f.stamp.Name,
			"offset", m.Offset,
		)

		if err := m.Fire(context.WithValue(ctx, firingKey{}, f)); err != nil {
			slog.Error("action failed",
				"run_id", run.ID,
				"seq", f.stamp.Seq,
				"name", f.stamp.Name,
				"error", err,
			)
			return sum, err
		}

		if sum.Moments == 0 {
			sum.First = at
		}
		sum.Last = at
		sum.Moments++
		sum.Events += f.emitted
	}

	slog.Info("run finished",
		"run_id", run.ID,
		"moments", sum.Moments,
		"events", sum.Events,
		"truncated", sum.Truncated,
	)
	return sum, nil
}

// Stamp identifies the moment an action is running for.
type Stamp struct {
	RunID  string
	Seq    int64
	Offset time.Duration
	At     time.Time
	Name   string
}

type firingKey struct{}

type firing struct {
	engine  *Engine
	stamp   Stamp
	emitted int
}

// CurrentStamp returns the stamp of the moment whose action is running
// with ctx.
func CurrentStamp(ctx context.Context) (Stamp, bool) {
	f, ok := ctx.Value(firingKey{}).(*firing)
	if !ok {
		return Stamp{}, false
	}
	return f.stamp, true
}

// Emit records an event for the moment whose action is running with ctx.
// The event takes the moment's name, seq and wall time.
func Emit(ctx context.Context, attrs ir.Object) error {
	f, ok := ctx.Value(firingKey{}).(*firing)
	if !ok {
		return &RuntimeError{Code: ErrCodeNoRun, Message: "emit called outside a running action"}
	}
	if attrs == nil {
		attrs = ir.Object{}
	}

	st := f.stamp
	id, err := ir.EventID(st.RunID, st.Seq, st.Name, attrs)
	if err != nil {
		return &RuntimeError{
			Code:    ErrCodeInvalidEvent,
			Message: err.Error(),
			RunID:   st.RunID,
			Seq:     st.Seq,
			Name:    st.Name,
			Err:     err,
		}
	}

	ev := ir.Event{
		ID:     id,
		RunID:  st.RunID,
		Seq:    st.Seq,
		Offset: st.Offset,
		At:     st.At,
		Name:   st.Name,
		Attrs:  attrs,
	}
	for _, s := range f.engine.sinks {
		if err := s.WriteEvent(ctx, ev); err != nil {
			return &RuntimeError{
				Code:    ErrCodeSinkFailed,
				Message: fmt.Sprintf("write event %s", id),
				RunID:   st.RunID,
				Seq:     st.Seq,
				Name:    st.Name,
				Err:     err,
			}
		}
	}
	f.emitted++
	return nil
}
