package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/timeweave/internal/ir"
	"github.com/roach88/timeweave/internal/schedule"
	"github.com/roach88/timeweave/internal/scope"
	"github.com/roach88/timeweave/internal/testutil"
	"github.com/roach88/timeweave/internal/timeline"
)

var origin = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func emitting(name string) *timeline.Leaf {
	return timeline.NewLeaf(name, func(ctx context.Context, _ *scope.Scope) error {
		return Emit(ctx, ir.Object{"who": ir.String(name)})
	})
}

// threeHours fires b at 0h, c at 1h and a at 2h.
func threeHours(t *testing.T, opts ...schedule.Option) *schedule.Root {
	t.Helper()
	c, err := timeline.NewConcurrent("day", 3*time.Hour)
	require.NoError(t, err)
	require.NoError(t, c.Attach(emitting("a"), 2*time.Hour))
	require.NoError(t, c.Attach(emitting("b"), 0))
	require.NoError(t, c.Attach(emitting("c"), time.Hour))

	root, err := schedule.Schedule(c, 0, scope.New(), opts...)
	require.NoError(t, err)
	return root
}

func TestEngine_Run_EmitsInOrder(t *testing.T) {
	sink := &Collector{}
	e := New(WithRunID(NewFixedGenerator("run-1")), WithSink(sink))

	sum, err := e.Run(context.Background(), ir.Run{Timeline: "day", Origin: origin}, threeHours(t))
	require.NoError(t, err)

	assert.Equal(t, 3, sum.Moments)
	assert.Equal(t, 3, sum.Events)
	assert.False(t, sum.Truncated)
	assert.Equal(t, origin, sum.First)
	assert.Equal(t, origin.Add(2*time.Hour), sum.Last)
	assert.Equal(t, 2*time.Hour, sum.Span())

	events := sink.Events()
	require.Len(t, events, 3)
	wantNames := []string{"b", "c", "a"}
	for i, ev := range events {
		assert.Equal(t, "run-1", ev.RunID)
		assert.Equal(t, int64(i+1), ev.Seq)
		assert.Equal(t, wantNames[i], ev.Name)
		assert.Equal(t, time.Duration(i)*time.Hour, ev.Offset)
		assert.Equal(t, origin.Add(ev.Offset), ev.At)

		id, err := ir.EventID(ev.RunID, ev.Seq, ev.Name, ev.Attrs)
		require.NoError(t, err)
		assert.Equal(t, id, ev.ID)
	}

	runs := sink.Runs()
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.Equal(t, "day", runs[0].Timeline)
	assert.Equal(t, ir.EngineVersion, runs[0].EngineVersion)
	assert.Equal(t, 1.0, runs[0].Stretch)
}

func TestEngine_Run_KeepsGivenRunID(t *testing.T) {
	sink := &Collector{}
	// An empty FixedGenerator panics if consulted.
	e := New(WithRunID(NewFixedGenerator()), WithSink(sink))

	sum, err := e.Run(context.Background(), ir.Run{ID: "given", Origin: origin}, threeHours(t))
	require.NoError(t, err)
	assert.Equal(t, "given", sum.Run.ID)
	assert.Equal(t, "given", sink.Events()[0].RunID)
}

func TestEngine_Run_Limit(t *testing.T) {
	tests := []struct {
		name      string
		limit     int
		moments   int
		truncated bool
	}{
		{"below", 2, 2, true},
		{"exact", 3, 3, false},
		{"above", 10, 3, false},
		{"none", 0, 3, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(WithRunID(NewFixedGenerator("r")), WithLimit(tt.limit))
			sum, err := e.Run(context.Background(), ir.Run{Origin: origin}, threeHours(t))
			require.NoError(t, err)
			assert.Equal(t, tt.moments, sum.Moments)
			assert.Equal(t, tt.truncated, sum.Truncated)
		})
	}
}

func TestEngine_Run_ActionErrorUnmodified(t *testing.T) {
	errBoom := errors.New("boom")
	c, err := timeline.NewSequential("s", 0)
	require.NoError(t, err)
	require.NoError(t, c.Attach(emitting("first")))
	require.NoError(t, c.Attach(timeline.NewLeaf("fails", func(context.Context, *scope.Scope) error {
		return errBoom
	})))
	require.NoError(t, c.Attach(emitting("never")))
	root, err := schedule.Schedule(c, 0, scope.New())
	require.NoError(t, err)

	sink := &Collector{}
	e := New(WithRunID(NewFixedGenerator("r")), WithSink(sink))
	sum, err := e.Run(context.Background(), ir.Run{Origin: origin}, root)

	assert.Equal(t, errBoom, err, "action error must come back as-is")
	assert.Equal(t, 1, sum.Moments)
	require.Len(t, sink.Events(), 1)
	assert.Equal(t, "first", sink.Events()[0].Name)
}

func TestEngine_Run_SinkFailure(t *testing.T) {
	errDisk := errors.New("disk full")
	failing := SinkFunc(func(context.Context, ir.Event) error { return errDisk })

	e := New(WithRunID(NewFixedGenerator("r")), WithSink(failing))
	_, err := e.Run(context.Background(), ir.Run{Origin: origin}, threeHours(t))

	require.Error(t, err)
	assert.True(t, IsSinkError(err))
	assert.ErrorIs(t, err, errDisk)

	var re *RuntimeError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "r", re.RunID)
	assert.Equal(t, int64(1), re.Seq)
	assert.Equal(t, "b", re.Name)
}

func TestEngine_Run_Paced(t *testing.T) {
	clock := testutil.NewFakeClock(origin)
	e := New(WithRunID(NewFixedGenerator("r")), WithPacer(clock))

	_, err := e.Run(context.Background(), ir.Run{Origin: origin}, threeHours(t))
	require.NoError(t, err)

	assert.Equal(t, []time.Duration{time.Hour, time.Hour}, clock.Sleeps())
	assert.Equal(t, origin.Add(2*time.Hour), clock.Now())
}

func TestEngine_Run_PacedPastOriginFiresImmediately(t *testing.T) {
	clock := testutil.NewFakeClock(origin.Add(24 * time.Hour))
	e := New(WithRunID(NewFixedGenerator("r")), WithPacer(clock))

	sum, err := e.Run(context.Background(), ir.Run{Origin: origin}, threeHours(t))
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Moments)
	assert.Empty(t, clock.Sleeps())
}

func TestEngine_Run_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := New(WithRunID(NewFixedGenerator("r")))
	sum, err := e.Run(ctx, ir.Run{Origin: origin}, threeHours(t))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, sum.Moments)
}

func TestEngine_Run_Stretched(t *testing.T) {
	sink := &Collector{}
	e := New(WithRunID(NewFixedGenerator("r")), WithSink(sink))

	sum, err := e.Run(context.Background(), ir.Run{Origin: origin}, threeHours(t, schedule.WithStretch(2)))
	require.NoError(t, err)

	assert.Equal(t, 2.0, sum.Run.Stretch)
	var ats []time.Time
	for _, ev := range sink.Events() {
		ats = append(ats, ev.At)
	}
	assert.Equal(t, []time.Time{origin, origin.Add(2 * time.Hour), origin.Add(4 * time.Hour)}, ats)
}

func TestEngine_Run_ContinuesClock(t *testing.T) {
	sink := &Collector{}
	e := New(WithRunID(NewFixedGenerator("r")), WithSink(sink), WithClock(NewClockAt(10)))

	_, err := e.Run(context.Background(), ir.Run{Origin: origin}, threeHours(t))
	require.NoError(t, err)

	var seqs []int64
	for _, ev := range sink.Events() {
		seqs = append(seqs, ev.Seq)
	}
	assert.Equal(t, []int64{11, 12, 13}, seqs)
}

func TestEngine_CurrentStamp(t *testing.T) {
	var got []Stamp
	leaf := timeline.NewLeaf("tick", func(ctx context.Context, _ *scope.Scope) error {
		st, ok := CurrentStamp(ctx)
		require.True(t, ok)
		got = append(got, st)
		return nil
	})
	c, err := timeline.NewConcurrent("c", time.Hour)
	require.NoError(t, err)
	require.NoError(t, c.Attach(leaf, 30*time.Minute))
	root, err := schedule.Schedule(c, 0, scope.New())
	require.NoError(t, err)

	sum, err := New(WithRunID(NewFixedGenerator("r"))).Run(context.Background(), ir.Run{Origin: origin}, root)
	require.NoError(t, err)

	assert.Equal(t, 0, sum.Events, "actions that never emit produce no events")
	require.Len(t, got, 1)
	assert.Equal(t, Stamp{RunID: "r", Seq: 1, Offset: 30 * time.Minute, At: origin.Add(30 * time.Minute), Name: "tick"}, got[0])
}

func TestEmit_OutsideRun(t *testing.T) {
	err := Emit(context.Background(), ir.Object{})
	require.Error(t, err)
	assert.True(t, IsNoRunError(err))
	assert.False(t, IsSinkError(err))

	_, ok := CurrentStamp(context.Background())
	assert.False(t, ok)
}
