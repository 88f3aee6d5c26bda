package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/timeweave/internal/builder"
	"github.com/roach88/timeweave/internal/engine"
	"github.com/roach88/timeweave/internal/ir"
	"github.com/roach88/timeweave/internal/schedule"
	"github.com/roach88/timeweave/internal/scope"
	"github.com/roach88/timeweave/internal/store"
)

func emit(ctx context.Context, s *scope.Scope) error {
	return engine.Emit(ctx, s.Snapshot())
}

func TestStore_AsEngineSink(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer s.Close()

	day, err := builder.Sequential("day", 24*time.Hour, func(b *builder.Builder) error {
		b.Set("team", ir.String("core"))
		return b.Repeat("hour", time.Hour, 3, func(b *builder.Builder) error {
			return b.Event("tick", emit)
		})
	})
	require.NoError(t, err)

	root, err := schedule.Schedule(day, 0, scope.New())
	require.NoError(t, err)

	origin := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	e := engine.New(engine.WithRunID(engine.NewFixedGenerator("run-1")), engine.WithSink(s))
	sum, err := e.Run(context.Background(), ir.Run{Timeline: "day", Origin: origin, Seed: 3}, root)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Events)

	run, err := s.ReadRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "day", run.Timeline)
	assert.Equal(t, uint64(3), run.Seed)

	events, err := s.ReadEvents(context.Background(), "run-1")
	require.NoError(t, err)
	require.Len(t, events, 3)
	for i, ev := range events {
		assert.Equal(t, "tick", ev.Name)
		assert.Equal(t, time.Duration(i)*time.Hour, ev.Offset)
		assert.Equal(t, ir.String("core"), ev.Attrs["team"], "bindings reach the leaf scope")
	}
}
