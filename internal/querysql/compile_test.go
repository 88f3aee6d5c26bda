package querysql

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/timeweave/internal/ir"
	"github.com/roach88/timeweave/internal/queryir"
	"github.com/roach88/timeweave/internal/store"
)

func TestCompile_SelectRun(t *testing.T) {
	compiler := NewSQLCompiler()

	sql, params, err := compiler.Compile(queryir.Select{RunID: "run-1"})
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT "+store.EventColumns+" FROM events WHERE run_id = ? ORDER BY seq ASC, id COLLATE BINARY ASC",
		sql)
	assert.Equal(t, []any{"run-1"}, params)
}

func TestCompile_SelectPointer(t *testing.T) {
	compiler := NewSQLCompiler()

	sql, params, err := compiler.Compile(&queryir.Select{
		RunID:  "run-1",
		Filter: &queryir.NameEquals{Name: "standup"},
		Limit:  5,
	})
	require.NoError(t, err)

	assert.Contains(t, sql, "WHERE run_id = ? AND name = ?")
	assert.Contains(t, sql, "LIMIT ?")
	assert.Equal(t, []any{"run-1", "standup", 5}, params)
}

func TestCompile_ValuesAreParameterized(t *testing.T) {
	compiler := NewSQLCompiler()

	sql, params, err := compiler.Compile(queryir.Select{
		RunID: "run-1",
		Filter: queryir.And{Predicates: []queryir.Predicate{
			queryir.NameEquals{Name: "'; DROP TABLE events; --"},
			queryir.AttrEquals{Key: "room", Value: ir.String("blue")},
			queryir.OffsetRange{From: time.Hour, To: 2 * time.Hour},
		}},
	})
	require.NoError(t, err)

	assert.NotContains(t, sql, "DROP")
	assert.NotContains(t, sql, "blue")
	assert.NotContains(t, sql, "room")
	assert.Equal(t, []any{
		"run-1",
		"'; DROP TABLE events; --",
		`$."room"`, "text", `$."room"`, "blue",
		int64(time.Hour), int64(2 * time.Hour),
	}, params)
}

func TestCompile_OrderByMandatory(t *testing.T) {
	compiler := NewSQLCompiler()

	queries := []queryir.Query{
		queryir.Select{RunID: "r"},
		queryir.Select{RunID: "r", Filter: queryir.OffsetRange{From: time.Minute}},
		queryir.Select{RunID: "r", Filter: queryir.And{}, Limit: 1},
	}
	for _, q := range queries {
		sql, _, err := compiler.Compile(q)
		require.NoError(t, err)
		assert.Contains(t, sql, "ORDER BY seq ASC, id COLLATE BINARY ASC")
	}
}

func TestCompile_Errors(t *testing.T) {
	compiler := NewSQLCompiler()

	testCases := []struct {
		name  string
		query queryir.Query
		msg   string
	}{
		{"nil", nil, "nil query"},
		{"no run", queryir.Select{}, "requires a run ID"},
		{"null value", queryir.Select{RunID: "r", Filter: queryir.AttrEquals{Key: "k", Value: ir.Null{}}}, "null values"},
		{"object value", queryir.Select{RunID: "r", Filter: queryir.AttrEquals{Key: "k", Value: ir.Object{}}}, "only string, integer and boolean"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := compiler.Compile(tc.query)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}

// Compiled statements run against a real store.

func seedStore(t *testing.T) *store.Store {
	t.Helper()
	ctx := context.Background()
	origin := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	s, err := store.Open(filepath.Join(t.TempDir(), "query.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.WriteRun(ctx, ir.Run{
		ID: "run-1", Timeline: "day", Origin: origin, Stretch: 1,
		DefinitionHash: "h", EngineVersion: ir.EngineVersion,
	}))

	events := []struct {
		name   string
		offset time.Duration
		attrs  ir.Object
	}{
		{"standup", 9 * time.Hour, ir.Object{"room": ir.String("blue"), "size": ir.Int(3)}},
		{"lunch", 12 * time.Hour, ir.Object{"room": ir.String("red"), "size": ir.String("3")}},
		{"standup", 33 * time.Hour, ir.Object{"room": ir.String("blue"), "remote": ir.Bool(true)}},
		{"retro", 40 * time.Hour, ir.Object{"remote": ir.Int(1)}},
	}
	for i, e := range events {
		seq := int64(i + 1)
		id, err := ir.EventID("run-1", seq, e.name, e.attrs)
		require.NoError(t, err)
		require.NoError(t, s.WriteEvent(ctx, ir.Event{
			ID: id, RunID: "run-1", Seq: seq, Offset: e.offset,
			At: origin.Add(e.offset), Name: e.name, Attrs: e.attrs,
		}))
	}
	return s
}

func TestCompile_RunsAgainstStore(t *testing.T) {
	s := seedStore(t)
	compiler := NewSQLCompiler()
	ctx := context.Background()

	testCases := []struct {
		name   string
		filter queryir.Predicate
		limit  int
		want   []int64
	}{
		{"all", nil, 0, []int64{1, 2, 3, 4}},
		{"limit", nil, 2, []int64{1, 2}},
		{"name", queryir.NameEquals{Name: "standup"}, 0, []int64{1, 3}},
		{"string attr", queryir.AttrEquals{Key: "room", Value: ir.String("blue")}, 0, []int64{1, 3}},
		{"int attr is type exact", queryir.AttrEquals{Key: "size", Value: ir.Int(3)}, 0, []int64{1}},
		{"string attr is type exact", queryir.AttrEquals{Key: "size", Value: ir.String("3")}, 0, []int64{2}},
		{"bool attr", queryir.AttrEquals{Key: "remote", Value: ir.Bool(true)}, 0, []int64{3}},
		{"int is not bool", queryir.AttrEquals{Key: "remote", Value: ir.Int(1)}, 0, []int64{4}},
		{"missing attr", queryir.AttrEquals{Key: "floor", Value: ir.Int(2)}, 0, []int64{}},
		{"half open range", queryir.OffsetRange{From: 12 * time.Hour, To: 40 * time.Hour}, 0, []int64{2, 3}},
		{"open range", queryir.OffsetRange{From: 24 * time.Hour}, 0, []int64{3, 4}},
		{"and", queryir.And{Predicates: []queryir.Predicate{
			queryir.NameEquals{Name: "standup"},
			queryir.OffsetRange{From: 24 * time.Hour},
		}}, 0, []int64{3}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sql, params, err := compiler.Compile(queryir.Select{RunID: "run-1", Filter: tc.filter, Limit: tc.limit})
			require.NoError(t, err)

			events, err := s.QueryEvents(ctx, sql, params...)
			require.NoError(t, err)

			seqs := make([]int64, 0, len(events))
			for _, ev := range events {
				seqs = append(seqs, ev.Seq)
			}
			assert.Equal(t, tc.want, seqs)
		})
	}
}
