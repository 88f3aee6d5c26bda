package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/timeweave/internal/ir"
)

var testOrigin = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// createTestStore creates a store in a temp dir that is closed on cleanup.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func createTestRun(id string) ir.Run {
	return ir.Run{
		ID:             id,
		Timeline:       "week",
		Origin:         testOrigin,
		Stretch:        1,
		Seed:           7,
		DefinitionHash: "def-hash",
		EngineVersion:  ir.EngineVersion,
	}
}

// createTestEvent builds an event with a real content-addressed ID.
func createTestEvent(t *testing.T, runID string, seq int64, name string, offset time.Duration, attrs ir.Object) ir.Event {
	t.Helper()
	if attrs == nil {
		attrs = ir.Object{}
	}
	id, err := ir.EventID(runID, seq, name, attrs)
	require.NoError(t, err)
	return ir.Event{
		ID:     id,
		RunID:  runID,
		Seq:    seq,
		Offset: offset,
		At:     testOrigin.Add(offset),
		Name:   name,
		Attrs:  attrs,
	}
}
