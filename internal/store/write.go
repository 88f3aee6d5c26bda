package store

import (
	"context"
	"fmt"

	"github.com/roach88/timeweave/internal/ir"
)

// WriteRun inserts a run record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are silently
// ignored.
//
// Seeds are stored as their int64 bit pattern; the driver rejects uint64
// values with the high bit set.
func (s *Store) WriteRun(ctx context.Context, run ir.Run) error {
	if run.ID == "" {
		return fmt.Errorf("write run: empty id")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, timeline, origin, stretch, seed, definition_hash, engine_version)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Timeline,
		formatTime(run.Origin),
		run.Stretch,
		int64(run.Seed),
		run.DefinitionHash,
		run.EngineVersion,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// WriteEvent inserts an event record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - the ID is content
// addressed, so a duplicate is the same event written twice.
//
// Note: The run referenced by RunID must exist (foreign key constraint).
func (s *Store) WriteEvent(ctx context.Context, ev ir.Event) error {
	attrsJSON, err := marshalAttrs(ev.Attrs)
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO events
		(id, run_id, seq, offset_ns, at, name, attrs)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		ev.ID,
		ev.RunID,
		ev.Seq,
		int64(ev.Offset),
		formatTime(ev.At),
		ev.Name,
		attrsJSON,
	)
	if err != nil {
		return fmt.Errorf("write event %s: %w", ev.ID, err)
	}
	return nil
}
