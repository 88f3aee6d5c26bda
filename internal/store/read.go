package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/timeweave/internal/ir"
)

const runColumns = `id, timeline, origin, stretch, seed, definition_hash, engine_version`

// EventColumns is the select list QueryEvents scans, in order.
const EventColumns = `id, run_id, seq, offset_ns, at, name, attrs`

// ReadRun retrieves a single run by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (ir.Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// ListRuns returns every recorded run ordered by ID. UUIDv7 run IDs make
// that creation order.
//
// Returns an empty slice (not nil) if there are no runs.
func (s *Store) ListRuns(ctx context.Context) ([]ir.Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []ir.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadEvents returns a run's events ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if the run has no events.
func (s *Store) ReadEvents(ctx context.Context, runID string) ([]ir.Event, error) {
	return s.queryEvents(ctx, `
		SELECT `+EventColumns+`
		FROM events
		WHERE run_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, runID)
}

// QueryEvents runs a statement selecting EventColumns from events and
// scans the rows. Used with statements built by package querysql.
func (s *Store) QueryEvents(ctx context.Context, query string, args ...any) ([]ir.Event, error) {
	return s.queryEvents(ctx, query, args...)
}

func (s *Store) queryEvents(ctx context.Context, query string, args ...any) ([]ir.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []ir.Event{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// RunStats summarizes a run's stored events.
type RunStats struct {
	Events  int
	LastSeq int64
	First   time.Time
	Last    time.Time
}

// ReadRunStats aggregates a run's events. A run without events has zero
// stats.
func (s *Store) ReadRunStats(ctx context.Context, runID string) (RunStats, error) {
	var (
		stats       RunStats
		lastSeq     sql.NullInt64
		first, last sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), MAX(seq), MIN(at), MAX(at)
		FROM events
		WHERE run_id = ?
	`, runID).Scan(&stats.Events, &lastSeq, &first, &last)
	if err != nil {
		return RunStats{}, fmt.Errorf("read run stats: %w", err)
	}
	stats.LastSeq = lastSeq.Int64
	if first.Valid {
		if stats.First, err = parseTime(first.String); err != nil {
			return RunStats{}, err
		}
	}
	if last.Valid {
		if stats.Last, err = parseTime(last.String); err != nil {
			return RunStats{}, err
		}
	}
	return stats, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (ir.Run, error) {
	var (
		run    ir.Run
		origin string
		seed   int64
	)
	err := row.Scan(&run.ID, &run.Timeline, &origin, &run.Stretch, &seed, &run.DefinitionHash, &run.EngineVersion)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ir.Run{}, err
		}
		return ir.Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Seed = uint64(seed)
	if run.Origin, err = parseTime(origin); err != nil {
		return ir.Run{}, fmt.Errorf("scan run %s: %w", run.ID, err)
	}
	return run, nil
}

func scanEvent(row scanner) (ir.Event, error) {
	var (
		ev        ir.Event
		offsetNS  int64
		at, attrs string
	)
	if err := row.Scan(&ev.ID, &ev.RunID, &ev.Seq, &offsetNS, &at, &ev.Name, &attrs); err != nil {
		return ir.Event{}, fmt.Errorf("scan event: %w", err)
	}
	ev.Offset = time.Duration(offsetNS)

	var err error
	if ev.At, err = parseTime(at); err != nil {
		return ir.Event{}, fmt.Errorf("scan event %s: %w", ev.ID, err)
	}
	if ev.Attrs, err = unmarshalAttrs(attrs); err != nil {
		return ir.Event{}, fmt.Errorf("scan event %s: %w", ev.ID, err)
	}
	return ev, nil
}
