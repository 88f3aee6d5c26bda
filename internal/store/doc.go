// Package store provides SQLite-backed durable storage for generated runs.
//
// The store is an append-only log with two tables:
//   - runs: one row per generation pass (timeline, origin, stretch, seed,
//     definition hash, engine version)
//   - events: the records a run's actions emitted
//
// Event IDs are content addressed (see ir.EventID), so writes are
// idempotent: re-writing an event is a no-op.
//
// Reads are deterministic: events are returned ORDER BY seq ASC,
// id ASC COLLATE BINARY; runs ORDER BY id COLLATE BINARY.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Events must belong to a recorded run
package store
