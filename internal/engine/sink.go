package engine

import (
	"context"
	"sync"

	"github.com/roach88/timeweave/internal/ir"
)

// Sink receives the events a run emits.
// Implemented by store.Store (persistence) and Collector (in memory).
type Sink interface {
	WriteEvent(ctx context.Context, ev ir.Event) error
}

// RunRecorder is implemented by sinks that also record run metadata.
// Run calls WriteRun once, before the first moment fires.
type RunRecorder interface {
	WriteRun(ctx context.Context, run ir.Run) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, ev ir.Event) error

// WriteEvent calls f.
func (f SinkFunc) WriteEvent(ctx context.Context, ev ir.Event) error {
	return f(ctx, ev)
}

// Collector keeps emitted events in memory, in emission order.
//
// Thread-safety: Collector is safe for concurrent use.
type Collector struct {
	mu     sync.Mutex
	runs   []ir.Run
	events []ir.Event
}

// WriteEvent appends ev.
func (c *Collector) WriteEvent(_ context.Context, ev ir.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
	return nil
}

// WriteRun records run.
func (c *Collector) WriteRun(_ context.Context, run ir.Run) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs = append(c.runs, run)
	return nil
}

// Events returns a copy of the collected events.
func (c *Collector) Events() []ir.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ir.Event, len(c.events))
	copy(out, c.events)
	return out
}

// Runs returns a copy of the recorded runs.
func (c *Collector) Runs() []ir.Run {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ir.Run, len(c.runs))
	copy(out, c.runs)
	return out
}
