package harness

import (
	"time"

	"github.com/roach88/timeweave/internal/engine"
	"github.com/roach88/timeweave/internal/ir"
)

// TraceEvent is one emitted event as the harness sees it.
type TraceEvent struct {
	Seq    int64         `json:"seq"`
	Name   string        `json:"name"`
	Offset time.Duration `json:"offset"`
	At     time.Time     `json:"at"`
	Attrs  ir.Object     `json:"attrs"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if the run behaved as expected and every assertion held.
	Pass bool `json:"pass"`

	// Trace holds the emitted events in seq order, as read back from the
	// store.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Summary is the engine's account of the run.
	Summary engine.Summary `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddEvent appends ev to the trace.
func (r *Result) AddEvent(ev ir.Event) {
	attrs := ev.Attrs
	if attrs == nil {
		attrs = ir.Object{}
	}
	r.Trace = append(r.Trace, TraceEvent{
		Seq:    ev.Seq,
		Name:   ev.Name,
		Offset: ev.Offset,
		At:     ev.At,
		Attrs:  attrs,
	})
}
