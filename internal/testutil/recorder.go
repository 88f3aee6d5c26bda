package testutil

import (
	"context"
	"sync"

	"github.com/roach88/timeweave/internal/ir"
	"github.com/roach88/timeweave/internal/scope"
	"github.com/roach88/timeweave/internal/timeline"
)

// Firing is one recorded action invocation.
type Firing struct {
	Name  string
	Scope ir.Object
}

// Recorder collects action invocations in call order.
type Recorder struct {
	mu      sync.Mutex
	firings []Firing
}

// Action returns an action that records name and the scope snapshot.
func (r *Recorder) Action(name string) timeline.Action {
	return func(_ context.Context, s *scope.Scope) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.firings = append(r.firings, Firing{Name: name, Scope: s.Snapshot()})
		return nil
	}
}

// Firings returns a copy of everything recorded so far.
func (r *Recorder) Firings() []Firing {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Firing, len(r.firings))
	copy(out, r.firings)
	return out
}

// Names returns recorded names in call order.
func (r *Recorder) Names() []string {
	var names []string
	for _, f := range r.Firings() {
		names = append(names, f.Name)
	}
	return names
}
