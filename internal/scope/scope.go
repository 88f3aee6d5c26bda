// Package scope implements the variable chain handed to event actions.
//
// Each frame holds its own bindings and a pointer to its parent. Reads walk
// towards the root; writes always land in the frame they are issued on.
// The scheduler pushes a fresh frame for every node it instantiates, so a
// write made inside one branch is visible to that branch's descendants and
// never to its siblings.
package scope

import (
	"errors"
	"fmt"

	"github.com/roach88/timeweave/internal/ir"
)

// ErrNotFound is matched by every failed Read.
var ErrNotFound = errors.New("scope: name not found")

// NotFoundError reports a name absent from the whole chain.
type NotFoundError struct {
	Name  string
	Depth int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("scope: %q not found (searched %d frames)", e.Name, e.Depth)
}

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Scope is one frame of the chain. The zero value is not usable; use New.
//
// Scopes are not safe for concurrent mutation. The scheduler is single
// threaded and gives every branch its own frame.
type Scope struct {
	parent *Scope
	vars   map[string]ir.Value
	depth  int
}

// New creates a root frame.
func New() *Scope {
	return &Scope{vars: make(map[string]ir.Value), depth: 1}
}

// FromObject creates a root frame pre-populated with obj's entries.
func FromObject(obj ir.Object) *Scope {
	s := New()
	for k, v := range obj {
		s.vars[k] = v
	}
	return s
}

// Push returns a child frame whose reads fall back to s.
func (s *Scope) Push() *Scope {
	return &Scope{parent: s, vars: make(map[string]ir.Value), depth: s.depth + 1}
}

// Parent returns the enclosing frame, or nil for a root.
func (s *Scope) Parent() *Scope {
	return s.parent
}

// Depth is the number of frames from s to the root inclusive.
func (s *Scope) Depth() int {
	return s.depth
}

// Read returns the nearest binding for name.
// It fails with *NotFoundError when no frame defines it.
func (s *Scope) Read(name string) (ir.Value, error) {
	if v, ok := s.Lookup(name); ok {
		return v, nil
	}
	return nil, &NotFoundError{Name: name, Depth: s.depth}
}

// Lookup is Read without the error.
func (s *Scope) Lookup(name string) (ir.Value, bool) {
	for f := s; f != nil; f = f.parent {
		if v, ok := f.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Write binds name in this frame only, shadowing any ancestor binding.
func (s *Scope) Write(name string, value ir.Value) {
	s.vars[name] = value
}

// WriteAll binds every entry of obj in this frame.
func (s *Scope) WriteAll(obj ir.Object) {
	for k, v := range obj {
		s.vars[k] = v
	}
}

// Local reports whether name is bound in this frame itself.
func (s *Scope) Local(name string) bool {
	_, ok := s.vars[name]
	return ok
}

// Snapshot flattens the chain into one object, nearest frame winning.
func (s *Scope) Snapshot() ir.Object {
	out := ir.Object{}
	for f := s; f != nil; f = f.parent {
		for k, v := range f.vars {
			if _, seen := out[k]; !seen {
				out[k] = v
			}
		}
	}
	return out
}
