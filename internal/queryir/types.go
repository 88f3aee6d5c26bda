package queryir

import (
	"time"

	"github.com/roach88/timeweave/internal/ir"
)

// Query is a sealed interface for query nodes.
type Query interface {
	queryNode()
}

// Predicate is a sealed interface for filter expressions.
type Predicate interface {
	predicateNode()
}

// Select returns the events of one run that satisfy Filter, in firing
// order (seq, then event ID).
type Select struct {
	RunID string

	// Filter is nil to select every event of the run.
	Filter Predicate

	// Limit caps the number of events returned. Zero means no cap.
	Limit int
}

func (Select) queryNode() {}

// NameEquals matches events by name.
type NameEquals struct {
	Name string
}

func (NameEquals) predicateNode() {}

// AttrEquals matches events whose top-level attribute Key equals Value.
// Only scalar values compare: String, Int and Bool. Matching is
// type-exact, so Int(3) never matches String("3").
type AttrEquals struct {
	Key   string
	Value ir.Value
}

func (AttrEquals) predicateNode() {}

// OffsetRange matches events with From <= offset < To. A zero To leaves
// the range open above.
type OffsetRange struct {
	From time.Duration
	To   time.Duration
}

func (OffsetRange) predicateNode() {}

// And matches when every predicate matches. An empty And matches all.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Where combines predicates, dropping nils. It returns nil when nothing
// is left and the sole predicate when only one is.
func Where(preds ...Predicate) Predicate {
	kept := make([]Predicate, 0, len(preds))
	for _, p := range preds {
		if p != nil {
			kept = append(kept, p)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	default:
		return And{Predicates: kept}
	}
}
