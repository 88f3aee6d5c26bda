// Package queryir is the filter representation for recorded events.
//
// A Select names one run and an optional predicate tree over that run's
// events. Predicates are a closed set:
//
//	NameEquals   event name equals a string
//	AttrEquals   a top-level attribute equals a scalar value
//	OffsetRange  the event's offset lies in [From, To)
//	And          every child predicate holds
//
// Nodes may be used by value or by pointer. The tree carries no SQL;
// package querysql lowers it to a parameterized statement against the
// run store, and ParseWhere builds AttrEquals nodes from key=value text.
package queryir
