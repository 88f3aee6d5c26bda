// Package timeline defines the tree of nested time windows that the
// scheduler enumerates.
//
// A Timeline is a Leaf (one zero-duration event), a Sequential composite
// (children placed back to back in insertion order) or a Concurrent
// composite (children at explicit, possibly overlapping offsets). Every child
// is wrapped in an OffsetTimeline that records where it starts relative to
// its parent.
//
// INVARIANTS:
//   - For every child: child.Offset + child.Duration() <= parent.Duration().
//     The check happens at attach time and a failed attach leaves the parent
//     untouched.
//   - A Sequential's duration is fixed at construction. A Concurrent's
//     duration grows to cover any child placed past its current end.
//   - Once a composite is attached to a parent it is sealed: further
//     attaches fail, so a parent's invariant can never be broken from below.
//   - Children never reference their parent and the tree has no cycles.
//     Subtrees may be shared (Repeat and Parallelize do so) because
//     scheduling never mutates nodes.
package timeline
