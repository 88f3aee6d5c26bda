// Package schedule turns a timeline tree into a lazy, time-ordered stream of
// moments.
//
// One Scheduler is instantiated per placed node:
//
//   - leafScheduler yields its single moment and ends.
//   - sequentialScheduler runs child schedulers one after another. Children
//     of a sequential window never overlap, so concatenation is already in
//     order. The next child is only instantiated once the previous one is
//     exhausted.
//   - concurrentScheduler merges its children through a mergeheap.Heap,
//     holding at most one pending moment per child.
//   - Root wraps the tree root, applies the stretch factor and is the only
//     scheduler handed to callers.
//
// Every scheduler pushes its own scope frame and writes the node's bindings
// into it, so sibling branches never see each other's writes.
//
// Scheduling is single threaded and pull based. A caller that stops calling
// Next simply drops the remaining work; nothing needs to be closed.
package schedule
