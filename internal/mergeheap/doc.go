// Package mergeheap merges already-sorted lazy sources into one sorted
// sequence.
//
// A Heap keeps exactly one pending element per active source in a binary
// min-heap (container/heap). Pop removes the smallest pending element and
// pulls the next one from the same source, so draining n elements from k
// sources costs O(n log k) and never buffers more than k elements.
//
// Ties between sources are broken by the order the sources were given to
// New. Callers should not rely on that order for correctness; it exists to
// make output reproducible.
package mergeheap
