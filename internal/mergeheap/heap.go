package mergeheap

import (
	"container/heap"
	"iter"
)

// Source yields elements in non-decreasing order until it returns false.
type Source[T any] interface {
	Next() (T, bool)
}

// SourceFunc adapts a function to Source.
type SourceFunc[T any] func() (T, bool)

// Next calls f.
func (f SourceFunc[T]) Next() (T, bool) {
	return f()
}

// FromSlice returns a Source over items. items must already be sorted.
func FromSlice[T any](items []T) Source[T] {
	i := 0
	return SourceFunc[T](func() (T, bool) {
		if i >= len(items) {
			var zero T
			return zero, false
		}
		v := items[i]
		i++
		return v, true
	})
}

// entry is one pending element and the source it came from.
type entry[T any] struct {
	head  T
	src   Source[T]
	order int
}

// entries implements container/heap.Interface, smallest head first.
type entries[T any] struct {
	items []entry[T]
	less  func(a, b T) bool
}

func (h *entries[T]) Len() int { return len(h.items) }

func (h *entries[T]) Less(i, j int) bool {
	a, b := h.items[i], h.items[j]
	if h.less(a.head, b.head) {
		return true
	}
	if h.less(b.head, a.head) {
		return false
	}
	return a.order < b.order
}

func (h *entries[T]) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *entries[T]) Push(x any) {
	h.items = append(h.items, x.(entry[T]))
}

func (h *entries[T]) Pop() any {
	old := h.items
	n := len(old)
	x := old[n-1]
	old[n-1] = entry[T]{}
	h.items = old[:n-1]
	return x
}

// Heap is a lazy k-way merge. Sources are not pulled until the first call
// to Pop, Peek or Empty.
type Heap[T any] struct {
	h       *entries[T]
	pending []Source[T]
	active  int
}

// New creates a merge over sources ordered by less.
func New[T any](less func(a, b T) bool, sources ...Source[T]) *Heap[T] {
	pending := make([]Source[T], 0, len(sources))
	for _, s := range sources {
		if s != nil {
			pending = append(pending, s)
		}
	}
	return &Heap[T]{
		h:       &entries[T]{items: make([]entry[T], 0, len(pending)), less: less},
		pending: pending,
		active:  len(pending),
	}
}

// prime pulls the first element of every source not yet started.
func (m *Heap[T]) prime() {
	if m.pending == nil {
		return
	}
	for i, src := range m.pending {
		v, ok := src.Next()
		if !ok {
			m.active--
			continue
		}
		m.h.items = append(m.h.items, entry[T]{head: v, src: src, order: i})
	}
	heap.Init(m.h)
	m.pending = nil
}

// Empty reports whether every source is exhausted and nothing is pending.
func (m *Heap[T]) Empty() bool {
	m.prime()
	return m.active == 0 && m.h.Len() == 0
}

// Active is the number of sources that have not yet been exhausted.
func (m *Heap[T]) Active() int {
	m.prime()
	return m.active
}

// Peek returns the next element without consuming it.
func (m *Heap[T]) Peek() (T, bool) {
	m.prime()
	if m.h.Len() == 0 {
		var zero T
		return zero, false
	}
	return m.h.items[0].head, true
}

// Pop removes and returns the smallest pending element, then advances the
// source it came from. A source that runs dry leaves the active set.
func (m *Heap[T]) Pop() (T, bool) {
	m.prime()
	if m.h.Len() == 0 {
		var zero T
		return zero, false
	}

	top := &m.h.items[0]
	out := top.head
	if next, ok := top.src.Next(); ok {
		top.head = next
		heap.Fix(m.h, 0)
	} else {
		heap.Pop(m.h)
		m.active--
	}
	return out, true
}

// Next makes a Heap usable as a Source, so merges nest.
func (m *Heap[T]) Next() (T, bool) {
	return m.Pop()
}

// All yields every remaining element in order.
func (m *Heap[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			v, ok := m.Pop()
			if !ok || !yield(v) {
				return
			}
		}
	}
}

// Merge drains sources into a sorted slice.
func Merge[T any](less func(a, b T) bool, sources ...Source[T]) []T {
	var out []T
	for v := range New(less, sources...).All() {
		out = append(out, v)
	}
	return out
}
