package engine

import (
	"container/heap"
	"math"
)

// craftQueue is a min-heap of items keyed by propagation depth. Ties are
// broken by insertion order, so plans come out deterministic. raise never
// lowers an item's depth.
type craftQueue struct {
	entries []*queueEntry
	byItem  map[string]*queueEntry
	nextSeq int
}

type queueEntry struct {
	item  string
	depth int
	seq   int
	index int
}

func newCraftQueue() *craftQueue {
	return &craftQueue{byItem: make(map[string]*queueEntry)}
}

// raise schedules item at the given depth, or deepens an already-queued
// item. Raising to a depth at or below the current one is a no-op.
func (q *craftQueue) raise(item string, depth int) {
	if e, ok := q.byItem[item]; ok {
		if depth > e.depth {
			e.depth = depth
			heap.Fix((*queueHeap)(q), e.index)
		}
		return
	}
	e := &queueEntry{item: item, depth: depth, seq: q.nextSeq}
	q.nextSeq++
	q.byItem[item] = e
	heap.Push((*queueHeap)(q), e)
}

// popMin removes and returns the shallowest queued item.
func (q *craftQueue) popMin() (item string, depth int, ok bool) {
	if len(q.entries) == 0 {
		return "", 0, false
	}
	e := heap.Pop((*queueHeap)(q)).(*queueEntry)
	delete(q.byItem, e.item)
	return e.item, e.depth, true
}

// childDepth returns the depth for ingredients of an item popped at depth.
// When the depth counter is exhausted it compacts all queued depths to their
// rank order first, preserving relative order while freeing headroom.
func (q *craftQueue) childDepth(depth int) int {
	if depth < math.MaxInt {
		return depth + 1
	}
	q.compact()
	return len(q.entries)
}

func (q *craftQueue) compact() {
	drained := make([]*queueEntry, 0, len(q.entries))
	for len(q.entries) > 0 {
		drained = append(drained, heap.Pop((*queueHeap)(q)).(*queueEntry))
	}
	for rank, e := range drained {
		e.depth = rank
		e.index = rank
	}
	q.entries = drained
}

// queueHeap adapts craftQueue to heap.Interface.
type queueHeap craftQueue

func (h *queueHeap) Len() int { return len(h.entries) }

func (h *queueHeap) Less(i, j int) bool {
	if h.entries[i].depth != h.entries[j].depth {
		return h.entries[i].depth < h.entries[j].depth
	}
	return h.entries[i].seq < h.entries[j].seq
}

func (h *queueHeap) Swap(i, j int) {
	h.entries[i], h.entries[j] = h.entries[j], h.entries[i]
	h.entries[i].index = i
	h.entries[j].index = j
}

func (h *queueHeap) Push(x any) {
	e := x.(*queueEntry)
	e.index = len(h.entries)
	h.entries = append(h.entries, e)
}

func (h *queueHeap) Pop() any {
	old := h.entries
	n := len(old)
	e := old[n-1]
	old[n-1] = nil // avoid memory leak
	h.entries = old[:n-1]
	return e
}
