package priopool

import (
	"container/heap"
	"sync"
)

// innerHeap is the container/heap.Interface implementation backing
// PriorityQueue. container/heap's Push/Pop perform exactly the sift-up /
// sift-down steps spec.md §4.1 spells out by hand; see DESIGN.md for why
// that makes it the idiomatic Go rendering of this section rather than a
// stdlib shortcut.
type innerHeap []*queueItem

func (h innerHeap) Len() int            { return len(h) }
func (h innerHeap) Less(i, j int) bool  { return h[i].priority < h[j].priority }
func (h innerHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *innerHeap) Push(x any)         { *h = append(*h, x.(*queueItem)) }
func (h *innerHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// PriorityQueue is the bounded priority task queue of spec.md §4.1: a
// binary min-heap keyed by priority, guarded by one exclusive lock never
// held across external work. It has no notion of a capacity itself;
// Pool enforces max_tasks around Enqueue, and PriorityQueue only
// maintains the heap property.
type PriorityQueue struct {
	mu   sync.Mutex
	heap innerHeap
}

func newPriorityQueue() *PriorityQueue {
	return &PriorityQueue{heap: make(innerHeap, 0)}
}

// Enqueue appends item and restores the heap property via sift-up.
func (q *PriorityQueue) Enqueue(item *queueItem) {
	q.mu.Lock()
	defer q.mu.Unlock()
	heap.Push(&q.heap, item)
}

// TryDequeue removes and returns the minimum-priority item, or (nil,
// false) if the queue is empty.
func (q *PriorityQueue) TryDequeue() (*queueItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.heap) == 0 {
		return nil, false
	}
	item := heap.Pop(&q.heap).(*queueItem)
	return item, true
}

// Len returns the current number of queued items.
func (q *PriorityQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.heap)
}

// IsEmpty reports whether the queue currently holds no items.
func (q *PriorityQueue) IsEmpty() bool {
	return q.Len() == 0
}
