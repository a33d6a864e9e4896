// Package triage implements the priority ordering the admission planner's
// waiting-room pass uses: ascending (CTAS, arrival tick). It is a
// container/heap adaptation of an order-book's price-time priority queue —
// one heap instead of two, comparing triage acuity and arrival order instead
// of price and order timestamp.
package triage

import (
	"container/heap"

	"github.com/solaris-clearae/edflow/internal/encounter"
)

// Queue is a min-heap of waiting encounters ordered by (AssignedCTAS asc,
// ArrivalTick asc) — the exact ordering §4.5's Pass B and §8's admission
// property require.
type Queue struct {
	h entryHeap
}

// NewQueue returns an empty priority queue.
func NewQueue() *Queue {
	return &Queue{h: entryHeap{}}
}

// Push adds an encounter to the queue.
func (q *Queue) Push(e *encounter.Encounter) {
	heap.Push(&q.h, e)
}

// Pop removes and returns the highest-priority (lowest CTAS, earliest
// arrival) encounter. Pop panics if the queue is empty — callers must check
// Len first, matching the stdlib container/heap contract.
func (q *Queue) Pop() *encounter.Encounter {
	return heap.Pop(&q.h).(*encounter.Encounter)
}

// Len reports the number of encounters currently queued.
func (q *Queue) Len() int {
	return q.h.Len()
}

// Drain pops every encounter off the queue in priority order.
func (q *Queue) Drain() []*encounter.Encounter {
	out := make([]*encounter.Encounter, 0, q.Len())
	for q.Len() > 0 {
		out = append(out, q.Pop())
	}
	return out
}

// entryHeap implements heap.Interface over *encounter.Encounter.
type entryHeap []*encounter.Encounter

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].AssignedCTAS != h[j].AssignedCTAS {
		return h[i].AssignedCTAS < h[j].AssignedCTAS
	}
	return h[i].ArrivalTick < h[j].ArrivalTick
}

func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x interface{}) {
	*h = append(*h, x.(*encounter.Encounter))
}

func (h *entryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}
