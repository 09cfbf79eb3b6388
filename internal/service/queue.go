package service

import (
	"container/heap"

	"github.com/punchamoorthee/settlebank/internal/domain"
)

// pendingHeap implements heap.Interface ordered by execution time, then by
// placement sequence.
type pendingHeap []domain.PendingTransaction

func (h pendingHeap) Len() int { return len(h) }

func (h pendingHeap) Less(i, j int) bool {
	if h[i].ExecTime == h[j].ExecTime {
		return h[i].SequenceID < h[j].SequenceID
	}
	return h[i].ExecTime < h[j].ExecTime
}

func (h pendingHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *pendingHeap) Push(x any) {
	*h = append(*h, x.(domain.PendingTransaction))
}

func (h *pendingHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	*h = old[:n-1]
	return t
}

// PendingQueue holds placed transactions until they are due.
type PendingQueue struct {
	items pendingHeap
}

func NewPendingQueue() *PendingQueue {
	return &PendingQueue{}
}

func (q *PendingQueue) Insert(t domain.PendingTransaction) {
	heap.Push(&q.items, t)
}

// Peek returns the earliest-due transaction without removing it.
func (q *PendingQueue) Peek() (domain.PendingTransaction, bool) {
	if len(q.items) == 0 {
		return domain.PendingTransaction{}, false
	}
	return q.items[0], true
}

// PopMin removes and returns the earliest-due transaction.
func (q *PendingQueue) PopMin() (domain.PendingTransaction, bool) {
	if len(q.items) == 0 {
		return domain.PendingTransaction{}, false
	}
	return heap.Pop(&q.items).(domain.PendingTransaction), true
}

func (q *PendingQueue) Len() int { return len(q.items) }

func (q *PendingQueue) Empty() bool { return len(q.items) == 0 }
