// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hpq

import (
	"context"
	"sync"
)

// SyncQueue is an unbounded mutex-based FIFO queue.
//
// It is the simplest of the building blocks: one lock, one condition
// variable, strict FIFO order. Push never blocks; Pop blocks until an
// element arrives or the context is done.
type SyncQueue[T any] struct {
	mu   sync.Mutex
	cond *sync.Cond

	// items[head:] holds the queue content; head is compacted away
	// once it grows past half the backing slice.
	items []T
	head  int
}

// NewSyncQueue creates an empty unbounded FIFO queue.
func NewSyncQueue[T any]() *SyncQueue[T] {
	q := &SyncQueue[T]{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends v and wakes one blocked Pop.
func (q *SyncQueue[T]) Push(v T) {
	q.mu.Lock()
	q.items = append(q.items, v)
	q.mu.Unlock()
	q.cond.Signal()
}

// TryPop removes and returns the front element.
// Returns ErrWouldBlock if the queue is empty.
func (q *SyncQueue[T]) TryPop() (T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.head == len(q.items) {
		var zero T
		return zero, ErrWouldBlock
	}
	return q.popFrontLocked(), nil
}

// Pop removes and returns the front element, blocking until one is
// available or ctx is done.
func (q *SyncQueue[T]) Pop(ctx context.Context) (T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := ctx.Err(); err != nil {
		var zero T
		return zero, err
	}

	if q.head == len(q.items) {
		stop := context.AfterFunc(ctx, func() {
			// Wake every waiter so the canceled one can leave.
			q.mu.Lock()
			q.cond.Broadcast()
			q.mu.Unlock()
		})
		defer stop()

		for q.head == len(q.items) {
			if err := ctx.Err(); err != nil {
				var zero T
				return zero, err
			}
			q.cond.Wait()
		}
	}
	return q.popFrontLocked(), nil
}

// Len returns the current number of elements.
func (q *SyncQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}

// Empty reports whether the queue is currently empty.
func (q *SyncQueue[T]) Empty() bool {
	return q.Len() == 0
}

func (q *SyncQueue[T]) popFrontLocked() T {
	v := q.items[q.head]
	var zero T
	q.items[q.head] = zero // release reference for GC
	q.head++
	if q.head > len(q.items)/2 && q.head > 32 {
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}
	return v
}
