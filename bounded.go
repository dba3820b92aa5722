// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hpq

import (
	"context"
	"sync"
)

// Bounded is a capacity-bounded blocking FIFO queue.
//
// Push blocks while the queue is full and Pop blocks while it is empty;
// the Try variants return ErrWouldBlock instead. A fixed ring buffer
// holds the elements and an internal count keeps Len at O(1).
type Bounded[T any] struct {
	mu       sync.Mutex
	notFull  *sync.Cond
	notEmpty *sync.Cond

	buf   []T
	head  int // next pop position
	count int
}

// NewBounded creates a bounded FIFO queue with the given capacity.
// Panics if capacity < 1.
func NewBounded[T any](capacity int) *Bounded[T] {
	if capacity < 1 {
		panic("hpq: bounded capacity must be >= 1")
	}
	q := &Bounded[T]{buf: make([]T, capacity)}
	q.notFull = sync.NewCond(&q.mu)
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// Push appends v, blocking while the queue is full.
// Returns ctx.Err() if ctx is done before space is available.
func (q *Bounded[T]) Push(ctx context.Context, v T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	if q.count == len(q.buf) {
		stop := context.AfterFunc(ctx, func() {
			q.mu.Lock()
			q.notFull.Broadcast()
			q.notEmpty.Broadcast()
			q.mu.Unlock()
		})
		defer stop()

		for q.count == len(q.buf) {
			if err := ctx.Err(); err != nil {
				return err
			}
			q.notFull.Wait()
		}
	}

	q.pushBackLocked(v)
	q.notEmpty.Signal()
	return nil
}

// TryPush appends v without blocking.
// Returns ErrWouldBlock if the queue is full.
func (q *Bounded[T]) TryPush(v T) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.count == len(q.buf) {
		return ErrWouldBlock
	}
	q.pushBackLocked(v)
	q.notEmpty.Signal()
	return nil
}

// Pop removes and returns the front element, blocking while the queue
// is empty. Returns ctx.Err() if ctx is done first.
func (q *Bounded[T]) Pop(ctx context.Context) (T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := ctx.Err(); err != nil {
		var zero T
		return zero, err
	}

	if q.count == 0 {
		stop := context.AfterFunc(ctx, func() {
			q.mu.Lock()
			q.notFull.Broadcast()
			q.notEmpty.Broadcast()
			q.mu.Unlock()
		})
		defer stop()

		for q.count == 0 {
			if err := ctx.Err(); err != nil {
				var zero T
				return zero, err
			}
			q.notEmpty.Wait()
		}
	}

	v := q.popFrontLocked()
	q.notFull.Signal()
	return v, nil
}

// TryPop removes and returns the front element without blocking.
// Returns ErrWouldBlock if the queue is empty.
func (q *Bounded[T]) TryPop() (T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.count == 0 {
		var zero T
		return zero, ErrWouldBlock
	}
	v := q.popFrontLocked()
	q.notFull.Signal()
	return v, nil
}

// Len returns the current number of elements. O(1).
func (q *Bounded[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Cap returns the queue capacity.
func (q *Bounded[T]) Cap() int {
	return len(q.buf)
}

// Empty reports whether the queue is currently empty.
func (q *Bounded[T]) Empty() bool {
	return q.Len() == 0
}

func (q *Bounded[T]) pushBackLocked(v T) {
	q.buf[(q.head+q.count)%len(q.buf)] = v
	q.count++
}

func (q *Bounded[T]) popFrontLocked() T {
	v := q.buf[q.head]
	var zero T
	q.buf[q.head] = zero
	q.head = (q.head + 1) % len(q.buf)
	q.count--
	return v
}
