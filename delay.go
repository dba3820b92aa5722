// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hpq

import (
	"context"
	"sync"
	"time"
)

// Delay is a deadline-ordered blocking queue. Elements become visible
// to consumers only once their delay has elapsed; among ready elements
// the earliest deadline wins, with FIFO order on ties.
type Delay[T any] struct {
	mu   sync.Mutex
	cond *sync.Cond

	items pheap[delayItem[T]]
	seq   uint64

	// timer wakes waiters when the earliest deadline expires.
	// Rearmed whenever the head changes.
	timer *time.Timer

	now func() time.Time // injectable clock for tests
}

type delayItem[T any] struct {
	v   T
	at  time.Time
	seq uint64 // FIFO tie-break within one deadline
}

// NewDelay creates an empty delay queue.
func NewDelay[T any]() *Delay[T] {
	q := &Delay[T]{now: time.Now}
	q.cond = sync.NewCond(&q.mu)
	q.items.higher = func(a, b delayItem[T]) bool {
		if !a.at.Equal(b.at) {
			return a.at.Before(b.at)
		}
		return a.seq < b.seq
	}
	return q
}

// Push inserts v with the given delay relative to now. A zero or
// negative delay makes the element immediately ready.
func (q *Delay[T]) Push(v T, delay time.Duration) {
	q.mu.Lock()
	q.seq++
	q.items.push(delayItem[T]{v: v, at: q.now().Add(delay), seq: q.seq})
	q.rearmLocked()
	q.mu.Unlock()
	q.cond.Broadcast()
}

// TryPop removes and returns the earliest-deadline element if its delay
// has elapsed. Returns ErrWouldBlock if the queue is empty or the head
// is not ready yet.
func (q *Delay[T]) TryPop() (T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.items.len() == 0 || q.items.top().at.After(q.now()) {
		var zero T
		return zero, ErrWouldBlock
	}
	v := q.items.pop().v
	q.rearmLocked()
	return v, nil
}

// Pop removes and returns the earliest-deadline element, blocking until
// one is ready or ctx is done.
func (q *Delay[T]) Pop(ctx context.Context) (T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := ctx.Err(); err != nil {
		var zero T
		return zero, err
	}

	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		q.cond.Broadcast()
		q.mu.Unlock()
	})
	defer stop()

	for {
		if err := ctx.Err(); err != nil {
			var zero T
			return zero, err
		}
		if q.items.len() > 0 && !q.items.top().at.After(q.now()) {
			v := q.items.pop().v
			q.rearmLocked()
			return v, nil
		}
		// Either empty or the head is still maturing; the timer or a
		// push will broadcast.
		q.cond.Wait()
	}
}

// Len returns the current number of elements, ready or not.
func (q *Delay[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.len()
}

// Empty reports whether the queue is currently empty.
func (q *Delay[T]) Empty() bool {
	return q.Len() == 0
}

// rearmLocked points the wake timer at the current head deadline.
// Must be called with mu held whenever the head may have changed.
func (q *Delay[T]) rearmLocked() {
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	if q.items.len() == 0 {
		return
	}
	d := q.items.top().at.Sub(q.now())
	if d < 0 {
		d = 0
	}
	q.timer = time.AfterFunc(d, func() {
		q.mu.Lock()
		q.cond.Broadcast()
		q.mu.Unlock()
	})
}
