// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hpq

import (
	"sync/atomic"

	"code.hybscloud.com/spin"
)

// MSQueue is an unbounded lock-free FIFO queue after Michael and Scott
// (PODC 1996). A dummy head node decouples producers from consumers:
// Push contends only on the tail, TryPop only on the head.
//
// Node links use typed stdlib atomics; there is no scalar equivalent
// for pointer CAS. Contended retries pause with spin.Wait.
type MSQueue[T any] struct {
	head atomic.Pointer[msNode[T]] // dummy; head.next is the front
	tail atomic.Pointer[msNode[T]]
}

type msNode[T any] struct {
	v    T
	next atomic.Pointer[msNode[T]]
}

// NewMSQueue creates an empty lock-free FIFO queue.
func NewMSQueue[T any]() *MSQueue[T] {
	q := &MSQueue[T]{}
	dummy := &msNode[T]{}
	q.head.Store(dummy)
	q.tail.Store(dummy)
	return q
}

// Push appends v. Lock-free: some Push always completes in a bounded
// number of steps even under contention.
func (q *MSQueue[T]) Push(v T) {
	n := &msNode[T]{v: v}
	sw := spin.Wait{}
	for {
		tail := q.tail.Load()
		next := tail.next.Load()
		if tail != q.tail.Load() {
			sw.Once()
			continue
		}
		if next != nil {
			// Tail is lagging; help it forward.
			q.tail.CompareAndSwap(tail, next)
			continue
		}
		if tail.next.CompareAndSwap(nil, n) {
			q.tail.CompareAndSwap(tail, n)
			return
		}
		sw.Once()
	}
}

// TryPop removes and returns the front element.
// Returns ErrWouldBlock if the queue is empty.
func (q *MSQueue[T]) TryPop() (T, error) {
	sw := spin.Wait{}
	for {
		head := q.head.Load()
		tail := q.tail.Load()
		next := head.next.Load()
		if head != q.head.Load() {
			sw.Once()
			continue
		}
		if next == nil {
			var zero T
			return zero, ErrWouldBlock
		}
		if head == tail {
			// Tail is lagging behind a completed push; help it.
			q.tail.CompareAndSwap(tail, next)
			continue
		}
		v := next.v
		if q.head.CompareAndSwap(head, next) {
			return v, nil
		}
		sw.Once()
	}
}

// Empty reports whether the queue looked empty at one instant.
func (q *MSQueue[T]) Empty() bool {
	return q.head.Load().next.Load() == nil
}
