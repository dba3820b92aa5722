// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hpq

import (
	"context"
	"sync"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
)

// Segmented is an unbounded FIFO queue built from fixed-size segments,
// each with its own lock. Producers and consumers working in different
// segments never contend; the global lock is taken only to grow or
// retire the segment list.
//
// A segment fills once and is never reused: when the tail segment is
// full the tail cursor advances, and a drained, sealed segment is
// retired as the head cursor moves past it.
type Segmented[T any] struct {
	segSize int

	head atomix.Uint64 // logical index of the pop segment
	tail atomix.Uint64 // logical index of the push segment

	mu   sync.Mutex   // guards segs and base
	segs []*segment[T]
	base uint64 // logical index of segs[0]
}

type segment[T any] struct {
	mu    sync.Mutex
	buf   []T
	start int // first live element
	end   int // next insert position; sealed when end == len(buf)
}

// NewSegmented creates a segmented FIFO queue with the given segment
// size. Panics if segSize < 1.
func NewSegmented[T any](segSize int) *Segmented[T] {
	if segSize < 1 {
		panic("hpq: segment size must be >= 1")
	}
	return &Segmented[T]{segSize: segSize}
}

// Push appends v. Never blocks; a full tail segment advances the tail
// cursor and allocates the next segment on demand.
func (q *Segmented[T]) Push(v T) {
	for {
		ti := q.tail.Load()
		seg := q.segmentAt(ti)
		if seg == nil {
			// Stale cursor read; the segment was already retired.
			continue
		}

		seg.mu.Lock()
		if seg.end < len(seg.buf) {
			seg.buf[seg.end] = v
			seg.end++
			seg.mu.Unlock()
			return
		}
		seg.mu.Unlock()

		// Sealed; move on. Only one CAS wins, the rest re-read.
		q.tail.CompareAndSwapAcqRel(ti, ti+1)
	}
}

// TryPop removes and returns the front element.
// Returns ErrWouldBlock if the queue is empty.
func (q *Segmented[T]) TryPop() (T, error) {
	for {
		hi := q.head.Load()
		seg := q.lookup(hi)
		if seg == nil {
			if q.head.Load() != hi {
				// Lost a race with a concurrent retire.
				continue
			}
			// Nothing was ever pushed at this cursor yet.
			var zero T
			return zero, ErrWouldBlock
		}

		seg.mu.Lock()
		if seg.start < seg.end {
			v := seg.buf[seg.start]
			var zero T
			seg.buf[seg.start] = zero
			seg.start++
			seg.mu.Unlock()
			return v, nil
		}
		sealed := seg.end == len(seg.buf)
		seg.mu.Unlock()

		if !sealed || hi >= q.tail.Load() {
			var zero T
			return zero, ErrWouldBlock
		}

		// Drained and sealed: advance past it and drop its memory.
		if q.head.CompareAndSwapAcqRel(hi, hi+1) {
			q.retire(hi)
		}
	}
}

// Pop removes and returns the front element, polling with adaptive
// backoff until one is available or ctx is done.
func (q *Segmented[T]) Pop(ctx context.Context) (T, error) {
	backoff := iox.Backoff{}
	for {
		v, err := q.TryPop()
		if err == nil {
			return v, nil
		}
		if err := ctx.Err(); err != nil {
			var zero T
			return zero, err
		}
		backoff.Wait()
	}
}

// Len walks the live segments and sums their counts. Advisory: no lock
// spans the whole walk.
func (q *Segmented[T]) Len() int {
	q.mu.Lock()
	live := make([]*segment[T], 0, len(q.segs))
	for _, seg := range q.segs {
		if seg != nil {
			live = append(live, seg)
		}
	}
	q.mu.Unlock()

	count := 0
	for _, seg := range live {
		seg.mu.Lock()
		count += seg.end - seg.start
		seg.mu.Unlock()
	}
	return count
}

// Empty reports whether the queue currently looks empty.
func (q *Segmented[T]) Empty() bool {
	return q.Len() == 0
}

// segmentAt returns the segment at logical index i, growing the list as
// needed. Returns nil if i was already retired (stale cursor read).
func (q *Segmented[T]) segmentAt(i uint64) *segment[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	if i < q.base {
		return nil
	}
	for i-q.base >= uint64(len(q.segs)) {
		q.segs = append(q.segs, &segment[T]{buf: make([]T, q.segSize)})
	}
	return q.segs[i-q.base]
}

// lookup returns the segment at logical index i, or nil if it does not
// exist or was retired.
func (q *Segmented[T]) lookup(i uint64) *segment[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	if i < q.base || i-q.base >= uint64(len(q.segs)) {
		return nil
	}
	return q.segs[i-q.base]
}

// retire releases the segment at logical index i and compacts the
// prefix of retired segments.
func (q *Segmented[T]) retire(i uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if i < q.base || i-q.base >= uint64(len(q.segs)) {
		return
	}
	q.segs[i-q.base] = nil
	cut := 0
	for cut < len(q.segs) && q.segs[cut] == nil {
		cut++
	}
	if cut > 0 {
		q.segs = append([]*segment[T]{}, q.segs[cut:]...)
		q.base += uint64(cut)
	}
}
