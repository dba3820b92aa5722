// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hpq

import (
	"context"
	"slices"
	"sync"
	"time"

	"code.hybscloud.com/atomix"
)

// Queue is a hierarchical work-stealing priority queue.
//
// Each attached Worker owns a local priority queue. Pushes stay local
// until the local queue reaches the merge threshold, at which point its
// whole content moves into the shared global queue. Pops drain the
// caller's local queue first, then the global queue, then steal a batch
// from a peer.
//
// Ordering across workers is best-effort local-first, not globally
// exact; see the package documentation.
//
// Lock hierarchy, outermost first: a local queue's lock, the global
// lock, the candidate-index lock, the registry lock. The steal path
// never holds two local locks at once; stolen batches are staged in an
// unlocked caller-local heap.
type Queue[T any] struct {
	higher func(a, b T) bool
	opts   Options

	globalMu sync.Mutex
	global   pheap[T]

	// wakeCh carries at most one pending wake token. A merge into the
	// global queue wakes one blocked Pop; everything else is covered
	// by the bounded wait timeout.
	wakeCh chan struct{}

	// candidates lists local queues believed non-empty, scanned by
	// stealers. Membership is advisory and reconciled lazily.
	candMu     sync.Mutex
	candidates []*localQueue[T]

	// registry maps worker id -> local queue for Len iteration and
	// Drain. Entries live from Attach to Close.
	regMu    sync.Mutex
	registry map[uint64]*localQueue[T]

	nextID atomix.Uint64
}

func newQueue[T any](opts Options, higher func(a, b T) bool) *Queue[T] {
	return &Queue[T]{
		higher:   higher,
		opts:     opts,
		global:   pheap[T]{higher: higher},
		wakeCh:   make(chan struct{}, 1),
		registry: make(map[uint64]*localQueue[T]),
	}
}

// Worker is a per-goroutine handle into a Queue. All queue operations go
// through a Worker so that local-queue ownership is explicit in the API.
// Obtain one with Attach and release it with Close.
type Worker[T any] struct {
	q     *Queue[T]
	local *localQueue[T]
}

// Attach registers a new local queue and returns its Worker handle.
// Call Close when the goroutine's involvement with the queue ends.
func (q *Queue[T]) Attach() *Worker[T] {
	lq := &localQueue[T]{
		items: pheap[T]{higher: q.higher},
		id:    q.nextID.Add(1),
	}
	q.regMu.Lock()
	q.registry[lq.id] = lq
	q.regMu.Unlock()
	return &Worker[T]{q: q, local: lq}
}

// Push inserts v into the worker's local queue. If the local queue has
// reached the merge threshold, its whole content is flushed into the
// global queue and one blocked consumer is woken.
func (w *Worker[T]) Push(v T) {
	lq := w.mustLocal()
	q := w.q

	lq.mu.Lock()
	wasEmpty := lq.items.len() == 0
	lq.items.push(v)
	if wasEmpty {
		lq.nonEmpty.StoreRelease(true)
	}
	if lq.items.len() >= q.opts.localThreshold {
		q.globalMu.Lock()
		q.removeCandidate(lq)
		lq.items.drainInto(&q.global)
		lq.nonEmpty.StoreRelease(false)
		q.globalMu.Unlock()
		lq.mu.Unlock()
		q.wake()
		return
	}
	lq.mu.Unlock()

	if wasEmpty {
		q.addCandidate(lq)
	}
}

// TryPop removes and returns the best available element without
// blocking: the worker's local queue first, then the global queue, then
// a steal attempt against a peer. Returns ErrWouldBlock when all three
// come up empty.
func (w *Worker[T]) TryPop() (T, error) {
	if v, ok := w.popLocal(); ok {
		return v, nil
	}
	if v, ok := w.q.popGlobal(); ok {
		return v, nil
	}
	if v, ok := w.stealFromOthers(); ok {
		return v, nil
	}
	var zero T
	return zero, ErrWouldBlock
}

// Pop blocks until an element is available or ctx is done. It re-polls
// local, global and steal sources at least every WaitTimeout; a merge
// into the global queue wakes it early.
func (w *Worker[T]) Pop(ctx context.Context) (T, error) {
	w.mustLocal()
	q := w.q

	timer := time.NewTimer(q.opts.waitTimeout)
	defer timer.Stop()
	for {
		v, err := w.TryPop()
		if err == nil {
			return v, nil
		}

		select {
		case <-q.wakeCh:
			if !timer.Stop() {
				<-timer.C
			}
		case <-timer.C:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
		timer.Reset(q.opts.waitTimeout)
	}
}

// Empty reports whether the worker's local queue, the global queue and
// the candidate index all look empty. The answer is a momentary
// snapshot across independently locked regions and may be stale the
// instant it returns.
func (w *Worker[T]) Empty() bool {
	lq := w.mustLocal()
	q := w.q

	if !lq.quickEmpty() {
		return false
	}
	q.globalMu.Lock()
	n := q.global.len()
	q.globalMu.Unlock()
	if n > 0 {
		return false
	}
	q.candMu.Lock()
	c := len(q.candidates)
	q.candMu.Unlock()
	return c == 0
}

// Len estimates the total number of elements: the worker's local count,
// the global count and the counts of all peer local queues, each read
// under its own lock but with no lock spanning the whole walk. Advisory
// only.
func (w *Worker[T]) Len() int {
	lq := w.mustLocal()
	q := w.q

	count := lq.size()

	q.globalMu.Lock()
	count += q.global.len()
	q.globalMu.Unlock()

	q.regMu.Lock()
	peers := make([]*localQueue[T], 0, len(q.registry))
	for _, peer := range q.registry {
		if peer != lq {
			peers = append(peers, peer)
		}
	}
	q.regMu.Unlock()

	for _, peer := range peers {
		if !peer.quickEmpty() {
			count += peer.size()
		}
	}
	return count
}

// Close ends the worker's participation: remaining local elements are
// merged into the global queue, the local queue leaves the candidate
// index and the registry, and the handle becomes unusable. Close is
// idempotent.
func (w *Worker[T]) Close() {
	lq := w.local
	if lq == nil {
		return
	}
	w.local = nil
	q := w.q

	lq.mu.Lock()
	q.globalMu.Lock()
	moved := lq.items.len()
	lq.items.drainInto(&q.global)
	lq.nonEmpty.StoreRelease(false)
	q.globalMu.Unlock()
	lq.mu.Unlock()

	q.removeCandidate(lq)

	q.regMu.Lock()
	delete(q.registry, lq.id)
	q.regMu.Unlock()

	if moved > 0 {
		q.wake()
	}
}

// Drain flushes every registered local queue into the global queue so
// that consumers can finish without stealing. The caller must ensure no
// further pushes race with the drain if a complete flush is expected;
// registered workers remain attached and usable.
func (q *Queue[T]) Drain() {
	q.regMu.Lock()
	locals := make([]*localQueue[T], 0, len(q.registry))
	for _, lq := range q.registry {
		locals = append(locals, lq)
	}
	q.regMu.Unlock()

	moved := 0
	for _, lq := range locals {
		lq.mu.Lock()
		q.globalMu.Lock()
		q.removeCandidate(lq)
		moved += lq.items.len()
		lq.items.drainInto(&q.global)
		lq.nonEmpty.StoreRelease(false)
		q.globalMu.Unlock()
		lq.mu.Unlock()
	}
	if moved > 0 {
		q.wake()
	}
}

// popLocal pops from the worker's own local queue, maintaining the
// candidate index on the non-empty -> empty edge.
func (w *Worker[T]) popLocal() (T, bool) {
	lq := w.mustLocal()
	if lq.quickEmpty() {
		var zero T
		return zero, false
	}
	v, ok := lq.tryPop()
	if ok && lq.quickEmpty() {
		w.q.removeCandidate(lq)
	}
	return v, ok
}

func (q *Queue[T]) popGlobal() (T, bool) {
	q.globalMu.Lock()
	defer q.globalMu.Unlock()
	if q.global.len() == 0 {
		var zero T
		return zero, false
	}
	return q.global.pop(), true
}

// stealFromOthers snapshots the candidate index and visits peers in
// index order. The first peer with elements is drained of up to
// MaxSteal of them: the best one is returned, the remainder is kept in
// the caller's local queue.
func (w *Worker[T]) stealFromOthers() (T, bool) {
	lq := w.mustLocal()
	q := w.q

	q.candMu.Lock()
	if len(q.candidates) == 0 {
		q.candMu.Unlock()
		var zero T
		return zero, false
	}
	snapshot := slices.Clone(q.candidates)
	q.candMu.Unlock()

	batch := pheap[T]{higher: q.higher}
	for _, victim := range snapshot {
		if victim == lq {
			continue
		}
		moved := victim.steal(&batch, q.opts.maxSteal)
		if moved == 0 {
			// Stale index entry; reconcile so Empty converges.
			if victim.quickEmpty() {
				q.removeCandidate(victim)
			}
			continue
		}
		if victim.quickEmpty() {
			q.removeCandidate(victim)
		}

		v := batch.pop()
		if batch.len() > 0 {
			w.keepRemainder(&batch)
		}
		return v, true
	}
	var zero T
	return zero, false
}

// keepRemainder pushes the unclaimed part of a stolen batch into the
// caller's own local queue, registering it as a steal candidate if it
// was empty before the injection.
func (w *Worker[T]) keepRemainder(batch *pheap[T]) {
	lq := w.local
	q := w.q

	lq.mu.Lock()
	wasEmpty := lq.items.len() == 0
	batch.drainInto(&lq.items)
	if wasEmpty {
		lq.nonEmpty.StoreRelease(true)
	}
	lq.mu.Unlock()

	if wasEmpty {
		q.addCandidate(lq)
	}
}

// wake hands one token to a blocked Pop. Unconditional and non-blocking:
// with no waiter the token is parked, a spurious consume just re-polls.
func (q *Queue[T]) wake() {
	select {
	case q.wakeCh <- struct{}{}:
	default:
	}
}

// addCandidate registers lq in the non-empty index. Idempotent.
func (q *Queue[T]) addCandidate(lq *localQueue[T]) {
	q.candMu.Lock()
	defer q.candMu.Unlock()
	if slices.Contains(q.candidates, lq) {
		return
	}
	q.candidates = append(q.candidates, lq)
}

// removeCandidate drops lq from the non-empty index, if present.
func (q *Queue[T]) removeCandidate(lq *localQueue[T]) {
	q.candMu.Lock()
	defer q.candMu.Unlock()
	if i := slices.Index(q.candidates, lq); i >= 0 {
		q.candidates = slices.Delete(q.candidates, i, i+1)
	}
}

func (w *Worker[T]) mustLocal() *localQueue[T] {
	lq := w.local
	if lq == nil {
		panic("hpq: worker used after Close")
	}
	return lq
}
