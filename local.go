// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hpq

import (
	"sync"

	"code.hybscloud.com/atomix"
)

// localQueue is one worker's private priority queue inside a
// hierarchical Queue. "Private" refers to the access pattern, not to
// exclusivity: the owning worker pushes and pops, but any worker may
// steal from it or merge it away under its lock.
//
// nonEmpty approximates items.len() > 0 without taking the lock. It is
// updated with release semantics before the lock is dropped whenever the
// queue crosses the empty boundary; lock-free readers may observe a
// stale value, so it is a skip hint only, never authoritative.
type localQueue[T any] struct {
	mu       sync.Mutex
	items    pheap[T]
	nonEmpty atomix.Bool
	id       uint64 // registry key, immutable after Attach
}

// tryPop removes the highest-priority element, if any.
func (lq *localQueue[T]) tryPop() (T, bool) {
	lq.mu.Lock()
	defer lq.mu.Unlock()
	if lq.items.len() == 0 {
		lq.nonEmpty.StoreRelease(false)
		var zero T
		return zero, false
	}
	v := lq.items.pop()
	if lq.items.len() == 0 {
		lq.nonEmpty.StoreRelease(false)
	}
	return v, true
}

// steal moves up to max highest-priority elements into dst and returns
// the number actually moved. dst is a caller-local staging heap; no
// second queue lock is held while it is filled.
func (lq *localQueue[T]) steal(dst *pheap[T], max int) int {
	lq.mu.Lock()
	defer lq.mu.Unlock()
	if lq.items.len() == 0 {
		lq.nonEmpty.StoreRelease(false)
		return 0
	}
	moved := 0
	for moved < max && lq.items.len() > 0 {
		dst.push(lq.items.pop())
		moved++
	}
	if lq.items.len() == 0 {
		lq.nonEmpty.StoreRelease(false)
	}
	return moved
}

// quickEmpty reads the hint without locking. O(1), may be stale.
func (lq *localQueue[T]) quickEmpty() bool {
	return !lq.nonEmpty.LoadAcquire()
}

// size returns the exact current length under the lock.
func (lq *localQueue[T]) size() int {
	lq.mu.Lock()
	defer lq.mu.Unlock()
	return lq.items.len()
}
