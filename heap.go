// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hpq

// pheap is a binary max-heap ordered by a "higher wins" comparator.
// It backs the local queues, the global queue and steal staging.
// Not safe for concurrent use; callers hold the owning lock.
type pheap[T any] struct {
	items  []T
	higher func(a, b T) bool
}

func (h *pheap[T]) len() int { return len(h.items) }

func (h *pheap[T]) push(v T) {
	h.items = append(h.items, v)
	h.up(len(h.items) - 1)
}

// top returns the highest-priority element. Caller ensures non-empty.
func (h *pheap[T]) top() T { return h.items[0] }

// pop removes and returns the highest-priority element.
// Caller ensures non-empty.
func (h *pheap[T]) pop() T {
	n := len(h.items)
	v := h.items[0]
	h.items[0] = h.items[n-1]
	var zero T
	h.items[n-1] = zero // release references for GC
	h.items = h.items[:n-1]
	if len(h.items) > 0 {
		h.down(0)
	}
	return v
}

// drainInto moves every element into dst, leaving h empty.
func (h *pheap[T]) drainInto(dst *pheap[T]) {
	for len(h.items) > 0 {
		dst.push(h.pop())
	}
}

func (h *pheap[T]) up(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !h.higher(h.items[i], h.items[parent]) {
			break
		}
		h.items[i], h.items[parent] = h.items[parent], h.items[i]
		i = parent
	}
}

func (h *pheap[T]) down(i int) {
	n := len(h.items)
	for {
		left := 2*i + 1
		if left >= n {
			break
		}
		best := left
		if right := left + 1; right < n && h.higher(h.items[right], h.items[left]) {
			best = right
		}
		if !h.higher(h.items[best], h.items[i]) {
			break
		}
		h.items[i], h.items[best] = h.items[best], h.items[i]
		i = best
	}
}
