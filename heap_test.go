// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hpq

import (
	"math/rand"
	"sort"
	"testing"
)

func TestPheapOrdering(t *testing.T) {
	h := pheap[int]{higher: func(a, b int) bool { return a > b }}

	vals := rand.Perm(1000)
	// Duplicates must survive as distinct elements.
	vals = append(vals, 0, 500, 999)
	for _, v := range vals {
		h.push(v)
	}

	want := append([]int(nil), vals...)
	sort.Sort(sort.Reverse(sort.IntSlice(want)))

	for i, w := range want {
		if h.len() != len(want)-i {
			t.Fatalf("len: got %d, want %d", h.len(), len(want)-i)
		}
		if got := h.pop(); got != w {
			t.Fatalf("pop(%d): got %d, want %d", i, got, w)
		}
	}
	if h.len() != 0 {
		t.Fatalf("len after drain: got %d, want 0", h.len())
	}
}

func TestPheapDrainInto(t *testing.T) {
	higher := func(a, b int) bool { return a > b }
	src := pheap[int]{higher: higher}
	dst := pheap[int]{higher: higher}

	for _, v := range []int{5, 1, 4} {
		src.push(v)
	}
	dst.push(3)

	src.drainInto(&dst)

	if src.len() != 0 {
		t.Fatalf("source len: got %d, want 0", src.len())
	}
	for _, want := range []int{5, 4, 3, 1} {
		if got := dst.pop(); got != want {
			t.Fatalf("pop: got %d, want %d", got, want)
		}
	}
}
