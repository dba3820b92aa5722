// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hpq_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/hpq"
)

func TestSegmentedFIFOAcrossSegments(t *testing.T) {
	// Small segments so the test crosses several boundaries.
	q := hpq.NewSegmented[int](4)

	for i := range 19 {
		q.Push(i)
	}
	if n := q.Len(); n != 19 {
		t.Fatalf("Len: got %d, want 19", n)
	}

	for i := range 19 {
		v, err := q.TryPop()
		if err != nil {
			t.Fatalf("TryPop(%d): %v", i, err)
		}
		if v != i {
			t.Fatalf("TryPop: got %d, want %d", v, i)
		}
	}

	if _, err := q.TryPop(); !errors.Is(err, hpq.ErrWouldBlock) {
		t.Fatalf("TryPop on empty: got %v, want ErrWouldBlock", err)
	}
	if !q.Empty() {
		t.Fatal("Empty: got false after drain")
	}
}

func TestSegmentedInterleaved(t *testing.T) {
	q := hpq.NewSegmented[int](2)

	next := 0
	for i := range 50 {
		q.Push(2 * i)
		q.Push(2*i + 1)
		v, err := q.TryPop()
		if err != nil {
			t.Fatalf("TryPop: %v", err)
		}
		if v != next {
			t.Fatalf("TryPop: got %d, want %d", v, next)
		}
		next++
	}
	// Half of the elements remain.
	if n := q.Len(); n != 50 {
		t.Fatalf("Len: got %d, want 50", n)
	}
	for ; next < 100; next++ {
		v, err := q.TryPop()
		if err != nil {
			t.Fatalf("TryPop: %v", err)
		}
		if v != next {
			t.Fatalf("TryPop: got %d, want %d", v, next)
		}
	}
}

func TestSegmentedValidation(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("NewSegmented(0): expected panic")
		}
	}()
	hpq.NewSegmented[int](0)
}

func TestSegmentedPopCanceled(t *testing.T) {
	q := hpq.NewSegmented[int](8)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := q.Pop(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Pop: got %v, want context.DeadlineExceeded", err)
	}
}

func TestSegmentedConcurrent(t *testing.T) {
	if hpq.RaceEnabled {
		t.Skip("skip: segment cursors use atomix cross-variable ordering")
	}

	const producers = 4
	const itemsPerProd = 1000
	const total = producers * itemsPerProd

	q := hpq.NewSegmented[int](64)
	seen := make([]atomix.Int32, total)
	var consumed atomix.Int64

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	for p := range producers {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := range itemsPerProd {
				q.Push(id*itemsPerProd + i)
			}
		}(p)
	}
	for range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				v, err := q.Pop(ctx)
				if err != nil {
					return // canceled once everything is consumed
				}
				seen[v].Add(1)
				if consumed.Add(1) == total {
					cancel() // release the other consumers
					return
				}
			}
		}()
	}
	wg.Wait()

	for i := range total {
		if n := seen[i].Load(); n != 1 {
			t.Fatalf("element %d popped %d times, want 1", i, n)
		}
	}
}
