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

	"code.hybscloud.com/hpq"
)

func TestSyncQueueFIFO(t *testing.T) {
	q := hpq.NewSyncQueue[int]()

	for i := range 100 {
		q.Push(i)
	}
	if n := q.Len(); n != 100 {
		t.Fatalf("Len: got %d, want 100", n)
	}

	for i := range 100 {
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

func TestSyncQueuePopBlocksUntilPush(t *testing.T) {
	q := hpq.NewSyncQueue[string]()

	got := make(chan string, 1)
	go func() {
		v, err := q.Pop(context.Background())
		if err != nil {
			t.Errorf("Pop: %v", err)
			return
		}
		got <- v
	}()

	time.Sleep(10 * time.Millisecond)
	q.Push("hello")

	select {
	case v := <-got:
		if v != "hello" {
			t.Fatalf("Pop: got %q, want %q", v, "hello")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Pop did not return after Push")
	}
}

func TestSyncQueuePopCanceled(t *testing.T) {
	q := hpq.NewSyncQueue[int]()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := q.Pop(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Pop: got %v, want context.DeadlineExceeded", err)
	}
}

func TestSyncQueueConcurrentProducersConsumers(t *testing.T) {
	const producers = 4
	const itemsPerProd = 1000
	const total = producers * itemsPerProd

	q := hpq.NewSyncQueue[int]()
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

	var mu sync.Mutex
	seen := make(map[int]int, total)
	consumed := 0
	for range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				v, err := q.Pop(ctx)
				if err != nil {
					return // canceled once everything is consumed
				}
				mu.Lock()
				seen[v]++
				consumed++
				done := consumed == total
				mu.Unlock()
				if done {
					cancel() // release the other consumers
					return
				}
			}
		}()
	}
	wg.Wait()

	if len(seen) != total {
		t.Fatalf("consumed %d distinct elements, want %d", len(seen), total)
	}
	for v, n := range seen {
		if n != 1 {
			t.Fatalf("element %d popped %d times, want 1", v, n)
		}
	}
}
