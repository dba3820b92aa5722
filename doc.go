// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package hpq provides concurrent queue building blocks for
// producer/consumer pipelines.
//
// The centerpiece is the hierarchical work-stealing priority queue: each
// worker goroutine owns a private local priority queue, backed by a
// shared global priority queue, with opportunistic stealing between
// workers when one runs dry.
//
//   - Queue[T]: the hierarchical priority queue
//   - Worker[T]: a per-goroutine handle into a Queue
//   - SyncQueue[T]: unbounded mutex-based FIFO
//   - Bounded[T]: capacity-bounded blocking FIFO
//   - Segmented[T]: segment-per-lock FIFO for reduced contention
//   - Delay[T]: deadline-ordered blocking queue
//   - MSQueue[T]: unbounded Michael-Scott lock-free FIFO
//
// # Quick Start
//
// Build a hierarchical queue, attach a worker per goroutine:
//
//	q := hpq.Build[int](hpq.New())
//
//	w := q.Attach()
//	defer w.Close()
//
//	w.Push(42)
//	v, err := w.TryPop()
//	if hpq.IsWouldBlock(err) {
//	    // nothing available anywhere - try again later
//	}
//
// Custom element types take a comparator ("higher wins"):
//
//	q := hpq.BuildFunc[Task](hpq.New(), func(a, b Task) bool {
//	    return a.Priority > b.Priority
//	})
//
// # The Hierarchy
//
// A push goes to the calling worker's local queue. Once the local queue
// reaches the merge threshold, its whole content is flushed into the
// global queue and one blocked consumer is woken. A pop drains the
// caller's local queue first, then the global queue, then tries to steal
// a batch from a peer's local queue.
//
// Tuning is done on the builder:
//
//	b := hpq.New().
//	    LocalThreshold(64).                // flush local -> global at 64 items
//	    MaxSteal(8).                       // move at most 8 items per steal
//	    WaitTimeout(50 * time.Millisecond) // re-poll interval for blocked pops
//	q := hpq.Build[int](b)
//
// LocalThreshold trades latency against throughput: lower values flush
// more often and keep elements globally visible, higher values buffer
// more work privately and reduce lock traffic.
//
// # Ordering
//
// Priority ordering is best-effort local-first, not globally exact. A
// worker may receive a lower-priority element from its own local queue
// while a higher-priority one sits in another worker's local queue or in
// the global queue. This is a deliberate relaxation: low-latency
// uncontended access to the local queue is the point of the hierarchy.
// Within any single underlying queue, ordering is strict.
//
// # Workers
//
// Worker is the explicit per-goroutine handle. Attach registers a fresh
// local queue; Close merges whatever is left into the global queue and
// deregisters, so elements are never silently dropped:
//
//	for range numWorkers {
//	    go func() {
//	        w := q.Attach()
//	        defer w.Close()
//	        for {
//	            v, err := w.Pop(ctx)
//	            if err != nil {
//	                return // ctx canceled
//	            }
//	            process(v)
//	        }
//	    }()
//	}
//
// A Worker is intended to be used by one goroutine. Every operation is
// still lock-protected, so sharing one Worker is memory-safe, but the
// local-first semantics stop being meaningful.
//
// Pop blocks in bounded cycles: it re-polls all three sources at least
// every WaitTimeout, waking early when a merge publishes new work.
// Cancellation goes through the context.
//
// When producers are done, Drain flushes every registered local queue
// into the global queue so consumers can finish without stealing:
//
//	prodWg.Wait()
//	q.Drain()
//
// # Error Handling
//
// Non-blocking operations return [ErrWouldBlock] when they cannot
// proceed. This is a control flow signal, not a failure, and is sourced
// from [code.hybscloud.com/iox] for ecosystem consistency:
//
//	backoff := iox.Backoff{}
//	for {
//	    v, err := w.TryPop()
//	    if err == nil {
//	        backoff.Reset()
//	        handle(v)
//	        continue
//	    }
//	    if hpq.IsWouldBlock(err) {
//	        backoff.Wait()
//	        continue
//	    }
//	    return err
//	}
//
// # Length and Emptiness
//
// Empty and Len are momentary snapshots across independently locked
// regions. They can be stale the instant they return and exist for
// monitoring and tests, not for synchronization. Making them exact would
// require one lock spanning every per-worker queue, which is exactly the
// contention the hierarchy exists to avoid.
//
// # Sibling Queues
//
// The simpler queues share the ErrWouldBlock push/pop contract, so any
// of them can stand in wherever a plain FIFO backend is needed:
//
//	fifo := hpq.NewSyncQueue[Job]()
//	bq := hpq.NewBounded[Job](1024)   // blocking backpressure
//	sq := hpq.NewSegmented[Job](256)  // lower lock contention
//	dq := hpq.NewDelay[Job]()         // deadline-ordered
//	lf := hpq.NewMSQueue[Job]()       // lock-free, unbounded
//
// # Race Detection
//
// The non-empty hint and the lock-free MSQueue synchronize through
// atomic operations with acquire-release semantics. Go's race detector
// cannot observe happens-before edges established this way and reports
// false positives on correct code. Stress tests that exercise those
// paths skip themselves when [RaceEnabled] is true.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/iox] for semantic errors,
// [code.hybscloud.com/atomix] for atomic primitives with explicit
// memory ordering, and [code.hybscloud.com/spin] for CPU pause
// instructions.
package hpq
