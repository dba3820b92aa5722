// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hpq

import (
	"cmp"
	"time"
)

// Default tuning values, matching the common case of many short-lived
// work items: flush a local queue into the global queue at 100 elements,
// move at most 10 elements per steal, re-poll blocked pops every 100ms.
const (
	DefaultLocalThreshold = 100
	DefaultMaxSteal       = 10
	DefaultWaitTimeout    = 100 * time.Millisecond
)

// Options configures hierarchical queue construction.
type Options struct {
	// localThreshold is the local queue size that triggers a merge
	// into the global queue.
	localThreshold int

	// maxSteal is the maximum number of elements moved in one steal
	// attempt.
	maxSteal int

	// waitTimeout bounds each blocking-wait cycle in Pop before the
	// three sources are re-polled.
	waitTimeout time.Duration
}

// Builder creates hierarchical queues with fluent configuration.
//
// Example:
//
//	// Defaults
//	q := hpq.Build[int](hpq.New())
//
//	// Tuned for low-latency visibility
//	q := hpq.Build[int](hpq.New().LocalThreshold(8).MaxSteal(4))
type Builder struct {
	opts Options
}

// New creates a queue builder with default tuning.
func New() *Builder {
	return &Builder{opts: Options{
		localThreshold: DefaultLocalThreshold,
		maxSteal:       DefaultMaxSteal,
		waitTimeout:    DefaultWaitTimeout,
	}}
}

// LocalThreshold sets the local queue size at which a worker's buffered
// elements are flushed into the global queue.
//
// Lower values synchronize more often and improve global fairness;
// higher values reduce contention but keep more elements invisible to
// other workers until flushed.
//
// Panics if n < 1.
func (b *Builder) LocalThreshold(n int) *Builder {
	if n < 1 {
		panic("hpq: local threshold must be >= 1")
	}
	b.opts.localThreshold = n
	return b
}

// MaxSteal sets the maximum number of elements moved in one steal
// attempt.
//
// Panics if n < 1.
func (b *Builder) MaxSteal(n int) *Builder {
	if n < 1 {
		panic("hpq: max steal must be >= 1")
	}
	b.opts.maxSteal = n
	return b
}

// WaitTimeout bounds each wait cycle of a blocking Pop. A blocked pop
// re-polls its local queue, the global queue and the steal candidates at
// least this often, so work published without a wake signal (a peer's
// first un-merged push) is found within one timeout.
//
// Panics if d <= 0.
func (b *Builder) WaitTimeout(d time.Duration) *Builder {
	if d <= 0 {
		panic("hpq: wait timeout must be positive")
	}
	b.opts.waitTimeout = d
	return b
}

// Build creates a hierarchical priority queue for an ordered element
// type. The greater element has the higher priority.
//
// For element types without a natural order, or to invert the order,
// use BuildFunc.
func Build[T cmp.Ordered](b *Builder) *Queue[T] {
	return BuildFunc[T](b, func(x, y T) bool { return x > y })
}

// BuildFunc creates a hierarchical priority queue with an explicit
// comparator. higher(a, b) reports whether a outranks b; the element
// that outranks all others is popped first.
//
// Panics if higher is nil.
func BuildFunc[T any](b *Builder, higher func(a, b T) bool) *Queue[T] {
	if higher == nil {
		panic("hpq: comparator must not be nil")
	}
	return newQueue[T](b.opts, higher)
}
