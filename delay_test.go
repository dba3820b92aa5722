// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hpq

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDelayDeadlineOrdering(t *testing.T) {
	q := NewDelay[string]()

	// Injectable clock: nothing matures until we say so.
	mock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	q.now = func() time.Time { return mock }

	q.Push("late", time.Hour)
	q.Push("early", time.Minute)
	q.Push("middle", 30*time.Minute)

	require.Equal(t, 3, q.Len())

	// Head not ready yet.
	_, err := q.TryPop()
	assert.True(t, IsWouldBlock(err))

	// Advance past the first deadline only.
	mock = mock.Add(2 * time.Minute)
	v, err := q.TryPop()
	require.NoError(t, err)
	assert.Equal(t, "early", v)

	_, err = q.TryPop()
	assert.True(t, IsWouldBlock(err))

	// Advance past everything: earliest-deadline order.
	mock = mock.Add(2 * time.Hour)
	v, err = q.TryPop()
	require.NoError(t, err)
	assert.Equal(t, "middle", v)
	v, err = q.TryPop()
	require.NoError(t, err)
	assert.Equal(t, "late", v)

	assert.True(t, q.Empty())
}

func TestDelayFIFOWithinDeadline(t *testing.T) {
	q := NewDelay[int]()

	mock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	q.now = func() time.Time { return mock }

	// Same deadline: insertion order wins.
	for i := range 5 {
		q.Push(i, time.Minute)
	}
	mock = mock.Add(2 * time.Minute)

	for i := range 5 {
		v, err := q.TryPop()
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
}

func TestDelayImmediatelyReady(t *testing.T) {
	q := NewDelay[int]()

	q.Push(7, 0)
	v, err := q.TryPop()
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	q.Push(8, -time.Second)
	v, err = q.TryPop()
	require.NoError(t, err)
	assert.Equal(t, 8, v)
}

func TestDelayPopWaitsForMaturity(t *testing.T) {
	q := NewDelay[int]()

	const delay = 50 * time.Millisecond
	start := time.Now()
	q.Push(1, delay)

	v, err := q.Pop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.GreaterOrEqual(t, time.Since(start), delay)
}

func TestDelayPopWokenByEarlierPush(t *testing.T) {
	q := NewDelay[int]()

	q.Push(1, time.Hour)

	got := make(chan int, 1)
	go func() {
		v, err := q.Pop(context.Background())
		if err != nil {
			t.Errorf("Pop: %v", err)
			return
		}
		got <- v
	}()

	time.Sleep(10 * time.Millisecond)
	// An element with a much earlier deadline must preempt the head
	// the waiter originally saw.
	q.Push(2, 20*time.Millisecond)

	select {
	case v := <-got:
		assert.Equal(t, 2, v)
	case <-time.After(5 * time.Second):
		t.Fatal("Pop was not woken by the earlier deadline")
	}
}

func TestDelayPopCanceled(t *testing.T) {
	q := NewDelay[int]()
	q.Push(1, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.Pop(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, 1, q.Len())
}
