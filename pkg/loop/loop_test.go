/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package loop

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/alsamon/pkg/logger"
)

func startLoop(t *testing.T) *Loop {
	t.Helper()

	l := New(logger.NewTestLogger(), WithQueueSize(4))
	ctx, cancel := context.WithCancel(context.Background())

	go func() { _ = l.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		<-l.Done()
	})

	return l
}

func TestInvokeRunsInOrder(t *testing.T) {
	l := startLoop(t)
	ctx := context.Background()

	var order []int

	for i := 0; i < 10; i++ {
		require.NoError(t, l.Post(ctx, func() { order = append(order, i) }))
	}

	var got []int

	require.NoError(t, l.Invoke(ctx, func() error {
		got = append(got, order...)

		return nil
	}))

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
}

func TestInvokeReturnsErrorAndRecoversPanic(t *testing.T) {
	l := startLoop(t)
	ctx := context.Background()

	sentinel := errors.New("boom")
	require.ErrorIs(t, l.Invoke(ctx, func() error { return sentinel }), sentinel)

	err := l.Invoke(ctx, func() error { panic("bad") })
	require.ErrorIs(t, err, errCallbackPanic)

	require.NoError(t, l.Invoke(ctx, func() error { return nil }))
}

func TestPostAfterStop(t *testing.T) {
	l := New(logger.NewTestLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, l.Run(ctx), context.Canceled)
	require.ErrorIs(t, l.Post(context.Background(), func() {}), ErrStopped)
	require.ErrorIs(t, l.Invoke(context.Background(), func() error { return nil }), ErrStopped)
	require.ErrorIs(t, l.Run(context.Background()), ErrAlreadyRunning)
}

type chanCloser struct {
	ch     chan struct{}
	closed atomic.Bool
}

func (c *chanCloser) Close() error {
	if c.closed.CompareAndSwap(false, true) {
		close(c.ch)
	}

	return nil
}

func TestSourceDeliversUntilRemoved(t *testing.T) {
	l := startLoop(t)
	ctx := context.Background()

	events := make(chan int)
	closer := &chanCloser{ch: make(chan struct{})}

	var delivered atomic.Int32

	src := l.AddSource("test", func(ctx context.Context, post PostFunc) error {
		for {
			select {
			case <-closer.ch:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			case n := <-events:
				post(func() { delivered.Add(int32(n)) })
			}
		}
	}, closer)

	events <- 1
	events <- 2

	require.Eventually(t, func() bool {
		var v int32

		_ = l.Invoke(ctx, func() error {
			v = delivered.Load()

			return nil
		})

		return v == 3
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, src.Remove())
	assert.False(t, src.Active())
	assert.True(t, closer.closed.Load())
	require.NoError(t, src.Remove())
	assert.NoError(t, src.Err())
}

func TestSourceRemoveFromLoopDropsPending(t *testing.T) {
	l := startLoop(t)
	ctx := context.Background()

	ready := make(chan struct{})
	closer := &chanCloser{ch: make(chan struct{})}

	var delivered atomic.Int32

	var src *Source

	block := make(chan struct{})

	// occupy the loop so the removal runs before the queued event
	require.NoError(t, l.Post(ctx, func() { <-block }))
	require.NoError(t, l.Post(ctx, func() { _ = src.Remove() }))

	src = l.AddSource("stale", func(_ context.Context, post PostFunc) error {
		post(func() { delivered.Add(1) })
		close(ready)
		<-closer.ch

		return nil
	}, closer)

	<-ready
	close(block)

	require.NoError(t, l.Invoke(ctx, func() error { return nil }))
	assert.Equal(t, int32(0), delivered.Load())
	assert.False(t, src.Active())
}
