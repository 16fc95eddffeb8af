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

// Package loop provides a single-goroutine execution context. State owned by
// the loop is only touched from closures it runs, so it needs no locks.
package loop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/carverauto/alsamon/pkg/logger"
)

const defaultQueueSize = 64

var (
	ErrStopped        = errors.New("event loop stopped")
	ErrAlreadyRunning = errors.New("event loop already running")
)

// Option customises a Loop.
type Option func(*Loop)

// WithQueueSize sets the number of closures that may be pending.
func WithQueueSize(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.queueSize = n
		}
	}
}

// Loop runs posted closures one at a time on the goroutine calling Run.
type Loop struct {
	logger    logger.Logger
	queueSize int
	queue     chan func()
	done      chan struct{}
	running   atomic.Bool
	stopOnce  sync.Once
}

// New creates a loop. Call Run to start dispatching.
func New(log logger.Logger, opts ...Option) *Loop {
	l := &Loop{
		logger:    log,
		queueSize: defaultQueueSize,
		done:      make(chan struct{}),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}

	l.queue = make(chan func(), l.queueSize)

	return l
}

// Run dispatches closures until ctx is cancelled. Closures still queued when
// the loop stops are discarded.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	defer l.stopOnce.Do(func() { close(l.done) })

	l.logger.Debug().Msg("event loop started")

	for {
		select {
		case <-ctx.Done():
			l.logger.Debug().Msg("event loop stopped")

			return ctx.Err()
		case fn := <-l.queue:
			l.dispatch(fn)
		}
	}
}

func (l *Loop) dispatch(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error().Interface("panic", r).Msg("recovered panic in event loop callback")
		}
	}()

	fn()
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Post queues fn for execution without waiting for it.
func (l *Loop) Post(ctx context.Context, fn func()) error {
	select {
	case <-l.done:
		return ErrStopped
	default:
	}

	select {
	case l.queue <- fn:
		return nil
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Invoke runs fn on the loop and waits for it to return. It must not be
// called from a loop callback.
func (l *Loop) Invoke(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)

	wrapped := func() {
		var err error

		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%w: %v", errCallbackPanic, r)
			}

			result <- err
		}()

		err = fn()
	}

	if err := l.Post(ctx, wrapped); err != nil {
		return err
	}

	select {
	case err := <-result:
		return err
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

var errCallbackPanic = errors.New("event loop callback panicked")
