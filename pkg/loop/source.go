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
	"io"
	"sync"
	"sync/atomic"
)

// PostFunc hands a closure from a pump to the loop. It returns false once the
// source has been removed or the loop has stopped.
type PostFunc func(fn func()) bool

// Pump reads one descriptor and posts a closure per event. It returns when
// the descriptor is closed or ctx is done.
type Pump func(ctx context.Context, post PostFunc) error

// Source is a pump goroutine registered with a loop.
type Source struct {
	name    string
	loop    *Loop
	cancel  context.CancelFunc
	closer  io.Closer
	done    chan struct{}
	removed atomic.Bool
	once    sync.Once
	err     error
}

// AddSource starts pump on its own goroutine. Closures it posts run on the
// loop and are skipped once the source is removed, so a removed source never
// delivers stale events.
func (l *Loop) AddSource(name string, pump Pump, closer io.Closer) *Source {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Source{
		name:   name,
		loop:   l,
		cancel: cancel,
		closer: closer,
		done:   make(chan struct{}),
	}

	post := func(fn func()) bool {
		if s.removed.Load() {
			return false
		}

		wrapped := func() {
			if s.removed.Load() {
				return
			}

			fn()
		}

		select {
		case l.queue <- wrapped:
			return true
		case <-ctx.Done():
			return false
		case <-l.done:
			return false
		}
	}

	go func() {
		defer close(s.done)

		err := pump(ctx, post)
		if err != nil && !errors.Is(err, context.Canceled) && !s.removed.Load() {
			s.err = err
			l.logger.Warn().Err(err).Str("source", name).Msg("event source failed")
		}
	}()

	return s
}

// Name returns the source name.
func (s *Source) Name() string {
	return s.name
}

// Active reports whether the source has not been removed.
func (s *Source) Active() bool {
	return !s.removed.Load()
}

// Remove stops the pump, closes its descriptor and waits for the pump
// goroutine to exit. It is safe to call from a loop callback and more than
// once.
func (s *Source) Remove() error {
	var err error

	s.once.Do(func() {
		s.removed.Store(true)
		s.cancel()

		if s.closer != nil {
			err = s.closer.Close()
		}

		<-s.done
	})

	return err
}

// Err returns the error the pump exited with, if any.
func (s *Source) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}
