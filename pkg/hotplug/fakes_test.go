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

package hotplug

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/carverauto/alsamon/pkg/dirwatch"
	"github.com/carverauto/alsamon/pkg/logger"
	"github.com/carverauto/alsamon/pkg/loop"
	"github.com/carverauto/alsamon/pkg/props"
	"github.com/carverauto/alsamon/pkg/udev"
)

const feedTimeout = 2 * time.Second

var errFeedClosed = errors.New("feed closed")

// feed hands items to a pump one at a time and lets the test know when the
// pump has come back for the next one, which means the previous item was
// posted to the loop.
type feed[T any] struct {
	ready  chan struct{}
	items  chan feedItem[T]
	closed chan struct{}
	once   sync.Once
	primed bool
}

func newFeed[T any]() *feed[T] {
	return &feed[T]{
		ready:  make(chan struct{}),
		items:  make(chan feedItem[T]),
		closed: make(chan struct{}),
	}
}

func (f *feed[T]) next() (T, error) {
	var zero T

	select {
	case f.ready <- struct{}{}:
	case <-f.closed:
		return zero, errFeedClosed
	}

	select {
	case item := <-f.items:
		return item.value, item.err
	case <-f.closed:
		return zero, errFeedClosed
	}
}

type feedItem[T any] struct {
	value T
	err   error
}

func (f *feed[T]) deliver(t *testing.T, item T) {
	t.Helper()

	f.push(t, feedItem[T]{value: item})
}

// fail makes the pump's next read return err.
func (f *feed[T]) fail(t *testing.T, err error) {
	t.Helper()

	f.push(t, feedItem[T]{err: err})
}

func (f *feed[T]) push(t *testing.T, item feedItem[T]) {
	t.Helper()

	if !f.primed {
		f.wait(t)
	}

	select {
	case f.items <- item:
	case <-f.closed:
		t.Fatal("delivering to a closed feed")
	case <-time.After(feedTimeout):
		t.Fatal("timed out delivering item")
	}

	f.wait(t)
	f.primed = true
}

func (f *feed[T]) wait(t *testing.T) {
	t.Helper()

	select {
	case <-f.ready:
	case <-f.closed:
	case <-time.After(feedTimeout):
		t.Fatal("timed out waiting for pump")
	}
}

func (f *feed[T]) close() {
	f.once.Do(func() { close(f.closed) })
}

func (f *feed[T]) isClosed() bool {
	select {
	case <-f.closed:
		return true
	default:
		return false
	}
}

type fakeReceiver struct {
	*feed[*udev.Device]
}

func (r *fakeReceiver) Receive() (*udev.Device, error) {
	dev, err := r.next()
	if errors.Is(err, errFeedClosed) {
		return nil, udev.ErrMonitorClosed
	}

	return dev, err
}

func (r *fakeReceiver) Close() error {
	r.close()

	return nil
}

type fakeBus struct {
	mu        sync.Mutex
	devices   []*udev.Device
	enumErr   error
	receivers []*fakeReceiver
	closed    int
}

func (b *fakeBus) Enumerate(string) ([]*udev.Device, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.enumErr != nil {
		return nil, b.enumErr
	}

	out := make([]*udev.Device, 0, len(b.devices))
	for _, d := range b.devices {
		out = append(out, d.Ref())
	}

	return out, nil
}

func (b *fakeBus) Monitor(string) (Receiver, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	r := &fakeReceiver{feed: newFeed[*udev.Device]()}
	b.receivers = append(b.receivers, r)

	return r, nil
}

func (b *fakeBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed++

	return nil
}

func (b *fakeBus) receiver(t *testing.T) *fakeReceiver {
	t.Helper()

	b.mu.Lock()
	defer b.mu.Unlock()

	require.NotEmpty(t, b.receivers)

	return b.receivers[len(b.receivers)-1]
}

type fakeWatcher struct {
	*feed[[]dirwatch.Event]
}

func (w *fakeWatcher) Read() ([]dirwatch.Event, error) {
	events, err := w.next()
	if errors.Is(err, errFeedClosed) {
		return nil, dirwatch.ErrClosed
	}

	return events, err
}

func (w *fakeWatcher) Close() error {
	w.close()

	return nil
}

type watcherFactory struct {
	mu       sync.Mutex
	watchers []*fakeWatcher
	err      error
}

func (f *watcherFactory) open(string) (DirWatcher, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}

	w := &fakeWatcher{feed: newFeed[[]dirwatch.Event]()}
	f.watchers = append(f.watchers, w)

	return w, nil
}

func (f *watcherFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.watchers)
}

func (f *watcherFactory) last(t *testing.T) *fakeWatcher {
	t.Helper()

	f.mu.Lock()
	defer f.mu.Unlock()

	require.NotEmpty(t, f.watchers)

	return f.watchers[len(f.watchers)-1]
}

type accessTable struct {
	mu     sync.Mutex
	denied map[uint32]bool
}

func newAccessTable() *accessTable {
	return &accessTable{denied: make(map[uint32]bool)}
}

func (a *accessTable) set(card uint32, ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.denied[card] = !ok
}

func (a *accessTable) check(card uint32) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.denied[card] {
		return fmt.Errorf("controlC%d: permission denied", card)
	}

	return nil
}

type notification struct {
	id   uint32
	info *ObjectInfo
}

type recordingListener struct {
	mu    sync.Mutex
	infos []props.Dict
	objs  []notification
}

func (l *recordingListener) Info(info props.Dict) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.infos = append(l.infos, info)
}

func (l *recordingListener) ObjectInfo(id uint32, info *ObjectInfo) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.objs = append(l.objs, notification{id: id, info: info})
}

func (l *recordingListener) notifications() []notification {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]notification(nil), l.objs...)
}

func (l *recordingListener) infoCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.infos)
}

func soundDevice(id uint32, action udev.Action, extra map[string]string) *udev.Device {
	devpath := fmt.Sprintf("/devices/pci0000:00/0000:00:1f.3/sound/card%d", id)

	p := map[string]string{
		udev.PropDevPath:   devpath,
		udev.PropSubsystem: "sound",
	}

	if action != udev.ActionNone {
		p[udev.PropAction] = string(action)
	}

	maps.Copy(p, extra)

	return udev.NewDevice("/sys"+devpath, p)
}

func initialized() map[string]string {
	return map[string]string{"SOUND_INITIALIZED": "1"}
}

func startLoop(t *testing.T) *loop.Loop {
	t.Helper()

	l := loop.New(logger.NewTestLogger())
	ctx, cancel := context.WithCancel(context.Background())

	go func() { _ = l.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		<-l.Done()
	})

	return l
}

// flush waits until everything already posted to the loop has run.
func flush(t *testing.T, l *loop.Loop) {
	t.Helper()

	require.NoError(t, l.Invoke(context.Background(), func() error { return nil }))
}
