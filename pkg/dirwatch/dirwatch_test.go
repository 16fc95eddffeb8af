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

package dirwatch

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	dir := "/dev/snd"

	tests := []struct {
		name string
		in   fsnotify.Event
		want Event
		ok   bool
	}{
		{"chmod", fsnotify.Event{Name: "/dev/snd/controlC0", Op: fsnotify.Chmod}, Event{Op: Attrib, Name: "controlC0"}, true},
		{"write", fsnotify.Event{Name: "/dev/snd/pcmC0D0p", Op: fsnotify.Write}, Event{Op: Write, Name: "pcmC0D0p"}, true},
		{"entry removed", fsnotify.Event{Name: "/dev/snd/controlC1", Op: fsnotify.Remove}, Event{Op: Remove, Name: "controlC1"}, true},
		{"dir removed", fsnotify.Event{Name: "/dev/snd", Op: fsnotify.Remove}, Event{Op: DeleteSelf}, true},
		{"dir renamed", fsnotify.Event{Name: "/dev/snd/", Op: fsnotify.Rename}, Event{Op: MoveSelf}, true},
		{"dir chmod", fsnotify.Event{Name: "/dev/snd", Op: fsnotify.Chmod}, Event{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Translate(dir, tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOpString(t *testing.T) {
	assert.Equal(t, "ATTRIB|DELETE_SELF", (Attrib | DeleteSelf).String())
	assert.Equal(t, "0x0", Op(0).String())
}

func TestNewMissingDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "snd"))
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestNewRejectsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "controlC0")
	require.NoError(t, os.WriteFile(file, nil, 0o600))

	_, err := New(file)
	require.ErrorIs(t, err, ErrNotADirectory)
}

func readUntil(t *testing.T, w *Watcher, want Op) Event {
	t.Helper()

	type result struct {
		events []Event
		err    error
	}

	deadline := time.After(5 * time.Second)

	for {
		ch := make(chan result, 1)

		go func() {
			events, err := w.Read()
			ch <- result{events, err}
		}()

		select {
		case r := <-ch:
			require.NoError(t, r.err)

			for _, ev := range r.events {
				if ev.Op.Has(want) {
					return ev
				}
			}
		case <-deadline:
			t.Fatalf("no %s event", want)
		}
	}
}

func TestWatcherReportsAttribAndDeleteSelf(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "snd")
	require.NoError(t, os.Mkdir(dir, 0o755))

	node := filepath.Join(dir, "controlC0")
	require.NoError(t, os.WriteFile(node, nil, 0o600))

	w, err := New(dir)
	require.NoError(t, err)

	defer func() { _ = w.Close() }()

	assert.Equal(t, dir, w.Dir())

	require.NoError(t, os.Chmod(node, 0o660))

	ev := readUntil(t, w, Attrib)
	assert.Equal(t, "controlC0", ev.Name)

	require.NoError(t, os.RemoveAll(dir))

	ev = readUntil(t, w, DeleteSelf)
	assert.Empty(t, ev.Name)
}

func TestReadAfterClose(t *testing.T) {
	w, err := New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = w.Read()
	require.ErrorIs(t, err, ErrClosed)
}
