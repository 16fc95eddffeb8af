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

// Package dirwatch reports attribute and lifecycle changes in one directory.
package dirwatch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Op is a set of change kinds.
type Op uint32

const (
	// Attrib is a permission, ownership or timestamp change of an entry.
	Attrib Op = 1 << iota
	Write
	Create
	Remove
	// DeleteSelf and MoveSelf refer to the watched directory itself.
	DeleteSelf
	MoveSelf
)

var opNames = []struct {
	op   Op
	name string
}{
	{Attrib, "ATTRIB"},
	{Write, "WRITE"},
	{Create, "CREATE"},
	{Remove, "REMOVE"},
	{DeleteSelf, "DELETE_SELF"},
	{MoveSelf, "MOVE_SELF"},
}

// Has reports whether any bit of o is set in op.
func (op Op) Has(o Op) bool {
	return op&o != 0
}

func (op Op) String() string {
	var parts []string

	for _, n := range opNames {
		if op.Has(n.op) {
			parts = append(parts, n.name)
		}
	}

	if len(parts) == 0 {
		return fmt.Sprintf("0x%x", uint32(op))
	}

	return strings.Join(parts, "|")
}

// Event is one change. Name is the entry's base name, empty when the event is
// about the watched directory.
type Event struct {
	Op   Op
	Name string
}

var (
	ErrClosed        = errors.New("directory watcher closed")
	ErrNotADirectory = errors.New("watch target is not a directory")
)

// Watcher watches a single directory.
type Watcher struct {
	fs  *fsnotify.Watcher
	dir string
}

// New starts watching dir. A missing directory is reported as an error
// wrapping fs.ErrNotExist.
func New(dir string) (*Watcher, error) {
	dir = filepath.Clean(dir)

	fi, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}

	if !fi.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotADirectory, dir)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	if err := fw.Add(dir); err != nil {
		_ = fw.Close()

		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	return &Watcher{fs: fw, dir: dir}, nil
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// Read blocks until at least one event is available and returns it together
// with any others already queued. Queue overflows surface as
// fsnotify.ErrEventOverflow.
func (w *Watcher) Read() ([]Event, error) {
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil, ErrClosed
			}

			out := w.drain(w.appendEvent(nil, ev))
			if len(out) > 0 {
				return out, nil
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil, ErrClosed
			}

			return nil, err
		}
	}
}

func (w *Watcher) drain(out []Event) []Event {
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return out
			}

			out = w.appendEvent(out, ev)
		default:
			return out
		}
	}
}

func (w *Watcher) appendEvent(out []Event, ev fsnotify.Event) []Event {
	if e, ok := Translate(w.dir, ev); ok {
		out = append(out, e)
	}

	return out
}

// Close stops watching; a blocked Read returns ErrClosed.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// Translate maps an fsnotify event seen while watching dir. Removal or rename
// of dir itself become DeleteSelf and MoveSelf.
func Translate(dir string, ev fsnotify.Event) (Event, bool) {
	name := filepath.Clean(ev.Name)

	if name == dir {
		var op Op

		if ev.Has(fsnotify.Remove) {
			op |= DeleteSelf
		}

		if ev.Has(fsnotify.Rename) {
			op |= MoveSelf
		}

		return Event{Op: op}, op != 0
	}

	var op Op

	if ev.Has(fsnotify.Chmod) {
		op |= Attrib
	}

	if ev.Has(fsnotify.Write) {
		op |= Write
	}

	if ev.Has(fsnotify.Create) {
		op |= Create
	}

	if ev.Has(fsnotify.Remove | fsnotify.Rename) {
		op |= Remove
	}

	if op == 0 {
		return Event{}, false
	}

	return Event{Op: op, Name: filepath.Base(name)}, true
}
