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
	"io/fs"

	"github.com/carverauto/alsamon/pkg/alsa"
	"github.com/carverauto/alsamon/pkg/dirwatch"
	"github.com/carverauto/alsamon/pkg/loop"
)

// startWatcher arms the device directory watch unless it is already running.
// Control node permissions are often fixed up after the bus event.
func (m *Monitor) startWatcher() {
	if m.watcher != nil {
		return
	}

	w, err := m.openWatcher(m.devDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			m.logger.Debug().Str("dir", m.devDir).Msg("device directory missing, not watching")
		} else {
			m.logger.Warn().Err(err).Str("dir", m.devDir).Msg("failed to watch device directory")
		}

		return
	}

	var src *loop.Source

	src = m.loop.AddSource("dirwatch", func(_ context.Context, post loop.PostFunc) error {
		failures := 0

		for {
			events, err := w.Read()
			if err != nil {
				if errors.Is(err, dirwatch.ErrClosed) {
					return nil
				}

				failures++
				if failures < maxReadFailures {
					m.logger.Warn().Err(err).Int("failures", failures).Msg("device directory watch failed, dropping events")

					continue
				}

				post(func() { m.dropWatcher(src) })

				return err
			}

			failures = 0

			if !post(func() { m.onWatchEvents(events) }) {
				return nil
			}
		}
	}, w)

	m.watcher = src
}

// dropWatcher forgets a watcher whose pump gave up. The next bus event or
// attach re-arms it.
func (m *Monitor) dropWatcher(src *loop.Source) {
	if m.watcher != src {
		return
	}

	if err := m.stopWatcher(); err != nil {
		m.logger.Debug().Err(err).Msg("closing watcher")
	}
}

func (m *Monitor) stopWatcher() error {
	if m.watcher == nil {
		return nil
	}

	src := m.watcher
	m.watcher = nil

	return src.Remove()
}

func (m *Monitor) onWatchEvents(events []dirwatch.Event) {
	if m.bus != nil {
		m.startReceiver()
	}

	deleted := false

	for _, ev := range events {
		if ev.Op.Has(dirwatch.DeleteSelf | dirwatch.MoveSelf) {
			deleted = true
		}

		if !ev.Op.Has(dirwatch.Attrib) {
			continue
		}

		id, ok := alsa.ParseControlNodeName(ev.Name)
		if !ok {
			continue
		}

		c := m.registry.Find(id)
		if c == nil || c.Emitted() || c.Device == nil {
			continue
		}

		m.logger.Debug().Uint32("card", id).Msg("control node attributes changed")
		m.metrics.event("watch")
		m.processChange(id, c.Device)
	}

	if deleted {
		m.logger.Debug().Str("dir", m.devDir).Msg("device directory gone, stopping watch")

		if err := m.stopWatcher(); err != nil {
			m.logger.Debug().Err(err).Msg("closing watcher")
		}
	}
}
