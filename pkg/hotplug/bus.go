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
	"github.com/carverauto/alsamon/pkg/dirwatch"
	"github.com/carverauto/alsamon/pkg/logger"
	"github.com/carverauto/alsamon/pkg/udev"
)

type udevBus struct {
	udev *udev.Udev
}

// UdevBusOpener opens the system device bus.
func UdevBusOpener(log logger.Logger, opts ...udev.Option) BusOpener {
	return func() (Bus, error) {
		u, err := udev.New(log, opts...)
		if err != nil {
			return nil, err
		}

		return &udevBus{udev: u}, nil
	}
}

func (b *udevBus) Enumerate(subsystem string) ([]*udev.Device, error) {
	return b.udev.Enumerate(subsystem)
}

func (b *udevBus) Monitor(subsystem string) (Receiver, error) {
	m, err := b.udev.NewMonitor(udev.SourceUdev, subsystem)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (b *udevBus) Close() error {
	return b.udev.Close()
}

// DirWatchOpener watches a device directory through the platform file
// notification API.
func DirWatchOpener(dir string) (DirWatcher, error) {
	w, err := dirwatch.New(dir)
	if err != nil {
		return nil, err
	}

	return w, nil
}
