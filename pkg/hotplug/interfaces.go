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

//go:generate mockgen -destination=mock_hotplug.go -package=hotplug github.com/carverauto/alsamon/pkg/hotplug Listener

package hotplug

import (
	"github.com/carverauto/alsamon/pkg/dirwatch"
	"github.com/carverauto/alsamon/pkg/props"
	"github.com/carverauto/alsamon/pkg/udev"
)

// Listener receives monitor notifications. Callbacks run on the event loop
// and must not call AddListener or Hook.Remove.
type Listener interface {
	// Info describes the monitor itself. It is sent once per attach.
	Info(info props.Dict)
	// ObjectInfo announces or updates card id; a nil info means the card
	// was removed.
	ObjectInfo(id uint32, info *ObjectInfo)
}

// Receiver delivers live bus events.
type Receiver interface {
	Receive() (*udev.Device, error)
	Close() error
}

// Bus is the device bus the monitor enumerates and listens on.
type Bus interface {
	Enumerate(subsystem string) ([]*udev.Device, error)
	Monitor(subsystem string) (Receiver, error)
	Close() error
}

// BusOpener allocates a bus handle.
type BusOpener func() (Bus, error)

// DirWatcher delivers change signals for one directory.
type DirWatcher interface {
	Read() ([]dirwatch.Event, error)
	Close() error
}

// WatcherOpener starts watching dir.
type WatcherOpener func(dir string) (DirWatcher, error)

// AccessCheck verifies read/write access to a card's control node.
type AccessCheck func(card uint32) error

// ListenerFuncs adapts plain functions to Listener. Nil fields are skipped.
type ListenerFuncs struct {
	OnInfo       func(info props.Dict)
	OnObjectInfo func(id uint32, info *ObjectInfo)
}

func (f ListenerFuncs) Info(info props.Dict) {
	if f.OnInfo != nil {
		f.OnInfo(info)
	}
}

func (f ListenerFuncs) ObjectInfo(id uint32, info *ObjectInfo) {
	if f.OnObjectInfo != nil {
		f.OnObjectInfo(id, info)
	}
}
