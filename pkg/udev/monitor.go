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

package udev

import "errors"

// Source selects which netlink multicast group a Monitor listens on.
type Source uint32

const (
	// SourceKernel receives raw kernel uevents, before udevd rules ran.
	SourceKernel Source = 1
	// SourceUdev receives events re-broadcast by udevd after rule processing.
	SourceUdev Source = 2
)

func (s Source) String() string {
	switch s {
	case SourceKernel:
		return "kernel"
	case SourceUdev:
		return "udev"
	default:
		return "unknown"
	}
}

// ErrMonitorClosed is returned by Receive after Close.
var ErrMonitorClosed = errors.New("udev monitor closed")

// matches reports whether dev belongs to the subsystem filter.
func matchesSubsystem(dev *Device, subsystem string) bool {
	return subsystem == "" || dev.Subsystem() == subsystem
}
