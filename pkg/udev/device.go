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

// Package udev is a small pure-Go client for the Linux device bus: a sysfs
// enumerator, a netlink uevent monitor and reference-counted device handles.
package udev

import (
	"strings"
	"sync/atomic"
)

// Action is the kind of a bus event.
type Action string

const (
	ActionAdd    Action = "add"
	ActionChange Action = "change"
	ActionRemove Action = "remove"
	ActionBind   Action = "bind"
	ActionUnbind Action = "unbind"
	ActionNone   Action = ""
)

// Well-known property names.
const (
	PropAction          = "ACTION"
	PropDevPath         = "DEVPATH"
	PropSubsystem       = "SUBSYSTEM"
	PropDevName         = "DEVNAME"
	PropMajor           = "MAJOR"
	PropMinor           = "MINOR"
	PropSeqNum          = "SEQNUM"
	PropUsecInitialized = "USEC_INITIALIZED"
)

// Device is a reference-counted handle to a bus device. A handle obtained from
// an Enumerator or a Monitor starts with one reference.
type Device struct {
	syspath string
	props   map[string]string
	keys    []string
	refs    atomic.Int32
}

// NewDevice builds a device handle from a syspath and its properties. Property
// order is kept for Properties.
func NewDevice(syspath string, props map[string]string, order ...string) *Device {
	d := &Device{
		syspath: syspath,
		props:   make(map[string]string, len(props)),
	}

	seen := make(map[string]struct{}, len(props))

	for _, k := range order {
		if v, ok := props[k]; ok {
			if _, dup := seen[k]; dup {
				continue
			}

			seen[k] = struct{}{}
			d.keys = append(d.keys, k)
			d.props[k] = v
		}
	}

	for k, v := range props {
		if _, ok := seen[k]; ok {
			continue
		}

		d.keys = append(d.keys, k)
		d.props[k] = v
	}

	d.refs.Store(1)

	return d
}

// Ref takes an additional reference and returns the device.
func (d *Device) Ref() *Device {
	d.refs.Add(1)

	return d
}

// Unref drops a reference. It reports whether this was the last one.
func (d *Device) Unref() bool {
	return d.refs.Add(-1) == 0
}

// Refs returns the current reference count.
func (d *Device) Refs() int {
	return int(d.refs.Load())
}

// Syspath returns the absolute sysfs path of the device.
func (d *Device) Syspath() string {
	return d.syspath
}

// DevPath returns the DEVPATH property.
func (d *Device) DevPath() string {
	return d.props[PropDevPath]
}

// Subsystem returns the SUBSYSTEM property.
func (d *Device) Subsystem() string {
	return d.props[PropSubsystem]
}

// Action returns the ACTION property. Enumerated devices have none.
func (d *Device) Action() Action {
	return Action(d.props[PropAction])
}

// Property returns the named property and whether it is set.
func (d *Device) Property(key string) (string, bool) {
	v, ok := d.props[key]

	return v, ok
}

// PropertyValue returns the named property or "".
func (d *Device) PropertyValue(key string) string {
	return d.props[key]
}

// Properties returns the property names in arrival order.
func (d *Device) Properties() []string {
	return append([]string(nil), d.keys...)
}

// Sysname returns the last element of the devpath.
func (d *Device) Sysname() string {
	p := d.DevPath()
	if p == "" {
		p = d.syspath
	}

	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}

	return p
}
