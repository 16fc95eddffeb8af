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

package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/alsamon/pkg/alsa"
	"github.com/carverauto/alsamon/pkg/alsa/alsatest"
	"github.com/carverauto/alsamon/pkg/device"
	"github.com/carverauto/alsamon/pkg/hotplug"
	"github.com/carverauto/alsamon/pkg/logger"
	"github.com/carverauto/alsamon/pkg/props"
	"github.com/carverauto/alsamon/pkg/udev"
)

var errControl = errors.New("control busy")

type idleReceiver struct {
	done chan struct{}
}

func (r *idleReceiver) Receive() (*udev.Device, error) {
	<-r.done

	return nil, udev.ErrMonitorClosed
}

func (r *idleReceiver) Close() error {
	close(r.done)

	return nil
}

type staticBus struct {
	devices []*udev.Device
}

func (b *staticBus) Enumerate(string) ([]*udev.Device, error) {
	out := make([]*udev.Device, 0, len(b.devices))
	for _, d := range b.devices {
		out = append(out, d.Ref())
	}

	return out, nil
}

func (*staticBus) Monitor(string) (hotplug.Receiver, error) {
	return &idleReceiver{done: make(chan struct{})}, nil
}

func (*staticBus) Close() error { return nil }

func usbCard(id uint32) *udev.Device {
	devpath := fmt.Sprintf("/devices/pci0000:00/0000:00:14.0/usb1/1-2/1-2:1.0/sound/card%d", id)

	return udev.NewDevice("/sys"+devpath, map[string]string{
		udev.PropDevPath:          devpath,
		udev.PropSubsystem:        "sound",
		"ID_BUS":                  "usb",
		"ID_VENDOR_FROM_DATABASE": "Acme Audio",
		"ID_MODEL_FROM_DATABASE":  "Headset Pro",
		"SOUND_FORM_FACTOR":       "headset",
	})
}

func testOptions(bus hotplug.Bus, controls alsa.Opener) []hotplug.Option {
	return []hotplug.Option{
		hotplug.WithBusOpener(func() (hotplug.Bus, error) { return bus, nil }),
		hotplug.WithWatcherOpener(func(string) (hotplug.DirWatcher, error) { return nil, fs.ErrNotExist }),
		hotplug.WithControlOpener(controls),
		hotplug.WithAccessCheck(func(uint32) error { return nil }),
	}
}

func TestCollectCards(t *testing.T) {
	controls := alsatest.NewOpener()
	controls.AddCard(1, alsatest.SimpleCard("Headset"))
	controls.AddCard(0, alsatest.SimpleCard("PCH"))

	bus := &staticBus{devices: []*udev.Device{usbCard(1), usbCard(0)}}

	views, err := collectCards(context.Background(), logger.NewTestLogger(), controls, testOptions(bus, controls)...)
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.Equal(t, uint32(0), views[0].ID)
	assert.Equal(t, "hw:0", views[0].Path)
	assert.Equal(t, uint32(1), views[1].ID)

	v := views[1]
	assert.Equal(t, hotplug.FactoryPCMDevice, v.Factory)
	assert.Equal(t, "Acme Audio", v.Props.Get(props.KeyDeviceVendorName))
	assert.Equal(t, "Headset", v.Info.Get(props.KeyAlsaCardID))
	require.Len(t, v.Nodes, 2)
	assert.Equal(t, device.FactorySink, v.Nodes[0].Factory)
	assert.Equal(t, device.FactorySource, v.Nodes[1].Factory)
	assert.Equal(t, "hw:1,0", v.Nodes[0].Props.Get(props.KeyAlsaDevice))
	assert.Empty(t, v.Error)

	assert.Zero(t, controls.OpenCount())
}

func TestCollectCardsRecordsProbeErrors(t *testing.T) {
	card := alsatest.SimpleCard("PCH")
	card.InfoErr = errControl

	controls := alsatest.NewOpener()
	controls.AddCard(0, card)

	bus := &staticBus{devices: []*udev.Device{usbCard(0)}}

	views, err := collectCards(context.Background(), logger.NewTestLogger(), controls, testOptions(bus, controls)...)
	require.NoError(t, err)
	require.Len(t, views, 1)

	assert.Contains(t, views[0].Error, errControl.Error())
	assert.Empty(t, views[0].Nodes)
}

func TestRenderCards(t *testing.T) {
	var info props.Dict
	info.Add(props.KeyAlsaCardLongName, "Acme Headset Pro at usb-0000:00:14.0-2")
	info.Add(props.KeyAlsaCardDriver, "USB-Audio")

	var p props.Dict
	p.Add(props.KeyDeviceBus, "usb")

	var sink props.Dict
	sink.Add(props.KeyAlsaDevice, "hw:1,0")
	sink.Add(props.KeyAlsaPCMName, "USB Audio")
	sink.Add(props.KeyAlsaPCMClass, "generic")
	sink.Add(props.KeyAlsaPCMSubclass, "generic-mix")

	out := renderCards([]CardView{
		{
			ID: 1, Path: "hw:1", Factory: hotplug.FactoryPCMDevice, Props: p, Info: info,
			Nodes: []NodeView{{ID: 0, Factory: device.FactorySink, Props: sink}},
		},
		{ID: 2, Path: "hw:2", Error: "card control unavailable"},
	}, newStyles())

	assert.Contains(t, out, "hw:1")
	assert.Contains(t, out, "Acme Headset Pro")
	assert.Contains(t, out, "USB-Audio")
	assert.Contains(t, out, "hw:1,0")
	assert.Contains(t, out, "generic/generic-mix")
	assert.Contains(t, out, "sink")
	assert.Contains(t, out, "hw:2")
	assert.Contains(t, out, "error: card control unavailable")
}
