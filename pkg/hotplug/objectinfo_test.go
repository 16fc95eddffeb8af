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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/carverauto/alsamon/pkg/udev"
)

func TestCardIDFromDevPath(t *testing.T) {
	tests := []struct {
		devpath string
		want    uint32
		ok      bool
	}{
		{devpath: "/devices/pci0000:00/0000:00:1f.3/sound/card0", want: 0, ok: true},
		{devpath: "/devices/platform/sound/card12", want: 12, ok: true},
		{devpath: "/devices/sound/card0/controlC0", ok: false},
		{devpath: "/devices/sound/card", ok: false},
		{devpath: "/devices/sound/card1a", ok: false},
		{devpath: "/devices/sound/card-1", ok: false},
		{devpath: "card3", ok: false},
		{devpath: "", ok: false},
	}

	for _, tt := range tests {
		got, ok := CardIDFromDevPath(tt.devpath)
		assert.Equal(t, tt.ok, ok, tt.devpath)
		assert.Equal(t, tt.want, got, tt.devpath)
	}
}

func TestBuildObjectInfoFullSchemaOrder(t *testing.T) {
	dev := udev.NewDevice("/sys/devices/pci0000:00/usb1/1-1/sound/card2", map[string]string{
		udev.PropDevPath:          "/devices/pci0000:00/usb1/1-1/sound/card2",
		udev.PropSubsystem:        "sound",
		udev.PropUsecInitialized:  "1234567",
		"SOUND_FORM_FACTOR":       "headset",
		"ID_SERIAL":               "Acme_Headset_0001",
		"ID_MODEL_ENC":            `Headset\x20Pro`,
		"ID_MODEL":                "Headset_Pro",
		"ID_MODEL_ID":             "0a0b",
		"ID_VENDOR":               "Acme_Inc",
		"ID_VENDOR_FROM_DATABASE": "Acme Inc.",
		"ID_VENDOR_ID":            "1234",
		"ID_BUS":                  "usb",
		"ID_ID":                   "usb-Acme_Headset_0001-00",
		"ID_PATH":                 "pci-0000:00:14.0-usb-0:1:1.0",
		"SOUND_CLASS":             "sound",
		"ACP_PROFILE_SET":         "headset.conf",
		"ACP_NAME":                "acme-headset",
	})

	info := BuildObjectInfo(2, dev, FactoryPCMDevice)

	assert.Equal(t, ObjectTypeDevice, info.Type)
	assert.Equal(t, FactoryPCMDevice, info.Factory)
	assert.Equal(t, []string{
		"device.enum.api",
		"device.api",
		"media.class",
		"api.alsa.path",
		"api.alsa.card",
		"device.name",
		"device.profile-set",
		"device.class",
		"device.plugged.usec",
		"device.bus-path",
		"device.sysfs.path",
		"device.bus-id",
		"device.bus",
		"device.subsystem",
		"device.vendor.id",
		"device.vendor.name",
		"device.product.id",
		"device.product.name",
		"device.serial",
		"device.form-factor",
	}, info.Props.Keys())

	assert.Equal(t, "hw:2", info.Props.Get("api.alsa.path"))
	assert.Equal(t, "2", info.Props.Get("api.alsa.card"))
	assert.Equal(t, "Acme Inc.", info.Props.Get("device.vendor.name"))
	assert.Equal(t, "Headset Pro", info.Props.Get("device.product.name"))
	assert.Equal(t, "pci-0000:00:14.0-usb-0:1:1.0", info.Props.Get("device.bus-path"))
}

func TestBuildObjectInfoMinimal(t *testing.T) {
	dev := udev.NewDevice("/sys/devices/platform/sound/card0", map[string]string{
		udev.PropDevPath: "/devices/platform/sound/card0",
		"ID_MODEL":       "Onboard",
	})

	info := BuildObjectInfo(0, dev, FactoryACPDevice)

	assert.Equal(t, []string{
		"device.enum.api",
		"device.api",
		"media.class",
		"api.alsa.path",
		"api.alsa.card",
		"device.bus-path",
		"device.sysfs.path",
		"device.product.name",
	}, info.Props.Keys())
	assert.Equal(t, "/sys/devices/platform/sound/card0", info.Props.Get("device.bus-path"))
	assert.Equal(t, "Onboard", info.Props.Get("device.product.name"))
	assert.Equal(t, FactoryACPDevice, info.Factory)
}

func TestDeviceInfo(t *testing.T) {
	info := DeviceInfo()

	assert.Equal(t, "udev", info.Get("device.api"))
	assert.Equal(t, "alsa-udev", info.Get("device.nick"))
	assert.Equal(t, "sound", info.Get("api.udev.match"))
}
