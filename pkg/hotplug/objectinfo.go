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
	"strconv"
	"strings"

	"github.com/carverauto/alsamon/pkg/alsa"
	"github.com/carverauto/alsamon/pkg/props"
	"github.com/carverauto/alsamon/pkg/udev"
)

const (
	// ObjectTypeDevice is the only object type the monitor announces.
	ObjectTypeDevice = "device"

	FactoryPCMDevice = "api.alsa.pcm.device"
	FactoryACPDevice = "api.alsa.acp.device"
)

// udev properties consulted by the monitor.
const (
	propACPIgnore        = "ACP_IGNORE"
	propACPName          = "ACP_NAME"
	propACPProfileSet    = "ACP_PROFILE_SET"
	propSoundClass       = "SOUND_CLASS"
	propSoundInitialized = "SOUND_INITIALIZED"
	propSoundFormFactor  = "SOUND_FORM_FACTOR"
	propIDPath           = "ID_PATH"
	propIDID             = "ID_ID"
	propIDBus            = "ID_BUS"
	propIDVendorID       = "ID_VENDOR_ID"
	propIDVendorDB       = "ID_VENDOR_FROM_DATABASE"
	propIDVendorEnc      = "ID_VENDOR_ENC"
	propIDVendor         = "ID_VENDOR"
	propIDModelID        = "ID_MODEL_ID"
	propIDModelDB        = "ID_MODEL_FROM_DATABASE"
	propIDModelEnc       = "ID_MODEL_ENC"
	propIDModel          = "ID_MODEL"
	propIDSerial         = "ID_SERIAL"

	soundClassModem = "modem"
)

// ObjectInfo is the payload announced for one card.
type ObjectInfo struct {
	Type    string     `json:"type"`
	Factory string     `json:"factory"`
	Props   props.Dict `json:"props"`
}

// DeviceInfo returns the monitor-level info sent to every new listener.
func DeviceInfo() props.Dict {
	return props.Dict{
		{Key: props.KeyDeviceAPI, Value: "udev"},
		{Key: props.KeyDeviceNick, Value: "alsa-udev"},
		{Key: props.KeyAPIUdevMatch, Value: "sound"},
	}
}

// CardIDFromDevPath parses the card index from a devpath ending in
// "/card<N>".
func CardIDFromDevPath(devpath string) (uint32, bool) {
	i := strings.LastIndexByte(devpath, '/')
	if i < 0 {
		return 0, false
	}

	rest, ok := strings.CutPrefix(devpath[i+1:], "card")
	if !ok || rest == "" {
		return 0, false
	}

	n, err := strconv.ParseUint(rest, 10, 32)
	if err != nil {
		return 0, false
	}

	return uint32(n), true
}

// BuildObjectInfo describes card id from its bus metadata. Keys always come
// in the same order and absent optional keys are left out.
func BuildObjectInfo(id uint32, dev *udev.Device, factory string) *ObjectInfo {
	var d props.Dict

	d.Add(props.KeyDeviceEnumAPI, "udev")
	d.Add(props.KeyDeviceAPI, "alsa")
	d.Add(props.KeyMediaClass, props.MediaClassAudioDevice)
	d.Add(props.KeyAPIAlsaPath, alsa.CardName(id))
	d.Add(props.KeyAPIAlsaCard, strconv.FormatUint(uint64(id), 10))

	if dev != nil {
		addDeviceProps(&d, dev)
	}

	return &ObjectInfo{
		Type:    ObjectTypeDevice,
		Factory: factory,
		Props:   d,
	}
}

func addDeviceProps(d *props.Dict, dev *udev.Device) {
	syspath := dev.Syspath()

	d.AddNonEmpty(props.KeyDeviceName, dev.PropertyValue(propACPName))
	d.AddNonEmpty(props.KeyDeviceProfileSet, dev.PropertyValue(propACPProfileSet))
	d.AddNonEmpty(props.KeyDeviceClass, dev.PropertyValue(propSoundClass))
	d.AddNonEmpty(props.KeyDevicePluggedUsec, dev.PropertyValue(udev.PropUsecInitialized))

	busPath := dev.PropertyValue(propIDPath)
	if busPath == "" {
		busPath = syspath
	}

	d.AddNonEmpty(props.KeyDeviceBusPath, busPath)
	d.AddNonEmpty(props.KeyDeviceSysfsPath, syspath)
	d.AddNonEmpty(props.KeyDeviceBusID, dev.PropertyValue(propIDID))
	d.AddNonEmpty(props.KeyDeviceBus, dev.PropertyValue(propIDBus))
	d.AddNonEmpty(props.KeyDeviceSubsystem, dev.Subsystem())
	d.AddNonEmpty(props.KeyDeviceVendorID, dev.PropertyValue(propIDVendorID))
	d.AddNonEmpty(props.KeyDeviceVendorName, displayName(dev, propIDVendorDB, propIDVendorEnc, propIDVendor))
	d.AddNonEmpty(props.KeyDeviceProductID, dev.PropertyValue(propIDModelID))
	d.AddNonEmpty(props.KeyDeviceProductName, displayName(dev, propIDModelDB, propIDModelEnc, propIDModel))
	d.AddNonEmpty(props.KeyDeviceSerial, dev.PropertyValue(propIDSerial))
	d.AddNonEmpty(props.KeyDeviceFormFactor, dev.PropertyValue(propSoundFormFactor))
}

// displayName prefers the hwdb name, then the decoded raw name, then the
// sanitised one.
func displayName(dev *udev.Device, fromDB, encoded, plain string) string {
	if v := dev.PropertyValue(fromDB); v != "" {
		return v
	}

	if v := dev.PropertyValue(encoded); v != "" {
		return udev.Unescape(v)
	}

	return dev.PropertyValue(plain)
}
