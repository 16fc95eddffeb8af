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

package props

// Device keys.
const (
	KeyDeviceAPI         = "device.api"
	KeyDeviceEnumAPI     = "device.enum.api"
	KeyDeviceNick        = "device.nick"
	KeyDevicePath        = "device.path"
	KeyDeviceName        = "device.name"
	KeyDeviceProfileSet  = "device.profile-set"
	KeyDeviceClass       = "device.class"
	KeyDevicePluggedUsec = "device.plugged.usec"
	KeyDeviceBusPath     = "device.bus-path"
	KeyDeviceSysfsPath   = "device.sysfs.path"
	KeyDeviceBusID       = "device.bus-id"
	KeyDeviceBus         = "device.bus"
	KeyDeviceSubsystem   = "device.subsystem"
	KeyDeviceVendorID    = "device.vendor.id"
	KeyDeviceVendorName  = "device.vendor.name"
	KeyDeviceProductID   = "device.product.id"
	KeyDeviceProductName = "device.product.name"
	KeyDeviceSerial      = "device.serial"
	KeyDeviceFormFactor  = "device.form-factor"
	KeyMediaClass        = "media.class"
)

// API keys.
const (
	KeyAPIAlsaPath  = "api.alsa.path"
	KeyAPIAlsaCard  = "api.alsa.card"
	KeyAPIUdevMatch = "api.udev.match"
)

// Card info keys.
const (
	KeyAlsaCardID         = "alsa.card.id"
	KeyAlsaCardComponents = "alsa.card.components"
	KeyAlsaCardDriver     = "alsa.card.driver"
	KeyAlsaCardName       = "alsa.card.name"
	KeyAlsaCardLongName   = "alsa.card.longname"
	KeyAlsaCardMixerName  = "alsa.card.mixername"
)

// Node keys.
const (
	KeyAlsaDevice      = "alsa.device"
	KeyAlsaPCMID       = "alsa.pcm.id"
	KeyAlsaPCMName     = "alsa.pcm.name"
	KeyAlsaPCMSubname  = "alsa.pcm.subname"
	KeyAlsaPCMClass    = "alsa.pcm.class"
	KeyAlsaPCMSubclass = "alsa.pcm.subclass"
)

// MediaClassAudioDevice is the media class of every sound card.
const MediaClassAudioDevice = "Audio/Device"
