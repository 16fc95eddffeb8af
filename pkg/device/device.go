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

// Package device maps the selected profile of a sound card onto one node per
// PCM stream.
package device

//go:generate mockgen -destination=mock_device.go -package=device github.com/carverauto/alsamon/pkg/device Callbacks

import (
	"errors"
	"fmt"

	"github.com/carverauto/alsamon/pkg/alsa"
	"github.com/carverauto/alsamon/pkg/logger"
	"github.com/carverauto/alsamon/pkg/params"
	"github.com/carverauto/alsamon/pkg/props"
)

// Node factories selected by stream direction.
const (
	FactorySink   = "api.alsa.pcm.sink"
	FactorySource = "api.alsa.pcm.source"
)

var (
	ErrDeviceUnavailable = errors.New("card control unavailable")
	ErrInvalidProfile    = errors.New("invalid profile")
	ErrNoFactory         = errors.New("no node factory for stream")
)

// Callbacks receives the card info and node lifecycle of a Device.
type Callbacks interface {
	Info(info props.Dict)
	AddNode(id uint32, factory string, p props.Dict)
	RemoveNode(id uint32)
}

// FactoryRegistry resolves the node factory for a stream direction.
type FactoryRegistry interface {
	Lookup(stream alsa.Stream) (string, bool)
}

// Factories is a static FactoryRegistry.
type Factories map[alsa.Stream]string

// Lookup implements FactoryRegistry.
func (f Factories) Lookup(stream alsa.Stream) (string, bool) {
	name, ok := f[stream]

	return name, ok
}

// DefaultFactories maps playback to sinks and capture to sources.
func DefaultFactories() Factories {
	return Factories{
		alsa.StreamPlayback: FactorySink,
		alsa.StreamCapture:  FactorySource,
	}
}

// Option customises a Device.
type Option func(*Device)

// WithOpener replaces the control interface.
func WithOpener(opener alsa.Opener) Option {
	return func(d *Device) {
		if opener != nil {
			d.opener = opener
		}
	}
}

// WithFactories replaces the node factory registry.
func WithFactories(factories FactoryRegistry) Option {
	return func(d *Device) {
		if factories != nil {
			d.factories = factories
		}
	}
}

// Device reconciles the nodes of one card. It is not safe for concurrent use;
// callers keep it on the event loop.
type Device struct {
	path      string
	opener    alsa.Opener
	factories FactoryRegistry
	logger    logger.Logger
	callbacks Callbacks

	nodes   uint32
	profile int32
}

// New returns a Device for the card at path ("hw:N").
func New(path string, log logger.Logger, opts ...Option) (*Device, error) {
	if _, err := alsa.ParseCardName(path); err != nil {
		return nil, err
	}

	d := &Device{
		path:      path,
		opener:    alsa.NewHWOpener(alsa.DefaultDevDir),
		factories: DefaultFactories(),
		logger:    log,
		profile:   params.ProfileUnset,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d, nil
}

// Path returns the control name of the card.
func (d *Device) Path() string {
	return d.path
}

// Nodes returns the number of active nodes.
func (d *Device) Nodes() uint32 {
	return d.nodes
}

// Profile returns the active profile id, or params.ProfileUnset.
func (d *Device) Profile() int32 {
	return d.profile
}

// SetCallbacks attaches cb, announces the card and activates the On
// profile. A nil cb detaches without touching the nodes.
func (d *Device) SetCallbacks(cb Callbacks) error {
	d.callbacks = cb
	if cb == nil {
		return nil
	}

	ctl, err := d.open()
	if err != nil {
		return err
	}

	defer d.close(ctl)

	info, err := ctl.CardInfo()
	if err != nil {
		d.logger.Error().Err(err).Str("card", d.path).Msg("error reading card info")

		return fmt.Errorf("%w: %s: %w", ErrDeviceUnavailable, d.path, err)
	}

	cb.Info(d.cardInfo(info))

	return d.activate(params.ProfileOn, ctl)
}

// SetProfile removes every active node and, unless id is the Off profile,
// adds one node per PCM stream of the card.
func (d *Device) SetProfile(id int32) error {
	if id != params.ProfileOn && id != params.ProfileOff {
		return fmt.Errorf("%w: %d", ErrInvalidProfile, id)
	}

	return d.activate(id, nil)
}

func (d *Device) cardInfo(info alsa.CardInfo) props.Dict {
	var p props.Dict

	p.Add(props.KeyDeviceAPI, "alsa")
	p.Add(props.KeyDevicePath, d.path)
	p.Add(props.KeyDeviceNick, info.ID)
	p.Add(props.KeyMediaClass, props.MediaClassAudioDevice)
	p.Add(props.KeyAlsaCardID, info.ID)
	p.Add(props.KeyAlsaCardComponents, info.Components)
	p.Add(props.KeyAlsaCardDriver, info.Driver)
	p.Add(props.KeyAlsaCardName, info.Name)
	p.Add(props.KeyAlsaCardLongName, info.LongName)
	p.Add(props.KeyAlsaCardMixerName, info.MixerName)

	return p
}

// activate runs one reconcile pass. ctl is opened on demand when nil. A
// failed pass keeps the nodes it already added and counts them.
func (d *Device) activate(id int32, ctl alsa.Control) error {
	d.logger.Debug().Str("card", d.path).Int32("profile", id).Msg("activating profile")

	d.profile = id

	for i := range d.nodes {
		if d.callbacks != nil {
			d.callbacks.RemoveNode(i)
		}
	}

	d.nodes = 0

	if id == params.ProfileOff {
		return nil
	}

	if ctl == nil {
		var err error

		ctl, err = d.open()
		if err != nil {
			return err
		}

		defer d.close(ctl)
	}

	var n uint32

	defer func() { d.nodes = n }()

	dev := -1

	for {
		next, err := ctl.NextPCMDevice(dev)
		if err != nil {
			d.logger.Error().Err(err).Str("card", d.path).Msg("error iterating devices")

			return fmt.Errorf("%w: %s: %w", ErrDeviceUnavailable, d.path, err)
		}

		if next < 0 {
			return nil
		}

		dev = next

		for _, stream := range []alsa.Stream{alsa.StreamPlayback, alsa.StreamCapture} {
			info, err := ctl.PCMInfo(uint32(dev), 0, stream)
			if errors.Is(err, alsa.ErrNoSuchStream) {
				continue
			}

			if err != nil {
				d.logger.Error().Err(err).Str("card", d.path).Int("device", dev).
					Stringer("stream", stream).Msg("error reading pcm info")

				return fmt.Errorf("%w: %s,%d %s: %w", ErrDeviceUnavailable, d.path, dev, stream, err)
			}

			if err := d.addNode(n, info); err != nil {
				return err
			}

			n++
		}
	}
}

func (d *Device) addNode(id uint32, info alsa.PCMInfo) error {
	factory, ok := d.factories.Lookup(info.Stream)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoFactory, info.Stream)
	}

	var p props.Dict

	p.Add(props.KeyAlsaDevice, alsa.PCMName(d.path, int(info.Device)))
	p.Add(props.KeyAlsaPCMID, info.ID)
	p.Add(props.KeyAlsaPCMName, info.Name)
	p.Add(props.KeyAlsaPCMSubname, info.Subname)
	p.Add(props.KeyAlsaPCMClass, info.Class.String())
	p.Add(props.KeyAlsaPCMSubclass, info.Subclass.String())

	d.logger.Debug().Str("card", d.path).Uint32("node", id).Str("factory", factory).
		Str("device", p.Get(props.KeyAlsaDevice)).Msg("adding node")

	if d.callbacks != nil {
		d.callbacks.AddNode(id, factory, p)
	}

	return nil
}

func (d *Device) open() (alsa.Control, error) {
	d.logger.Debug().Str("card", d.path).Msg("opening card")

	ctl, err := d.opener.Open(d.path)
	if err != nil {
		d.logger.Error().Err(err).Str("card", d.path).Msg("can't open control")

		return nil, fmt.Errorf("%w: %s: %w", ErrDeviceUnavailable, d.path, err)
	}

	return ctl, nil
}

func (d *Device) close(ctl alsa.Control) {
	if err := ctl.Close(); err != nil {
		d.logger.Debug().Err(err).Str("card", d.path).Msg("closing control")
	}
}

// EnumParams returns the parameter of kind at the cursor index that passes
// filter, and the cursor to continue from.
func (d *Device) EnumParams(kind params.Kind, index uint32, filter params.Filter) (params.Param, uint32, bool, error) {
	return params.Enum(d.generate, kind, index, filter)
}

func (d *Device) generate(kind params.Kind, index uint32) (params.Param, bool, error) {
	switch kind {
	case params.KindList:
		supported := []params.Kind{params.KindEnumProfile, params.KindProfile}
		if int(index) >= len(supported) {
			return params.Param{}, false, nil
		}

		return params.Param{Kind: kind, ID: int32(supported[index])}, true, nil
	case params.KindEnumProfile:
		if index > 1 {
			return params.Param{}, false, nil
		}

		id := int32(index)

		return params.Param{Kind: kind, ID: id, Name: params.ProfileName(id)}, true, nil
	case params.KindProfile:
		if index > 0 {
			return params.Param{}, false, nil
		}

		return params.Param{Kind: kind, ID: d.profile}, true, nil
	default:
		return params.Param{}, false, fmt.Errorf("%w: %s", params.ErrUnknownParam, kind)
	}
}

// SetParam applies a parameter object. Only the Profile kind is settable.
func (d *Device) SetParam(kind params.Kind, raw []byte) error {
	if kind != params.KindProfile {
		return fmt.Errorf("%w: %s", params.ErrUnknownParam, kind)
	}

	id, err := params.ParseProfile(raw)
	if err != nil {
		d.logger.Warn().Err(err).Str("card", d.path).Msg("can't parse profile")

		return err
	}

	return d.SetProfile(id)
}
