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

package agent

import (
	"fmt"
	"maps"
	"slices"

	"github.com/carverauto/alsamon/pkg/alsa"
	"github.com/carverauto/alsamon/pkg/device"
	"github.com/carverauto/alsamon/pkg/hotplug"
	"github.com/carverauto/alsamon/pkg/logger"
	"github.com/carverauto/alsamon/pkg/params"
	"github.com/carverauto/alsamon/pkg/props"
)

// profileManager activates the On profile of every announced card and
// turns it Off again when the card goes away. It lives on the event loop.
type profileManager struct {
	logger    logger.Logger
	opts      []device.Option
	callbacks callbackFactory
	devices   map[uint32]*device.Device
}

func newProfileManager(log logger.Logger, opts []device.Option) *profileManager {
	return &profileManager{
		logger:    log,
		opts:      opts,
		callbacks: logCallbacks{logger: log},
		devices:   make(map[uint32]*device.Device),
	}
}

func (*profileManager) Info(props.Dict) {}

func (p *profileManager) ObjectInfo(id uint32, info *hotplug.ObjectInfo) {
	if info == nil {
		p.release(id)

		return
	}

	// a re-announced card keeps its nodes
	if _, ok := p.devices[id]; ok {
		return
	}

	path := alsa.CardName(id)

	d, err := device.New(path, p.logger, p.opts...)
	if err != nil {
		p.logger.Warn().Err(err).Uint32("card", id).Msg("can't create card device")

		return
	}

	if err := d.SetCallbacks(p.callbacks.ForCard(path)); err != nil {
		p.logger.Warn().Err(err).Str("card", path).Msg("failed to activate profile")

		// drop what the partial pass added; the next announcement retries
		p.teardown(d)

		return
	}

	p.devices[id] = d

	p.logger.Debug().Str("card", path).Uint32("nodes", d.Nodes()).Msg("profile active")
}

func (p *profileManager) release(id uint32) {
	d, ok := p.devices[id]
	if !ok {
		return
	}

	delete(p.devices, id)
	p.teardown(d)
}

func (p *profileManager) teardown(d *device.Device) {
	if err := d.SetProfile(params.ProfileOff); err != nil {
		p.logger.Warn().Err(err).Str("card", d.Path()).Msg("failed to deactivate profile")
	}

	_ = d.SetCallbacks(nil)
}

func (p *profileManager) releaseAll() {
	for _, id := range slices.Sorted(maps.Keys(p.devices)) {
		p.release(id)
	}
}

func (p *profileManager) device(id uint32) (*device.Device, error) {
	d, ok := p.devices[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCardNotReconciled, alsa.CardName(id))
	}

	return d, nil
}

// enumParams walks the cursor of kind on card id to the end.
func (p *profileManager) enumParams(id uint32, kind params.Kind) ([]params.Param, error) {
	d, err := p.device(id)
	if err != nil {
		return nil, err
	}

	var out []params.Param

	for index := uint32(0); ; {
		param, next, ok, err := d.EnumParams(kind, index, nil)
		if err != nil {
			return nil, err
		}

		if !ok {
			return out, nil
		}

		out = append(out, param)
		index = next
	}
}

func (p *profileManager) setParam(id uint32, kind params.Kind, raw []byte) error {
	d, err := p.device(id)
	if err != nil {
		return err
	}

	if err := d.SetParam(kind, raw); err != nil {
		return err
	}

	p.logger.Info().Str("card", d.Path()).Str("profile", params.ProfileName(d.Profile())).
		Uint32("nodes", d.Nodes()).Msg("profile changed")

	return nil
}

func (p *profileManager) snapshot() []ProfileSnapshot {
	out := make([]ProfileSnapshot, 0, len(p.devices))

	for _, id := range slices.Sorted(maps.Keys(p.devices)) {
		d := p.devices[id]
		out = append(out, ProfileSnapshot{Card: d.Path(), Profile: d.Profile(), Nodes: d.Nodes()})
	}

	return out
}
