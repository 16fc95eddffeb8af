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
	"github.com/carverauto/alsamon/pkg/device"
	"github.com/carverauto/alsamon/pkg/hotplug"
	"github.com/carverauto/alsamon/pkg/logger"
	"github.com/carverauto/alsamon/pkg/props"
)

// listeners fans one monitor hook out to several listeners, in order.
type listeners []hotplug.Listener

func (ls listeners) Info(info props.Dict) {
	for _, l := range ls {
		l.Info(info)
	}
}

func (ls listeners) ObjectInfo(id uint32, info *hotplug.ObjectInfo) {
	for _, l := range ls {
		l.ObjectInfo(id, info)
	}
}

type logListener struct {
	logger logger.Logger
}

func (l *logListener) Info(info props.Dict) {
	l.logger.Debug().
		Str("api", info.Get(props.KeyDeviceAPI)).
		Str("nick", info.Get(props.KeyDeviceNick)).
		Msg("attached to device monitor")
}

func (l *logListener) ObjectInfo(id uint32, info *hotplug.ObjectInfo) {
	if info == nil {
		l.logger.Info().Uint32("card", id).Msg("card removed")

		return
	}

	l.logger.Info().
		Uint32("card", id).
		Str("factory", info.Factory).
		Str("path", info.Props.Get(props.KeyAPIAlsaPath)).
		Str("name", info.Props.Get(props.KeyDeviceName)).
		Str("product", info.Props.Get(props.KeyDeviceProductName)).
		Msg("card available")
}

// callbackFactory hands out the callbacks for one card ("hw:N").
type callbackFactory interface {
	ForCard(card string) device.Callbacks
}

type logCallbacks struct {
	logger logger.Logger
}

func (l logCallbacks) ForCard(card string) device.Callbacks {
	return &cardLogger{logger: l.logger, card: card}
}

type cardLogger struct {
	logger logger.Logger
	card   string
}

func (c *cardLogger) Info(info props.Dict) {
	c.logger.Info().
		Str("card", c.card).
		Str("id", info.Get(props.KeyAlsaCardID)).
		Str("driver", info.Get(props.KeyAlsaCardDriver)).
		Str("longname", info.Get(props.KeyAlsaCardLongName)).
		Msg("card info")
}

func (c *cardLogger) AddNode(id uint32, factory string, p props.Dict) {
	c.logger.Info().
		Str("card", c.card).
		Uint32("node", id).
		Str("factory", factory).
		Str("device", p.Get(props.KeyAlsaDevice)).
		Str("name", p.Get(props.KeyAlsaPCMName)).
		Msg("node added")
}

func (c *cardLogger) RemoveNode(id uint32) {
	c.logger.Info().Str("card", c.card).Uint32("node", id).Msg("node removed")
}

// teeCallbacks hands every card the callbacks of each factory in turn.
type teeCallbacks []callbackFactory

func (t teeCallbacks) ForCard(card string) device.Callbacks {
	out := make(multiCallbacks, 0, len(t))
	for _, f := range t {
		out = append(out, f.ForCard(card))
	}

	return out
}

type multiCallbacks []device.Callbacks

func (m multiCallbacks) Info(info props.Dict) {
	for _, cb := range m {
		cb.Info(info)
	}
}

func (m multiCallbacks) AddNode(id uint32, factory string, p props.Dict) {
	for _, cb := range m {
		cb.AddNode(id, factory, p)
	}
}

func (m multiCallbacks) RemoveNode(id uint32) {
	for _, cb := range m {
		cb.RemoveNode(id)
	}
}
