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

package natsutil

import (
	"strconv"
	"time"

	"github.com/carverauto/alsamon/pkg/device"
	"github.com/carverauto/alsamon/pkg/hotplug"
	"github.com/carverauto/alsamon/pkg/logger"
	"github.com/carverauto/alsamon/pkg/models"
	"github.com/carverauto/alsamon/pkg/props"
)

// Publisher is the part of EventPublisher the notifier needs.
type Publisher interface {
	Subject(tokens ...string) string
	Publish(eventType, subject string, data interface{}) error
}

// Notifier forwards hotplug and device notifications to a Publisher.
type Notifier struct {
	pub    Publisher
	logger logger.Logger
	now    func() time.Time
}

var _ hotplug.Listener = (*Notifier)(nil)

// NewNotifier returns a Notifier publishing through pub.
func NewNotifier(pub Publisher, log logger.Logger) *Notifier {
	return &Notifier{
		pub:    pub,
		logger: log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Info implements hotplug.Listener.
func (n *Notifier) Info(info props.Dict) {
	n.publish(models.EventTypeMonitorInfo, n.pub.Subject("monitor", "info"), models.InfoEventData{
		Props:     info.Clone(),
		Timestamp: n.now(),
	})
}

// ObjectInfo implements hotplug.Listener.
func (n *Notifier) ObjectInfo(id uint32, info *hotplug.ObjectInfo) {
	card := strconv.FormatUint(uint64(id), 10)

	if info == nil {
		n.publish(models.EventTypeCardRemoved, n.pub.Subject("card", card, "removed"), models.CardEventData{
			CardID:    id,
			Timestamp: n.now(),
		})

		return
	}

	n.publish(models.EventTypeCardAdded, n.pub.Subject("card", card, "added"), models.CardEventData{
		CardID:    id,
		Type:      info.Type,
		Factory:   info.Factory,
		Props:     info.Props.Clone(),
		Timestamp: n.now(),
	})
}

// ForCard returns device callbacks that publish the nodes of card ("hw:N").
func (n *Notifier) ForCard(card string) device.Callbacks {
	return &cardNotifier{Notifier: n, card: card}
}

func (n *Notifier) publish(eventType, subject string, data interface{}) {
	if err := n.pub.Publish(eventType, subject, data); err != nil {
		n.logger.Warn().Err(err).Str("subject", subject).Msg("Failed to publish event")
	}
}

type cardNotifier struct {
	*Notifier
	card string
}

func (c *cardNotifier) Info(info props.Dict) {
	c.publish(models.EventTypeDeviceInfo, c.pub.Subject("device", c.card, "info"), models.InfoEventData{
		Card:      c.card,
		Props:     info.Clone(),
		Timestamp: c.now(),
	})
}

func (c *cardNotifier) AddNode(id uint32, factory string, p props.Dict) {
	node := strconv.FormatUint(uint64(id), 10)

	c.publish(models.EventTypeNodeAdded, c.pub.Subject("node", c.card, node, "added"), models.NodeEventData{
		Card:      c.card,
		NodeID:    id,
		Factory:   factory,
		Props:     p.Clone(),
		Timestamp: c.now(),
	})
}

func (c *cardNotifier) RemoveNode(id uint32) {
	node := strconv.FormatUint(uint64(id), 10)

	c.publish(models.EventTypeNodeRemoved, c.pub.Subject("node", c.card, node, "removed"), models.NodeEventData{
		Card:      c.card,
		NodeID:    id,
		Timestamp: c.now(),
	})
}
