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

package models

import (
	"time"

	"github.com/carverauto/alsamon/pkg/props"
)

// CloudEvent types published by the monitor.
const (
	EventTypeMonitorInfo = "com.carverauto.alsamon.monitor.info"
	EventTypeCardAdded   = "com.carverauto.alsamon.card.added"
	EventTypeCardRemoved = "com.carverauto.alsamon.card.removed"
	EventTypeDeviceInfo  = "com.carverauto.alsamon.device.info"
	EventTypeNodeAdded   = "com.carverauto.alsamon.node.added"
	EventTypeNodeRemoved = "com.carverauto.alsamon.node.removed"
)

// CloudEvent represents a CloudEvents v1.0 message
type CloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	ID              string      `json:"id"`
	Source          string      `json:"source"`
	Type            string      `json:"type"`
	DataContentType string      `json:"datacontenttype"`
	Subject         string      `json:"subject,omitempty"`
	Time            *time.Time  `json:"time,omitempty"`
	Data            interface{} `json:"data,omitempty"`
}

// InfoEventData carries a device level property set.
type InfoEventData struct {
	Card      string     `json:"card,omitempty"`
	Props     props.Dict `json:"props"`
	Timestamp time.Time  `json:"timestamp"`
}

// CardEventData is the payload of card added and removed events.
type CardEventData struct {
	CardID    uint32     `json:"card_id"`
	Type      string     `json:"object_type,omitempty"`
	Factory   string     `json:"factory,omitempty"`
	Props     props.Dict `json:"props,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// NodeEventData is the payload of node added and removed events.
type NodeEventData struct {
	Card      string     `json:"card"`
	NodeID    uint32     `json:"node_id"`
	Factory   string     `json:"factory,omitempty"`
	Props     props.Dict `json:"props,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}
