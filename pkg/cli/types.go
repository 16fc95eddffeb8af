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
	"github.com/charmbracelet/lipgloss"

	"github.com/carverauto/alsamon/pkg/props"
)

// CmdConfig holds the parsed command line.
type CmdConfig struct {
	Help           bool
	SubCmd         string
	Args           []string
	DevDir         string
	SysDir         string
	UdevDataDir    string
	MaxCards       int
	UseACP         bool
	JSON           bool
	Debug          bool
	NATSURL        string
	ControlSubject string
}

// CardView is what the CLI shows about one card.
type CardView struct {
	ID      uint32     `json:"id"`
	Path    string     `json:"path"`
	Factory string     `json:"factory"`
	Profile string     `json:"profile,omitempty"`
	Props   props.Dict `json:"props"`
	Info    props.Dict `json:"info,omitempty"`
	Nodes   []NodeView `json:"nodes,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// NodeView is one stream node of a card.
type NodeView struct {
	ID      uint32     `json:"id"`
	Factory string     `json:"factory"`
	Props   props.Dict `json:"props"`
}

// logStyles defines styles for logging messages
type logStyles struct {
	info, success, warning, error lipgloss.Style
}

type styles struct {
	title, header, label, value, muted, sink, source, error, box, help lipgloss.Style
}
