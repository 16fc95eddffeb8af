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
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/carverauto/alsamon/pkg/alsa"
	"github.com/carverauto/alsamon/pkg/hotplug"
	"github.com/carverauto/alsamon/pkg/logger"
	"github.com/carverauto/alsamon/pkg/loop"
	"github.com/carverauto/alsamon/pkg/props"
)

const (
	tableHeight     = 12
	chromeHeight    = 8
	minTableHeight  = 3
	colCardWidth    = 6
	colNameWidth    = 28
	colVendorWidth  = 20
	colBusWidth     = 6
	colFormWidth    = 10
	colFactoryWidth = 20
)

// cardMsg carries one object-info notification into the program.
type cardMsg struct {
	id   uint32
	info *hotplug.ObjectInfo
}

// attachedMsg reports the outcome of attaching to the monitor.
type attachedMsg struct {
	err error
}

type watchModel struct {
	table   table.Model
	cards   map[uint32]*hotplug.ObjectInfo
	attach  tea.Cmd
	events  int
	status  string
	err     error
	canCopy bool
	copy    func(string) error
	styles  styles
}

func newWatchModel(attach tea.Cmd) *watchModel {
	st := newStyles()

	ts := table.DefaultStyles()
	ts.Header = ts.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(draculaComment)).
		BorderBottom(true).
		Foreground(lipgloss.Color(draculaPurple)).
		Bold(true)
	ts.Selected = ts.Selected.
		Foreground(lipgloss.Color(draculaForeground)).
		Background(lipgloss.Color(draculaPurple))

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Card", Width: colCardWidth},
			{Title: "Name", Width: colNameWidth},
			{Title: "Vendor", Width: colVendorWidth},
			{Title: "Bus", Width: colBusWidth},
			{Title: "Form", Width: colFormWidth},
			{Title: "Factory", Width: colFactoryWidth},
		}),
		table.WithFocused(true),
		table.WithHeight(tableHeight),
		table.WithStyles(ts),
	)

	canCopy := true
	if err := clipboard.WriteAll(""); err != nil {
		canCopy = false
	}

	return &watchModel{
		table:   t,
		cards:   make(map[uint32]*hotplug.ObjectInfo),
		attach:  attach,
		canCopy: canCopy,
		copy:    clipboard.WriteAll,
		status:  "waiting for the device bus",
		styles:  st,
	}
}

func (m *watchModel) Init() tea.Cmd {
	return m.attach
}

func (m *watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case cardMsg:
		m.applyCard(msg)

		return m, nil
	case attachedMsg:
		if msg.err != nil {
			m.err = msg.err

			return m, tea.Quit
		}

		m.status = "watching"

		return m, nil
	case tea.WindowSizeMsg:
		m.table.SetHeight(max(msg.Height-chromeHeight, minTableHeight))

		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			return m, tea.Quit
		case "c":
			m.copySelected()

			return m, nil
		}
	}

	var cmd tea.Cmd

	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m *watchModel) applyCard(msg cardMsg) {
	m.events++

	if msg.info == nil {
		delete(m.cards, msg.id)
		m.status = fmt.Sprintf("%s removed", alsa.CardName(msg.id))
	} else {
		if _, ok := m.cards[msg.id]; ok {
			m.status = fmt.Sprintf("%s changed", alsa.CardName(msg.id))
		} else {
			m.status = fmt.Sprintf("%s added", alsa.CardName(msg.id))
		}

		m.cards[msg.id] = msg.info
	}

	m.table.SetRows(m.rows())
}

func (m *watchModel) rows() []table.Row {
	rows := make([]table.Row, 0, len(m.cards))

	for _, id := range slices.Sorted(maps.Keys(m.cards)) {
		p := m.cards[id].Props

		name := p.Get(props.KeyDeviceProductName)
		if name == "" {
			name = p.Get(props.KeyDeviceName)
		}

		rows = append(rows, table.Row{
			alsa.CardName(id),
			name,
			p.Get(props.KeyDeviceVendorName),
			p.Get(props.KeyDeviceBus),
			p.Get(props.KeyDeviceFormFactor),
			m.cards[id].Factory,
		})
	}

	return rows
}

func (m *watchModel) copySelected() {
	row := m.table.SelectedRow()
	if row == nil || !m.canCopy {
		return
	}

	if err := m.copy(row[0]); err != nil {
		m.status = "failed to copy to clipboard"

		return
	}

	m.status = fmt.Sprintf("copied %s", row[0])
}

func (m *watchModel) View() string {
	var content strings.Builder

	content.WriteString(m.styles.title.Render("ALSA card monitor"))
	content.WriteString("  ")
	content.WriteString(m.styles.muted.Render(fmt.Sprintf("%d cards, %d events", len(m.cards), m.events)))
	content.WriteString("\n\n")
	content.WriteString(m.table.View())
	content.WriteString("\n\n")

	if m.err != nil {
		content.WriteString(m.styles.error.Render(fmt.Sprintf("Error: %v", m.err)))
	} else {
		content.WriteString(m.styles.label.Render(m.status))
	}

	help := "↑/↓ select | q quit"
	if m.canCopy {
		help = "↑/↓ select | c copy path | q quit"
	}

	content.WriteString("\n")
	content.WriteString(m.styles.help.Render(help))

	return m.styles.box.Render(content.String())
}

// RunWatch handles the watch subcommand.
func RunWatch(ctx context.Context, cfg *CmdConfig) error {
	log := newLogger(cfg)
	controls := alsa.NewHWOpener(cfg.DevDir)

	return runWatch(ctx, log, monitorOptions(cfg, log, controls), tea.WithAltScreen())
}

func runWatch(ctx context.Context, log logger.Logger, opts []hotplug.Option, progOpts ...tea.ProgramOption) error {
	l := loop.New(logger.Component(log, "loop"))

	loopCtx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		<-l.Done()
	}()

	go func() { _ = l.Run(loopCtx) }()

	monitor := hotplug.New(l, logger.Component(log, "alsa-udev"), opts...)

	var p *tea.Program

	// attaching replays cards through p.Send, so it runs as a command once
	// the program is reading messages
	attach := func() tea.Msg {
		_, err := monitor.AddListener(ctx, hotplug.ListenerFuncs{
			OnObjectInfo: func(id uint32, info *hotplug.ObjectInfo) {
				p.Send(cardMsg{id: id, info: info})
			},
		})

		return attachedMsg{err: err}
	}

	model := newWatchModel(attach)
	p = tea.NewProgram(model, append([]tea.ProgramOption{tea.WithContext(ctx)}, progOpts...)...)

	_, runErr := p.Run()

	if err := monitor.Close(context.WithoutCancel(ctx)); err != nil {
		log.Debug().Err(err).Msg("closing monitor")
	}

	if model.err != nil {
		return model.err
	}

	return runErr
}
