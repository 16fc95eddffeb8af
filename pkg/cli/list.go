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
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/carverauto/alsamon/pkg/alsa"
	"github.com/carverauto/alsamon/pkg/device"
	"github.com/carverauto/alsamon/pkg/hotplug"
	"github.com/carverauto/alsamon/pkg/logger"
	"github.com/carverauto/alsamon/pkg/loop"
	"github.com/carverauto/alsamon/pkg/props"
)

// RunList handles the list subcommand.
func RunList(ctx context.Context, cfg *CmdConfig, out io.Writer) error {
	log := newLogger(cfg)
	controls := alsa.NewHWOpener(cfg.DevDir)

	views, err := collectCards(ctx, log, controls, monitorOptions(cfg, log, controls)...)
	if err != nil {
		return err
	}

	if cfg.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")

		if views == nil {
			views = []CardView{}
		}

		return enc.Encode(views)
	}

	if len(views) == 0 {
		logf(newLogStyles().warning, "%v", errNoCards)

		return nil
	}

	_, err = fmt.Fprintln(out, renderCards(views, newStyles()))

	return err
}

// collectCards attaches a throw-away monitor, records the cards it announces
// during enumeration and reads the streams of each with a reconcile pass.
func collectCards(ctx context.Context, log logger.Logger, controls alsa.Opener, opts ...hotplug.Option) ([]CardView, error) {
	l := loop.New(logger.Component(log, "loop"))

	loopCtx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		<-l.Done()
	}()

	go func() { _ = l.Run(loopCtx) }()

	m := hotplug.New(l, logger.Component(log, "alsa-udev"), opts...)

	found := make(map[uint32]*hotplug.ObjectInfo)

	hook, err := m.AddListener(ctx, hotplug.ListenerFuncs{
		OnObjectInfo: func(id uint32, info *hotplug.ObjectInfo) {
			if info == nil {
				delete(found, id)

				return
			}

			found[id] = info
		},
	})
	if err != nil {
		return nil, err
	}

	// no callbacks run once Remove returns
	if err := hook.Remove(ctx); err != nil {
		log.Debug().Err(err).Msg("detaching from monitor")
	}

	views := make([]CardView, 0, len(found))

	for id, info := range found {
		views = append(views, probeCard(id, info, log, controls))
	}

	slices.SortFunc(views, func(a, b CardView) int { return cmp.Compare(a.ID, b.ID) })

	return views, nil
}

type nodeCollector struct {
	info  props.Dict
	nodes []NodeView
}

func (c *nodeCollector) Info(info props.Dict) {
	c.info = info.Clone()
}

func (c *nodeCollector) AddNode(id uint32, factory string, p props.Dict) {
	c.nodes = append(c.nodes, NodeView{ID: id, Factory: factory, Props: p.Clone()})
}

func (c *nodeCollector) RemoveNode(id uint32) {
	c.nodes = slices.DeleteFunc(c.nodes, func(n NodeView) bool { return n.ID == id })
}

func probeCard(id uint32, info *hotplug.ObjectInfo, log logger.Logger, controls alsa.Opener) CardView {
	view := CardView{
		ID:      id,
		Path:    alsa.CardName(id),
		Factory: info.Factory,
		Props:   info.Props.Clone(),
	}

	d, err := device.New(view.Path, logger.Component(log, "alsa-device"), device.WithOpener(controls))
	if err != nil {
		view.Error = err.Error()

		return view
	}

	c := &nodeCollector{}
	if err := d.SetCallbacks(c); err != nil {
		view.Error = err.Error()
	}

	view.Info = c.info
	view.Nodes = c.nodes

	return view
}

func renderCards(views []CardView, st styles) string {
	boxes := make([]string, 0, len(views))

	for i := range views {
		boxes = append(boxes, renderCard(&views[i], st))
	}

	return lipgloss.JoinVertical(lipgloss.Left, boxes...)
}

func cardTitle(v *CardView) string {
	for _, name := range []string{
		v.Info.Get(props.KeyAlsaCardLongName),
		v.Props.Get(props.KeyDeviceProductName),
		v.Info.Get(props.KeyAlsaCardName),
	} {
		if name != "" {
			return name
		}
	}

	return "unknown card"
}

func renderCard(v *CardView, st styles) string {
	var content strings.Builder

	content.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		st.title.Render(v.Path),
		"  ",
		st.header.Render(cardTitle(v)),
	))
	content.WriteString("\n")

	rows := []struct{ label, value string }{
		{"driver", v.Info.Get(props.KeyAlsaCardDriver)},
		{"mixer", v.Info.Get(props.KeyAlsaCardMixerName)},
		{"bus", v.Props.Get(props.KeyDeviceBus)},
		{"vendor", v.Props.Get(props.KeyDeviceVendorName)},
		{"product", v.Props.Get(props.KeyDeviceProductName)},
		{"form factor", v.Props.Get(props.KeyDeviceFormFactor)},
		{"factory", v.Factory},
		{"profile", v.Profile},
	}

	for _, r := range rows {
		if r.value == "" {
			continue
		}

		content.WriteString(fmt.Sprintf("%s %s\n", st.label.Render(fmt.Sprintf("%-12s", r.label)), st.value.Render(r.value)))
	}

	for _, n := range v.Nodes {
		direction := st.sink.Render("sink  ")
		if n.Factory == device.FactorySource {
			direction = st.source.Render("source")
		}

		content.WriteString(fmt.Sprintf("  %s %s %s %s\n",
			direction,
			st.value.Render(fmt.Sprintf("%-8s", n.Props.Get(props.KeyAlsaDevice))),
			st.value.Render(n.Props.Get(props.KeyAlsaPCMName)),
			st.muted.Render("("+n.Props.Get(props.KeyAlsaPCMClass)+"/"+n.Props.Get(props.KeyAlsaPCMSubclass)+")"),
		))
	}

	if len(v.Nodes) == 0 && v.Error == "" {
		content.WriteString(st.muted.Render("  no streams") + "\n")
	}

	if v.Error != "" {
		content.WriteString(st.error.Render("error: "+v.Error) + "\n")
	}

	return st.box.Render(strings.TrimRight(content.String(), "\n"))
}
