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
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/carverauto/alsamon/pkg/agent"
	"github.com/carverauto/alsamon/pkg/alsa"
	"github.com/carverauto/alsamon/pkg/device"
	"github.com/carverauto/alsamon/pkg/logger"
	"github.com/carverauto/alsamon/pkg/models"
	"github.com/carverauto/alsamon/pkg/natsutil"
	"github.com/carverauto/alsamon/pkg/params"
	"github.com/carverauto/alsamon/pkg/version"
)

const controlRequestTimeout = 5 * time.Second

// ParamsHandler handles flags for the params and profile subcommands.
type ParamsHandler struct {
	name    string
	minArgs int
}

// Parse processes the command-line arguments for a card parameter subcommand.
func (h ParamsHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := newFlagSet(h.name, cfg)
	fs.StringVar(&cfg.NATSURL, "nats-url", "", "ask the running alsa-monitor over NATS")
	fs.StringVar(&cfg.ControlSubject, "control-subject", models.DefaultControlSubject, "alsa-monitor control subject")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing %s flags: %w", h.name, err)
	}

	cfg.Args = fs.Args()

	if len(cfg.Args) < h.minArgs {
		return fmt.Errorf("%w: %s", errMissingArgument, h.name)
	}

	return nil
}

// parseCard accepts "hw:N" or a bare card number.
func parseCard(s string) (uint32, error) {
	if strings.HasPrefix(s, "hw:") {
		return alsa.ParseCardName(s)
	}

	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", alsa.ErrBadCardName, s)
	}

	return uint32(id), nil
}

// parseProfile accepts a profile name or id.
func parseProfile(s string) (int32, error) {
	for _, id := range []int32{params.ProfileOn, params.ProfileOff} {
		if strings.EqualFold(s, params.ProfileName(id)) || s == strconv.Itoa(int(id)) {
			return id, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", errUnknownProfile, s)
}

// RunParams handles the params subcommand.
func RunParams(ctx context.Context, cfg *CmdConfig, out io.Writer) error {
	card, err := parseCard(cfg.Args[0])
	if err != nil {
		return err
	}

	kind := params.KindList

	if len(cfg.Args) > 1 {
		if kind, err = params.ParseKind(cfg.Args[1]); err != nil {
			return err
		}
	}

	log := newLogger(cfg)

	var list []json.RawMessage

	if cfg.NATSURL != "" {
		list, err = requestDaemon(ctx, cfg, log, agent.ControlRequest{Card: card, Kind: kind.String()})
	} else {
		list, err = enumLocal(log, alsa.NewHWOpener(cfg.DevDir), card, kind)
	}

	if err != nil {
		return err
	}

	return printParams(out, list)
}

// RunProfile handles the profile subcommand. Without -nats-url the card is
// reconciled by a throw-away device and the resulting nodes are printed.
func RunProfile(ctx context.Context, cfg *CmdConfig, out io.Writer) error {
	card, err := parseCard(cfg.Args[0])
	if err != nil {
		return err
	}

	id, err := parseProfile(cfg.Args[1])
	if err != nil {
		return err
	}

	raw, err := params.Marshal(params.Param{Kind: params.KindProfile, ID: id})
	if err != nil {
		return err
	}

	log := newLogger(cfg)

	if cfg.NATSURL != "" {
		list, err := requestDaemon(ctx, cfg, log, agent.ControlRequest{
			Card:  card,
			Kind:  params.KindProfile.String(),
			Param: raw,
		})
		if err != nil {
			return err
		}

		return printParams(out, list)
	}

	view, err := profileLocal(log, alsa.NewHWOpener(cfg.DevDir), card, raw)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, renderCard(&view, newStyles()))

	return err
}

func openDevice(log logger.Logger, controls alsa.Opener, card uint32) (*device.Device, error) {
	return device.New(alsa.CardName(card), logger.Component(log, "alsa-device"), device.WithOpener(controls))
}

// enumLocal walks the parameters of kind on a throw-away device. The device
// is activated first when the active profile is asked for.
func enumLocal(log logger.Logger, controls alsa.Opener, card uint32, kind params.Kind) ([]json.RawMessage, error) {
	d, err := openDevice(log, controls, card)
	if err != nil {
		return nil, err
	}

	if kind == params.KindProfile {
		if err := d.SetCallbacks(&nodeCollector{}); err != nil {
			return nil, err
		}
	}

	var out []json.RawMessage

	for index := uint32(0); ; {
		p, next, ok, err := d.EnumParams(kind, index, nil)
		if err != nil {
			return nil, err
		}

		if !ok {
			return out, nil
		}

		raw, err := params.Marshal(p)
		if err != nil {
			return nil, err
		}

		out = append(out, raw)
		index = next
	}
}

// profileLocal activates the card, applies raw and reports the nodes left.
func profileLocal(log logger.Logger, controls alsa.Opener, card uint32, raw []byte) (CardView, error) {
	view := CardView{ID: card, Path: alsa.CardName(card)}

	d, err := openDevice(log, controls, card)
	if err != nil {
		return view, err
	}

	c := &nodeCollector{}

	if err := d.SetCallbacks(c); err != nil {
		return view, err
	}

	if err := d.SetParam(params.KindProfile, raw); err != nil {
		return view, err
	}

	view.Profile = params.ProfileName(d.Profile())
	view.Info = c.info
	view.Nodes = c.nodes

	return view, nil
}

func requestDaemon(ctx context.Context, cfg *CmdConfig, log logger.Logger, req agent.ControlRequest) ([]json.RawMessage, error) {
	nc, err := natsutil.ConnectWithSecurity(cfg.NATSURL, nil, log, nats.Name(version.UserAgent("alsa-cli")))
	if err != nil {
		return nil, err
	}

	defer nc.Close()

	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, controlRequestTimeout)
	defer cancel()

	msg, err := nc.RequestWithContext(ctx, cfg.ControlSubject, data)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", cfg.ControlSubject, err)
	}

	return decodeReply(msg.Data)
}

func decodeReply(data []byte) ([]json.RawMessage, error) {
	var reply agent.ControlReply

	if err := json.Unmarshal(data, &reply); err != nil {
		return nil, fmt.Errorf("decoding control reply: %w", err)
	}

	if reply.Error != "" {
		return nil, fmt.Errorf("%w: %s", errDaemon, reply.Error)
	}

	return reply.Params, nil
}

func printParams(out io.Writer, list []json.RawMessage) error {
	for _, raw := range list {
		if _, err := fmt.Fprintln(out, string(raw)); err != nil {
			return err
		}
	}

	return nil
}
