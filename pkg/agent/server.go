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

// Package agent runs the alsa-monitor daemon: the event loop, the hotplug
// monitor and the listeners that log, publish and reconcile cards.
package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/multierr"

	"github.com/carverauto/alsamon/pkg/alsa"
	"github.com/carverauto/alsamon/pkg/device"
	"github.com/carverauto/alsamon/pkg/hotplug"
	"github.com/carverauto/alsamon/pkg/logger"
	"github.com/carverauto/alsamon/pkg/loop"
	"github.com/carverauto/alsamon/pkg/models"
	"github.com/carverauto/alsamon/pkg/natsutil"
	"github.com/carverauto/alsamon/pkg/params"
	"github.com/carverauto/alsamon/pkg/udev"
	"github.com/carverauto/alsamon/pkg/version"
)

var (
	ErrNilConfig           = errors.New("agent config is nil")
	ErrAlreadyStarted      = errors.New("agent already started")
	ErrAutoProfileDisabled = errors.New("auto_profile is disabled")
	ErrCardNotReconciled   = errors.New("card is not reconciled")
)

// Option customises a Server.
type Option func(*Server)

// WithMonitorOptions appends options to the hotplug monitor, after the ones
// derived from the config.
func WithMonitorOptions(opts ...hotplug.Option) Option {
	return func(s *Server) {
		s.monitorOpts = append(s.monitorOpts, opts...)
	}
}

// WithDeviceOptions appends options to every reconciled card.
func WithDeviceOptions(opts ...device.Option) Option {
	return func(s *Server) {
		s.deviceOpts = append(s.deviceOpts, opts...)
	}
}

// WithPublisher publishes events through pub instead of connecting to the
// configured NATS server.
func WithPublisher(pub natsutil.Publisher) Option {
	return func(s *Server) {
		if pub != nil {
			s.publisher = pub
		}
	}
}

// Server is the alsa-monitor daemon.
type Server struct {
	config      *models.MonitorConfig
	logger      logger.Logger
	loop        *loop.Loop
	monitor     *hotplug.Monitor
	monitorOpts []hotplug.Option
	deviceOpts  []device.Option

	publisher natsutil.Publisher
	events    *natsutil.EventPublisher
	nc        *nats.Conn

	profiles *profileManager
	control  *nats.Subscription
	hook     *hotplug.Hook
	cancel   context.CancelFunc
	loopErr  chan error
}

// NewServer builds the daemon from cfg. Nothing is opened until Start.
func NewServer(cfg *models.MonitorConfig, log logger.Logger, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	s := &Server{
		config:  cfg,
		logger:  log,
		loop:    loop.New(logger.Component(log, "loop")),
		loopErr: make(chan error, 1),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	monitorOpts := []hotplug.Option{
		hotplug.WithDevDir(cfg.DevDir),
		hotplug.WithCapacity(cfg.MaxCards),
		hotplug.WithUseACP(cfg.UseACP),
		hotplug.WithBusOpener(hotplug.UdevBusOpener(logger.Component(log, "udev"),
			udev.WithSysDir(cfg.SysDir),
			udev.WithDataDir(cfg.UdevDataDir),
		)),
	}

	s.monitor = hotplug.New(s.loop, logger.Component(log, "alsa-udev"), append(monitorOpts, s.monitorOpts...)...)

	if cfg.AutoProfile {
		deviceOpts := append([]device.Option{device.WithOpener(alsa.NewHWOpener(cfg.DevDir))}, s.deviceOpts...)
		s.profiles = newProfileManager(logger.Component(log, "alsa-device"), deviceOpts)
	}

	return s, nil
}

// Start runs the event loop, connects the event publisher when configured
// and attaches the listeners to the monitor.
func (s *Server) Start(ctx context.Context) error {
	if s.cancel != nil {
		return ErrAlreadyStarted
	}

	// the loop outlives ctx so Stop can still detach through it
	loopCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	go func() { s.loopErr <- s.loop.Run(loopCtx) }()

	if err := s.connectEvents(ctx); err != nil {
		return multierr.Append(err, s.Stop(ctx))
	}

	ls := listeners{&logListener{logger: s.logger}}

	var cards callbackFactory = logCallbacks{logger: s.logger}

	if s.publisher != nil {
		notifier := natsutil.NewNotifier(s.publisher, s.logger)
		ls = append(ls, notifier)
		cards = teeCallbacks{cards, notifier}
	}

	if s.profiles != nil {
		s.profiles.callbacks = cards
		ls = append(ls, s.profiles)
	}

	hook, err := s.monitor.AddListener(ctx, ls)
	if err != nil {
		return multierr.Append(fmt.Errorf("failed to start hotplug monitor: %w", err), s.Stop(ctx))
	}

	s.hook = hook

	if err := s.serveControl(); err != nil {
		return multierr.Append(err, s.Stop(ctx))
	}

	s.logger.Info().
		Str("version", version.GetFullVersion()).
		Bool("auto_profile", s.profiles != nil).
		Bool("events", s.publisher != nil).
		Int("max_cards", s.config.MaxCards).
		Msg("alsa monitor started")

	return nil
}

func (s *Server) connectEvents(ctx context.Context) error {
	cfg := s.config.NATS
	if s.publisher != nil || cfg == nil || !cfg.Enabled {
		return nil
	}

	nc, err := natsutil.ConnectWithSecurity(cfg.URL, cfg.Security, s.logger)
	if err != nil {
		return err
	}

	events, err := natsutil.CreateEventPublisher(ctx, nc, cfg, s.logger)
	if err != nil {
		nc.Close()

		return err
	}

	s.nc = nc
	s.events = events
	s.publisher = events

	return nil
}

// Stop releases the reconciled cards, detaches from the monitor, flushes
// pending events and stops the loop.
func (s *Server) Stop(ctx context.Context) error {
	var err error

	if s.control != nil {
		err = multierr.Append(err, s.control.Unsubscribe())
		s.control = nil
	}

	if s.profiles != nil && s.cancel != nil {
		err = multierr.Append(err, s.loop.Invoke(ctx, func() error {
			s.profiles.releaseAll()

			return nil
		}))
	}

	if s.hook != nil {
		err = multierr.Append(err, s.hook.Remove(ctx))
		s.hook = nil
	}

	if s.events != nil {
		err = multierr.Append(err, s.events.Close(ctx))
		s.events = nil
	}

	if s.nc != nil {
		s.nc.Close()
		s.nc = nil
	}

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil

		select {
		case loopErr := <-s.loopErr:
			if !errors.Is(loopErr, context.Canceled) {
				err = multierr.Append(err, loopErr)
			}
		case <-ctx.Done():
			err = multierr.Append(err, ctx.Err())
		}
	}

	s.logger.Info().Msg("alsa monitor stopped")

	return err
}

// Cards returns the cards the monitor tracks.
func (s *Server) Cards(ctx context.Context) ([]hotplug.CardSnapshot, error) {
	return s.monitor.Cards(ctx)
}

// ProfileSnapshot is the reconcile state of one card.
type ProfileSnapshot struct {
	Card    string
	Profile int32
	Nodes   uint32
}

// Profiles returns the reconciled cards in ascending card order. It is empty
// unless auto_profile is set.
func (s *Server) Profiles(ctx context.Context) ([]ProfileSnapshot, error) {
	if s.profiles == nil {
		return nil, nil
	}

	var out []ProfileSnapshot

	err := s.loop.Invoke(ctx, func() error {
		out = s.profiles.snapshot()

		return nil
	})

	return out, err
}

// EnumParams returns every parameter of kind a reconciled card offers.
func (s *Server) EnumParams(ctx context.Context, card uint32, kind params.Kind) ([]params.Param, error) {
	if s.profiles == nil {
		return nil, ErrAutoProfileDisabled
	}

	var out []params.Param

	err := s.loop.Invoke(ctx, func() error {
		var err error

		out, err = s.profiles.enumParams(card, kind)

		return err
	})

	return out, err
}

// SetParam applies an encoded parameter object to a reconciled card.
func (s *Server) SetParam(ctx context.Context, card uint32, kind params.Kind, raw []byte) error {
	if s.profiles == nil {
		return ErrAutoProfileDisabled
	}

	return s.loop.Invoke(ctx, func() error {
		return s.profiles.setParam(card, kind, raw)
	})
}
