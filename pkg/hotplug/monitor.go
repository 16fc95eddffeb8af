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

// Package hotplug tracks sound cards on the device bus and announces the
// usable ones to listeners.
package hotplug

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/multierr"

	"github.com/carverauto/alsamon/pkg/alsa"
	"github.com/carverauto/alsamon/pkg/cards"
	"github.com/carverauto/alsamon/pkg/logger"
	"github.com/carverauto/alsamon/pkg/loop"
	"github.com/carverauto/alsamon/pkg/udev"
)

// Subsystem is the bus subsystem the monitor follows.
const Subsystem = "sound"

// maxReadFailures is how many consecutive read errors a pump tolerates before
// it gives up on its descriptor.
const maxReadFailures = 8

var (
	ErrBusUnavailable = errors.New("device bus unavailable")
	ErrHookRemoved    = errors.New("listener already removed")
	ErrNilListener    = errors.New("listener is nil")
)

// Option customises a Monitor.
type Option func(*Monitor)

// WithBusOpener replaces the system device bus.
func WithBusOpener(open BusOpener) Option {
	return func(m *Monitor) {
		if open != nil {
			m.openBus = open
		}
	}
}

// WithWatcherOpener replaces the device directory watcher.
func WithWatcherOpener(open WatcherOpener) Option {
	return func(m *Monitor) {
		if open != nil {
			m.openWatcher = open
		}
	}
}

// WithControlOpener replaces the card control interface.
func WithControlOpener(opener alsa.Opener) Option {
	return func(m *Monitor) {
		if opener != nil {
			m.controls = opener
		}
	}
}

// WithAccessCheck replaces the control node permission probe.
func WithAccessCheck(check AccessCheck) Option {
	return func(m *Monitor) {
		if check != nil {
			m.access = check
		}
	}
}

// WithDevDir sets the directory holding the card device nodes.
func WithDevDir(dir string) Option {
	return func(m *Monitor) {
		if dir != "" {
			m.devDir = dir
		}
	}
}

// WithCapacity bounds the number of tracked cards.
func WithCapacity(n int) Option {
	return func(m *Monitor) {
		if n > 0 {
			m.capacity = n
		}
	}
}

// WithUseACP announces cards with the profile-aware device factory.
func WithUseACP(useACP bool) Option {
	return func(m *Monitor) {
		m.useACP = useACP
	}
}

// WithMeter records monitor metrics on meter instead of the global provider.
func WithMeter(meter metric.Meter) Option {
	return func(m *Monitor) {
		if meter != nil {
			m.meter = meter
		}
	}
}

// Monitor follows sound cards on the device bus. All of its state lives on
// the event loop.
type Monitor struct {
	loop        *loop.Loop
	logger      logger.Logger
	openBus     BusOpener
	openWatcher WatcherOpener
	controls    alsa.Opener
	access      AccessCheck
	meter       metric.Meter
	metrics     *monitorMetrics
	devDir      string
	capacity    int
	useACP      bool

	registry *cards.Registry
	bus      Bus
	receiver *loop.Source
	watcher  *loop.Source
	hooks    []*Hook
}

// Hook is one attached listener.
type Hook struct {
	monitor  *Monitor
	listener Listener
	removed  bool
}

// New creates a monitor bound to l. Nothing is opened until the first
// listener attaches.
func New(l *loop.Loop, log logger.Logger, opts ...Option) *Monitor {
	m := &Monitor{
		loop:        l,
		logger:      log,
		openWatcher: DirWatchOpener,
		devDir:      alsa.DefaultDevDir,
		capacity:    cards.DefaultCapacity,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	if m.openBus == nil {
		m.openBus = UdevBusOpener(log)
	}

	if m.controls == nil {
		m.controls = alsa.NewHWOpener(m.devDir)
	}

	if m.access == nil {
		devDir := m.devDir
		m.access = func(card uint32) error { return alsa.CheckAccess(devDir, card) }
	}

	if m.meter == nil {
		m.meter = otel.Meter(meterName)
	}

	metrics, err := newMonitorMetrics(m.meter)
	if err != nil {
		log.Warn().Err(err).Msg("failed to create monitor metrics, continuing without them")

		metrics = noopMonitorMetrics()
	}

	m.metrics = metrics
	m.registry = cards.NewRegistry(m.capacity)

	return m
}

func (m *Monitor) factory() string {
	if m.useACP {
		return FactoryACPDevice
	}

	return FactoryPCMDevice
}

// AddListener attaches l. The new listener alone receives the monitor info
// and the cards announced before it attached. It then joins the other
// listeners and the bus is re-scanned, so a card first found by that scan is
// announced to every listener. Live monitoring is started if it is not
// running yet. Failure to open the bus is returned; other start-up failures
// are logged.
func (m *Monitor) AddListener(ctx context.Context, l Listener) (*Hook, error) {
	if l == nil {
		return nil, ErrNilListener
	}

	h := &Hook{monitor: m, listener: l}

	if err := m.loop.Invoke(ctx, func() error { return m.attach(h) }); err != nil {
		return nil, err
	}

	return h, nil
}

func (m *Monitor) attach(h *Hook) error {
	if m.bus == nil {
		bus, err := m.openBus()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrBusUnavailable, err)
		}

		m.bus = bus
	}

	// only the new listener sees the monitor info and the replay; cards the
	// re-scan finds go to everyone
	h.listener.Info(DeviceInfo())
	m.replay(h)

	m.hooks = append(m.hooks, h)
	m.enumerate()

	m.startReceiver()
	m.startWatcher()

	m.logger.Debug().Int("listeners", len(m.hooks)).Int("cards", m.registry.Count()).Msg("listener attached")

	return nil
}

// replay announces already emitted cards to a newly attached listener.
func (m *Monitor) replay(h *Hook) {
	m.registry.Each(func(c *cards.Card) {
		if c.Emitted() {
			h.listener.ObjectInfo(c.ID, BuildObjectInfo(c.ID, c.Device, m.factory()))
		}
	})
}

func (m *Monitor) enumerate() {
	devices, err := m.bus.Enumerate(Subsystem)
	if err != nil {
		m.logger.Warn().Err(err).Msg("device enumeration failed")

		return
	}

	for _, dev := range devices {
		m.process(udev.ActionAdd, dev, true)
		dev.Unref()
	}
}

// Remove detaches the listener. Detaching the last listener stops bus and
// directory monitoring, releases every tracked card and closes the bus.
func (h *Hook) Remove(ctx context.Context) error {
	return h.monitor.loop.Invoke(ctx, func() error { return h.monitor.detach(h) })
}

func (m *Monitor) detach(h *Hook) error {
	if h.removed {
		return ErrHookRemoved
	}

	h.removed = true

	for i, other := range m.hooks {
		if other == h {
			m.hooks = append(m.hooks[:i:i], m.hooks[i+1:]...)

			break
		}
	}

	if len(m.hooks) > 0 {
		return nil
	}

	return m.shutdown()
}

func (m *Monitor) shutdown() error {
	var err error

	if m.receiver != nil {
		err = multierr.Append(err, m.receiver.Remove())
		m.receiver = nil
	}

	err = multierr.Append(err, m.stopWatcher())

	m.metrics.track(-int64(m.registry.Count()))
	m.registry.Clear()

	if m.bus != nil {
		err = multierr.Append(err, m.bus.Close())
		m.bus = nil
	}

	m.logger.Debug().Msg("monitor stopped")

	return err
}

// Close detaches every listener.
func (m *Monitor) Close(ctx context.Context) error {
	return m.loop.Invoke(ctx, func() error {
		for _, h := range m.hooks {
			h.removed = true
		}

		m.hooks = nil

		return m.shutdown()
	})
}

// CardSnapshot is a read-only view of a tracked card.
type CardSnapshot struct {
	ID         uint32
	State      cards.State
	Accessible bool
	Syspath    string
}

// Cards returns the tracked cards in registry order.
func (m *Monitor) Cards(ctx context.Context) ([]CardSnapshot, error) {
	var out []CardSnapshot

	err := m.loop.Invoke(ctx, func() error {
		m.registry.Each(func(c *cards.Card) {
			s := CardSnapshot{ID: c.ID, State: c.State, Accessible: c.Accessible()}
			if c.Device != nil {
				s.Syspath = c.Device.Syspath()
			}

			out = append(out, s)
		})

		return nil
	})

	return out, err
}

func (m *Monitor) startReceiver() {
	if m.receiver != nil {
		return
	}

	recv, err := m.bus.Monitor(Subsystem)
	if err != nil {
		m.logger.Error().Err(err).Msg("failed to start bus monitor")

		return
	}

	var src *loop.Source

	src = m.loop.AddSource("udev", func(_ context.Context, post loop.PostFunc) error {
		failures := 0

		for {
			dev, err := recv.Receive()
			if err != nil {
				if errors.Is(err, udev.ErrMonitorClosed) {
					return nil
				}

				failures++
				if failures < maxReadFailures {
					m.logger.Warn().Err(err).Int("failures", failures).Msg("bus receive failed, dropping event")

					continue
				}

				post(func() { m.dropReceiver(src) })

				return err
			}

			failures = 0

			if !post(func() { m.onBusEvent(dev) }) {
				return nil
			}
		}
	}, recv)

	m.receiver = src
}

// dropReceiver forgets a receiver whose pump gave up. The next attach or
// device directory change opens a new one.
func (m *Monitor) dropReceiver(src *loop.Source) {
	if m.receiver != src {
		return
	}

	m.receiver = nil

	if err := src.Remove(); err != nil {
		m.logger.Debug().Err(err).Msg("closing bus monitor")
	}
}

func (m *Monitor) onBusEvent(dev *udev.Device) {
	defer dev.Unref()

	m.startWatcher()

	action := dev.Action()
	if action == udev.ActionNone {
		action = udev.ActionChange
	}

	m.process(action, dev, false)
}

// process applies one bus event to the registry.
func (m *Monitor) process(action udev.Action, dev *udev.Device, enumerated bool) {
	m.metrics.event(string(action))

	id, ok := m.cardID(dev)
	if !ok {
		return
	}

	switch action {
	case udev.ActionAdd:
		m.processAdd(id, dev, enumerated)
	case udev.ActionChange:
		m.processChange(id, dev)
	case udev.ActionRemove:
		m.processRemove(id)
	default:
		m.logger.Trace().Str("action", string(action)).Uint32("card", id).Msg("ignoring bus action")
	}
}

// cardID applies the device filters and extracts the card index.
func (m *Monitor) cardID(dev *udev.Device) (uint32, bool) {
	if _, ok := dev.Property(propACPIgnore); ok {
		return 0, false
	}

	if dev.PropertyValue(propSoundClass) == soundClassModem {
		return 0, false
	}

	return CardIDFromDevPath(dev.DevPath())
}

func (m *Monitor) processAdd(id uint32, dev *udev.Device, enumerated bool) {
	c, created, err := m.registry.Upsert(id, dev)
	if errors.Is(err, cards.ErrRegistryFull) {
		m.logger.Debug().Uint32("card", id).Int("capacity", m.registry.Capacity()).Msg("card registry full, dropping card")
		inc(m.metrics.dropped)

		return
	}

	if !created {
		return
	}

	m.metrics.track(1)

	if !enumerated {
		return
	}

	if !m.probe(c) {
		return
	}

	m.emit(c)
}

func (m *Monitor) processChange(id uint32, dev *udev.Device) {
	c := m.registry.Find(id)
	if c == nil || c.Ignored() {
		return
	}

	if _, ok := dev.Property(propSoundInitialized); !ok {
		return
	}

	if dev != c.Device {
		dev.Ref()

		if c.Device != nil {
			c.Device.Unref()
		}

		c.Device = dev
	}

	if !m.probe(c) {
		return
	}

	m.emit(c)
}

func (m *Monitor) processRemove(id uint32) {
	removed, ok := m.registry.Remove(id)
	if !ok {
		return
	}

	m.metrics.track(-1)

	if !removed.Emitted() {
		return
	}

	inc(m.metrics.removed)
	m.logger.Info().Uint32("card", id).Msg("card removed")
	m.notify(id, nil)
}

// probe checks access to the control node, deferring the card on failure.
func (m *Monitor) probe(c *cards.Card) bool {
	err := m.access(c.ID)
	c.SetAccessible(err == nil)

	if err != nil {
		m.logger.Debug().Err(err).Uint32("card", c.ID).Msg("card not accessible yet")

		if c.State != cards.Emitted {
			c.State = cards.Deferred
		}

		return false
	}

	return true
}

// emit checks that the card exposes at least one PCM device and announces it.
func (m *Monitor) emit(c *cards.Card) {
	name := alsa.CardName(c.ID)

	ctl, err := m.controls.Open(name)
	if err != nil {
		m.logger.Error().Err(err).Str("card", name).Msg("can't open control")

		return
	}

	pcm, err := ctl.NextPCMDevice(-1)
	if cerr := ctl.Close(); cerr != nil {
		m.logger.Debug().Err(cerr).Str("card", name).Msg("control close failed")
	}

	switch {
	case err != nil:
		m.logger.Warn().Err(err).Str("card", name).Msg("error iterating devices, ignoring card")
		m.ignore(c)

		return
	case pcm < 0:
		m.logger.Debug().Str("card", name).Msg("no PCM devices, ignoring card")
		m.ignore(c)

		return
	}

	info := BuildObjectInfo(c.ID, c.Device, m.factory())
	c.State = cards.Emitted

	inc(m.metrics.emitted)
	m.logger.Info().Str("card", name).Str("factory", info.Factory).Msg("card available")
	m.notify(c.ID, info)
}

func (m *Monitor) ignore(c *cards.Card) {
	c.State = cards.Ignored
	inc(m.metrics.ignored)
}

func (m *Monitor) notify(id uint32, info *ObjectInfo) {
	hooks := append([]*Hook(nil), m.hooks...)

	for _, h := range hooks {
		if !h.removed {
			h.listener.ObjectInfo(id, info)
		}
	}
}
