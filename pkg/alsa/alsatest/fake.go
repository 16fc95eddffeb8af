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

// Package alsatest provides in-memory control interfaces for tests.
package alsatest

import (
	"fmt"
	"sort"
	"sync"

	"github.com/carverauto/alsamon/pkg/alsa"
)

// PCM describes one fake PCM device; a nil direction is absent.
type PCM struct {
	Playback *alsa.PCMInfo
	Capture  *alsa.PCMInfo
	// Err, when set, is returned for every info query on this device.
	Err error
}

// Card is a fake sound card.
type Card struct {
	Info alsa.CardInfo
	PCMs map[int]PCM
	// NextErr, when set, is returned by NextPCMDevice.
	NextErr error
	// InfoErr, when set, is returned by CardInfo.
	InfoErr error
}

// Opener serves fake cards by "hw:N" name.
type Opener struct {
	mu      sync.Mutex
	cards   map[string]*Card
	openErr map[string]error
	opened  []string
	open    int
}

// NewOpener returns an empty fake opener.
func NewOpener() *Opener {
	return &Opener{
		cards:   make(map[string]*Card),
		openErr: make(map[string]error),
	}
}

// AddCard registers a card under "hw:N".
func (o *Opener) AddCard(n uint32, card *Card) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.cards[alsa.CardName(n)] = card
}

// FailOpen makes Open of "hw:N" return err.
func (o *Opener) FailOpen(n uint32, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.openErr[alsa.CardName(n)] = err
}

// Opened returns every name passed to Open, in order.
func (o *Opener) Opened() []string {
	o.mu.Lock()
	defer o.mu.Unlock()

	return append([]string(nil), o.opened...)
}

// OpenCount returns the number of controls not yet closed.
func (o *Opener) OpenCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.open
}

// Open implements alsa.Opener.
func (o *Opener) Open(name string) (alsa.Control, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.opened = append(o.opened, name)

	if err := o.openErr[name]; err != nil {
		return nil, err
	}

	card, ok := o.cards[name]
	if !ok {
		return nil, fmt.Errorf("open %s: no such device", name)
	}

	o.open++

	return &control{opener: o, card: card}, nil
}

type control struct {
	opener *Opener
	card   *Card
	closed bool
}

func (c *control) CardInfo() (alsa.CardInfo, error) {
	if c.card.InfoErr != nil {
		return alsa.CardInfo{}, c.card.InfoErr
	}

	return c.card.Info, nil
}

func (c *control) NextPCMDevice(prev int) (int, error) {
	if c.card.NextErr != nil {
		return -1, c.card.NextErr
	}

	devices := make([]int, 0, len(c.card.PCMs))
	for d := range c.card.PCMs {
		devices = append(devices, d)
	}

	sort.Ints(devices)

	for _, d := range devices {
		if d > prev {
			return d, nil
		}
	}

	return -1, nil
}

func (c *control) PCMInfo(device, subdevice uint32, stream alsa.Stream) (alsa.PCMInfo, error) {
	pcm, ok := c.card.PCMs[int(device)]
	if !ok {
		return alsa.PCMInfo{}, alsa.ErrNoSuchStream
	}

	if pcm.Err != nil {
		return alsa.PCMInfo{}, pcm.Err
	}

	info := pcm.Playback
	if stream == alsa.StreamCapture {
		info = pcm.Capture
	}

	if info == nil {
		return alsa.PCMInfo{}, alsa.ErrNoSuchStream
	}

	out := *info
	out.Device = device
	out.Subdevice = subdevice
	out.Stream = stream

	return out, nil
}

func (c *control) Close() error {
	c.opener.mu.Lock()
	defer c.opener.mu.Unlock()

	if !c.closed {
		c.closed = true
		c.opener.open--
	}

	return nil
}

// SimpleCard returns a card with one PCM device carrying a playback and a
// capture stream.
func SimpleCard(id string) *Card {
	return &Card{
		Info: alsa.CardInfo{ID: id, Driver: "snd_fake", Name: id, LongName: id + " at fake", MixerName: "Fake Mixer"},
		PCMs: map[int]PCM{
			0: {
				Playback: &alsa.PCMInfo{ID: "Fake PCM", Name: "Fake PCM", Subname: "subdevice #0"},
				Capture:  &alsa.PCMInfo{ID: "Fake PCM", Name: "Fake PCM", Subname: "subdevice #0"},
			},
		},
	}
}
