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

// Package alsa talks to the sound card control interface: card identity and
// PCM stream discovery.
package alsa

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultDevDir is where the kernel creates sound device nodes.
const DefaultDevDir = "/dev/snd"

var (
	// ErrNoSuchStream is returned by PCMInfo when the device has no stream in
	// the requested direction.
	ErrNoSuchStream = errors.New("no such pcm stream")
	ErrBadCardName  = errors.New("invalid card name")
	ErrUnsupported  = errors.New("alsa control unsupported on this platform")
)

// Stream is a PCM direction.
type Stream int32

const (
	StreamPlayback Stream = 0
	StreamCapture  Stream = 1
)

func (s Stream) String() string {
	switch s {
	case StreamPlayback:
		return "playback"
	case StreamCapture:
		return "capture"
	default:
		return "unknown"
	}
}

// Class is the PCM device class.
type Class int32

const (
	ClassGeneric Class = iota
	ClassMulti
	ClassModem
	ClassDigitizer
)

func (c Class) String() string {
	switch c {
	case ClassGeneric:
		return "generic"
	case ClassMulti:
		return "multichannel"
	case ClassModem:
		return "modem"
	case ClassDigitizer:
		return "digitizer"
	default:
		return "unknown"
	}
}

// Subclass is the PCM device subclass.
type Subclass int32

const (
	SubclassGenericMix Subclass = iota
	SubclassMultiMix
)

func (s Subclass) String() string {
	switch s {
	case SubclassGenericMix:
		return "generic-mix"
	case SubclassMultiMix:
		return "multichannel-mix"
	default:
		return "unknown"
	}
}

// CardInfo is the identity block of a card.
type CardInfo struct {
	Card       int
	ID         string
	Driver     string
	Name       string
	LongName   string
	MixerName  string
	Components string
}

// PCMInfo describes one direction of one PCM device.
type PCMInfo struct {
	Device          uint32
	Subdevice       uint32
	Stream          Stream
	Card            int
	ID              string
	Name            string
	Subname         string
	Class           Class
	Subclass        Subclass
	SubdevicesCount uint32
	SubdevicesAvail uint32
}

// Control is an open card control interface.
type Control interface {
	CardInfo() (CardInfo, error)
	// NextPCMDevice returns the first PCM device after prev, or -1 when
	// there is none. Pass -1 to start.
	NextPCMDevice(prev int) (int, error)
	// PCMInfo fails with ErrNoSuchStream when the direction is absent.
	PCMInfo(device, subdevice uint32, stream Stream) (PCMInfo, error)
	Close() error
}

// Opener opens a control interface by textual name ("hw:N").
type Opener interface {
	Open(name string) (Control, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(name string) (Control, error)

// Open calls f.
func (f OpenerFunc) Open(name string) (Control, error) {
	return f(name)
}

// CardName returns the control name of a card index.
func CardName(card uint32) string {
	return "hw:" + strconv.FormatUint(uint64(card), 10)
}

// PCMName returns the name of one PCM device of a card.
func PCMName(card string, device int) string {
	return fmt.Sprintf("%s,%d", card, device)
}

// ParseCardName extracts the card index from "hw:N".
func ParseCardName(name string) (uint32, error) {
	rest, ok := strings.CutPrefix(name, "hw:")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrBadCardName, name)
	}

	if i := strings.IndexByte(rest, ','); i >= 0 {
		rest = rest[:i]
	}

	n, err := strconv.ParseUint(rest, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadCardName, name)
	}

	return uint32(n), nil
}

// ControlPath returns the control node path of a card under devDir.
func ControlPath(devDir string, card uint32) string {
	return filepath.Join(devDir, ControlNodeName(card))
}

// ControlNodeName returns the basename of a card's control node.
func ControlNodeName(card uint32) string {
	return "controlC" + strconv.FormatUint(uint64(card), 10)
}

// ParseControlNodeName extracts the card index from "controlC<N>".
func ParseControlNodeName(name string) (uint32, bool) {
	rest, ok := strings.CutPrefix(name, "controlC")
	if !ok || rest == "" {
		return 0, false
	}

	n, err := strconv.ParseUint(rest, 10, 32)
	if err != nil {
		return 0, false
	}

	return uint32(n), true
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}

	return string(b)
}
