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

package udev

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

const (
	libudevPrefix = "libudev\x00"
	libudevMagic  = 0xfeedcafe
	libudevHeader = 40
)

var (
	ErrShortMessage    = errors.New("uevent message too short")
	ErrBadMagic        = errors.New("uevent message has bad magic")
	ErrBadHeader       = errors.New("uevent message header out of range")
	ErrMissingDevPath  = errors.New("uevent message has no DEVPATH")
	ErrMalformedHeader = errors.New("kernel uevent header malformed")
)

// ParseMessage decodes a uevent datagram as sent either by udevd (the
// "libudev" framing) or directly by the kernel ("action@devpath").
// sysDir is prefixed to DEVPATH to form the syspath.
func ParseMessage(buf []byte, sysDir string) (*Device, error) {
	var (
		payload []byte
		err     error
	)

	if bytes.HasPrefix(buf, []byte(libudevPrefix)) {
		payload, err = libudevPayload(buf)
	} else {
		payload, err = kernelPayload(buf)
	}

	if err != nil {
		return nil, err
	}

	props, order := splitProperties(payload)

	devpath := props[PropDevPath]
	if devpath == "" {
		return nil, ErrMissingDevPath
	}

	return NewDevice(filepath.Join(sysDir, devpath), props, order...), nil
}

func libudevPayload(buf []byte) ([]byte, error) {
	if len(buf) < libudevHeader {
		return nil, ErrShortMessage
	}

	if binary.BigEndian.Uint32(buf[8:12]) != libudevMagic {
		return nil, ErrBadMagic
	}

	headerSize := binary.NativeEndian.Uint32(buf[12:16])
	off := binary.NativeEndian.Uint32(buf[16:20])
	n := binary.NativeEndian.Uint32(buf[20:24])

	if headerSize < libudevHeader || uint64(off)+uint64(n) > uint64(len(buf)) || off < headerSize {
		return nil, fmt.Errorf("%w: off=%d len=%d size=%d", ErrBadHeader, off, n, len(buf))
	}

	return buf[off : off+n], nil
}

func kernelPayload(buf []byte) ([]byte, error) {
	end := bytes.IndexByte(buf, 0)
	if end < 0 {
		return nil, ErrShortMessage
	}

	if !bytes.Contains(buf[:end], []byte("@/")) {
		return nil, fmt.Errorf("%w: %q", ErrMalformedHeader, buf[:end])
	}

	return buf[end+1:], nil
}

func splitProperties(payload []byte) (map[string]string, []string) {
	props := make(map[string]string)

	var order []string

	for _, field := range bytes.Split(payload, []byte{0}) {
		if len(field) == 0 {
			continue
		}

		key, value, ok := strings.Cut(string(field), "=")
		if !ok || key == "" {
			continue
		}

		if _, dup := props[key]; !dup {
			order = append(order, key)
		}

		props[key] = value
	}

	return props, order
}
