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
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Enumerate returns every device currently present under
// <sys>/class/<subsystem>. Each returned device holds one reference.
func (u *Udev) Enumerate(subsystem string) ([]*Device, error) {
	classDir := filepath.Join(u.sysDir, "class", subsystem)

	entries, err := os.ReadDir(classDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("read %s: %w", classDir, err)
	}

	devices := make([]*Device, 0, len(entries))

	for _, entry := range entries {
		dev, err := u.deviceFromSysfs(filepath.Join(classDir, entry.Name()), subsystem)
		if err != nil {
			u.logger.Debug().Err(err).Str("entry", entry.Name()).Msg("skipping sysfs entry")

			continue
		}

		devices = append(devices, dev)
	}

	return devices, nil
}

// DeviceFromSyspath reads one device from sysfs and the udev database.
func (u *Udev) DeviceFromSyspath(syspath string) (*Device, error) {
	return u.deviceFromSysfs(syspath, "")
}

func (u *Udev) deviceFromSysfs(path, subsystem string) (*Device, error) {
	syspath, err := filepath.EvalSymlinks(path)
	if err != nil {
		return nil, err
	}

	props := make(map[string]string)
	order := []string{PropDevPath, PropSubsystem}

	devpath := strings.TrimPrefix(syspath, filepath.Clean(u.sysDir))
	if !strings.HasPrefix(devpath, "/") {
		devpath = "/" + devpath
	}

	props[PropDevPath] = devpath

	if link, err := os.Readlink(filepath.Join(syspath, "subsystem")); err == nil {
		props[PropSubsystem] = filepath.Base(link)
	} else if subsystem != "" {
		props[PropSubsystem] = subsystem
	}

	uevent, err := readKeyValues(filepath.Join(syspath, "uevent"))
	if err != nil {
		return nil, err
	}

	for _, kv := range uevent {
		if _, ok := props[kv[0]]; !ok {
			order = append(order, kv[0])
		}

		props[kv[0]] = kv[1]
	}

	for _, kv := range u.readDatabase(props, filepath.Base(syspath)) {
		if _, ok := props[kv[0]]; !ok {
			order = append(order, kv[0])
		}

		props[kv[0]] = kv[1]
	}

	return NewDevice(syspath, props, order...), nil
}

// readDatabase loads the E: properties and the initialisation timestamp
// udevd recorded for the device. A missing record is not an error.
func (u *Udev) readDatabase(props map[string]string, sysname string) [][2]string {
	var id string

	if major, minor := props[PropMajor], props[PropMinor]; major != "" && minor != "" {
		id = "c" + major + ":" + minor
	} else {
		id = "+" + props[PropSubsystem] + ":" + sysname
	}

	f, err := os.Open(filepath.Join(u.dataDir, id))
	if err != nil {
		return nil
	}
	defer func() { _ = f.Close() }()

	var out [][2]string

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) < 2 || line[1] != ':' {
			continue
		}

		switch line[0] {
		case 'E':
			if k, v, ok := strings.Cut(line[2:], "="); ok && k != "" {
				out = append(out, [2]string{k, v})
			}
		case 'I':
			out = append(out, [2]string{PropUsecInitialized, line[2:]})
		}
	}

	return out
}

func readKeyValues(path string) ([][2]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var out [][2]string

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if k, v, ok := strings.Cut(scanner.Text(), "="); ok && k != "" {
			out = append(out, [2]string{k, v})
		}
	}

	return out, scanner.Err()
}
