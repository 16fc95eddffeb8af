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
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/carverauto/alsamon/pkg/logger"
)

const (
	DefaultSysDir  = "/sys"
	DefaultDataDir = "/run/udev/data"
)

var (
	ErrSysfsUnavailable = errors.New("sysfs unavailable")
	ErrUnsupported      = errors.New("udev monitor unsupported on this platform")
)

// Option customises a Udev handle.
type Option func(*Udev)

// Udev is the bus context: it knows where sysfs and the udev database live.
type Udev struct {
	sysDir  string
	dataDir string
	logger  logger.Logger
}

// New returns a bus context. It fails when the sysfs root is missing.
func New(log logger.Logger, opts ...Option) (*Udev, error) {
	u := &Udev{
		sysDir:  DefaultSysDir,
		dataDir: DefaultDataDir,
		logger:  log,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(u)
		}
	}

	info, err := os.Stat(u.sysDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSysfsUnavailable, err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrSysfsUnavailable, u.sysDir)
	}

	if resolved, err := filepath.EvalSymlinks(u.sysDir); err == nil {
		u.sysDir = resolved
	}

	return u, nil
}

// WithSysDir overrides the sysfs mount point.
func WithSysDir(dir string) Option {
	return func(u *Udev) {
		if dir != "" {
			u.sysDir = dir
		}
	}
}

// WithDataDir overrides the udev database directory.
func WithDataDir(dir string) Option {
	return func(u *Udev) {
		if dir != "" {
			u.dataDir = dir
		}
	}
}

// SysDir returns the sysfs root in use.
func (u *Udev) SysDir() string {
	return u.sysDir
}

// Close releases the context.
func (*Udev) Close() error {
	return nil
}
