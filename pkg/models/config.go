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

package models

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/carverauto/alsamon/pkg/logger"
)

// MonitorConfigSchema is the JSON Schema of the monitor configuration file.
//
//go:embed monitor.schema.json
var MonitorConfigSchema []byte

// Defaults for MonitorConfig.
const (
	DefaultDevDir        = "/dev/snd"
	DefaultSysDir        = "/sys"
	DefaultUdevDataDir   = "/run/udev/data"
	DefaultMaxCards      = 64
	MaxCardsLimit        = 1024
	DefaultNATSStream    = "alsa"
	DefaultSubjectPrefix = "alsa"
	// DefaultControlSubject must stay outside the event stream's subjects.
	DefaultControlSubject = "alsa-control"
	DefaultAckTimeout     = Duration(5 * time.Second)
)

var (
	errInvalidDuration       = errors.New("invalid duration")
	errMaxCardsRange         = fmt.Errorf("max_cards must be between 1 and %d", MaxCardsLimit)
	errNATSURLRequired       = errors.New("nats url is required when enabled")
	errNATSStreamRequired    = errors.New("nats stream is required when enabled")
	errInvalidSecurity       = errors.New("nats security mode must be none or mtls")
	errControlSubjectOverlap = errors.New("nats control_subject must not be under subject_prefix")
)

// Duration is a time.Duration that reads "5s" style strings or nanoseconds.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		dur, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: %w", errInvalidDuration, err)
		}

		*d = Duration(dur)

		return nil
	default:
		return errInvalidDuration
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// MonitorConfig is the configuration of the alsa-monitor daemon.
type MonitorConfig struct {
	Logging     *logger.Config     `json:"logging,omitempty"`
	Metrics     *logger.OTelConfig `json:"metrics,omitempty"`
	DevDir      string             `json:"dev_dir,omitempty"`
	SysDir      string             `json:"sys_dir,omitempty"`
	UdevDataDir string             `json:"udev_data_dir,omitempty"`
	MaxCards    int                `json:"max_cards,omitempty"`
	UseACP      bool               `json:"use_acp"`
	AutoProfile bool               `json:"auto_profile"`
	NATS        *NATSConfig        `json:"nats,omitempty"`
}

// NATSConfig configures publishing of card events to JetStream.
type NATSConfig struct {
	Enabled       bool   `json:"enabled"`
	URL           string `json:"url"`
	Domain        string `json:"domain,omitempty"`
	Stream        string `json:"stream,omitempty"`
	SubjectPrefix string `json:"subject_prefix,omitempty"`
	// ControlSubject answers parameter requests for reconciled cards.
	ControlSubject string          `json:"control_subject,omitempty"`
	AckTimeout     Duration        `json:"ack_timeout,omitempty"`
	Security       *SecurityConfig `json:"security,omitempty"`
}

// ApplyDefaults fills unset fields.
func (c *MonitorConfig) ApplyDefaults() {
	if c.Logging == nil {
		c.Logging = logger.DefaultConfig()
	}

	if c.Logging.OTel == nil && c.Metrics != nil {
		c.Logging.OTel = c.Metrics
	}

	if c.DevDir == "" {
		c.DevDir = DefaultDevDir
	}

	if c.SysDir == "" {
		c.SysDir = DefaultSysDir
	}

	if c.UdevDataDir == "" {
		c.UdevDataDir = DefaultUdevDataDir
	}

	if c.MaxCards == 0 {
		c.MaxCards = DefaultMaxCards
	}

	if c.NATS != nil {
		c.NATS.applyDefaults()
	}
}

func (c *NATSConfig) applyDefaults() {
	if c.Stream == "" {
		c.Stream = DefaultNATSStream
	}

	if c.SubjectPrefix == "" {
		c.SubjectPrefix = DefaultSubjectPrefix
	}

	if c.ControlSubject == "" {
		c.ControlSubject = DefaultControlSubject
	}

	if c.AckTimeout == 0 {
		c.AckTimeout = DefaultAckTimeout
	}
}

// Validate implements config.Validator.
func (c *MonitorConfig) Validate() error {
	if c.MaxCards < 1 || c.MaxCards > MaxCardsLimit {
		return errMaxCardsRange
	}

	if c.NATS != nil {
		if err := c.NATS.Validate(); err != nil {
			return fmt.Errorf("nats: %w", err)
		}
	}

	return nil
}

// Validate ensures an enabled NATS configuration is usable.
func (c *NATSConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.URL == "" {
		return errNATSURLRequired
	}

	if c.Stream == "" {
		return errNATSStreamRequired
	}

	if c.ControlSubject != "" && strings.HasPrefix(c.ControlSubject, c.SubjectPrefix+".") {
		return errControlSubjectOverlap
	}

	if c.Security != nil {
		switch c.Security.Mode {
		case "", SecurityModeNone, SecurityModeMTLS:
		default:
			return errInvalidSecurity
		}
	}

	return nil
}
