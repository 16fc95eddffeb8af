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

package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLevels(t *testing.T) {
	log, err := New(&Config{Level: "warn", Output: "stderr"})
	require.NoError(t, err)
	assert.Nil(t, log.Info())
	assert.NotNil(t, log.Warn())

	log, err = New(&Config{Level: "warn", Debug: true})
	require.NoError(t, err)
	assert.NotNil(t, log.Debug())

	_, err = New(&Config{Level: "loud"})
	require.Error(t, err)
}

func TestSetDebug(t *testing.T) {
	log, err := New(&Config{Level: "info"})
	require.NoError(t, err)

	log.SetDebug(true)
	assert.NotNil(t, log.Debug())

	log.SetDebug(false)
	assert.Nil(t, log.Debug())
}

func TestComponentField(t *testing.T) {
	var buf bytes.Buffer

	log := Component(NewWriterLogger(&buf), "alsa-udev")
	log.Info().Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "alsa-udev", entry["component"])
	assert.Equal(t, "hello", entry["message"])
}

func TestTestLoggerDiscards(t *testing.T) {
	log := NewTestLogger()
	assert.Nil(t, log.Error())
	assert.Equal(t, zerolog.Disabled, log.WithComponent("x").GetLevel())
}

func TestDefaultConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")

	config := DefaultConfig()
	assert.Equal(t, "debug", config.Level)
	assert.Equal(t, "stdout", config.Output)
}

func TestDefaultOTelConfig(t *testing.T) {
	t.Setenv("OTEL_METRICS_ENABLED", "yes")
	t.Setenv("OTEL_EXPORTER_OTLP_METRICS_HEADERS", "a=1, b = 2,bad")

	config := DefaultOTelConfig()
	assert.True(t, config.Enabled)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, config.Headers)
	assert.Equal(t, defaultServiceName, config.ServiceName)
}

func TestInitializeMetricsDisabled(t *testing.T) {
	_, err := InitializeMetrics(context.Background(), MetricsConfig{})
	require.ErrorIs(t, err, ErrOTelMetricsDisabled)

	_, err = InitializeMetrics(context.Background(), MetricsConfig{OTel: &OTelConfig{Enabled: true}})
	require.ErrorIs(t, err, ErrOTelMetricsDisabled)

	require.NoError(t, ShutdownMetrics(context.Background()))
}

func TestSetupTLSConfigMissingCA(t *testing.T) {
	_, err := setupTLSConfig(&TLSConfig{CAFile: filepath.Join(t.TempDir(), "missing.pem")})
	require.Error(t, err)

	cfg, err := setupTLSConfig(&TLSConfig{})
	require.NoError(t, err)
	assert.Empty(t, cfg.Certificates)
}
