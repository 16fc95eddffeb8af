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
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

type recordingExporter struct {
	mu      sync.Mutex
	records []sdklog.Record
}

func (e *recordingExporter) Export(_ context.Context, records []sdklog.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range records {
		e.records = append(e.records, records[i].Clone())
	}

	return nil
}

func (*recordingExporter) Shutdown(context.Context) error   { return nil }
func (*recordingExporter) ForceFlush(context.Context) error { return nil }

func (e *recordingExporter) all() []sdklog.Record {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([]sdklog.Record(nil), e.records...)
}

func newRecordingWriter(t *testing.T) (*OTelWriter, *recordingExporter) {
	t.Helper()

	exp := &recordingExporter{}
	provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exp)))

	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	return newOTelWriter(context.Background(), provider), exp
}

func attributes(r *sdklog.Record) map[string]string {
	out := make(map[string]string)

	r.WalkAttributes(func(kv log.KeyValue) bool {
		out[kv.Key] = kv.Value.AsString()

		return true
	})

	return out
}

func TestOTelWriter_Disabled(t *testing.T) {
	writer, err := NewOTelWriter(context.Background(), OTelConfig{Enabled: false})
	require.ErrorIs(t, err, ErrOTelLoggingDisabled)
	assert.Nil(t, writer)
}

func TestOTelWriter_NoEndpoint(t *testing.T) {
	writer, err := NewOTelWriter(context.Background(), OTelConfig{Enabled: true})
	require.ErrorIs(t, err, ErrOTelEndpointRequired)
	assert.Nil(t, writer)
}

func TestMapZerologLevelToOTel(t *testing.T) {
	tests := []struct {
		level string
		want  log.Severity
	}{
		{"trace", log.SeverityTrace},
		{"debug", log.SeverityDebug},
		{"info", log.SeverityInfo},
		{"warn", log.SeverityWarn},
		{"warning", log.SeverityWarn},
		{"WARN", log.SeverityWarn},
		{"error", log.SeverityError},
		{"fatal", log.SeverityFatal},
		{"panic", log.SeverityFatal},
		{"unknown", log.SeverityInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.want, mapZerologLevelToOTel(tt.level))
		})
	}
}

func TestOTelWriterEmitsZerologLines(t *testing.T) {
	writer, exp := newRecordingWriter(t)

	var console bytes.Buffer

	zl := zerolog.New(NewMultiWriter(&console, writer)).With().Timestamp().Logger()
	l := Component(FromZerolog(zl), "alsa-hotplug")

	l.Warn().Str("card", "hw:2").Uint32("id", 2).Msg("card busy, deferring")

	assert.Contains(t, console.String(), `"message":"card busy, deferring"`)

	records := exp.all()
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, "card busy, deferring", r.Body().AsString())
	assert.Equal(t, log.SeverityWarn, r.Severity())
	assert.Equal(t, "warn", r.SeverityText())
	assert.Equal(t, "alsa-hotplug", r.InstrumentationScope().Name)
	assert.WithinDuration(t, time.Now(), r.Timestamp(), time.Minute)
	assert.Equal(t, map[string]string{"card": "hw:2", "id": "2"}, attributes(&r))
}

func TestOTelWriterDefaultScopeAndTruncation(t *testing.T) {
	writer, exp := newRecordingWriter(t)

	long := strings.Repeat("x", maxAttributeValueLength+10)
	line := `{"level":"info","message":"uevent","payload":"` + long + `","nodes":[0,1]}`

	n, err := writer.Write([]byte(line))
	require.NoError(t, err)
	assert.Equal(t, len(line), n)

	records := exp.all()
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, defaultLogScope, r.InstrumentationScope().Name)

	attrs := attributes(&r)
	assert.Len(t, attrs["payload"], maxAttributeValueLength)
	assert.True(t, strings.HasSuffix(attrs["payload"], "..."))
	assert.Equal(t, "[0,1]", attrs["nodes"])
	assert.Equal(t, "payload", attrs[truncatedKeysAttribute])
}

func TestOTelWriterIgnoresNonJSON(t *testing.T) {
	writer, exp := newRecordingWriter(t)

	n, err := writer.Write([]byte("not a json line\n"))
	require.NoError(t, err)
	assert.Equal(t, 16, n)
	assert.Empty(t, exp.all())
}

func TestTruncateStringKeepsRunes(t *testing.T) {
	got, cut := truncateString("héllo", 2)
	assert.True(t, cut)
	assert.Equal(t, "h", got)

	got, cut = truncateString("short", 10)
	assert.False(t, cut)
	assert.Equal(t, "short", got)
}

type shortWriter struct{}

func (shortWriter) Write(p []byte) (int, error) { return len(p) - 1, nil }

type failingWriter struct{ err error }

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }

func TestMultiWriter(t *testing.T) {
	var a, b bytes.Buffer

	n, err := NewMultiWriter(&a, &b).Write([]byte("line\n"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "line\n", a.String())
	assert.Equal(t, "line\n", b.String())

	_, err = NewMultiWriter(&a, shortWriter{}).Write([]byte("line\n"))
	require.ErrorIs(t, err, io.ErrShortWrite)

	errDisk := errors.New("disk full")
	_, err = NewMultiWriter(failingWriter{err: errDisk}, &b).Write([]byte("line\n"))
	require.ErrorIs(t, err, errDisk)
}

func TestShutdownLogsWithoutExporter(t *testing.T) {
	require.NoError(t, ShutdownLogs(context.Background()))
}
