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

package hotplug

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/multierr"
)

const meterName = "github.com/carverauto/alsamon/pkg/hotplug"

type monitorMetrics struct {
	events  metric.Int64Counter
	emitted metric.Int64Counter
	removed metric.Int64Counter
	dropped metric.Int64Counter
	ignored metric.Int64Counter
	tracked metric.Int64UpDownCounter
}

func newMonitorMetrics(meter metric.Meter) (*monitorMetrics, error) {
	var (
		m    monitorMetrics
		err  error
		errs error
	)

	m.events, err = meter.Int64Counter("alsa_udev_events_total",
		metric.WithDescription("Bus events processed, by action"))
	errs = multierr.Append(errs, err)

	m.emitted, err = meter.Int64Counter("alsa_udev_cards_emitted_total",
		metric.WithDescription("Object info notifications sent"))
	errs = multierr.Append(errs, err)

	m.removed, err = meter.Int64Counter("alsa_udev_cards_removed_total",
		metric.WithDescription("Removal notifications sent"))
	errs = multierr.Append(errs, err)

	m.dropped, err = meter.Int64Counter("alsa_udev_cards_dropped_total",
		metric.WithDescription("Cards not tracked because the registry was full"))
	errs = multierr.Append(errs, err)

	m.ignored, err = meter.Int64Counter("alsa_udev_cards_ignored_total",
		metric.WithDescription("Cards skipped because they expose no PCM stream"))
	errs = multierr.Append(errs, err)

	m.tracked, err = meter.Int64UpDownCounter("alsa_udev_cards_tracked",
		metric.WithDescription("Cards currently held in the registry"))
	errs = multierr.Append(errs, err)

	if errs != nil {
		return nil, errs
	}

	return &m, nil
}

func noopMonitorMetrics() *monitorMetrics {
	m, _ := newMonitorMetrics(noop.NewMeterProvider().Meter(meterName))

	return m
}

func (m *monitorMetrics) event(action string) {
	m.events.Add(context.Background(), 1, metric.WithAttributes(attribute.String("action", action)))
}

func (m *monitorMetrics) track(delta int64) {
	if delta != 0 {
		m.tracked.Add(context.Background(), delta)
	}
}

func inc(c metric.Int64Counter) {
	c.Add(context.Background(), 1)
}
