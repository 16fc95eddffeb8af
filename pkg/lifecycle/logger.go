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

// Package lifecycle wires the process-wide logging and metrics pipelines for
// the binaries.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/multierr"

	"github.com/carverauto/alsamon/pkg/logger"
)

// CreateLogger creates a new logger instance with the provided configuration.
// This returns a logger that can be injected into services.
func CreateLogger(config *logger.Config) (logger.Logger, error) {
	log, err := logger.New(config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return log, nil
}

// CreateComponentLogger creates a logger for a specific component. When the
// config enables OTel, log lines are also shipped to the OTLP collector and
// the metrics exporter is started.
func CreateComponentLogger(ctx context.Context, component string, config *logger.Config) (logger.Logger, error) {
	var (
		otelWriter *logger.OTelWriter
		otelErr    error
		tee        []io.Writer
	)

	if config != nil && config.OTel != nil {
		logsConfig := *config.OTel
		if logsConfig.ServiceName == "" {
			logsConfig.ServiceName = component
		}

		otelWriter, otelErr = logger.NewOTelWriter(ctx, logsConfig)
		if otelErr != nil && !isOTelDisabled(otelErr) {
			return nil, otelErr
		}
	}

	if otelWriter != nil {
		tee = append(tee, otelWriter)
	}

	base, err := logger.New(config, tee...)
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("failed to initialize logger: %w", err), logger.ShutdownLogs(ctx))
	}

	log := logger.Component(base, component)

	if config == nil || config.OTel == nil {
		return log, nil
	}

	if otelWriter != nil {
		log.Info().Str("endpoint", config.OTel.Endpoint).Msg("OTel log export enabled")
	} else {
		log.Debug().Err(otelErr).Msg("OTel log export disabled")
	}

	_, err = logger.InitializeMetrics(ctx, logger.MetricsConfig{
		ServiceName: component,
		OTel:        config.OTel,
	})

	switch {
	case errors.Is(err, logger.ErrOTelMetricsDisabled):
		log.Debug().Msg("OTel metrics export disabled")
	case err != nil:
		return nil, multierr.Append(err, logger.ShutdownLogs(ctx))
	default:
		log.Info().Str("endpoint", config.OTel.Endpoint).Msg("OTel metrics export enabled")
	}

	return log, nil
}

func isOTelDisabled(err error) bool {
	return errors.Is(err, logger.ErrOTelLoggingDisabled) || errors.Is(err, logger.ErrOTelEndpointRequired)
}

// Shutdown runs the closers in order and then flushes the metrics and log
// pipelines, joining their errors.
func Shutdown(ctx context.Context, closers ...func(context.Context) error) error {
	var err error

	for _, c := range closers {
		if c != nil {
			err = multierr.Append(err, c(ctx))
		}
	}

	err = multierr.Append(err, logger.ShutdownMetrics(ctx))

	return multierr.Append(err, logger.ShutdownLogs(ctx))
}
