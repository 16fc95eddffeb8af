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

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"

	"github.com/carverauto/alsamon/pkg/agent"
	"github.com/carverauto/alsamon/pkg/config"
	"github.com/carverauto/alsamon/pkg/lifecycle"
	"github.com/carverauto/alsamon/pkg/models"
	"github.com/carverauto/alsamon/pkg/version"
)

const (
	schemaURL       = "https://carverauto.dev/schemas/alsa-monitor.json"
	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "/etc/alsamon/alsa-monitor.json", "Path to monitor config file")
	showVersion := flag.Bool("version", false, "Print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("alsa-monitor", version.GetFullVersion())

		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfgLoader := config.NewConfig(nil)
	if err := cfgLoader.SetSchema(schemaURL, models.MonitorConfigSchema); err != nil {
		return fmt.Errorf("failed to load config schema: %w", err)
	}

	var cfg models.MonitorConfig
	if err := cfgLoader.LoadAndValidate(ctx, *configPath, &cfg); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	monitorLogger, err := lifecycle.CreateComponentLogger(ctx, "alsa-monitor", cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	server, err := agent.NewServer(&cfg, monitorLogger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	if err := server.Start(ctx); err != nil {
		return multierr.Append(err, lifecycle.Shutdown(context.Background()))
	}

	<-ctx.Done()

	monitorLogger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return lifecycle.Shutdown(shutdownCtx, server.Stop)
}
