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

// Package cli implements alsa-cli, a terminal view of the sound cards the
// hotplug monitor announces.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/carverauto/alsamon/pkg/alsa"
	"github.com/carverauto/alsamon/pkg/hotplug"
	"github.com/carverauto/alsamon/pkg/lifecycle"
	"github.com/carverauto/alsamon/pkg/logger"
	"github.com/carverauto/alsamon/pkg/models"
	"github.com/carverauto/alsamon/pkg/udev"
	"github.com/carverauto/alsamon/pkg/version"
)

// Dracula theme colors.
const (
	draculaForeground = "#F8F8F2"
	draculaCyan       = "#8BE9FD"
	draculaGreen      = "#50FA7B"
	draculaOrange     = "#FFB86C"
	draculaPink       = "#FF79C6"
	draculaPurple     = "#BD93F9"
	draculaRed        = "#FF5555"
	draculaYellow     = "#F1FA8C"
	draculaComment    = "#6272A4"
)

const boxPadding = 1

// Styling with lipgloss.
func newStyles() styles {
	return styles{
		title: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaPink)).
			Bold(true),
		header: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaPurple)).
			Bold(true),
		label: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaYellow)),
		value: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaForeground)),
		muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaComment)),
		sink: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaGreen)),
		source: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaOrange)),
		error: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaRed)).
			Bold(true),
		box: lipgloss.NewStyle().
			Padding(0, boxPadding).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(draculaCyan)),
		help: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaComment)),
	}
}

func newLogStyles() logStyles {
	return logStyles{
		info:    lipgloss.NewStyle().Foreground(lipgloss.Color(draculaCyan)),
		success: lipgloss.NewStyle().Foreground(lipgloss.Color(draculaGreen)),
		warning: lipgloss.NewStyle().Foreground(lipgloss.Color(draculaOrange)),
		error:   lipgloss.NewStyle().Foreground(lipgloss.Color(draculaRed)).Bold(true),
	}
}

// SubcommandHandler defines the interface for parsing subcommand flags.
type SubcommandHandler interface {
	Parse(args []string, cfg *CmdConfig) error
}

// ListHandler handles flags for the list subcommand.
type ListHandler struct{}

// Parse processes the command-line arguments for the list subcommand.
func (ListHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := newFlagSet("list", cfg)
	jsonOut := fs.Bool("json", false, "print JSON instead of a table")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing list flags: %w", err)
	}

	cfg.JSON = *jsonOut
	cfg.Args = fs.Args()

	return nil
}

// WatchHandler handles flags for the watch subcommand.
type WatchHandler struct{}

// Parse processes the command-line arguments for the watch subcommand.
func (WatchHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := newFlagSet("watch", cfg)

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing watch flags: %w", err)
	}

	cfg.Args = fs.Args()

	return nil
}

// newFlagSet declares the flags shared by every subcommand.
func newFlagSet(name string, cfg *CmdConfig) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&cfg.DevDir, "dev-dir", models.DefaultDevDir, "directory of the card device nodes")
	fs.StringVar(&cfg.SysDir, "sys-dir", models.DefaultSysDir, "sysfs mount point")
	fs.StringVar(&cfg.UdevDataDir, "udev-data-dir", models.DefaultUdevDataDir, "udev database directory")
	fs.IntVar(&cfg.MaxCards, "max-cards", models.DefaultMaxCards, "number of cards to track")
	fs.BoolVar(&cfg.UseACP, "use-acp", false, "announce cards with the profile-aware factory")
	fs.BoolVar(&cfg.Debug, "debug", false, "log monitor activity to stderr")

	return fs
}

func subcommands() map[string]SubcommandHandler {
	return map[string]SubcommandHandler{
		"list":    ListHandler{},
		"watch":   WatchHandler{},
		"params":  ParamsHandler{name: "params", minArgs: 1},
		"profile": ParamsHandler{name: "profile", minArgs: 2},
	}
}

// ParseFlags parses args (without the program name).
func ParseFlags(args []string) (*CmdConfig, error) {
	cfg := &CmdConfig{}

	if len(args) == 0 {
		return cfg, errMissingCommand
	}

	switch args[0] {
	case "-h", "-help", "--help", "help":
		cfg.Help = true

		return cfg, nil
	case "-version", "--version", "version":
		cfg.SubCmd = "version"

		return cfg, nil
	}

	cfg.SubCmd = args[0]

	handler, ok := subcommands()[cfg.SubCmd]
	if !ok {
		return cfg, fmt.Errorf("%w: %s", errUnknownCommand, cfg.SubCmd)
	}

	if err := handler.Parse(args[1:], cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Run executes the parsed subcommand.
func Run(ctx context.Context, cfg *CmdConfig, out io.Writer) error {
	switch cfg.SubCmd {
	case "list":
		return RunList(ctx, cfg, out)
	case "watch":
		return RunWatch(ctx, cfg)
	case "params":
		return RunParams(ctx, cfg, out)
	case "profile":
		return RunProfile(ctx, cfg, out)
	case "version":
		_, err := fmt.Fprintf(out, "alsa-cli %s\n", version.GetFullVersion())

		return err
	default:
		return fmt.Errorf("%w: %s", errUnknownCommand, cfg.SubCmd)
	}
}

// newLogger logs to stderr in debug mode and nowhere otherwise.
func newLogger(cfg *CmdConfig) logger.Logger {
	if !cfg.Debug {
		return logger.NewTestLogger()
	}

	log, err := lifecycle.CreateLogger(&logger.Config{Debug: true, Output: "console"})
	if err != nil {
		return logger.NewTestLogger()
	}

	return log
}

func monitorOptions(cfg *CmdConfig, log logger.Logger, controls alsa.Opener) []hotplug.Option {
	return []hotplug.Option{
		hotplug.WithDevDir(cfg.DevDir),
		hotplug.WithCapacity(cfg.MaxCards),
		hotplug.WithUseACP(cfg.UseACP),
		hotplug.WithControlOpener(controls),
		hotplug.WithBusOpener(hotplug.UdevBusOpener(logger.Component(log, "udev"),
			udev.WithSysDir(cfg.SysDir),
			udev.WithDataDir(cfg.UdevDataDir),
		)),
	}
}

// logf prints a styled status line to stderr.
func logf(style lipgloss.Style, format string, args ...interface{}) {
	fmt.Fprintln(os.Stderr, style.Render(fmt.Sprintf(format, args...)))
}
