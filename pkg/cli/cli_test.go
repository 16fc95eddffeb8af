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

package cli

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/alsamon/pkg/models"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
		check   func(t *testing.T, cfg *CmdConfig)
	}{
		{
			name:    "no command",
			args:    nil,
			wantErr: errMissingCommand,
		},
		{
			name:    "unknown command",
			args:    []string{"play"},
			wantErr: errUnknownCommand,
		},
		{
			name: "help",
			args: []string{"-help"},
			check: func(t *testing.T, cfg *CmdConfig) {
				t.Helper()
				assert.True(t, cfg.Help)
			},
		},
		{
			name: "list defaults",
			args: []string{"list"},
			check: func(t *testing.T, cfg *CmdConfig) {
				t.Helper()
				assert.Equal(t, "list", cfg.SubCmd)
				assert.Equal(t, models.DefaultDevDir, cfg.DevDir)
				assert.Equal(t, models.DefaultSysDir, cfg.SysDir)
				assert.Equal(t, models.DefaultUdevDataDir, cfg.UdevDataDir)
				assert.Equal(t, models.DefaultMaxCards, cfg.MaxCards)
				assert.False(t, cfg.JSON)
			},
		},
		{
			name: "list options",
			args: []string{"list", "-json", "-use-acp", "-dev-dir", "/tmp/snd", "-max-cards", "8"},
			check: func(t *testing.T, cfg *CmdConfig) {
				t.Helper()
				assert.True(t, cfg.JSON)
				assert.True(t, cfg.UseACP)
				assert.Equal(t, "/tmp/snd", cfg.DevDir)
				assert.Equal(t, 8, cfg.MaxCards)
			},
		},
		{
			name: "watch debug",
			args: []string{"watch", "-debug", "-sys-dir", "/tmp/sys"},
			check: func(t *testing.T, cfg *CmdConfig) {
				t.Helper()
				assert.Equal(t, "watch", cfg.SubCmd)
				assert.True(t, cfg.Debug)
				assert.Equal(t, "/tmp/sys", cfg.SysDir)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := ParseFlags(tc.args)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)

				return
			}

			require.NoError(t, err)
			tc.check(t, cfg)
		})
	}
}

func TestParseFlagsRejectsBadFlag(t *testing.T) {
	_, err := ParseFlags([]string{"list", "-max-cards", "many"})
	require.Error(t, err)

	_, err = ParseFlags([]string{"watch", "-json"})
	require.Error(t, err)
}

func TestRunVersion(t *testing.T) {
	cfg, err := ParseFlags([]string{"version"})
	require.NoError(t, err)

	var out strings.Builder

	require.NoError(t, Run(context.Background(), cfg, &out))
	assert.Equal(t, "alsa-cli dev (build: dev)\n", out.String())
}

func TestRunUnknownCommand(t *testing.T) {
	err := Run(context.Background(), &CmdConfig{SubCmd: "record"}, io.Discard)
	require.ErrorIs(t, err, errUnknownCommand)
}
