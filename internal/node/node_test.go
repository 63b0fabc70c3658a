// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package node

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/blinklabs-io/ballot/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPositions = `
total: 5000
positions:
  - id: 1
    owner: "0xba00000000000000000000000000000000000010"
    power: 1000
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	positionsFile := filepath.Join(t.TempDir(), "positions.yaml")
	require.NoError(t, os.WriteFile(positionsFile, []byte(testPositions), 0o600))
	return &config.Config{
		PositionsFile:   positionsFile,
		ShutdownTimeout: "5s",
		AdvanceInterval: "0s",
		Epoch: config.EpochConfig{
			StartTime:          1_700_000_000,
			CycleLength:        7 * 24 * time.Hour,
			VotingWindow:       5 * 24 * time.Hour,
			DistributionWindow: 24 * time.Hour,
		},
		Proposal: config.ProposalConfig{
			Threshold:     100,
			QuorumBps:     400,
			VotingDelay:   time.Hour,
			VotingPeriod:  72 * time.Hour,
			TimelockDelay: 24 * time.Hour,
		},
		Council: config.CouncilConfig{
			Members: []string{
				"0xba00000000000000000000000000000000000020",
				"0xba00000000000000000000000000000000000021",
			},
			RequiredApprovals: 2,
			VetoWindow:        48 * time.Hour,
			SpeedupWindow:     24 * time.Hour,
		},
		Roles: config.RolesConfig{
			Admins: []string{"0xba00000000000000000000000000000000000001"},
		},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestNodeOptionsErrors(t *testing.T) {
	testDefs := []struct {
		name   string
		modify func(*config.Config)
	}{
		{
			name:   "no positions file",
			modify: func(c *config.Config) { c.PositionsFile = "" },
		},
		{
			name: "missing positions file",
			modify: func(c *config.Config) {
				c.PositionsFile = filepath.Join(t.TempDir(), "missing.yaml")
			},
		},
		{
			name:   "bad council member",
			modify: func(c *config.Config) { c.Council.Members = []string{"not-an-address"} },
		},
		{
			name:   "bad admin",
			modify: func(c *config.Config) { c.Roles.Admins = []string{"0x1234"} },
		},
		{
			name:   "bad advance interval",
			modify: func(c *config.Config) { c.AdvanceInterval = "often" },
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			cfg := testConfig(t)
			testDef.modify(cfg)
			_, err := nodeOptions(cfg, discardLogger(), nil)
			require.Error(t, err)
		})
	}
}

func TestOpenLoadsLedger(t *testing.T) {
	n, err := Open(testConfig(t), discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, n.Stop())
	})
	ls := n.LedgerState()
	require.NotNil(t, ls)
	assert.Equal(t, uint32(2), ls.Council().RequiredApprovals())
	assert.Len(t, ls.Council().Members(), 2)

	now := time.Unix(1_700_000_000, 0).Add(8 * 24 * time.Hour)
	epochNum, advanced, err := ls.Advance(context.Background(), now)
	require.NoError(t, err)
	assert.True(t, advanced)
	assert.Equal(t, uint64(1), epochNum)
}

func TestOpenRejectsInvalidCouncil(t *testing.T) {
	cfg := testConfig(t)
	cfg.Council.RequiredApprovals = 3
	_, err := Open(cfg, discardLogger())
	require.Error(t, err)
}
