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

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/blinklabs-io/ballot/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPositions = `
positions:
  - id: 1
    owner: "0xba00000000000000000000000000000000000010"
    power: 1000
`

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	positionsFile := filepath.Join(dir, "positions.yaml")
	require.NoError(t, os.WriteFile(positionsFile, []byte(testPositions), 0o600))
	configFile := filepath.Join(dir, "ballot.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte(`
databasePath: ""
positionsFile: "`+positionsFile+`"
epoch:
  startTime: 1700000000
council:
  members:
    - "0xba00000000000000000000000000000000000020"
  requiredApprovals: 1
`), 0o600))
	return configFile
}

func TestVersionCommand(t *testing.T) {
	out, err := executeCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, programName+" devel")
}

func TestEpochShowRejectsBadNumber(t *testing.T) {
	_, err := executeCommand(t, "epoch", "show", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid epoch")
}

func TestEpochShowCommand(t *testing.T) {
	out, err := executeCommand(
		t,
		"--config", writeTestConfig(t),
		"epoch", "show", "2",
	)
	require.NoError(t, err)
	var info api.EpochInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, uint64(2), info.Number)
	// Default cycle is one week
	assert.Equal(t, int64(1_700_000_000+2*7*24*3600), info.StartTime)
}

func TestProposalShowUnknown(t *testing.T) {
	_, err := executeCommand(
		t,
		"--config", writeTestConfig(t),
		"proposal", "show", "1",
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestProposalListEmpty(t *testing.T) {
	out, err := executeCommand(
		t,
		"--config", writeTestConfig(t),
		"proposal", "list",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "STATE")
}

func TestListCommand(t *testing.T) {
	out, err := executeCommand(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "DESCRIPTION")
	assert.Contains(t, out, "badger")
	assert.Contains(t, out, "sqlite")
	assert.Contains(t, out, "postgres")
}
