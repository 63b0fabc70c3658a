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

package plugin_test

import (
	"testing"

	"github.com/blinklabs-io/ballot/database/plugin"
	_ "github.com/blinklabs-io/ballot/database/plugin/blob/badger"
	_ "github.com/blinklabs-io/ballot/database/plugin/metadata/postgres"
	_ "github.com/blinklabs-io/ballot/database/plugin/metadata/sqlite"
	"github.com/blinklabs-io/ballot/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests mutate the global plugin option state and must not run in
// parallel

func TestSetPluginOption(t *testing.T) {
	require.NoError(
		t,
		plugin.SetPluginOption(
			plugin.PluginTypeMetadata,
			config.DefaultMetadataPlugin,
			"data-dir",
			"",
		),
	)
	assert.Error(
		t,
		plugin.SetPluginOption(
			plugin.PluginTypeMetadata,
			config.DefaultMetadataPlugin,
			"data-dir",
			123,
		),
		"expected a type error for an int data-dir",
	)
	// Unknown options are ignored
	assert.NoError(
		t,
		plugin.SetPluginOption(
			plugin.PluginTypeMetadata,
			config.DefaultMetadataPlugin,
			"does-not-exist",
			"x",
		),
	)
	require.NoError(
		t,
		plugin.SetPluginOption(
			plugin.PluginTypeBlob,
			config.DefaultBlobPlugin,
			"data-dir",
			t.TempDir(),
		),
	)
	assert.NoError(
		t,
		plugin.SetPluginOption(
			plugin.PluginTypeBlob,
			config.DefaultBlobPlugin,
			"block-cache-size",
			uint64(100000000),
		),
	)
	assert.NoError(
		t,
		plugin.SetPluginOption(
			plugin.PluginTypeBlob,
			config.DefaultBlobPlugin,
			"block-cache-size",
			1000,
		),
	)
	assert.Error(
		t,
		plugin.SetPluginOption(
			plugin.PluginTypeBlob,
			config.DefaultBlobPlugin,
			"block-cache-size",
			-1,
		),
	)
	assert.NoError(
		t,
		plugin.SetPluginOption(
			plugin.PluginTypeBlob,
			config.DefaultBlobPlugin,
			"gc",
			true,
		),
	)
	assert.Error(
		t,
		plugin.SetPluginOption(
			plugin.PluginTypeMetadata,
			"nonexistent",
			"data-dir",
			t.TempDir(),
		),
	)
	// Restore in-memory defaults for other tests in this package
	require.NoError(
		t,
		plugin.SetPluginOption(
			plugin.PluginTypeBlob,
			config.DefaultBlobPlugin,
			"data-dir",
			"",
		),
	)
}

func TestProcessConfig(t *testing.T) {
	err := plugin.ProcessConfig(map[string]map[string]map[string]any{
		"metadata": {
			"postgres": {
				"host": "db.example.com",
				"port": 6543,
			},
		},
	})
	require.NoError(t, err)
	err = plugin.ProcessConfig(map[string]map[string]map[string]any{
		"metadata": {
			"postgres": {
				"port": "not-a-number",
			},
		},
	})
	assert.Error(t, err)
	require.NoError(
		t,
		plugin.SetPluginOption(
			plugin.PluginTypeMetadata,
			"postgres",
			"host",
			"localhost",
		),
	)
}

func TestProcessEnvVars(t *testing.T) {
	t.Setenv("BALLOT_DATABASE_BLOB_BADGER_GC", "false")
	require.NoError(t, plugin.ProcessEnvVars())
	t.Setenv("BALLOT_DATABASE_BLOB_BADGER_GC", "maybe")
	assert.Error(t, plugin.ProcessEnvVars())
	t.Setenv("BALLOT_DATABASE_BLOB_BADGER_GC", "true")
	require.NoError(t, plugin.ProcessEnvVars())
}
