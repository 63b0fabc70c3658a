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

package mysql

import (
	"testing"

	"github.com/blinklabs-io/ballot/database/plugin"
	"github.com/blinklabs-io/ballot/database/plugin/metadata/internal/gormstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabaseFromDSN(t *testing.T) {
	name, ok := databaseFromDSN("u:p@tcp(db:3306)/gov?parseTime=true")
	assert.True(t, ok)
	assert.Equal(t, "gov", name)
	_, ok = databaseFromDSN("u:p@tcp(db:3306)/")
	assert.False(t, ok)
	_, ok = databaseFromDSN("garbage")
	assert.False(t, ok)
}

func TestServerDSN(t *testing.T) {
	dsn, ok := serverDSN("u:p@tcp(db:3306)/gov?parseTime=true")
	assert.True(t, ok)
	assert.Equal(t, "u:p@tcp(db:3306)/?parseTime=true", dsn)
	_, ok = serverDSN("garbage")
	assert.False(t, ok)
}

func TestDSNFromServer(t *testing.T) {
	store, err := NewWithOptions(
		WithServer(gormstore.Server{
			Host:     "db.internal",
			User:     "gov",
			Password: "secret",
		}),
	)
	require.NoError(t, err)
	dsn, name := store.DSN()
	assert.Equal(t, "ballot", name)
	assert.Contains(t, dsn, "gov:secret@tcp(db.internal:3306)/ballot")
	assert.Contains(t, dsn, "parseTime=true")
}

func TestDSNOverride(t *testing.T) {
	store, err := NewWithOptions(
		WithServer(gormstore.Server{DSN: "u:p@tcp(other:3306)/custom"}),
	)
	require.NoError(t, err)
	dsn, name := store.DSN()
	assert.Equal(t, "u:p@tcp(other:3306)/custom", dsn)
	assert.Equal(t, "custom", name)
	assert.NoError(t, store.Close())
}

func TestCmdlineOptionsReachStore(t *testing.T) {
	require.NoError(
		t,
		plugin.SetPluginOption(
			plugin.PluginTypeMetadata,
			"mysql",
			"host",
			"votes.db",
		),
	)
	require.NoError(
		t,
		plugin.SetPluginOption(plugin.PluginTypeMetadata, "mysql", "port", 3307),
	)
	t.Cleanup(func() {
		_ = plugin.SetPluginOption(
			plugin.PluginTypeMetadata,
			"mysql",
			"host",
			defaultServer.Host,
		)
		_ = plugin.SetPluginOption(
			plugin.PluginTypeMetadata,
			"mysql",
			"port",
			int(defaultServer.Port),
		)
	})
	store, ok := NewFromCmdlineOptions().(*MetadataStoreMysql)
	require.True(t, ok)
	dsn, _ := store.DSN()
	assert.Contains(t, dsn, "@tcp(votes.db:3307)/ballot")
}
