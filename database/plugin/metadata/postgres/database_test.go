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

package postgres_test

import (
	"testing"

	"github.com/blinklabs-io/ballot/database/plugin/metadata/internal/gormstore"
	"github.com/blinklabs-io/ballot/database/plugin/metadata/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSNFromServer(t *testing.T) {
	store, err := postgres.NewWithOptions(
		postgres.WithServer(gormstore.Server{
			Host:     "db.internal",
			Port:     6543,
			User:     "gov",
			Password: "secret",
		}),
	)
	require.NoError(t, err)
	assert.Equal(
		t,
		"host=db.internal user=gov password=secret dbname=ballot port=6543 sslmode=disable TimeZone=UTC",
		store.DSN(),
	)
}

func TestDSNOverride(t *testing.T) {
	store, err := postgres.NewWithOptions(
		postgres.WithServer(gormstore.Server{
			Host: "ignored",
			DSN:  "  postgres://u:p@localhost/gov  ",
		}),
	)
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@localhost/gov", store.DSN())
}

func TestCloseBeforeStart(t *testing.T) {
	store, err := postgres.NewWithOptions()
	require.NoError(t, err)
	assert.NoError(t, store.Close())
	assert.Error(t, store.Ping())
}
