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

package badger_test

import (
	"testing"

	"github.com/blinklabs-io/ballot/database/plugin/blob/badger"
	"github.com/blinklabs-io/ballot/database/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlobStoreInMemory(t *testing.T) {
	store, err := badger.New(badger.WithPromRegistry(prometheus.NewRegistry()))
	require.NoError(t, err)
	defer store.Close()
	assert.Empty(t, store.DataDir())

	key := []byte("doc/proposal/abc")
	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, key, []byte("hello")))
	require.NoError(t, txn.Commit())

	txn = store.NewTransaction(false)
	val, err := store.Get(txn, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), val)
	require.NoError(t, txn.Rollback())

	txn = store.NewTransaction(true)
	require.NoError(t, store.Delete(txn, key))
	require.NoError(t, txn.Commit())

	txn = store.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	_, err = store.Get(txn, key)
	assert.ErrorIs(t, err, types.ErrBlobKeyNotFound)
}

func TestBlobStoreFinishedTxn(t *testing.T) {
	store, err := badger.New()
	require.NoError(t, err)
	defer store.Close()
	txn := store.NewTransaction(true)
	require.NoError(t, txn.Rollback())
	assert.Error(t, store.Set(txn, []byte("k"), []byte("v")))
	assert.ErrorIs(t, store.Set(nil, []byte("k"), []byte("v")), types.ErrNilTxn)
}

func TestBlobStoreCommitTimestamp(t *testing.T) {
	store, err := badger.New(
		badger.WithSettings(badger.Settings{DataDir: t.TempDir()}),
	)
	require.NoError(t, err)
	defer store.Close()
	_, err = store.GetCommitTimestamp()
	assert.ErrorIs(t, err, types.ErrBlobKeyNotFound)
	txn := store.NewTransaction(true)
	require.NoError(t, store.SetCommitTimestamp(1700000000123, txn))
	require.NoError(t, txn.Commit())
	ts, err := store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000123), ts)
}
