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

package sqlite_test

import (
	"math"
	"testing"

	"github.com/blinklabs-io/ballot/database/models"
	"github.com/blinklabs-io/ballot/database/plugin/metadata/sqlite"
	"github.com/blinklabs-io/ballot/database/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.MetadataStoreSqlite {
	t.Helper()
	store, err := sqlite.New("", nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestProposalRoundTrip(t *testing.T) {
	store := newTestStore(t)
	proposer := common.HexToAddress("0x01")
	prop := &models.Proposal{
		Proposer:   proposer,
		Title:      "raise quorum",
		BodyHash:   common.HexToHash("0xbeef"),
		VoteStart:  100,
		VoteEnd:    200,
		TotalPower: types.Uint64(math.MaxUint64),
	}
	txn := store.Transaction()
	require.NoError(t, store.CreateProposal(prop, txn))
	require.NoError(t, txn.Commit())
	assert.NotZero(t, prop.ID)

	got, err := store.GetProposal(prop.ID, nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, proposer, got.Proposer)
	assert.Equal(t, common.HexToHash("0xbeef"), got.BodyHash)
	assert.Equal(t, types.Uint64(math.MaxUint64), got.TotalPower)

	missing, err := store.GetProposal(prop.ID+1, nil)
	require.NoError(t, err)
	assert.Nil(t, missing)

	list, err := store.GetProposals(0, 10, nil)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestProposalVoteUnique(t *testing.T) {
	store := newTestStore(t)
	vote := &models.ProposalVote{
		ProposalID: 1,
		PositionID: 7,
		Voter:      common.HexToAddress("0x02"),
		Choice:     1,
		Power:      500,
	}
	require.NoError(t, store.AddProposalVote(vote, nil))
	dup := *vote
	dup.ID = 0
	assert.Error(t, store.AddProposalVote(&dup, nil))

	got, err := store.GetProposalVote(1, 7, nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, types.Uint64(500), got.Power)
	votes, err := store.GetProposalVotes(1, nil)
	require.NoError(t, err)
	assert.Len(t, votes, 1)
}

func TestGaugeVotesReplace(t *testing.T) {
	store := newTestStore(t)
	for _, gaugeID := range []uint64{1, 2} {
		require.NoError(t, store.AddGaugeVote(&models.GaugeVote{
			PositionID:   3,
			Epoch:        5,
			GaugeID:      gaugeID,
			WeightBps:    5000,
			VotingPower:  100,
			Contribution: 50,
		}, nil))
	}
	votes, err := store.GetGaugeVotes(3, 5, nil)
	require.NoError(t, err)
	assert.Len(t, votes, 2)
	require.NoError(t, store.DeleteGaugeVotes(3, 5, nil))
	votes, err = store.GetGaugeVotes(3, 5, nil)
	require.NoError(t, err)
	assert.Empty(t, votes)
}

func TestGaugesActiveFilter(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.SetGauge(&models.Gauge{
		Name:   "a",
		Kind:   models.GaugeKindStandard,
		Active: true,
	}, nil))
	require.NoError(t, store.SetGauge(&models.Gauge{
		Name: "b",
		Kind: models.GaugeKindGrant,
	}, nil))
	all, err := store.GetGauges(false, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	active, err := store.GetGauges(true, nil)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "a", active[0].Name)
}

func TestEpochLatest(t *testing.T) {
	store := newTestStore(t)
	latest, err := store.GetEpochLatest(nil)
	require.NoError(t, err)
	assert.Nil(t, latest)
	for _, num := range []uint64{2, 1, 3} {
		require.NoError(t, store.SetEpoch(&models.Epoch{Number: num}, nil))
	}
	latest, err = store.GetEpochLatest(nil)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, uint64(3), latest.Number)
	epochs, err := store.GetEpochs(nil)
	require.NoError(t, err)
	require.Len(t, epochs, 3)
	assert.Equal(t, uint64(1), epochs[0].Number)
}

func TestGovernanceParamUpsert(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.SetGovernanceParam(&models.GovernanceParam{
		Name:  "quorum_bps",
		Value: 400,
	}, nil))
	require.NoError(t, store.SetGovernanceParam(&models.GovernanceParam{
		Name:  "quorum_bps",
		Value: 1000,
	}, nil))
	params, err := store.GetGovernanceParams(nil)
	require.NoError(t, err)
	require.Len(t, params, 1)
	assert.Equal(t, types.Uint64(1000), params[0].Value)
}

func TestRollbackDiscardsWrites(t *testing.T) {
	store := newTestStore(t)
	txn := store.Transaction()
	require.NoError(t, store.AddPayout(&models.Payout{
		Recipient: common.HexToAddress("0x09"),
		Amount:    10,
		Source:    "distribution",
	}, txn))
	require.NoError(t, txn.Rollback())
	payouts, err := store.GetPayouts(common.HexToAddress("0x09"), nil)
	require.NoError(t, err)
	assert.Empty(t, payouts)
	// A finished transaction cannot be reused
	assert.Error(t, store.AddPayout(&models.Payout{}, txn))
}

func TestCommitTimestamp(t *testing.T) {
	store := newTestStore(t)
	ts, err := store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Zero(t, ts)
	assert.ErrorIs(t, store.SetCommitTimestamp(5, nil), types.ErrNilTxn)
	txn := store.Transaction()
	require.NoError(t, store.SetCommitTimestamp(1234, txn))
	require.NoError(t, txn.Commit())
	ts, err = store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(1234), ts)
}
