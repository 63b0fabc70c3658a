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

package gauge_test

import (
	"context"
	"testing"
	"time"

	"github.com/blinklabs-io/ballot/database/models"
	"github.com/blinklabs-io/ballot/event"
	"github.com/blinklabs-io/ballot/internal/test/testutil"
	lcommon "github.com/blinklabs-io/ballot/ledger/common"
	"github.com/blinklabs-io/ballot/ledger/epoch"
	"github.com/blinklabs-io/ballot/ledger/gauge"
	"github.com/blinklabs-io/ballot/ledger/treasury"
	"github.com/blinklabs-io/ballot/power"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const day = 24 * time.Hour

var (
	testStart   = time.Unix(1_700_000_000, 0)
	admin       = testutil.Address(1)
	distributor = testutil.Address(2)
	voter       = testutil.Address(3)
	targetA     = testutil.Address(10)
	targetB     = testutil.Address(11)
)

type fixture struct {
	allocator *gauge.Allocator
	epochs    *epoch.Scheduler
	treasury  *treasury.Treasury
	power     *power.MemorySource
	bus       *event.EventBus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	bus := event.NewEventBus(nil, nil)
	t.Cleanup(bus.Stop)
	exec := lcommon.NewExecutor(testutil.NewDatabase(t), lcommon.WithEventBus(bus))
	epochs, err := epoch.NewScheduler(epoch.SchedulerConfig{
		Executor: exec,
		Schedule: epoch.Schedule{
			StartTime:          testStart,
			CycleLength:        7 * day,
			VotingWindow:       5 * day,
			DistributionWindow: day,
		},
	})
	require.NoError(t, err)
	tr, err := treasury.New(treasury.TreasuryConfig{Executor: exec})
	require.NoError(t, err)
	src := power.NewMemorySource(
		power.Position{ID: 1, Owner: voter, Power: 100},
		power.Position{ID: 2, Owner: voter, Power: 0},
	)
	allocator, err := gauge.NewAllocator(gauge.AllocatorConfig{
		Executor: exec,
		Epochs:   epochs,
		Power:    src,
		Releaser: tr,
		Roles: lcommon.Roles{
			Admins:       []common.Address{admin},
			Distributors: []common.Address{distributor},
		},
	})
	require.NoError(t, err)
	return &fixture{
		allocator: allocator,
		epochs:    epochs,
		treasury:  tr,
		power:     src,
		bus:       bus,
	}
}

// votingTime returns a time inside the voting window of an epoch
func votingTime(epochNum uint64) time.Time {
	return testStart.Add(time.Duration(epochNum)*7*day + time.Hour)
}

// distributionTime returns a time inside the distribution window of an epoch
func distributionTime(epochNum uint64) time.Time {
	return testStart.Add(time.Duration(epochNum)*7*day + 5*day + time.Hour)
}

func (f *fixture) addGauges(t *testing.T) (uint64, uint64) {
	t.Helper()
	ctx := context.Background()
	call := lcommon.NewCall(admin, testStart)
	a, err := f.allocator.AddGauge(ctx, call, targetA, "A", "infra", "")
	require.NoError(t, err)
	b, err := f.allocator.AddGauge(ctx, call, targetB, "B", "research", models.GaugeKindStandard)
	require.NoError(t, err)
	return a, b
}

func TestAddGaugeRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.allocator.AddGauge(ctx, lcommon.NewCall(voter, testStart), targetA, "A", "", "")
	require.ErrorIs(t, err, lcommon.ErrAuthorization)
	_, err = f.allocator.AddGauge(ctx, lcommon.NewCall(admin, testStart), common.Address{}, "A", "", "")
	require.ErrorIs(t, err, lcommon.ErrInvalidArgument)
	_, err = f.allocator.AddGauge(ctx, lcommon.NewCall(admin, testStart), targetA, "A", "", "bogus")
	require.ErrorIs(t, err, lcommon.ErrInvalidArgument)
	gauges, err := f.allocator.Gauges(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, gauges)
}

func TestRevoteClearsPriorContribution(t *testing.T) {
	f := newFixture(t)
	a, b := f.addGauges(t)
	ctx := context.Background()
	call := lcommon.NewCall(voter, votingTime(3))

	require.NoError(t, f.allocator.Vote(ctx, call, 1, []uint64{a, b}, []uint32{6000, 4000}))
	weightA, err := f.allocator.Weight(ctx, a, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(60), uint64(weightA.TotalVotingPower))
	weightB, err := f.allocator.Weight(ctx, b, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(40), uint64(weightB.TotalVotingPower))

	require.NoError(t, f.allocator.Vote(ctx, call, 1, []uint64{a, b}, []uint32{10000, 0}))
	weightA, err = f.allocator.Weight(ctx, a, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), uint64(weightA.TotalVotingPower))
	weightB, err = f.allocator.Weight(ctx, b, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), uint64(weightB.TotalVotingPower))

	rec, err := f.epochs.Get(ctx, 3)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, uint64(100), uint64(rec.TotalVotingPower))

	votes, err := f.allocator.Votes(ctx, 1, 3)
	require.NoError(t, err)
	require.Len(t, votes, 1)
	assert.Equal(t, a, votes[0].GaugeID)
}

func TestVoteValidation(t *testing.T) {
	f := newFixture(t)
	a, b := f.addGauges(t)
	ctx := context.Background()
	call := lcommon.NewCall(voter, votingTime(0))

	err := f.allocator.Vote(ctx, call, 1, []uint64{a, b}, []uint32{6000, 3999})
	require.ErrorIs(t, err, lcommon.ErrThreshold)
	err = f.allocator.Vote(ctx, call, 1, []uint64{a, a}, []uint32{5000, 5000})
	require.ErrorIs(t, err, lcommon.ErrInvalidArgument)
	err = f.allocator.Vote(ctx, call, 1, []uint64{a}, []uint32{5000, 5000})
	require.ErrorIs(t, err, lcommon.ErrInvalidArgument)
	err = f.allocator.Vote(ctx, lcommon.NewCall(targetA, votingTime(0)), 1, []uint64{a}, []uint32{10000})
	require.ErrorIs(t, err, lcommon.ErrAuthorization)
	err = f.allocator.Vote(ctx, call, 2, []uint64{a}, []uint32{10000})
	require.ErrorIs(t, err, lcommon.ErrInsufficientPower)
	err = f.allocator.Vote(ctx, call, 1, []uint64{99}, []uint32{10000})
	require.ErrorIs(t, err, lcommon.ErrNotFound)
	err = f.allocator.Vote(ctx, lcommon.NewCall(voter, distributionTime(0)), 1, []uint64{a}, []uint32{10000})
	require.ErrorIs(t, err, lcommon.ErrInvalidState)

	require.NoError(t, f.allocator.DeactivateGauge(ctx, lcommon.NewCall(admin, testStart), b))
	err = f.allocator.Vote(ctx, call, 1, []uint64{a, b}, []uint32{5000, 5000})
	require.ErrorIs(t, err, lcommon.ErrInvalidState)
	err = f.allocator.DeactivateGauge(ctx, lcommon.NewCall(admin, testStart), b)
	require.ErrorIs(t, err, lcommon.ErrInvalidState)
	require.NoError(t, f.allocator.ActivateGauge(ctx, lcommon.NewCall(admin, testStart), b))
	require.NoError(t, f.allocator.Vote(ctx, call, 1, []uint64{a, b}, []uint32{5000, 5000}))

	rec, err := f.epochs.Get(ctx, 0)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, uint64(100), uint64(rec.TotalVotingPower))
}

func TestFinalizeDistributeAndClaim(t *testing.T) {
	f := newFixture(t)
	a, b := f.addGauges(t)
	ctx := context.Background()
	f.power.SetPosition(power.Position{ID: 3, Owner: voter, Power: 300})
	require.NoError(t, f.allocator.Vote(ctx, lcommon.NewCall(voter, votingTime(1)), 1, []uint64{a}, []uint32{10000}))
	require.NoError(t, f.allocator.Vote(ctx, lcommon.NewCall(voter, votingTime(1)), 3, []uint64{a, b}, []uint32{5000, 5000}))

	// Weights can only be finalized once the voting window closes
	err := f.allocator.FinalizeEpochWeights(ctx, lcommon.NewCall(voter, votingTime(1)), 1)
	require.ErrorIs(t, err, lcommon.ErrInvalidState)
	// Distribution needs final weights
	err = f.allocator.Distribute(ctx, lcommon.NewCall(distributor, distributionTime(1)), 1, 1000)
	require.ErrorIs(t, err, lcommon.ErrInvalidState)

	_, ch := f.bus.Subscribe(event.GaugeWeightsFinalizedEventType)
	require.NoError(t, f.allocator.FinalizeEpochWeights(ctx, lcommon.NewCall(voter, distributionTime(1)), 1))
	err = f.allocator.FinalizeEpochWeights(ctx, lcommon.NewCall(voter, distributionTime(1)), 1)
	require.ErrorIs(t, err, lcommon.ErrDuplicate)
	evt := testutil.RequireReceive(t, ch, time.Second, "weights finalized")
	finalized := evt.Data.(event.GaugeWeightsFinalizedEvent)
	assert.Equal(t, uint64(400), finalized.TotalVotingPower)
	assert.Equal(t, uint32(6250), finalized.WeightsBps[a])
	assert.Equal(t, uint32(3750), finalized.WeightsBps[b])

	err = f.allocator.Distribute(ctx, lcommon.NewCall(voter, distributionTime(1)), 1, 1000)
	require.ErrorIs(t, err, lcommon.ErrAuthorization)
	require.NoError(t, f.allocator.Distribute(ctx, lcommon.NewCall(distributor, distributionTime(1)), 1, 1000))
	err = f.allocator.Distribute(ctx, lcommon.NewCall(distributor, distributionTime(1)), 1, 1000)
	require.ErrorIs(t, err, lcommon.ErrDuplicate)

	gaugeA, err := f.allocator.Gauge(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, uint64(625), uint64(gaugeA.Balance))
	rec, err := f.epochs.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), uint64(rec.TotalDistributed))

	_, err = f.allocator.ClaimDistribution(ctx, lcommon.NewCall(targetB, distributionTime(1)), a, 1)
	require.ErrorIs(t, err, lcommon.ErrAuthorization)
	amount, err := f.allocator.ClaimDistribution(ctx, lcommon.NewCall(targetA, distributionTime(1)), a, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(625), amount)
	_, err = f.allocator.ClaimDistribution(ctx, lcommon.NewCall(targetA, distributionTime(1)), a, 1)
	require.ErrorIs(t, err, lcommon.ErrDuplicate)

	gaugeA, err = f.allocator.Gauge(ctx, a)
	require.NoError(t, err)
	assert.Zero(t, uint64(gaugeA.Balance))
	payouts, err := f.treasury.Payouts(ctx, targetA)
	require.NoError(t, err)
	require.Len(t, payouts, 1)
	assert.Equal(t, uint64(625), uint64(payouts[0].Amount))
	dists, err := f.allocator.Distributions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, dists, 2)
}

func TestFinalizeWithoutVotes(t *testing.T) {
	f := newFixture(t)
	f.addGauges(t)
	ctx := context.Background()
	require.NoError(t, f.allocator.FinalizeEpochWeights(ctx, lcommon.NewCall(voter, distributionTime(2)), 2))
	weights, err := f.allocator.Weights(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, weights)
}

func TestFinalizeFutureEpochRejected(t *testing.T) {
	f := newFixture(t)
	f.addGauges(t)
	ctx := context.Background()
	now := votingTime(0)
	for _, epochNum := range []uint64{1, 15251, ^uint64(0)} {
		err := f.allocator.FinalizeEpochWeights(ctx, lcommon.NewCall(voter, now), epochNum)
		require.ErrorIs(t, err, lcommon.ErrInvalidState, "epoch %d", epochNum)
	}
	epochs, err := f.epochs.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, epochs)

	// The scheduler still advances normally afterwards
	current, advanced, err := f.epochs.Advance(ctx, lcommon.NewCall(voter, votingTime(1)))
	require.NoError(t, err)
	assert.True(t, advanced)
	assert.Equal(t, uint64(1), current)
}
