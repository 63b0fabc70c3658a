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

package proposal_test

import (
	"context"
	"testing"
	"time"

	"github.com/blinklabs-io/ballot/event"
	"github.com/blinklabs-io/ballot/internal/test/testutil"
	lcommon "github.com/blinklabs-io/ballot/ledger/common"
	"github.com/blinklabs-io/ballot/ledger/council"
	"github.com/blinklabs-io/ballot/ledger/proposal"
	"github.com/blinklabs-io/ballot/power"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testNow  = time.Unix(1_700_000_000, 0)
	admin    = testutil.Address(1)
	executor = testutil.Address(2)
	alice    = testutil.Address(10)
	bob      = testutil.Address(11)
	carol    = testutil.Address(12)
	dave     = testutil.Address(13)
	eve      = testutil.Address(14)
	members  = []common.Address{
		testutil.Address(20),
		testutil.Address(21),
		testutil.Address(22),
	}
	testParams = proposal.Params{
		Threshold:     1_000,
		QuorumBps:     1_000,
		VotingDelay:   time.Hour,
		VotingPeriod:  72 * time.Hour,
		TimelockDelay: 48 * time.Hour,
	}
)

type fixture struct {
	exec    *lcommon.Executor
	bus     *event.EventBus
	power   *power.MemorySource
	council *council.Council
	engine  *proposal.Engine
	roles   lcommon.Roles
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	bus := event.NewEventBus(nil, nil)
	t.Cleanup(bus.Stop)
	exec := lcommon.NewExecutor(testutil.NewDatabase(t), lcommon.WithEventBus(bus))
	src := power.NewMemorySource(
		power.Position{ID: 1, Owner: alice, Power: 90_000},
		power.Position{ID: 2, Owner: bob, Power: 5_000},
		power.Position{ID: 3, Owner: carol, Power: 60_000},
		power.Position{ID: 4, Owner: carol, Power: 10_000},
		power.Position{ID: 5, Owner: dave, Power: 500},
		power.Position{ID: 6, Owner: bob, Power: 0},
		power.Position{ID: 7, Owner: eve, Power: 90_000},
	)
	src.SetTotal(1_000_000)
	roles := lcommon.Roles{
		Admins:    []common.Address{admin},
		Executors: []common.Address{executor},
	}
	f := &fixture{exec: exec, bus: bus, power: src, roles: roles}
	c, err := council.New(council.CouncilConfig{
		Executor:          exec,
		Members:           members,
		RequiredApprovals: 2,
		VetoWindow:        48 * time.Hour,
		SpeedupWindow:     24 * time.Hour,
		Roles:             roles,
		State: func(op *lcommon.Op, id uint64, now time.Time) (lcommon.ProposalState, error) {
			return f.engine.StateTxn(op, id, now)
		},
	})
	require.NoError(t, err)
	f.council = c
	f.engine = f.newEngine(t)
	return f
}

func (f *fixture) newEngine(t *testing.T) *proposal.Engine {
	t.Helper()
	e, err := proposal.NewEngine(proposal.EngineConfig{
		Executor:  f.exec,
		Power:     f.power,
		Oversight: f.council,
		Roles:     f.roles,
		Params:    testParams,
	})
	require.NoError(t, err)
	return e
}

func call(caller common.Address, offset time.Duration) lcommon.Call {
	return lcommon.NewCall(caller, testNow.Add(offset))
}

func (f *fixture) propose(t *testing.T) uint64 {
	t.Helper()
	id, err := f.engine.Propose(
		context.Background(),
		call(alice, 0),
		"Fund the audit",
		"Pay for a third-party audit of the treasury module",
		common.HexToHash("0x01"),
	)
	require.NoError(t, err)
	return id
}

func (f *fixture) requireState(
	t *testing.T,
	id uint64,
	offset time.Duration,
	expected lcommon.ProposalState,
) {
	t.Helper()
	state, err := f.engine.State(context.Background(), id, testNow.Add(offset))
	require.NoError(t, err)
	assert.Equal(t, expected, state, "state at %s", offset)
}

// passProposal creates a proposal that succeeds once voting ends at +73h
func (f *fixture) passProposal(t *testing.T) uint64 {
	t.Helper()
	ctx := context.Background()
	id := f.propose(t)
	_, err := f.engine.CastVote(ctx, call(alice, 2*time.Hour), id, 1, proposal.ChoiceFor)
	require.NoError(t, err)
	_, err = f.engine.CastVote(ctx, call(carol, 2*time.Hour), id, 3, proposal.ChoiceFor)
	require.NoError(t, err)
	_, err = f.engine.CastVote(ctx, call(carol, 2*time.Hour), id, 4, proposal.ChoiceAgainst)
	require.NoError(t, err)
	return id
}

func TestProposeRequiresThreshold(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, createdCh := f.bus.Subscribe(event.ProposalCreatedEventType)

	_, err := f.engine.Propose(ctx, call(dave, 0), "Too small", "", common.Hash{})
	require.ErrorIs(t, err, lcommon.ErrInsufficientPower)
	_, err = f.engine.Propose(ctx, call(alice, 0), "", "no title", common.Hash{})
	require.ErrorIs(t, err, lcommon.ErrInvalidArgument)

	id := f.propose(t)
	assert.Equal(t, uint64(1), id)
	evt := testutil.RequireReceive(t, createdCh, time.Second, "proposal created")
	created := evt.Data.(event.ProposalCreatedEvent)
	assert.Equal(t, id, created.ProposalID)
	assert.Equal(t, uint64(1_000_000), created.TotalPower)
	assert.Equal(t, testNow.Add(time.Hour), created.VoteStart)
	assert.Equal(t, testNow.Add(73*time.Hour), created.VoteEnd)

	p, err := f.engine.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, alice, p.Proposer)
	body, err := f.engine.Body(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Fund the audit", body.Title)
	assert.Equal(t, "Pay for a third-party audit of the treasury module", body.Description)

	_, err = f.engine.Get(ctx, 99)
	require.ErrorIs(t, err, lcommon.ErrNotFound)
	proposals, err := f.engine.List(ctx, 0, 10)
	require.NoError(t, err)
	assert.Len(t, proposals, 1)
}

func TestQuorumNotReached(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.propose(t)

	f.requireState(t, id, 30*time.Minute, lcommon.ProposalStatePending)
	_, err := f.engine.CastVote(ctx, call(alice, 30*time.Minute), id, 1, proposal.ChoiceFor)
	require.ErrorIs(t, err, lcommon.ErrInvalidState)

	_, err = f.engine.CastVote(ctx, call(alice, 2*time.Hour), id, 1, proposal.ChoiceFor)
	require.NoError(t, err)
	_, err = f.engine.CastVote(ctx, call(bob, 2*time.Hour), id, 2, proposal.ChoiceAgainst)
	require.NoError(t, err)

	f.requireState(t, id, 72*time.Hour, lcommon.ProposalStateActive)
	// 95000 of the 100000 quorum
	f.requireState(t, id, 73*time.Hour, lcommon.ProposalStateDefeated)
	err = f.engine.Queue(ctx, call(bob, 74*time.Hour), id)
	require.ErrorIs(t, err, lcommon.ErrInvalidState)
}

func TestQuorumReached(t *testing.T) {
	f := newFixture(t)
	id := f.passProposal(t)
	f.requireState(t, id, 73*time.Hour-time.Second, lcommon.ProposalStateActive)
	f.requireState(t, id, 73*time.Hour, lcommon.ProposalStateSucceeded)

	p, err := f.engine.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, uint64(150_000), uint64(p.ForVotes))
	assert.Equal(t, uint64(10_000), uint64(p.AgainstVotes))
	assert.Equal(t, uint64(0), uint64(p.AbstainVotes))
}

func TestOutcomeIgnoresLaterParamChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.passProposal(t)
	f.requireState(t, id, 73*time.Hour, lcommon.ProposalStateSucceeded)

	require.NoError(t, f.engine.SetQuorumBps(ctx, call(admin, 74*time.Hour), 5_000))
	f.requireState(t, id, 74*time.Hour, lcommon.ProposalStateSucceeded)
	f.power.SetTotal(10_000_000)
	f.requireState(t, id, 74*time.Hour, lcommon.ProposalStateSucceeded)

	// A restarted engine reads the same snapshot
	e := f.newEngine(t)
	state, err := e.State(ctx, id, testNow.Add(75*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, lcommon.ProposalStateSucceeded, state)

	// New proposals use the new quorum
	f.power.SetTotal(1_000_000)
	second := f.passProposal(t)
	f.requireState(t, second, 73*time.Hour, lcommon.ProposalStateDefeated)
}

func TestZeroThresholdAllowsPowerlessProposer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	nobody := testutil.Address(30)
	_, err := f.engine.Propose(ctx, call(nobody, 0), "Open call", "", common.Hash{})
	require.ErrorIs(t, err, lcommon.ErrInsufficientPower)
	require.NoError(t, f.engine.SetProposalThreshold(ctx, call(admin, 0), 0))
	id, err := f.engine.Propose(ctx, call(nobody, 0), "Open call", "", common.Hash{})
	require.NoError(t, err)
	p, err := f.engine.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, nobody, p.Proposer)
}

func TestTieIsDefeat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.propose(t)
	_, err := f.engine.CastVote(ctx, call(alice, 2*time.Hour), id, 1, proposal.ChoiceFor)
	require.NoError(t, err)
	_, err = f.engine.CastVote(ctx, call(eve, 2*time.Hour), id, 7, proposal.ChoiceAgainst)
	require.NoError(t, err)
	f.requireState(t, id, 73*time.Hour, lcommon.ProposalStateDefeated)
}

func TestCastVoteRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.propose(t)
	_, votedCh := f.bus.Subscribe(event.ProposalVotedEventType)
	at := call(carol, 2*time.Hour)

	counted, err := f.engine.CastVoteMultiple(ctx, at, id, []uint64{3, 4}, proposal.ChoiceAbstain)
	require.NoError(t, err)
	assert.Equal(t, uint64(70_000), counted)
	evt := testutil.RequireReceive(t, votedCh, time.Second, "proposal voted")
	voted := evt.Data.(event.ProposalVotedEvent)
	assert.Equal(t, []uint64{3, 4}, voted.PositionIDs)
	assert.Equal(t, uint64(70_000), voted.AbstainVotes)

	_, err = f.engine.CastVote(ctx, at, id, 3, proposal.ChoiceFor)
	require.ErrorIs(t, err, lcommon.ErrDuplicate)
	_, err = f.engine.CastVoteMultiple(ctx, call(alice, 2*time.Hour), id, []uint64{1, 1}, proposal.ChoiceFor)
	require.ErrorIs(t, err, lcommon.ErrDuplicate)
	_, err = f.engine.CastVote(ctx, call(bob, 2*time.Hour), id, 1, proposal.ChoiceFor)
	require.ErrorIs(t, err, lcommon.ErrAuthorization)
	_, err = f.engine.CastVote(ctx, call(bob, 2*time.Hour), id, 6, proposal.ChoiceFor)
	require.ErrorIs(t, err, lcommon.ErrInsufficientPower)
	_, err = f.engine.CastVote(ctx, call(alice, 2*time.Hour), id, 1, proposal.Choice(9))
	require.ErrorIs(t, err, lcommon.ErrInvalidArgument)

	// A rejected multi-position vote counts nothing
	_, err = f.engine.CastVoteMultiple(ctx, call(bob, 2*time.Hour), id, []uint64{2, 6}, proposal.ChoiceFor)
	require.ErrorIs(t, err, lcommon.ErrInsufficientPower)
	_, err = f.engine.Receipt(ctx, id, 2)
	require.ErrorIs(t, err, lcommon.ErrNotFound)
	testutil.RequireNoReceive(t, votedCh, 50*time.Millisecond, "rejected vote")

	receipt, err := f.engine.Receipt(ctx, id, 4)
	require.NoError(t, err)
	assert.Equal(t, uint8(proposal.ChoiceAbstain), receipt.Choice)
	assert.Equal(t, uint64(10_000), uint64(receipt.Power))
	votes, err := f.engine.Votes(ctx, id)
	require.NoError(t, err)
	assert.Len(t, votes, 2)
}

func TestQueueAndExecute(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.passProposal(t)
	_, queuedCh := f.bus.Subscribe(event.ProposalQueuedEventType)

	require.NoError(t, f.engine.Queue(ctx, call(bob, 74*time.Hour), id))
	evt := testutil.RequireReceive(t, queuedCh, time.Second, "proposal queued")
	queued := evt.Data.(event.ProposalQueuedEvent)
	assert.Equal(t, testNow.Add(122*time.Hour), queued.ExecutionTime)
	assert.False(t, queued.Accelerated)
	f.requireState(t, id, 80*time.Hour, lcommon.ProposalStateQueued)

	err := f.engine.Queue(ctx, call(bob, 75*time.Hour), id)
	require.ErrorIs(t, err, lcommon.ErrInvalidState)
	err = f.engine.Execute(ctx, call(bob, 122*time.Hour), id)
	require.ErrorIs(t, err, lcommon.ErrAuthorization)
	err = f.engine.Execute(ctx, call(executor, 121*time.Hour), id)
	require.ErrorIs(t, err, lcommon.ErrInvalidState)
	require.NoError(t, f.engine.Execute(ctx, call(executor, 122*time.Hour), id))
	f.requireState(t, id, 200*time.Hour, lcommon.ProposalStateExecuted)

	err = f.engine.Cancel(ctx, call(alice, 123*time.Hour), id)
	require.ErrorIs(t, err, lcommon.ErrInvalidState)
	err = f.engine.Execute(ctx, call(executor, 123*time.Hour), id)
	require.ErrorIs(t, err, lcommon.ErrInvalidState)
}

func TestVetoBlocksQueue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.passProposal(t)
	_, vetoedCh := f.bus.Subscribe(event.ProposalVetoedEventType)

	_, err := f.council.InitiateVeto(ctx, call(members[0], 73*time.Hour), id)
	require.NoError(t, err)
	require.NoError(t, f.council.ApproveVeto(ctx, call(members[1], 73*time.Hour), id))

	err = f.engine.Queue(ctx, call(bob, 74*time.Hour), id)
	require.ErrorIs(t, err, lcommon.ErrVetoed)
	testutil.RequireReceive(t, vetoedCh, time.Second, "proposal vetoed")
	// The transition committed even though the call failed
	f.requireState(t, id, 74*time.Hour, lcommon.ProposalStateVetoed)
	err = f.engine.Queue(ctx, call(bob, 75*time.Hour), id)
	require.ErrorIs(t, err, lcommon.ErrInvalidState)
	err = f.engine.Cancel(ctx, call(alice, 75*time.Hour), id)
	require.ErrorIs(t, err, lcommon.ErrInvalidState)
}

func TestLateVetoBlocksExecute(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.passProposal(t)
	require.NoError(t, f.engine.Queue(ctx, call(bob, 74*time.Hour), id))

	_, err := f.council.InitiateVeto(ctx, call(members[0], 80*time.Hour), id)
	require.NoError(t, err)
	require.NoError(t, f.council.ApproveVeto(ctx, call(members[2], 81*time.Hour), id))

	err = f.engine.Execute(ctx, call(executor, 122*time.Hour), id)
	require.ErrorIs(t, err, lcommon.ErrVetoed)
	f.requireState(t, id, 122*time.Hour, lcommon.ProposalStateVetoed)
}

func TestSpeedupShortensVotingAndTimelock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.passProposal(t)

	_, err := f.council.InitiateSpeedup(ctx, call(members[0], 3*time.Hour), id, 24*time.Hour, time.Hour)
	require.NoError(t, err)
	// Not effective until the speedup executes
	f.requireState(t, id, 25*time.Hour, lcommon.ProposalStateActive)
	require.NoError(t, f.council.ApproveSpeedup(ctx, call(members[1], 4*time.Hour), id))

	f.requireState(t, id, 25*time.Hour-time.Second, lcommon.ProposalStateActive)
	f.requireState(t, id, 25*time.Hour, lcommon.ProposalStateSucceeded)

	require.NoError(t, f.engine.Queue(ctx, call(bob, 26*time.Hour), id))
	p, err := f.engine.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, p.Accelerated)
	assert.Equal(t, testNow.Add(27*time.Hour).Unix(), p.ExecutionTime)
	require.NoError(t, f.engine.Execute(ctx, call(executor, 27*time.Hour), id))
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.propose(t)
	second := f.propose(t)
	_, cancelledCh := f.bus.Subscribe(event.ProposalCancelledEventType)

	err := f.engine.Cancel(ctx, call(bob, time.Minute), first)
	require.ErrorIs(t, err, lcommon.ErrAuthorization)
	require.NoError(t, f.engine.Cancel(ctx, call(alice, time.Minute), first))
	evt := testutil.RequireReceive(t, cancelledCh, time.Second, "proposal cancelled")
	assert.Equal(t, alice, evt.Data.(event.ProposalCancelledEvent).CancelledBy)
	f.requireState(t, first, 2*time.Hour, lcommon.ProposalStateCancelled)
	_, err = f.engine.CastVote(ctx, call(alice, 2*time.Hour), first, 1, proposal.ChoiceFor)
	require.ErrorIs(t, err, lcommon.ErrInvalidState)

	// Administrators may cancel any live proposal
	require.NoError(t, f.engine.Cancel(ctx, call(admin, 2*time.Hour), second))
	err = f.engine.Cancel(ctx, call(admin, 3*time.Hour), second)
	require.ErrorIs(t, err, lcommon.ErrInvalidState)
}

func TestParamSetters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, paramCh := f.bus.Subscribe(event.ParamChangedEventType)

	err := f.engine.SetQuorumBps(ctx, call(alice, 0), 500)
	require.ErrorIs(t, err, lcommon.ErrAuthorization)
	err = f.engine.SetQuorumBps(ctx, call(admin, 0), 10_001)
	require.ErrorIs(t, err, lcommon.ErrInvalidArgument)
	err = f.engine.SetVotingPeriod(ctx, call(admin, 0), 0)
	require.ErrorIs(t, err, lcommon.ErrInvalidArgument)
	testutil.RequireNoReceive(t, paramCh, 50*time.Millisecond, "rejected setter")

	require.NoError(t, f.engine.SetProposalThreshold(ctx, call(admin, 0), 100_000))
	evt := testutil.RequireReceive(t, paramCh, time.Second, "param changed")
	changed := evt.Data.(event.ParamChangedEvent)
	assert.Equal(t, uint64(1_000), changed.OldValue)
	assert.Equal(t, uint64(100_000), changed.NewValue)
	require.NoError(t, f.engine.SetQuorumBps(ctx, call(admin, 0), 2_000))
	require.NoError(t, f.engine.SetVotingDelay(ctx, call(admin, 0), 2*time.Hour))
	require.NoError(t, f.engine.SetVotingPeriod(ctx, call(admin, 0), 24*time.Hour))
	require.NoError(t, f.engine.SetTimelockDelay(ctx, call(admin, 0), 0))

	expected := proposal.Params{
		Threshold:     100_000,
		QuorumBps:     2_000,
		VotingDelay:   2 * time.Hour,
		VotingPeriod:  24 * time.Hour,
		TimelockDelay: 0,
	}
	assert.Equal(t, expected, f.engine.Params())
	_, err = f.engine.Propose(ctx, call(alice, 0), "Below new threshold", "", common.Hash{})
	require.ErrorIs(t, err, lcommon.ErrInsufficientPower)

	// Stored values take precedence over configured defaults
	assert.Equal(t, expected, f.newEngine(t).Params())
}
