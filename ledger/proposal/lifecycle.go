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

package proposal

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/blinklabs-io/ballot/database/models"
	"github.com/blinklabs-io/ballot/database/types"
	"github.com/blinklabs-io/ballot/event"
	lcommon "github.com/blinklabs-io/ballot/ledger/common"
	"github.com/ethereum/go-ethereum/common"
)

// Choice is the direction of a vote
type Choice uint8

const (
	ChoiceAgainst Choice = iota
	ChoiceFor
	ChoiceAbstain
)

func (c Choice) String() string {
	switch c {
	case ChoiceAgainst:
		return "against"
	case ChoiceFor:
		return "for"
	case ChoiceAbstain:
		return "abstain"
	default:
		return fmt.Sprintf("choice(%d)", uint8(c))
	}
}

// Body is the proposal text kept in the document store
type Body struct {
	Title       string `cbor:"title"`
	Description string `cbor:"description"`
}

// Propose creates a proposal. The proposer's voting power, summed over all
// of their positions, must meet the proposal threshold
func (e *Engine) Propose(
	ctx context.Context,
	call lcommon.Call,
	title string,
	description string,
	contentHash common.Hash,
) (uint64, error) {
	if title == "" {
		return 0, fmt.Errorf("%w: empty proposal title", lcommon.ErrInvalidArgument)
	}
	var id uint64
	err := e.config.Executor.Do(ctx, "proposal.propose", func(op *lcommon.Op) error {
		params := e.Params()
		power, err := e.accountPower(op, call.Caller)
		if err != nil {
			return err
		}
		if power < params.Threshold {
			return fmt.Errorf(
				"%w: proposer has %d voting power, threshold is %d",
				lcommon.ErrInsufficientPower,
				power,
				params.Threshold,
			)
		}
		total, err := e.config.Power.TotalVotingPower(op.Context())
		if err != nil {
			return fmt.Errorf("failed to get total voting power: %w", err)
		}
		bodyHash, err := op.DB().PutDocument(
			types.DocumentKindProposal,
			&Body{Title: title, Description: description},
			op.Txn(),
		)
		if err != nil {
			return err
		}
		start := call.Now.Add(params.VotingDelay)
		end := start.Add(params.VotingPeriod)
		p := &models.Proposal{
			Proposer:    call.Caller,
			Title:       title,
			ContentHash: contentHash,
			BodyHash:    bodyHash,
			CreatedTime: call.Now.Unix(),
			VoteStart:   start.Unix(),
			VoteEnd:     end.Unix(),
			TotalPower:  types.Uint64(total),
			QuorumBps:   params.QuorumBps,
			Status:      models.ProposalStatusOpen,
		}
		if err := op.DB().CreateProposal(p, op.Txn()); err != nil {
			return fmt.Errorf("failed to create proposal: %w", err)
		}
		id = p.ID
		op.Emit(
			event.ProposalCreatedEventType,
			event.ProposalCreatedEvent{
				ProposalID:  p.ID,
				Proposer:    p.Proposer,
				Title:       title,
				ContentHash: contentHash,
				BodyHash:    bodyHash,
				VoteStart:   start,
				VoteEnd:     end,
				TotalPower:  total,
			},
		)
		return nil
	})
	if err != nil {
		return 0, err
	}
	e.config.Logger.Info(
		fmt.Sprintf("proposal %d created", id),
		"proposer", call.Caller.Hex(),
		"component", "proposal",
	)
	return id, nil
}

func (e *Engine) accountPower(op *lcommon.Op, account common.Address) (uint64, error) {
	positions, err := e.config.Power.PositionsOwnedBy(op.Context(), account)
	if err != nil {
		return 0, fmt.Errorf("failed to get positions: %w", err)
	}
	var total uint64
	for _, positionID := range positions {
		power, err := e.config.Power.VotingPowerOf(op.Context(), positionID)
		if err != nil {
			return 0, fmt.Errorf("failed to get voting power: %w", err)
		}
		total, err = lcommon.AddChecked(total, power)
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}

// CastVote votes on an active proposal with one position and returns the
// voting power counted
func (e *Engine) CastVote(
	ctx context.Context,
	call lcommon.Call,
	proposalID uint64,
	positionID uint64,
	choice Choice,
) (uint64, error) {
	return e.CastVoteMultiple(ctx, call, proposalID, []uint64{positionID}, choice)
}

// CastVoteMultiple votes on an active proposal with several positions at
// once. Either every position is counted or none is
func (e *Engine) CastVoteMultiple(
	ctx context.Context,
	call lcommon.Call,
	proposalID uint64,
	positionIDs []uint64,
	choice Choice,
) (uint64, error) {
	if len(positionIDs) == 0 {
		return 0, fmt.Errorf("%w: no positions", lcommon.ErrInvalidArgument)
	}
	if choice > ChoiceAbstain {
		return 0, fmt.Errorf("%w: invalid choice %d", lcommon.ErrInvalidArgument, choice)
	}
	var counted uint64
	err := e.config.Executor.Do(ctx, "proposal.cast_vote", func(op *lcommon.Op) error {
		p, err := getProposal(op, proposalID)
		if err != nil {
			return err
		}
		state, err := e.stateOf(op, p, call.Now)
		if err != nil {
			return err
		}
		if state != lcommon.ProposalStateActive {
			return fmt.Errorf(
				"%w: proposal %d is %s",
				lcommon.ErrInvalidState,
				proposalID,
				state,
			)
		}
		var total uint64
		for i, positionID := range positionIDs {
			if slices.Contains(positionIDs[:i], positionID) {
				return fmt.Errorf(
					"%w: position %d listed twice",
					lcommon.ErrDuplicate,
					positionID,
				)
			}
			power, err := e.checkPosition(op, call, proposalID, positionID)
			if err != nil {
				return err
			}
			vote := &models.ProposalVote{
				ProposalID: proposalID,
				PositionID: positionID,
				Voter:      call.Caller,
				Choice:     uint8(choice),
				Power:      types.Uint64(power),
				VotedTime:  call.Now.Unix(),
			}
			if err := op.DB().AddProposalVote(vote, op.Txn()); err != nil {
				return fmt.Errorf("failed to add proposal vote: %w", err)
			}
			total, err = lcommon.AddChecked(total, power)
			if err != nil {
				return err
			}
		}
		var bucket *types.Uint64
		switch choice {
		case ChoiceFor:
			bucket = &p.ForVotes
		case ChoiceAgainst:
			bucket = &p.AgainstVotes
		default:
			bucket = &p.AbstainVotes
		}
		sum, err := lcommon.AddChecked(uint64(*bucket), total)
		if err != nil {
			return err
		}
		*bucket = types.Uint64(sum)
		if err := op.DB().SetProposal(p, op.Txn()); err != nil {
			return fmt.Errorf("failed to set proposal: %w", err)
		}
		counted = total
		op.Emit(
			event.ProposalVotedEventType,
			event.ProposalVotedEvent{
				ProposalID:   proposalID,
				Voter:        call.Caller,
				PositionIDs:  positionIDs,
				Choice:       uint8(choice),
				Power:        total,
				ForVotes:     uint64(p.ForVotes),
				AgainstVotes: uint64(p.AgainstVotes),
				AbstainVotes: uint64(p.AbstainVotes),
			},
		)
		return nil
	})
	return counted, err
}

// checkPosition returns the voting power of a position that may vote on the
// proposal
func (e *Engine) checkPosition(
	op *lcommon.Op,
	call lcommon.Call,
	proposalID uint64,
	positionID uint64,
) (uint64, error) {
	existing, err := op.DB().GetProposalVote(proposalID, positionID, op.Txn())
	if err != nil {
		return 0, fmt.Errorf("failed to get proposal vote: %w", err)
	}
	if existing != nil {
		return 0, fmt.Errorf(
			"%w: position %d already voted on proposal %d",
			lcommon.ErrDuplicate,
			positionID,
			proposalID,
		)
	}
	ok, err := e.config.Power.IsAuthorized(op.Context(), call.Caller, positionID)
	if err != nil {
		return 0, fmt.Errorf("failed to check position authorization: %w", err)
	}
	if !ok {
		return 0, fmt.Errorf(
			"%w: %s may not vote with position %d",
			lcommon.ErrAuthorization,
			call.Caller.Hex(),
			positionID,
		)
	}
	power, err := e.config.Power.VotingPowerOf(op.Context(), positionID)
	if err != nil {
		return 0, fmt.Errorf("failed to get voting power: %w", err)
	}
	if power == 0 {
		return 0, fmt.Errorf(
			"%w: position %d has no voting power",
			lcommon.ErrInsufficientPower,
			positionID,
		)
	}
	return power, nil
}

// Queue schedules a succeeded proposal for execution after the timelock. A
// vetoed proposal moves to Vetoed instead and the call fails with ErrVetoed
func (e *Engine) Queue(ctx context.Context, call lcommon.Call, proposalID uint64) error {
	return e.config.Executor.Do(ctx, "proposal.queue", func(op *lcommon.Op) error {
		p, err := getProposal(op, proposalID)
		if err != nil {
			return err
		}
		state, err := e.stateOf(op, p, call.Now)
		if err != nil {
			return err
		}
		if state != lcommon.ProposalStateSucceeded {
			return fmt.Errorf(
				"%w: proposal %d is %s",
				lcommon.ErrInvalidState,
				proposalID,
				state,
			)
		}
		vetoed, err := e.config.Oversight.IsVetoedTxn(op, proposalID)
		if err != nil {
			return fmt.Errorf("failed to check veto: %w", err)
		}
		if vetoed {
			return e.markVetoed(op, p)
		}
		delay := e.Params().TimelockDelay
		_, speedupDelay, spedUp, err := e.config.Oversight.ActiveSpeedup(op, proposalID)
		if err != nil {
			return fmt.Errorf("failed to check speedup: %w", err)
		}
		if spedUp {
			delay = speedupDelay
			p.Accelerated = true
		}
		executionTime := call.Now.Add(delay)
		p.ExecutionTime = executionTime.Unix()
		p.Status = models.ProposalStatusQueued
		if err := op.DB().SetProposal(p, op.Txn()); err != nil {
			return fmt.Errorf("failed to set proposal: %w", err)
		}
		op.Emit(
			event.ProposalQueuedEventType,
			event.ProposalQueuedEvent{
				ProposalID:    proposalID,
				ExecutionTime: executionTime,
				Accelerated:   p.Accelerated,
			},
		)
		return nil
	})
}

// Execute marks a queued proposal executed once its timelock has passed.
// Only executors may call it. A veto that landed after queuing still blocks
// execution
func (e *Engine) Execute(ctx context.Context, call lcommon.Call, proposalID uint64) error {
	return e.config.Executor.Do(ctx, "proposal.execute", func(op *lcommon.Op) error {
		if err := e.config.Roles.RequireExecutor(call.Caller); err != nil {
			return err
		}
		p, err := getProposal(op, proposalID)
		if err != nil {
			return err
		}
		if p.Status != models.ProposalStatusQueued {
			state, err := e.stateOf(op, p, call.Now)
			if err != nil {
				return err
			}
			return fmt.Errorf(
				"%w: proposal %d is %s",
				lcommon.ErrInvalidState,
				proposalID,
				state,
			)
		}
		if call.Now.Unix() < p.ExecutionTime {
			return fmt.Errorf(
				"%w: proposal %d is timelocked until %s",
				lcommon.ErrInvalidState,
				proposalID,
				time.Unix(p.ExecutionTime, 0).UTC().Format(time.RFC3339),
			)
		}
		vetoed, err := e.config.Oversight.IsVetoedTxn(op, proposalID)
		if err != nil {
			return fmt.Errorf("failed to check veto: %w", err)
		}
		if vetoed {
			return e.markVetoed(op, p)
		}
		p.Status = models.ProposalStatusExecuted
		if err := op.DB().SetProposal(p, op.Txn()); err != nil {
			return fmt.Errorf("failed to set proposal: %w", err)
		}
		op.Emit(
			event.ProposalExecutedEventType,
			event.ProposalExecutedEvent{
				ProposalID: proposalID,
				Executor:   call.Caller,
			},
		)
		op.OnCommit(func() {
			e.config.Logger.Info(
				fmt.Sprintf("proposal %d executed", proposalID),
				"component", "proposal",
			)
		})
		return nil
	})
}

// Cancel withdraws a proposal. Only the proposer or an administrator may
// cancel, and never once the proposal reached a terminal state
func (e *Engine) Cancel(ctx context.Context, call lcommon.Call, proposalID uint64) error {
	return e.config.Executor.Do(ctx, "proposal.cancel", func(op *lcommon.Op) error {
		p, err := getProposal(op, proposalID)
		if err != nil {
			return err
		}
		if call.Caller != p.Proposer && !e.config.Roles.IsAdmin(call.Caller) {
			return fmt.Errorf(
				"%w: only the proposer or an administrator may cancel",
				lcommon.ErrAuthorization,
			)
		}
		state, err := e.stateOf(op, p, call.Now)
		if err != nil {
			return err
		}
		if state.Terminal() {
			return fmt.Errorf(
				"%w: proposal %d is %s",
				lcommon.ErrInvalidState,
				proposalID,
				state,
			)
		}
		p.Status = models.ProposalStatusCancelled
		if err := op.DB().SetProposal(p, op.Txn()); err != nil {
			return fmt.Errorf("failed to set proposal: %w", err)
		}
		op.Emit(
			event.ProposalCancelledEventType,
			event.ProposalCancelledEvent{
				ProposalID:  proposalID,
				CancelledBy: call.Caller,
			},
		)
		return nil
	})
}

// markVetoed commits the Vetoed transition and fails the operation
func (e *Engine) markVetoed(op *lcommon.Op, p *models.Proposal) error {
	p.Status = models.ProposalStatusVetoed
	if err := op.DB().SetProposal(p, op.Txn()); err != nil {
		return fmt.Errorf("failed to set proposal: %w", err)
	}
	op.Emit(
		event.ProposalVetoedEventType,
		event.ProposalVetoedEvent{ProposalID: p.ID},
	)
	return op.CommitThenFail(
		fmt.Errorf("%w: proposal %d", lcommon.ErrVetoed, p.ID),
	)
}

// StateTxn returns the state of a proposal within an operation
func (e *Engine) StateTxn(
	op *lcommon.Op,
	proposalID uint64,
	now time.Time,
) (lcommon.ProposalState, error) {
	p, err := getProposal(op, proposalID)
	if err != nil {
		return 0, err
	}
	return e.stateOf(op, p, now)
}

func (e *Engine) stateOf(
	op *lcommon.Op,
	p *models.Proposal,
	now time.Time,
) (lcommon.ProposalState, error) {
	switch p.Status {
	case models.ProposalStatusExecuted:
		return lcommon.ProposalStateExecuted, nil
	case models.ProposalStatusCancelled:
		return lcommon.ProposalStateCancelled, nil
	case models.ProposalStatusVetoed:
		return lcommon.ProposalStateVetoed, nil
	case models.ProposalStatusQueued:
		return lcommon.ProposalStateQueued, nil
	}
	nowUnix := now.Unix()
	if nowUnix < p.VoteStart {
		return lcommon.ProposalStatePending, nil
	}
	end := p.VoteEnd
	period, _, spedUp, err := e.config.Oversight.ActiveSpeedup(op, p.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to check speedup: %w", err)
	}
	if spedUp {
		end = min(end, p.VoteStart+int64(period/time.Second))
	}
	if nowUnix < end {
		return lcommon.ProposalStateActive, nil
	}
	quorum, err := lcommon.MulDiv(
		uint64(p.TotalPower),
		uint64(p.QuorumBps),
		lcommon.BasisPoints,
	)
	if err != nil {
		return 0, err
	}
	participation, err := lcommon.AddChecked(uint64(p.ForVotes), uint64(p.AgainstVotes))
	if err != nil {
		return 0, err
	}
	participation, err = lcommon.AddChecked(participation, uint64(p.AbstainVotes))
	if err != nil {
		return 0, err
	}
	if participation < quorum || p.ForVotes <= p.AgainstVotes {
		return lcommon.ProposalStateDefeated, nil
	}
	return lcommon.ProposalStateSucceeded, nil
}

func getProposal(op *lcommon.Op, proposalID uint64) (*models.Proposal, error) {
	p, err := op.DB().GetProposal(proposalID, op.Txn())
	if err != nil {
		return nil, fmt.Errorf("failed to get proposal: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: proposal %d", lcommon.ErrNotFound, proposalID)
	}
	return p, nil
}
