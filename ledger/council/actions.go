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

package council

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/blinklabs-io/ballot/database/models"
	"github.com/blinklabs-io/ballot/event"
	lcommon "github.com/blinklabs-io/ballot/ledger/common"
	"github.com/ethereum/go-ethereum/common"
)

// InitiateVeto opens a veto on a proposal with the caller's approval
func (c *Council) InitiateVeto(
	ctx context.Context,
	call lcommon.Call,
	proposalID uint64,
) (uint64, error) {
	var id uint64
	err := c.config.Executor.Do(ctx, "council.initiate_veto", func(op *lcommon.Op) error {
		action, err := c.initiate(op, call, vetoKind, proposalID, c.currentParams().vetoWindow, 0, 0)
		if err != nil {
			return err
		}
		id = action.ID
		return nil
	})
	return id, err
}

// InitiateSpeedup opens a speedup on a proposal with the caller's approval.
// Once executed the proposal uses the new voting period and timelock delay
func (c *Council) InitiateSpeedup(
	ctx context.Context,
	call lcommon.Call,
	proposalID uint64,
	newVotingPeriod time.Duration,
	newTimelockDelay time.Duration,
) (uint64, error) {
	if newVotingPeriod < time.Second {
		return 0, fmt.Errorf(
			"%w: speedup voting period must be at least one second",
			lcommon.ErrInvalidArgument,
		)
	}
	if newTimelockDelay < 0 {
		return 0, fmt.Errorf(
			"%w: negative speedup timelock delay",
			lcommon.ErrInvalidArgument,
		)
	}
	var id uint64
	err := c.config.Executor.Do(ctx, "council.initiate_speedup", func(op *lcommon.Op) error {
		action, err := c.initiate(
			op,
			call,
			speedupKind,
			proposalID,
			c.currentParams().speedupWindow,
			newVotingPeriod,
			newTimelockDelay,
		)
		if err != nil {
			return err
		}
		id = action.ID
		return nil
	})
	return id, err
}

// ApproveVeto adds the caller's approval to the veto on a proposal
func (c *Council) ApproveVeto(ctx context.Context, call lcommon.Call, proposalID uint64) error {
	return c.config.Executor.Do(ctx, "council.approve_veto", func(op *lcommon.Op) error {
		return c.approve(op, call, vetoKind, proposalID)
	})
}

// ApproveSpeedup adds the caller's approval to the speedup on a proposal
func (c *Council) ApproveSpeedup(ctx context.Context, call lcommon.Call, proposalID uint64) error {
	return c.config.Executor.Do(ctx, "council.approve_speedup", func(op *lcommon.Op) error {
		return c.approve(op, call, speedupKind, proposalID)
	})
}

// ExecuteVeto executes a veto that reached its threshold without being
// executed. Anyone may call it
func (c *Council) ExecuteVeto(ctx context.Context, call lcommon.Call, proposalID uint64) error {
	return c.config.Executor.Do(ctx, "council.execute_veto", func(op *lcommon.Op) error {
		return c.executePending(op, call, vetoKind, proposalID)
	})
}

// ExecuteSpeedup executes a speedup that reached its threshold without
// being executed. Anyone may call it
func (c *Council) ExecuteSpeedup(ctx context.Context, call lcommon.Call, proposalID uint64) error {
	return c.config.Executor.Do(ctx, "council.execute_speedup", func(op *lcommon.Op) error {
		return c.executePending(op, call, speedupKind, proposalID)
	})
}

func (c *Council) initiate(
	op *lcommon.Op,
	call lcommon.Call,
	desc kindDesc,
	proposalID uint64,
	window time.Duration,
	newVotingPeriod time.Duration,
	newTimelockDelay time.Duration,
) (*models.CouncilAction, error) {
	if err := c.requireMember(call); err != nil {
		return nil, err
	}
	state, err := c.config.State(op, proposalID, call.Now)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(desc.allowedStates, state) {
		return nil, fmt.Errorf(
			"%w: cannot %s proposal %d while %s",
			lcommon.ErrInvalidState,
			desc.name,
			proposalID,
			state,
		)
	}
	existing, err := op.DB().GetCouncilAction(proposalID, desc.kind, op.Txn())
	if err != nil {
		return nil, fmt.Errorf("failed to get council action: %w", err)
	}
	if existing != nil {
		// One attempt per proposal and kind, even after the window lapsed
		return nil, fmt.Errorf(
			"%w: proposal %d already has a %s action",
			lcommon.ErrDuplicate,
			proposalID,
			desc.name,
		)
	}
	action := &models.CouncilAction{
		ProposalID:       proposalID,
		Kind:             desc.kind,
		Initiator:        call.Caller,
		CreatedTime:      call.Now.Unix(),
		ExpiryTime:       call.Now.Add(window).Unix(),
		Approvals:        1,
		NewVotingPeriod:  int64(newVotingPeriod / time.Second),
		NewTimelockDelay: int64(newTimelockDelay / time.Second),
	}
	if err := op.DB().SetCouncilAction(action, op.Txn()); err != nil {
		return nil, fmt.Errorf("failed to set council action: %w", err)
	}
	if err := c.addApproval(op, action, call); err != nil {
		return nil, err
	}
	required := c.currentParams().requiredApprovals
	op.Emit(desc.initiated, actionEvent(action, call.Caller, required))
	if action.Approvals >= required {
		if err := c.execute(op, call, desc, action, required); err != nil {
			return nil, err
		}
	}
	return action, nil
}

func (c *Council) approve(
	op *lcommon.Op,
	call lcommon.Call,
	desc kindDesc,
	proposalID uint64,
) error {
	if err := c.requireMember(call); err != nil {
		return err
	}
	action, err := c.getAction(op, desc, proposalID)
	if err != nil {
		return err
	}
	if action.Executed {
		return fmt.Errorf(
			"%w: %s on proposal %d already executed",
			lcommon.ErrInvalidState,
			desc.name,
			proposalID,
		)
	}
	if expired(action, call.Now) {
		return fmt.Errorf(
			"%w: %s on proposal %d expired",
			lcommon.ErrExpired,
			desc.name,
			proposalID,
		)
	}
	approvals, err := op.DB().GetCouncilApprovals(action.ID, op.Txn())
	if err != nil {
		return fmt.Errorf("failed to get council approvals: %w", err)
	}
	for _, approval := range approvals {
		if approval.Member == call.Caller {
			return fmt.Errorf(
				"%w: %s already approved %s on proposal %d",
				lcommon.ErrDuplicate,
				call.Caller.Hex(),
				desc.name,
				proposalID,
			)
		}
	}
	if err := c.addApproval(op, action, call); err != nil {
		return err
	}
	action.Approvals++
	if err := op.DB().SetCouncilAction(action, op.Txn()); err != nil {
		return fmt.Errorf("failed to set council action: %w", err)
	}
	required := c.currentParams().requiredApprovals
	op.Emit(desc.approved, actionEvent(action, call.Caller, required))
	if action.Approvals >= required {
		return c.execute(op, call, desc, action, required)
	}
	return nil
}

func (c *Council) executePending(
	op *lcommon.Op,
	call lcommon.Call,
	desc kindDesc,
	proposalID uint64,
) error {
	action, err := c.getAction(op, desc, proposalID)
	if err != nil {
		return err
	}
	if action.Executed {
		return fmt.Errorf(
			"%w: %s on proposal %d already executed",
			lcommon.ErrDuplicate,
			desc.name,
			proposalID,
		)
	}
	if expired(action, call.Now) {
		return fmt.Errorf(
			"%w: %s on proposal %d expired",
			lcommon.ErrExpired,
			desc.name,
			proposalID,
		)
	}
	required := c.currentParams().requiredApprovals
	if action.Approvals < required {
		return fmt.Errorf(
			"%w: %s on proposal %d has %d of %d approvals",
			lcommon.ErrThreshold,
			desc.name,
			proposalID,
			action.Approvals,
			required,
		)
	}
	return c.execute(op, call, desc, action, required)
}

func (c *Council) execute(
	op *lcommon.Op,
	call lcommon.Call,
	desc kindDesc,
	action *models.CouncilAction,
	required uint32,
) error {
	action.Executed = true
	action.ExecutedTime = call.Now.Unix()
	if err := op.DB().SetCouncilAction(action, op.Txn()); err != nil {
		return fmt.Errorf("failed to set council action: %w", err)
	}
	op.Emit(desc.executed, actionEvent(action, common.Address{}, required))
	op.OnCommit(func() {
		c.config.Logger.Info(
			fmt.Sprintf("council %s executed on proposal %d", desc.name, action.ProposalID),
			"component", "council",
		)
	})
	return nil
}

func (c *Council) addApproval(
	op *lcommon.Op,
	action *models.CouncilAction,
	call lcommon.Call,
) error {
	approval := &models.CouncilApproval{
		ActionID:     action.ID,
		Member:       call.Caller,
		ApprovedTime: call.Now.Unix(),
	}
	if err := op.DB().AddCouncilApproval(approval, op.Txn()); err != nil {
		return fmt.Errorf("failed to add council approval: %w", err)
	}
	return nil
}

func (c *Council) getAction(
	op *lcommon.Op,
	desc kindDesc,
	proposalID uint64,
) (*models.CouncilAction, error) {
	action, err := op.DB().GetCouncilAction(proposalID, desc.kind, op.Txn())
	if err != nil {
		return nil, fmt.Errorf("failed to get council action: %w", err)
	}
	if action == nil {
		return nil, fmt.Errorf(
			"%w: no %s on proposal %d",
			lcommon.ErrNotFound,
			desc.name,
			proposalID,
		)
	}
	return action, nil
}

func expired(action *models.CouncilAction, now time.Time) bool {
	return now.Unix() >= action.ExpiryTime
}

func actionEvent(
	action *models.CouncilAction,
	member common.Address,
	required uint32,
) event.CouncilActionEvent {
	return event.CouncilActionEvent{
		ProposalID:       action.ProposalID,
		ActionID:         action.ID,
		Member:           member,
		Approvals:        action.Approvals,
		Required:         required,
		ExpiryTime:       time.Unix(action.ExpiryTime, 0),
		NewVotingPeriod:  time.Duration(action.NewVotingPeriod) * time.Second,
		NewTimelockDelay: time.Duration(action.NewTimelockDelay) * time.Second,
	}
}
