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
	"time"

	"github.com/blinklabs-io/ballot/database/models"
	lcommon "github.com/blinklabs-io/ballot/ledger/common"
)

// IsVetoedTxn reports whether a veto on the proposal was executed
func (c *Council) IsVetoedTxn(op *lcommon.Op, proposalID uint64) (bool, error) {
	action, err := op.DB().GetCouncilAction(proposalID, models.CouncilActionKindVeto, op.Txn())
	if err != nil {
		return false, err
	}
	return action != nil && action.Executed, nil
}

// ActiveSpeedup returns the replacement timing of an executed speedup on
// the proposal
func (c *Council) ActiveSpeedup(
	op *lcommon.Op,
	proposalID uint64,
) (time.Duration, time.Duration, bool, error) {
	action, err := op.DB().GetCouncilAction(proposalID, models.CouncilActionKindSpeedup, op.Txn())
	if err != nil {
		return 0, 0, false, err
	}
	if action == nil || !action.Executed {
		return 0, 0, false, nil
	}
	return time.Duration(action.NewVotingPeriod) * time.Second,
		time.Duration(action.NewTimelockDelay) * time.Second,
		true,
		nil
}

// IsVetoed reports whether a veto on the proposal was executed
func (c *Council) IsVetoed(ctx context.Context, proposalID uint64) (bool, error) {
	var ret bool
	err := c.config.Executor.View(ctx, "council.is_vetoed", func(op *lcommon.Op) error {
		var err error
		ret, err = c.IsVetoedTxn(op, proposalID)
		return err
	})
	return ret, err
}

// IsSpedUp reports whether a speedup on the proposal was executed
func (c *Council) IsSpedUp(ctx context.Context, proposalID uint64) (bool, error) {
	var ret bool
	err := c.config.Executor.View(ctx, "council.is_sped_up", func(op *lcommon.Op) error {
		var err error
		_, _, ret, err = c.ActiveSpeedup(op, proposalID)
		return err
	})
	return ret, err
}

// ActionStatus is a council action with its approving members
type ActionStatus struct {
	Action    models.CouncilAction
	Approvals []models.CouncilApproval
	Expired   bool
}

// Actions returns the council actions on a proposal at the given time
func (c *Council) Actions(
	ctx context.Context,
	proposalID uint64,
	now time.Time,
) ([]ActionStatus, error) {
	var ret []ActionStatus
	err := c.config.Executor.View(ctx, "council.actions", func(op *lcommon.Op) error {
		actions, err := op.DB().GetCouncilActions(proposalID, op.Txn())
		if err != nil {
			return err
		}
		for _, action := range actions {
			approvals, err := op.DB().GetCouncilApprovals(action.ID, op.Txn())
			if err != nil {
				return err
			}
			ret = append(ret, ActionStatus{
				Action:    action,
				Approvals: approvals,
				Expired:   !action.Executed && expired(&action, now),
			})
		}
		return nil
	})
	return ret, err
}
