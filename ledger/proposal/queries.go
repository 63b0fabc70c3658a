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
	"time"

	"github.com/blinklabs-io/ballot/database/models"
	"github.com/blinklabs-io/ballot/database/types"
	lcommon "github.com/blinklabs-io/ballot/ledger/common"
)

// State returns the lifecycle state of a proposal at the given time
func (e *Engine) State(
	ctx context.Context,
	proposalID uint64,
	now time.Time,
) (lcommon.ProposalState, error) {
	var state lcommon.ProposalState
	err := e.config.Executor.View(ctx, "proposal.state", func(op *lcommon.Op) error {
		var err error
		state, err = e.StateTxn(op, proposalID, now)
		return err
	})
	return state, err
}

// Get returns a proposal
func (e *Engine) Get(ctx context.Context, proposalID uint64) (*models.Proposal, error) {
	var ret *models.Proposal
	err := e.config.Executor.View(ctx, "proposal.get", func(op *lcommon.Op) error {
		var err error
		ret, err = getProposal(op, proposalID)
		return err
	})
	return ret, err
}

// Body returns the title and description stored for a proposal
func (e *Engine) Body(ctx context.Context, proposalID uint64) (*Body, error) {
	var ret Body
	err := e.config.Executor.View(ctx, "proposal.body", func(op *lcommon.Op) error {
		p, err := getProposal(op, proposalID)
		if err != nil {
			return err
		}
		return op.DB().GetDocument(
			types.DocumentKindProposal,
			p.BodyHash,
			&ret,
			op.Txn(),
		)
	})
	if err != nil {
		return nil, err
	}
	return &ret, nil
}

// Receipt returns the vote a position cast on a proposal
func (e *Engine) Receipt(
	ctx context.Context,
	proposalID uint64,
	positionID uint64,
) (*models.ProposalVote, error) {
	var ret *models.ProposalVote
	err := e.config.Executor.View(ctx, "proposal.receipt", func(op *lcommon.Op) error {
		vote, err := op.DB().GetProposalVote(proposalID, positionID, op.Txn())
		if err != nil {
			return fmt.Errorf("failed to get proposal vote: %w", err)
		}
		if vote == nil {
			return fmt.Errorf(
				"%w: no vote from position %d on proposal %d",
				lcommon.ErrNotFound,
				positionID,
				proposalID,
			)
		}
		ret = vote
		return nil
	})
	return ret, err
}

// Votes returns all votes cast on a proposal
func (e *Engine) Votes(ctx context.Context, proposalID uint64) ([]models.ProposalVote, error) {
	var ret []models.ProposalVote
	err := e.config.Executor.View(ctx, "proposal.votes", func(op *lcommon.Op) error {
		var err error
		ret, err = op.DB().GetProposalVotes(proposalID, op.Txn())
		return err
	})
	return ret, err
}

// List returns proposals ordered by identifier
func (e *Engine) List(ctx context.Context, offset int, limit int) ([]models.Proposal, error) {
	var ret []models.Proposal
	err := e.config.Executor.View(ctx, "proposal.list", func(op *lcommon.Op) error {
		var err error
		ret, err = op.DB().GetProposals(offset, limit, op.Txn())
		return err
	})
	return ret, err
}
