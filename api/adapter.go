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

package api

import (
	"context"
	"time"

	"github.com/blinklabs-io/ballot/database/models"
	"github.com/blinklabs-io/ballot/ledger"
)

// LedgerAdapter wraps a LedgerState to implement the GovernanceNode
// interface
type LedgerAdapter struct {
	ledgerState *ledger.LedgerState
}

// NewLedgerAdapter creates a LedgerAdapter that queries the given
// LedgerState. Panics if ls is nil
func NewLedgerAdapter(
	ls *ledger.LedgerState,
) *LedgerAdapter {
	if ls == nil {
		panic("NewLedgerAdapter: LedgerState must not be nil")
	}
	return &LedgerAdapter{ledgerState: ls}
}

func (a *LedgerAdapter) CurrentEpoch(
	ctx context.Context,
	now time.Time,
) (EpochInfo, error) {
	return a.Epoch(ctx, a.ledgerState.Epochs().CurrentEpoch(now), now)
}

func (a *LedgerAdapter) Epoch(
	ctx context.Context,
	epochNum uint64,
	now time.Time,
) (EpochInfo, error) {
	epochs := a.ledgerState.Epochs()
	bounds := epochs.Schedule().Bounds(epochNum)
	info := EpochInfo{
		Number:          epochNum,
		StartTime:       bounds.Start.Unix(),
		EndTime:         bounds.End.Unix(),
		VotingEnd:       bounds.VotingEnd.Unix(),
		DistributionEnd: bounds.DistributionEnd.Unix(),
	}
	if epochNum == epochs.CurrentEpoch(now) {
		info.Phase = epochs.Phase(now).String()
	}
	rec, err := epochs.Get(ctx, epochNum)
	if err != nil {
		return EpochInfo{}, err
	}
	if rec != nil {
		info.TotalVotingPower = uint64(rec.TotalVotingPower)
		info.TotalDistributed = uint64(rec.TotalDistributed)
		info.Finalized = rec.Finalized
		info.WeightsFinalized = rec.WeightsFinalized
		info.Distributed = rec.Distributed
	}
	return info, nil
}

func (a *LedgerAdapter) Proposal(
	ctx context.Context,
	id uint64,
	now time.Time,
) (ProposalInfo, error) {
	proposals := a.ledgerState.Proposals()
	p, err := proposals.Get(ctx, id)
	if err != nil {
		return ProposalInfo{}, err
	}
	state, err := proposals.State(ctx, id, now)
	if err != nil {
		return ProposalInfo{}, err
	}
	body, err := proposals.Body(ctx, id)
	if err != nil {
		return ProposalInfo{}, err
	}
	return ProposalInfo{
		ID:            p.ID,
		Proposer:      p.Proposer,
		Title:         body.Title,
		Description:   body.Description,
		ContentHash:   p.ContentHash,
		BodyHash:      p.BodyHash,
		State:         state.String(),
		CreatedTime:   p.CreatedTime,
		VoteStart:     p.VoteStart,
		VoteEnd:       p.VoteEnd,
		ExecutionTime: p.ExecutionTime,
		ForVotes:      uint64(p.ForVotes),
		AgainstVotes:  uint64(p.AgainstVotes),
		AbstainVotes:  uint64(p.AbstainVotes),
		TotalPower:    uint64(p.TotalPower),
		Accelerated:   p.Accelerated,
	}, nil
}

func (a *LedgerAdapter) CouncilActions(
	ctx context.Context,
	proposalID uint64,
	now time.Time,
) ([]CouncilActionInfo, error) {
	// Unknown proposals are a 404 rather than an empty list
	if _, err := a.ledgerState.Proposals().Get(ctx, proposalID); err != nil {
		return nil, err
	}
	statuses, err := a.ledgerState.Council().Actions(ctx, proposalID, now)
	if err != nil {
		return nil, err
	}
	ret := make([]CouncilActionInfo, 0, len(statuses))
	for _, status := range statuses {
		info := CouncilActionInfo{
			ID:               status.Action.ID,
			Kind:             "veto",
			Initiator:        status.Action.Initiator,
			CreatedTime:      status.Action.CreatedTime,
			ExpiryTime:       status.Action.ExpiryTime,
			Executed:         status.Action.Executed,
			Expired:          status.Expired,
			NewVotingPeriod:  status.Action.NewVotingPeriod,
			NewTimelockDelay: status.Action.NewTimelockDelay,
		}
		if status.Action.Kind == models.CouncilActionKindSpeedup {
			info.Kind = "speedup"
		}
		for _, approval := range status.Approvals {
			info.Approvers = append(info.Approvers, approval.Member)
		}
		ret = append(ret, info)
	}
	return ret, nil
}

func (a *LedgerAdapter) Gauges(ctx context.Context) ([]GaugeInfo, error) {
	gauges, err := a.ledgerState.Gauges().Gauges(ctx, false)
	if err != nil {
		return nil, err
	}
	ret := make([]GaugeInfo, 0, len(gauges))
	for _, g := range gauges {
		ret = append(ret, GaugeInfo{
			ID:       g.ID,
			Target:   g.Target,
			Name:     g.Name,
			Category: g.Category,
			Kind:     g.Kind,
			Active:   g.Active,
			Balance:  uint64(g.Balance),
		})
	}
	return ret, nil
}

func (a *LedgerAdapter) GaugeWeight(
	ctx context.Context,
	gaugeID uint64,
	epochNum uint64,
) (GaugeWeightInfo, error) {
	weight, err := a.ledgerState.Gauges().Weight(ctx, gaugeID, epochNum)
	if err != nil {
		return GaugeWeightInfo{}, err
	}
	return GaugeWeightInfo{
		GaugeID:           weight.GaugeID,
		Epoch:             weight.Epoch,
		TotalVotingPower:  uint64(weight.TotalVotingPower),
		RelativeWeightBps: weight.RelativeWeightBps,
	}, nil
}

func (a *LedgerAdapter) GrantClaimable(
	ctx context.Context,
	grantID uint64,
	epochNum uint64,
) (uint64, error) {
	return a.ledgerState.Vesting().Claimable(ctx, grantID, epochNum)
}
