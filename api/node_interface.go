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

	"github.com/ethereum/go-ethereum/common"
)

// GovernanceNode is the read interface the API server queries. It decouples
// the HTTP layer from the ledger and enables testing with mocks.
// Implementations return an error wrapping lcommon.ErrNotFound for unknown
// records
type GovernanceNode interface {
	// CurrentEpoch returns the epoch in progress at now
	CurrentEpoch(ctx context.Context, now time.Time) (EpochInfo, error)

	// Epoch returns an epoch by number. Epochs without a stored record
	// report their scheduled boundaries and zero totals
	Epoch(ctx context.Context, epoch uint64, now time.Time) (EpochInfo, error)

	// Proposal returns a proposal with its state at now
	Proposal(ctx context.Context, id uint64, now time.Time) (ProposalInfo, error)

	// CouncilActions returns the veto and speedup actions on a proposal
	CouncilActions(
		ctx context.Context,
		proposalID uint64,
		now time.Time,
	) ([]CouncilActionInfo, error)

	// Gauges returns the gauge catalog
	Gauges(ctx context.Context) ([]GaugeInfo, error)

	// GaugeWeight returns the weight of a gauge in an epoch
	GaugeWeight(
		ctx context.Context,
		gaugeID uint64,
		epoch uint64,
	) (GaugeWeightInfo, error)

	// GrantClaimable returns the amount a grant could claim for an epoch
	GrantClaimable(
		ctx context.Context,
		grantID uint64,
		epoch uint64,
	) (uint64, error)
}

// EpochInfo holds epoch data needed by the API. Times are unix seconds
type EpochInfo struct {
	Number           uint64
	Phase            string
	StartTime        int64
	EndTime          int64
	VotingEnd        int64
	DistributionEnd  int64
	TotalVotingPower uint64
	TotalDistributed uint64
	Finalized        bool
	WeightsFinalized bool
	Distributed      bool
}

// ProposalInfo holds proposal data needed by the API
type ProposalInfo struct {
	ID            uint64
	Proposer      common.Address
	Title         string
	Description   string
	ContentHash   common.Hash
	BodyHash      common.Hash
	State         string
	CreatedTime   int64
	VoteStart     int64
	VoteEnd       int64
	ExecutionTime int64
	ForVotes      uint64
	AgainstVotes  uint64
	AbstainVotes  uint64
	TotalPower    uint64
	Accelerated   bool
}

// CouncilActionInfo holds a council action and its approving members
type CouncilActionInfo struct {
	ID               uint64
	Kind             string
	Initiator        common.Address
	CreatedTime      int64
	ExpiryTime       int64
	Approvers        []common.Address
	Executed         bool
	Expired          bool
	NewVotingPeriod  int64
	NewTimelockDelay int64
}

// GaugeInfo holds gauge data needed by the API
type GaugeInfo struct {
	ID       uint64
	Target   common.Address
	Name     string
	Category string
	Kind     string
	Active   bool
	Balance  uint64
}

// GaugeWeightInfo holds a gauge weight for one epoch
type GaugeWeightInfo struct {
	GaugeID           uint64
	Epoch             uint64
	TotalVotingPower  uint64
	RelativeWeightBps uint32
}
