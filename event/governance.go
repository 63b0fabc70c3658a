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

package event

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

const (
	ProposalCreatedEventType   = EventType("proposal.created")
	ProposalVotedEventType     = EventType("proposal.voted")
	ProposalQueuedEventType    = EventType("proposal.queued")
	ProposalExecutedEventType  = EventType("proposal.executed")
	ProposalCancelledEventType = EventType("proposal.cancelled")
	ProposalVetoedEventType    = EventType("proposal.vetoed")

	VetoInitiatedEventType    = EventType("council.veto.initiated")
	VetoApprovedEventType     = EventType("council.veto.approved")
	VetoExecutedEventType     = EventType("council.veto.executed")
	SpeedupInitiatedEventType = EventType("council.speedup.initiated")
	SpeedupApprovedEventType  = EventType("council.speedup.approved")
	SpeedupExecutedEventType  = EventType("council.speedup.executed")

	GaugeAddedEventType            = EventType("gauge.added")
	GaugeActivatedEventType        = EventType("gauge.activated")
	GaugeDeactivatedEventType      = EventType("gauge.deactivated")
	GaugeVotedEventType            = EventType("gauge.voted")
	GaugeWeightsFinalizedEventType = EventType("gauge.weights_finalized")
	GaugeDistributedEventType      = EventType("gauge.distributed")
	GaugeClaimedEventType          = EventType("gauge.claimed")

	GrantCreatedEventType = EventType("grant.created")
	GrantClaimedEventType = EventType("grant.claimed")
	GrantRevokedEventType = EventType("grant.revoked")

	EpochStartedEventType   = EventType("epoch.started")
	EpochFinalizedEventType = EventType("epoch.finalized")

	ParamChangedEventType     = EventType("param.changed")
	TreasuryReleasedEventType = EventType("treasury.released")
)

// GovernanceEventTypes lists every event type emitted by the governance core
var GovernanceEventTypes = []EventType{
	ProposalCreatedEventType,
	ProposalVotedEventType,
	ProposalQueuedEventType,
	ProposalExecutedEventType,
	ProposalCancelledEventType,
	ProposalVetoedEventType,
	VetoInitiatedEventType,
	VetoApprovedEventType,
	VetoExecutedEventType,
	SpeedupInitiatedEventType,
	SpeedupApprovedEventType,
	SpeedupExecutedEventType,
	GaugeAddedEventType,
	GaugeActivatedEventType,
	GaugeDeactivatedEventType,
	GaugeVotedEventType,
	GaugeWeightsFinalizedEventType,
	GaugeDistributedEventType,
	GaugeClaimedEventType,
	GrantCreatedEventType,
	GrantClaimedEventType,
	GrantRevokedEventType,
	EpochStartedEventType,
	EpochFinalizedEventType,
	ParamChangedEventType,
	TreasuryReleasedEventType,
}

type ProposalCreatedEvent struct {
	ProposalID  uint64
	Proposer    common.Address
	Title       string
	ContentHash common.Hash
	BodyHash    common.Hash
	VoteStart   time.Time
	VoteEnd     time.Time
	// Total voting power at creation, the quorum base
	TotalPower uint64
}

type ProposalVotedEvent struct {
	ProposalID   uint64
	Voter        common.Address
	PositionIDs  []uint64
	Choice       uint8
	Power        uint64
	ForVotes     uint64
	AgainstVotes uint64
	AbstainVotes uint64
}

type ProposalQueuedEvent struct {
	ProposalID    uint64
	ExecutionTime time.Time
	Accelerated   bool
}

type ProposalExecutedEvent struct {
	ProposalID uint64
	Executor   common.Address
}

type ProposalCancelledEvent struct {
	ProposalID  uint64
	CancelledBy common.Address
}

type ProposalVetoedEvent struct {
	ProposalID uint64
}

// CouncilActionEvent is emitted for every veto and speedup transition
type CouncilActionEvent struct {
	ProposalID uint64
	ActionID   uint64
	// Member is the initiating or approving member. It is the zero address
	// for a permissionless execution
	Member     common.Address
	Approvals  uint32
	Required   uint32
	ExpiryTime time.Time
	// Replacement timing, for speedup actions only
	NewVotingPeriod  time.Duration
	NewTimelockDelay time.Duration
}

// GaugeEvent is emitted on gauge catalog changes
type GaugeEvent struct {
	GaugeID  uint64
	Target   common.Address
	Name     string
	Category string
	Kind     string
}

type GaugeVotedEvent struct {
	Epoch       uint64
	PositionID  uint64
	Voter       common.Address
	GaugeIDs    []uint64
	WeightsBps  []uint32
	VotingPower uint64
	// Epoch-wide total after the vote
	EpochTotalVotingPower uint64
}

type GaugeWeightsFinalizedEvent struct {
	Epoch            uint64
	TotalVotingPower uint64
	// Relative weight in basis points, by gauge ID
	WeightsBps map[uint64]uint32
}

type GaugeDistributedEvent struct {
	Epoch  uint64
	Amount uint64
	// Amount received, by gauge ID
	Allocations map[uint64]uint64
}

type GaugeClaimedEvent struct {
	GaugeID   uint64
	Epoch     uint64
	Recipient common.Address
	Amount    uint64
}

type GrantCreatedEvent struct {
	GrantID       uint64
	GaugeID       uint64
	Recipient     common.Address
	TotalAmount   uint64
	StartEpoch    uint64
	VestingEpochs uint64
	MetadataHash  common.Hash
}

type GrantClaimedEvent struct {
	GrantID   uint64
	Epoch     uint64
	Recipient common.Address
	Amount    uint64
	// Claimed total after this claim
	ClaimedAmount uint64
}

type GrantRevokedEvent struct {
	GrantID   uint64
	RevokedBy common.Address
}

type EpochStartedEvent struct {
	Epoch           uint64
	StartTime       time.Time
	EndTime         time.Time
	VotingEnd       time.Time
	DistributionEnd time.Time
}

type EpochFinalizedEvent struct {
	Epoch            uint64
	TotalVotingPower uint64
	TotalDistributed uint64
}

// ParamChangedEvent carries the old and new value of an administrative
// setting. Durations are reported in seconds
type ParamChangedEvent struct {
	Component string
	Name      string
	OldValue  uint64
	NewValue  uint64
	ChangedBy common.Address
}

type TreasuryReleasedEvent struct {
	Recipient common.Address
	Amount    uint64
	GaugeID   uint64
	Epoch     uint64
	Source    string
	SourceID  uint64
}
