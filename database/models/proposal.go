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

package models

import (
	"github.com/blinklabs-io/ballot/database/types"
	"github.com/ethereum/go-ethereum/common"
)

// ProposalStatus values persisted on a proposal. Time-derived states
// (pending, active, defeated, succeeded) are never stored.
const (
	ProposalStatusOpen      uint8 = 0
	ProposalStatusQueued    uint8 = 1
	ProposalStatusExecuted  uint8 = 2
	ProposalStatusCancelled uint8 = 3
	ProposalStatusVetoed    uint8 = 4
)

// Proposal is a governance proposal and its running vote tally
type Proposal struct {
	ID            uint64         `gorm:"primarykey"`
	Proposer      common.Address `gorm:"index;size:20;not null"`
	Title         string         `gorm:"size:256;not null"`
	ContentHash   common.Hash    `gorm:"size:32;not null"`
	BodyHash      common.Hash    `gorm:"size:32;not null"`
	CreatedTime   int64          `gorm:"not null"`
	VoteStart     int64          `gorm:"index;not null"`
	VoteEnd       int64          `gorm:"index;not null"`
	ExecutionTime int64
	ForVotes      types.Uint64 `gorm:"not null"`
	AgainstVotes  types.Uint64 `gorm:"not null"`
	AbstainVotes  types.Uint64 `gorm:"not null"`
	// Total voting power and quorum at creation
	TotalPower  types.Uint64 `gorm:"not null"`
	QuorumBps   uint32       `gorm:"not null"`
	Status      uint8        `gorm:"index;not null"`
	Accelerated bool
}

func (Proposal) TableName() string {
	return "proposal"
}

// ProposalVote records a single voting position's vote on a proposal
type ProposalVote struct {
	ID         uint64         `gorm:"primarykey"`
	ProposalID uint64         `gorm:"uniqueIndex:idx_proposal_vote_position,priority:1;not null"`
	PositionID uint64         `gorm:"uniqueIndex:idx_proposal_vote_position,priority:2;not null"`
	Voter      common.Address `gorm:"index;size:20;not null"`
	Choice     uint8          `gorm:"not null"`
	Power      types.Uint64   `gorm:"not null"`
	VotedTime  int64          `gorm:"not null"`
}

func (ProposalVote) TableName() string {
	return "proposal_vote"
}
