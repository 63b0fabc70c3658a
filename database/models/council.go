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
	"github.com/ethereum/go-ethereum/common"
)

const (
	CouncilActionKindVeto    uint8 = 1
	CouncilActionKindSpeedup uint8 = 2
)

// CouncilAction is a veto or speedup attempt by the oversight council.
// There is at most one action of each kind per proposal.
type CouncilAction struct {
	ID           uint64         `gorm:"primarykey"`
	ProposalID   uint64         `gorm:"uniqueIndex:idx_council_action_kind,priority:1;not null"`
	Kind         uint8          `gorm:"uniqueIndex:idx_council_action_kind,priority:2;not null"`
	Initiator    common.Address `gorm:"size:20;not null"`
	CreatedTime  int64          `gorm:"not null"`
	ExpiryTime   int64          `gorm:"not null"`
	Approvals    uint32         `gorm:"not null"`
	Executed     bool           `gorm:"not null"`
	ExecutedTime int64
	// Replacement timing, in seconds, for speedup actions
	NewVotingPeriod  int64
	NewTimelockDelay int64
}

func (CouncilAction) TableName() string {
	return "council_action"
}

// CouncilApproval is one member's approval of a council action
type CouncilApproval struct {
	ID           uint64         `gorm:"primarykey"`
	ActionID     uint64         `gorm:"uniqueIndex:idx_council_approval_member,priority:1;not null"`
	Member       common.Address `gorm:"uniqueIndex:idx_council_approval_member,priority:2;size:20;not null"`
	ApprovedTime int64          `gorm:"not null"`
}

func (CouncilApproval) TableName() string {
	return "council_approval"
}
