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

// Grant is a linearly vested award paid out of a grant gauge
type Grant struct {
	ID            uint64         `gorm:"primarykey"`
	GaugeID       uint64         `gorm:"index;not null"`
	Recipient     common.Address `gorm:"index;size:20;not null"`
	TotalAmount   types.Uint64   `gorm:"not null"`
	ClaimedAmount types.Uint64   `gorm:"not null"`
	StartEpoch    uint64         `gorm:"not null"`
	VestingEpochs uint64         `gorm:"not null"`
	Active        bool           `gorm:"not null"`
	MetadataHash  common.Hash    `gorm:"size:32"`
	CreatedTime   int64          `gorm:"not null"`
}

func (Grant) TableName() string {
	return "vesting_grant"
}

// GrantClaim is the amount released for a grant in a single epoch
type GrantClaim struct {
	ID          uint64       `gorm:"primarykey"`
	GrantID     uint64       `gorm:"uniqueIndex:idx_grant_claim_epoch,priority:1;not null"`
	Epoch       uint64       `gorm:"uniqueIndex:idx_grant_claim_epoch,priority:2;not null"`
	Amount      types.Uint64 `gorm:"not null"`
	ClaimedTime int64        `gorm:"not null"`
}

func (GrantClaim) TableName() string {
	return "grant_claim"
}
