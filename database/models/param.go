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

// GovernanceParam is an administratively tunable parameter
type GovernanceParam struct {
	Name        string       `gorm:"primarykey;size:64"`
	Value       types.Uint64 `gorm:"not null"`
	UpdatedTime int64        `gorm:"not null"`
}

func (GovernanceParam) TableName() string {
	return "governance_param"
}

// Payout is the audit record of a treasury release
type Payout struct {
	ID        uint64         `gorm:"primarykey"`
	Recipient common.Address `gorm:"index;size:20;not null"`
	Amount    types.Uint64   `gorm:"not null"`
	GaugeID   uint64         `gorm:"index;not null"`
	Epoch     uint64         `gorm:"index;not null"`
	Source    string         `gorm:"size:16;not null"`
	SourceID  uint64
	PaidTime  int64 `gorm:"not null"`
}

func (Payout) TableName() string {
	return "payout"
}
