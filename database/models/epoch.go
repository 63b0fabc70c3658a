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
)

// Epoch is the materialized record of a governance cycle
type Epoch struct {
	ID               uint64       `gorm:"primarykey"`
	Number           uint64       `gorm:"uniqueIndex;not null"`
	StartTime        int64        `gorm:"not null"`
	EndTime          int64        `gorm:"not null"`
	VotingEnd        int64        `gorm:"not null"`
	DistributionEnd  int64        `gorm:"not null"`
	TotalVotingPower types.Uint64 `gorm:"not null"`
	TotalDistributed types.Uint64 `gorm:"not null"`
	Finalized        bool         `gorm:"not null"`
	FinalizedTime    int64
	WeightsFinalized bool `gorm:"not null"`
	Distributed      bool `gorm:"not null"`
}

func (Epoch) TableName() string {
	return "epoch"
}
