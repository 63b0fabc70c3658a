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

const (
	GaugeKindStandard = "standard"
	GaugeKindGrant    = "grant"
)

// Gauge is a funding recipient competing for a share of each epoch's stream
type Gauge struct {
	ID          uint64         `gorm:"primarykey"`
	Target      common.Address `gorm:"index;size:20;not null"`
	Name        string         `gorm:"size:128;not null"`
	Category    string         `gorm:"size:64;index"`
	Kind        string         `gorm:"size:16;not null"`
	Active      bool           `gorm:"index;not null"`
	Balance     types.Uint64   `gorm:"not null"`
	CreatedTime int64          `gorm:"not null"`
}

func (Gauge) TableName() string {
	return "gauge"
}

// GaugeWeight accumulates voting power for a gauge in an epoch
type GaugeWeight struct {
	ID                uint64       `gorm:"primarykey"`
	GaugeID           uint64       `gorm:"uniqueIndex:idx_gauge_weight_epoch,priority:1;not null"`
	Epoch             uint64       `gorm:"uniqueIndex:idx_gauge_weight_epoch,priority:2;index;not null"`
	TotalVotingPower  types.Uint64 `gorm:"not null"`
	RelativeWeightBps uint32       `gorm:"not null"`
}

func (GaugeWeight) TableName() string {
	return "gauge_weight"
}

// GaugeVote is one position's weight share for a gauge in an epoch
type GaugeVote struct {
	ID          uint64       `gorm:"primarykey"`
	PositionID  uint64       `gorm:"uniqueIndex:idx_gauge_vote_position,priority:1;not null"`
	Epoch       uint64       `gorm:"uniqueIndex:idx_gauge_vote_position,priority:2;not null"`
	GaugeID     uint64       `gorm:"uniqueIndex:idx_gauge_vote_position,priority:3;not null"`
	WeightBps   uint32       `gorm:"not null"`
	VotingPower types.Uint64 `gorm:"not null"`
	// Power added to the gauge accumulator, removed verbatim on re-vote
	Contribution types.Uint64 `gorm:"not null"`
	VotedTime    int64        `gorm:"not null"`
}

func (GaugeVote) TableName() string {
	return "gauge_vote"
}

// GaugeEpochVoter is the power a position added to an epoch total
type GaugeEpochVoter struct {
	ID          uint64       `gorm:"primarykey"`
	PositionID  uint64       `gorm:"uniqueIndex:idx_gauge_epoch_voter,priority:1;not null"`
	Epoch       uint64       `gorm:"uniqueIndex:idx_gauge_epoch_voter,priority:2;not null"`
	VotingPower types.Uint64 `gorm:"not null"`
}

func (GaugeEpochVoter) TableName() string {
	return "gauge_epoch_voter"
}

// Distribution is the funding a gauge received for an epoch
type Distribution struct {
	ID        uint64       `gorm:"primarykey"`
	GaugeID   uint64       `gorm:"uniqueIndex:idx_distribution_epoch,priority:1;not null"`
	Epoch     uint64       `gorm:"uniqueIndex:idx_distribution_epoch,priority:2;index;not null"`
	Amount    types.Uint64 `gorm:"not null"`
	WeightBps uint32       `gorm:"not null"`
	Claimed   bool         `gorm:"not null"`
}

func (Distribution) TableName() string {
	return "distribution"
}
