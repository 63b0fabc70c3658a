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

package gauge

import (
	"fmt"

	"github.com/blinklabs-io/ballot/database/models"
	lcommon "github.com/blinklabs-io/ballot/ledger/common"
	"github.com/ethereum/go-ethereum/common"
)

// Claim describes a release of gauge funds in progress
type Claim struct {
	Call      lcommon.Call
	Gauge     *models.Gauge
	Epoch     uint64
	Recipient common.Address
	Amount    uint64
	Source    string
	SourceID  uint64
}

// Hooks customize gauge behavior per gauge kind. They run inside the
// operation transaction and any error aborts the operation
type Hooks interface {
	OnDistributionReceived(op *lcommon.Op, gauge *models.Gauge, dist *models.Distribution) error
	BeforeClaim(op *lcommon.Op, claim *Claim) error
	AfterClaim(op *lcommon.Op, claim *Claim) error
}

// standardHooks pays the epoch distribution to the gauge target
type standardHooks struct{}

func (standardHooks) OnDistributionReceived(*lcommon.Op, *models.Gauge, *models.Distribution) error {
	return nil
}

func (standardHooks) BeforeClaim(op *lcommon.Op, claim *Claim) error {
	if claim.Call.Caller != claim.Gauge.Target {
		return fmt.Errorf(
			"%w: only the target of gauge %d may claim",
			lcommon.ErrAuthorization,
			claim.Gauge.ID,
		)
	}
	dist, err := op.DB().GetDistribution(claim.Gauge.ID, claim.Epoch, op.Txn())
	if err != nil {
		return fmt.Errorf("failed to get distribution: %w", err)
	}
	if dist == nil {
		return fmt.Errorf(
			"%w: no distribution for gauge %d in epoch %d",
			lcommon.ErrNotFound,
			claim.Gauge.ID,
			claim.Epoch,
		)
	}
	if dist.Claimed {
		return fmt.Errorf(
			"%w: distribution for gauge %d in epoch %d already claimed",
			lcommon.ErrDuplicate,
			claim.Gauge.ID,
			claim.Epoch,
		)
	}
	claim.Amount = uint64(dist.Amount)
	return nil
}

func (standardHooks) AfterClaim(op *lcommon.Op, claim *Claim) error {
	return MarkDistributionClaimed(op, claim.Gauge.ID, claim.Epoch)
}

// MarkDistributionClaimed flags the distribution of a gauge for an epoch as
// claimed. It does nothing if the distribution is missing or already flagged
func MarkDistributionClaimed(op *lcommon.Op, gaugeID uint64, epoch uint64) error {
	dist, err := op.DB().GetDistribution(gaugeID, epoch, op.Txn())
	if err != nil {
		return fmt.Errorf("failed to get distribution: %w", err)
	}
	if dist == nil || dist.Claimed {
		return nil
	}
	dist.Claimed = true
	if err := op.DB().SetDistribution(dist, op.Txn()); err != nil {
		return fmt.Errorf("failed to set distribution: %w", err)
	}
	return nil
}
