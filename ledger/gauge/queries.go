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
	"context"

	"github.com/blinklabs-io/ballot/database/models"
	lcommon "github.com/blinklabs-io/ballot/ledger/common"
)

func (a *Allocator) view(
	ctx context.Context,
	name string,
	fn func(*lcommon.Op) error,
) error {
	return a.config.Executor.View(ctx, name, fn)
}

// Gauge returns a gauge by ID
func (a *Allocator) Gauge(ctx context.Context, gaugeID uint64) (*models.Gauge, error) {
	var ret *models.Gauge
	err := a.view(ctx, "gauge.get", func(op *lcommon.Op) error {
		var err error
		ret, err = getGauge(op, gaugeID)
		return err
	})
	return ret, err
}

// Gauges returns the gauge catalog
func (a *Allocator) Gauges(ctx context.Context, activeOnly bool) ([]models.Gauge, error) {
	var ret []models.Gauge
	err := a.view(ctx, "gauge.list", func(op *lcommon.Op) error {
		var err error
		ret, err = op.DB().GetGauges(activeOnly, op.Txn())
		return err
	})
	return ret, err
}

// Weight returns the weight record of a gauge in an epoch. A gauge nobody
// voted for has a zero weight
func (a *Allocator) Weight(
	ctx context.Context,
	gaugeID uint64,
	epochNum uint64,
) (*models.GaugeWeight, error) {
	var ret *models.GaugeWeight
	err := a.view(ctx, "gauge.weight", func(op *lcommon.Op) error {
		if _, err := getGauge(op, gaugeID); err != nil {
			return err
		}
		weight, err := op.DB().GetGaugeWeight(gaugeID, epochNum, op.Txn())
		if err != nil {
			return err
		}
		if weight == nil {
			weight = &models.GaugeWeight{GaugeID: gaugeID, Epoch: epochNum}
		}
		ret = weight
		return nil
	})
	return ret, err
}

// Weights returns all gauge weights of an epoch
func (a *Allocator) Weights(ctx context.Context, epochNum uint64) ([]models.GaugeWeight, error) {
	var ret []models.GaugeWeight
	err := a.view(ctx, "gauge.weights", func(op *lcommon.Op) error {
		var err error
		ret, err = op.DB().GetGaugeWeights(epochNum, op.Txn())
		return err
	})
	return ret, err
}

// Votes returns the live votes of a position in an epoch
func (a *Allocator) Votes(
	ctx context.Context,
	positionID uint64,
	epochNum uint64,
) ([]models.GaugeVote, error) {
	var ret []models.GaugeVote
	err := a.view(ctx, "gauge.votes", func(op *lcommon.Op) error {
		var err error
		ret, err = op.DB().GetGaugeVotes(positionID, epochNum, op.Txn())
		return err
	})
	return ret, err
}

// Distributions returns the distributions of an epoch
func (a *Allocator) Distributions(
	ctx context.Context,
	epochNum uint64,
) ([]models.Distribution, error) {
	var ret []models.Distribution
	err := a.view(ctx, "gauge.distributions", func(op *lcommon.Op) error {
		var err error
		ret, err = op.DB().GetDistributions(epochNum, op.Txn())
		return err
	})
	return ret, err
}
