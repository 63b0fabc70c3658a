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

// Package treasury records fund releases made by gauges and grants
package treasury

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/blinklabs-io/ballot/database/models"
	"github.com/blinklabs-io/ballot/database/types"
	"github.com/blinklabs-io/ballot/event"
	lcommon "github.com/blinklabs-io/ballot/ledger/common"
	"github.com/ethereum/go-ethereum/common"
)

type TreasuryConfig struct {
	Logger   *slog.Logger
	Executor *lcommon.Executor
}

// Treasury is a FundsReleaser that keeps an audit record of every release
type Treasury struct {
	config TreasuryConfig
}

func New(cfg TreasuryConfig) (*Treasury, error) {
	if cfg.Executor == nil {
		return nil, fmt.Errorf("%w: no executor", lcommon.ErrInvalidArgument)
	}
	if cfg.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Treasury{config: cfg}, nil
}

// Release records a payout within the operation transaction
func (t *Treasury) Release(op *lcommon.Op, req lcommon.ReleaseRequest) error {
	if req.Amount == 0 {
		return fmt.Errorf("%w: zero release", lcommon.ErrArithmeticBound)
	}
	if req.To == (common.Address{}) {
		return fmt.Errorf("%w: release to zero address", lcommon.ErrInvalidArgument)
	}
	payout := &models.Payout{
		Recipient: req.To,
		Amount:    types.Uint64(req.Amount),
		GaugeID:   req.GaugeID,
		Epoch:     req.Epoch,
		Source:    req.Source,
		SourceID:  req.SourceID,
		PaidTime:  req.Time.Unix(),
	}
	if err := op.DB().AddPayout(payout, op.Txn()); err != nil {
		return fmt.Errorf("failed to add payout: %w", err)
	}
	op.Emit(
		event.TreasuryReleasedEventType,
		event.TreasuryReleasedEvent{
			Recipient: req.To,
			Amount:    req.Amount,
			GaugeID:   req.GaugeID,
			Epoch:     req.Epoch,
			Source:    req.Source,
			SourceID:  req.SourceID,
		},
	)
	op.OnCommit(func() {
		t.config.Logger.Debug(
			"released funds",
			"recipient", req.To.Hex(),
			"amount", req.Amount,
			"source", req.Source,
			"component", "treasury",
		)
	})
	return nil
}

// Payouts returns the releases made to an address
func (t *Treasury) Payouts(
	ctx context.Context,
	recipient common.Address,
) ([]models.Payout, error) {
	var ret []models.Payout
	err := t.config.Executor.View(
		ctx,
		"treasury.payouts",
		func(op *lcommon.Op) error {
			var err error
			ret, err = op.DB().GetPayouts(recipient, op.Txn())
			return err
		},
	)
	return ret, err
}
