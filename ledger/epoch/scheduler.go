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

package epoch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/ballot/database/models"
	"github.com/blinklabs-io/ballot/database/types"
	"github.com/blinklabs-io/ballot/event"
	lcommon "github.com/blinklabs-io/ballot/ledger/common"
)

type SchedulerConfig struct {
	Logger   *slog.Logger
	Executor *lcommon.Executor
	Schedule Schedule
}

// Scheduler is the only writer of epoch records. Other components update
// epoch accumulators through its transaction helpers
type Scheduler struct {
	config SchedulerConfig
}

func NewScheduler(cfg SchedulerConfig) (*Scheduler, error) {
	if cfg.Executor == nil {
		return nil, fmt.Errorf("%w: no executor", lcommon.ErrInvalidArgument)
	}
	if err := cfg.Schedule.Validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Scheduler{config: cfg}, nil
}

func (s *Scheduler) Schedule() Schedule {
	return s.config.Schedule
}

// CurrentEpoch returns the epoch number at the given time
func (s *Scheduler) CurrentEpoch(now time.Time) uint64 {
	return s.config.Schedule.EpochAt(now)
}

// Phase returns the phase of the current epoch at the given time
func (s *Scheduler) Phase(now time.Time) Phase {
	return s.config.Schedule.PhaseAt(now)
}

// Advance materializes the current epoch and finalizes the previous one.
// It is a no-op unless the current epoch is ahead of the latest record. It
// returns the current epoch number and whether a new record was created
func (s *Scheduler) Advance(
	ctx context.Context,
	call lcommon.Call,
) (uint64, bool, error) {
	current := s.CurrentEpoch(call.Now)
	advanced := false
	err := s.config.Executor.Do(
		ctx,
		"epoch.advance",
		func(op *lcommon.Op) error {
			latest, err := op.DB().GetEpochLatest(op.Txn())
			if err != nil {
				return fmt.Errorf("failed to get latest epoch: %w", err)
			}
			if latest != nil && current <= latest.Number {
				return nil
			}
			if _, err := s.Ensure(op, current, call.Now); err != nil {
				return err
			}
			advanced = true
			return nil
		},
	)
	if err != nil {
		return 0, false, err
	}
	if advanced {
		s.config.Logger.Info(
			fmt.Sprintf("advanced to epoch %d", current),
			"component", "epoch",
		)
	}
	return current, advanced, nil
}

// Finalize closes a past epoch. Finalizing the current or a future epoch
// fails with ErrInvalidState, and an epoch can be finalized only once
func (s *Scheduler) Finalize(
	ctx context.Context,
	call lcommon.Call,
	epoch uint64,
) error {
	return s.config.Executor.Do(
		ctx,
		"epoch.finalize",
		func(op *lcommon.Op) error {
			if epoch >= s.CurrentEpoch(call.Now) {
				return fmt.Errorf(
					"%w: epoch %d has not ended",
					lcommon.ErrInvalidState,
					epoch,
				)
			}
			rec, err := op.DB().GetEpoch(epoch, op.Txn())
			if err != nil {
				return fmt.Errorf("failed to get epoch: %w", err)
			}
			if rec == nil {
				// Epochs nobody interacted with are materialized on demand
				rec = s.newRecord(epoch)
			}
			if rec.Finalized {
				return fmt.Errorf(
					"%w: epoch %d already finalized",
					lcommon.ErrDuplicate,
					epoch,
				)
			}
			return s.finalizeRecord(op, rec, call.Now)
		},
	)
}

// Get returns the record of an epoch, or nil if it was never materialized
func (s *Scheduler) Get(ctx context.Context, epoch uint64) (*models.Epoch, error) {
	var ret *models.Epoch
	err := s.config.Executor.View(ctx, "epoch.get", func(op *lcommon.Op) error {
		var err error
		ret, err = op.DB().GetEpoch(epoch, op.Txn())
		return err
	})
	return ret, err
}

// List returns all materialized epoch records
func (s *Scheduler) List(ctx context.Context) ([]models.Epoch, error) {
	var ret []models.Epoch
	err := s.config.Executor.View(ctx, "epoch.list", func(op *lcommon.Op) error {
		var err error
		ret, err = op.DB().GetEpochs(op.Txn())
		return err
	})
	return ret, err
}

// Ensure returns the record of an epoch, creating it if needed. Creating a
// record finalizes the latest earlier record that is still open. Epochs
// after the current one cannot be materialized
func (s *Scheduler) Ensure(
	op *lcommon.Op,
	epoch uint64,
	now time.Time,
) (*models.Epoch, error) {
	if current := s.CurrentEpoch(now); epoch > current {
		return nil, fmt.Errorf(
			"%w: epoch %d has not started, current epoch is %d",
			lcommon.ErrInvalidState,
			epoch,
			current,
		)
	}
	rec, err := op.DB().GetEpoch(epoch, op.Txn())
	if err != nil {
		return nil, fmt.Errorf("failed to get epoch: %w", err)
	}
	if rec != nil {
		return rec, nil
	}
	latest, err := op.DB().GetEpochLatest(op.Txn())
	if err != nil {
		return nil, fmt.Errorf("failed to get latest epoch: %w", err)
	}
	if latest != nil && latest.Number < epoch && !latest.Finalized {
		if err := s.finalizeRecord(op, latest, now); err != nil {
			return nil, err
		}
	}
	rec = s.newRecord(epoch)
	if err := op.DB().SetEpoch(rec, op.Txn()); err != nil {
		return nil, fmt.Errorf("failed to set epoch: %w", err)
	}
	op.Emit(
		event.EpochStartedEventType,
		event.EpochStartedEvent{
			Epoch:           rec.Number,
			StartTime:       time.Unix(rec.StartTime, 0),
			EndTime:         time.Unix(rec.EndTime, 0),
			VotingEnd:       time.Unix(rec.VotingEnd, 0),
			DistributionEnd: time.Unix(rec.DistributionEnd, 0),
		},
	)
	return rec, nil
}

// AdjustVotingPower removes and then adds power to the epoch-wide total
func (s *Scheduler) AdjustVotingPower(
	op *lcommon.Op,
	epoch uint64,
	removed uint64,
	added uint64,
	now time.Time,
) (uint64, error) {
	rec, err := s.Ensure(op, epoch, now)
	if err != nil {
		return 0, err
	}
	total, err := lcommon.SubChecked(uint64(rec.TotalVotingPower), removed)
	if err != nil {
		return 0, err
	}
	total, err = lcommon.AddChecked(total, added)
	if err != nil {
		return 0, err
	}
	rec.TotalVotingPower = types.Uint64(total)
	if err := op.DB().SetEpoch(rec, op.Txn()); err != nil {
		return 0, fmt.Errorf("failed to set epoch: %w", err)
	}
	return total, nil
}

// AddDistributed adds to the total amount distributed in an epoch
func (s *Scheduler) AddDistributed(
	op *lcommon.Op,
	epoch uint64,
	amount uint64,
	now time.Time,
) error {
	rec, err := s.Ensure(op, epoch, now)
	if err != nil {
		return err
	}
	total, err := lcommon.AddChecked(uint64(rec.TotalDistributed), amount)
	if err != nil {
		return err
	}
	rec.TotalDistributed = types.Uint64(total)
	if err := op.DB().SetEpoch(rec, op.Txn()); err != nil {
		return fmt.Errorf("failed to set epoch: %w", err)
	}
	return nil
}

// MarkWeightsFinalized records that gauge weights of an epoch are final
func (s *Scheduler) MarkWeightsFinalized(
	op *lcommon.Op,
	epoch uint64,
	now time.Time,
) error {
	rec, err := s.Ensure(op, epoch, now)
	if err != nil {
		return err
	}
	if rec.WeightsFinalized {
		return fmt.Errorf(
			"%w: weights of epoch %d already finalized",
			lcommon.ErrDuplicate,
			epoch,
		)
	}
	rec.WeightsFinalized = true
	if err := op.DB().SetEpoch(rec, op.Txn()); err != nil {
		return fmt.Errorf("failed to set epoch: %w", err)
	}
	return nil
}

// MarkDistributed records that the funding of an epoch was distributed
func (s *Scheduler) MarkDistributed(
	op *lcommon.Op,
	epoch uint64,
	now time.Time,
) error {
	rec, err := s.Ensure(op, epoch, now)
	if err != nil {
		return err
	}
	if rec.Distributed {
		return fmt.Errorf(
			"%w: epoch %d already distributed",
			lcommon.ErrDuplicate,
			epoch,
		)
	}
	rec.Distributed = true
	if err := op.DB().SetEpoch(rec, op.Txn()); err != nil {
		return fmt.Errorf("failed to set epoch: %w", err)
	}
	return nil
}

func (s *Scheduler) newRecord(epoch uint64) *models.Epoch {
	bounds := s.config.Schedule.Bounds(epoch)
	return &models.Epoch{
		Number:          epoch,
		StartTime:       bounds.Start.Unix(),
		EndTime:         bounds.End.Unix(),
		VotingEnd:       bounds.VotingEnd.Unix(),
		DistributionEnd: bounds.DistributionEnd.Unix(),
	}
}

func (s *Scheduler) finalizeRecord(
	op *lcommon.Op,
	rec *models.Epoch,
	now time.Time,
) error {
	rec.Finalized = true
	rec.FinalizedTime = now.Unix()
	if err := op.DB().SetEpoch(rec, op.Txn()); err != nil {
		return fmt.Errorf("failed to set epoch: %w", err)
	}
	op.Emit(
		event.EpochFinalizedEventType,
		event.EpochFinalizedEvent{
			Epoch:            rec.Number,
			TotalVotingPower: uint64(rec.TotalVotingPower),
			TotalDistributed: uint64(rec.TotalDistributed),
		},
	)
	return nil
}
