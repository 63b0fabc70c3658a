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
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/blinklabs-io/ballot/database/models"
	"github.com/blinklabs-io/ballot/database/types"
	"github.com/blinklabs-io/ballot/event"
	lcommon "github.com/blinklabs-io/ballot/ledger/common"
	"github.com/blinklabs-io/ballot/ledger/epoch"
	"github.com/ethereum/go-ethereum/common"
)

type AllocatorConfig struct {
	Logger   *slog.Logger
	Executor *lcommon.Executor
	Epochs   *epoch.Scheduler
	Power    lcommon.VotingPowerSource
	Releaser lcommon.FundsReleaser
	Roles    lcommon.Roles
}

// Allocator maintains the gauge catalog, collects weighted votes and splits
// the funding of each epoch across gauges
type Allocator struct {
	config     AllocatorConfig
	hooks      map[string]Hooks
	hooksMutex sync.RWMutex
}

func NewAllocator(cfg AllocatorConfig) (*Allocator, error) {
	if cfg.Executor == nil || cfg.Epochs == nil {
		return nil, fmt.Errorf(
			"%w: executor and epoch scheduler are required",
			lcommon.ErrInvalidArgument,
		)
	}
	if cfg.Power == nil || cfg.Releaser == nil {
		return nil, fmt.Errorf(
			"%w: voting power source and funds releaser are required",
			lcommon.ErrInvalidArgument,
		)
	}
	if err := cfg.Roles.Validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	a := &Allocator{
		config: cfg,
		hooks: map[string]Hooks{
			models.GaugeKindStandard: standardHooks{},
		},
	}
	return a, nil
}

// RegisterHooks installs the hooks for a gauge kind
func (a *Allocator) RegisterHooks(kind string, hooks Hooks) {
	a.hooksMutex.Lock()
	defer a.hooksMutex.Unlock()
	a.hooks[kind] = hooks
}

func (a *Allocator) hooksFor(kind string) (Hooks, error) {
	a.hooksMutex.RLock()
	defer a.hooksMutex.RUnlock()
	hooks, ok := a.hooks[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown gauge kind %q", lcommon.ErrInvalidArgument, kind)
	}
	return hooks, nil
}

// AddGauge adds a gauge to the catalog and returns its ID
func (a *Allocator) AddGauge(
	ctx context.Context,
	call lcommon.Call,
	target common.Address,
	name string,
	category string,
	kind string,
) (uint64, error) {
	if target == (common.Address{}) {
		return 0, fmt.Errorf("%w: zero gauge target", lcommon.ErrInvalidArgument)
	}
	if name == "" {
		return 0, fmt.Errorf("%w: empty gauge name", lcommon.ErrInvalidArgument)
	}
	if kind == "" {
		kind = models.GaugeKindStandard
	}
	if _, err := a.hooksFor(kind); err != nil {
		return 0, err
	}
	var id uint64
	err := a.config.Executor.Do(ctx, "gauge.add", func(op *lcommon.Op) error {
		if err := a.config.Roles.RequireAdmin(call.Caller); err != nil {
			return err
		}
		gauge := &models.Gauge{
			Target:      target,
			Name:        name,
			Category:    category,
			Kind:        kind,
			Active:      true,
			CreatedTime: call.Now.Unix(),
		}
		if err := op.DB().SetGauge(gauge, op.Txn()); err != nil {
			return fmt.Errorf("failed to set gauge: %w", err)
		}
		id = gauge.ID
		op.Emit(event.GaugeAddedEventType, gaugeEvent(gauge))
		return nil
	})
	if err != nil {
		return 0, err
	}
	a.config.Logger.Info(
		fmt.Sprintf("added gauge %d (%s)", id, name),
		"component", "gauge",
	)
	return id, nil
}

// ActivateGauge re-enables voting for a gauge
func (a *Allocator) ActivateGauge(
	ctx context.Context,
	call lcommon.Call,
	gaugeID uint64,
) error {
	return a.setActive(ctx, call, gaugeID, true)
}

// DeactivateGauge disables voting for a gauge. The gauge keeps its ID and
// history
func (a *Allocator) DeactivateGauge(
	ctx context.Context,
	call lcommon.Call,
	gaugeID uint64,
) error {
	return a.setActive(ctx, call, gaugeID, false)
}

func (a *Allocator) setActive(
	ctx context.Context,
	call lcommon.Call,
	gaugeID uint64,
	active bool,
) error {
	name := "gauge.deactivate"
	eventType := event.GaugeDeactivatedEventType
	if active {
		name = "gauge.activate"
		eventType = event.GaugeActivatedEventType
	}
	return a.config.Executor.Do(ctx, name, func(op *lcommon.Op) error {
		if err := a.config.Roles.RequireAdmin(call.Caller); err != nil {
			return err
		}
		gauge, err := getGauge(op, gaugeID)
		if err != nil {
			return err
		}
		if gauge.Active == active {
			return fmt.Errorf(
				"%w: gauge %d active is already %t",
				lcommon.ErrInvalidState,
				gaugeID,
				active,
			)
		}
		gauge.Active = active
		if err := op.DB().SetGauge(gauge, op.Txn()); err != nil {
			return fmt.Errorf("failed to set gauge: %w", err)
		}
		op.Emit(eventType, gaugeEvent(gauge))
		return nil
	})
}

// Vote replaces the weights of a position for the current epoch. Any
// earlier vote of the position in the same epoch is cleared before the new
// weights are applied
func (a *Allocator) Vote(
	ctx context.Context,
	call lcommon.Call,
	positionID uint64,
	gaugeIDs []uint64,
	weightsBps []uint32,
) error {
	if len(gaugeIDs) == 0 || len(gaugeIDs) != len(weightsBps) {
		return fmt.Errorf(
			"%w: need one weight per gauge",
			lcommon.ErrInvalidArgument,
		)
	}
	var sum uint64
	seen := make(map[uint64]struct{}, len(gaugeIDs))
	for i, gaugeID := range gaugeIDs {
		if _, ok := seen[gaugeID]; ok {
			return fmt.Errorf(
				"%w: gauge %d listed twice",
				lcommon.ErrInvalidArgument,
				gaugeID,
			)
		}
		seen[gaugeID] = struct{}{}
		sum += uint64(weightsBps[i])
	}
	if sum != lcommon.BasisPoints {
		return fmt.Errorf(
			"%w: weights sum to %d bps, want %d",
			lcommon.ErrThreshold,
			sum,
			lcommon.BasisPoints,
		)
	}
	return a.config.Executor.Do(ctx, "gauge.vote", func(op *lcommon.Op) error {
		if phase := a.config.Epochs.Phase(call.Now); phase != epoch.PhaseVoting {
			return fmt.Errorf(
				"%w: gauge voting is closed during %s",
				lcommon.ErrInvalidState,
				phase,
			)
		}
		ok, err := a.config.Power.IsAuthorized(op.Context(), call.Caller, positionID)
		if err != nil {
			return fmt.Errorf("failed to check position authorization: %w", err)
		}
		if !ok {
			return fmt.Errorf(
				"%w: %s may not vote with position %d",
				lcommon.ErrAuthorization,
				call.Caller.Hex(),
				positionID,
			)
		}
		power, err := a.config.Power.VotingPowerOf(op.Context(), positionID)
		if err != nil {
			return fmt.Errorf("failed to get voting power: %w", err)
		}
		if power == 0 {
			return fmt.Errorf(
				"%w: position %d has no voting power",
				lcommon.ErrInsufficientPower,
				positionID,
			)
		}
		for _, gaugeID := range gaugeIDs {
			gauge, err := getGauge(op, gaugeID)
			if err != nil {
				return err
			}
			if !gauge.Active {
				return fmt.Errorf(
					"%w: gauge %d is not active",
					lcommon.ErrInvalidState,
					gaugeID,
				)
			}
		}
		epochNum := a.config.Epochs.CurrentEpoch(call.Now)
		if _, err := a.config.Epochs.Ensure(op, epochNum, call.Now); err != nil {
			return err
		}
		removed, err := a.clearVotes(op, positionID, epochNum)
		if err != nil {
			return err
		}
		for i, gaugeID := range gaugeIDs {
			if weightsBps[i] == 0 {
				continue
			}
			if err := a.applyVote(op, call, positionID, epochNum, gaugeID, weightsBps[i], power); err != nil {
				return err
			}
		}
		voter, err := op.DB().GetGaugeEpochVoter(positionID, epochNum, op.Txn())
		if err != nil {
			return fmt.Errorf("failed to get epoch voter: %w", err)
		}
		if voter == nil {
			voter = &models.GaugeEpochVoter{
				PositionID: positionID,
				Epoch:      epochNum,
			}
		}
		voter.VotingPower = types.Uint64(power)
		if err := op.DB().SetGaugeEpochVoter(voter, op.Txn()); err != nil {
			return fmt.Errorf("failed to set epoch voter: %w", err)
		}
		total, err := a.config.Epochs.AdjustVotingPower(op, epochNum, removed, power, call.Now)
		if err != nil {
			return err
		}
		op.Emit(
			event.GaugeVotedEventType,
			event.GaugeVotedEvent{
				Epoch:                 epochNum,
				PositionID:            positionID,
				Voter:                 call.Caller,
				GaugeIDs:              gaugeIDs,
				WeightsBps:            weightsBps,
				VotingPower:           power,
				EpochTotalVotingPower: total,
			},
		)
		return nil
	})
}

// clearVotes removes the votes of a position in an epoch, subtracting each
// recorded contribution from its gauge. It returns the power the position
// had added to the epoch total
func (a *Allocator) clearVotes(
	op *lcommon.Op,
	positionID uint64,
	epochNum uint64,
) (uint64, error) {
	votes, err := op.DB().GetGaugeVotes(positionID, epochNum, op.Txn())
	if err != nil {
		return 0, fmt.Errorf("failed to get gauge votes: %w", err)
	}
	for _, vote := range votes {
		weight, err := op.DB().GetGaugeWeight(vote.GaugeID, epochNum, op.Txn())
		if err != nil {
			return 0, fmt.Errorf("failed to get gauge weight: %w", err)
		}
		if weight == nil {
			return 0, fmt.Errorf(
				"%w: vote without weight record for gauge %d",
				lcommon.ErrInvalidState,
				vote.GaugeID,
			)
		}
		remaining, err := lcommon.SubChecked(
			uint64(weight.TotalVotingPower),
			uint64(vote.Contribution),
		)
		if err != nil {
			return 0, err
		}
		weight.TotalVotingPower = types.Uint64(remaining)
		if err := op.DB().SetGaugeWeight(weight, op.Txn()); err != nil {
			return 0, fmt.Errorf("failed to set gauge weight: %w", err)
		}
	}
	if err := op.DB().DeleteGaugeVotes(positionID, epochNum, op.Txn()); err != nil {
		return 0, fmt.Errorf("failed to delete gauge votes: %w", err)
	}
	voter, err := op.DB().GetGaugeEpochVoter(positionID, epochNum, op.Txn())
	if err != nil {
		return 0, fmt.Errorf("failed to get epoch voter: %w", err)
	}
	if voter == nil {
		return 0, nil
	}
	return uint64(voter.VotingPower), nil
}

func (a *Allocator) applyVote(
	op *lcommon.Op,
	call lcommon.Call,
	positionID uint64,
	epochNum uint64,
	gaugeID uint64,
	weightBps uint32,
	power uint64,
) error {
	contribution, err := lcommon.MulDiv(power, uint64(weightBps), lcommon.BasisPoints)
	if err != nil {
		return err
	}
	vote := &models.GaugeVote{
		PositionID:   positionID,
		Epoch:        epochNum,
		GaugeID:      gaugeID,
		WeightBps:    weightBps,
		VotingPower:  types.Uint64(power),
		Contribution: types.Uint64(contribution),
		VotedTime:    call.Now.Unix(),
	}
	if err := op.DB().AddGaugeVote(vote, op.Txn()); err != nil {
		return fmt.Errorf("failed to add gauge vote: %w", err)
	}
	weight, err := op.DB().GetGaugeWeight(gaugeID, epochNum, op.Txn())
	if err != nil {
		return fmt.Errorf("failed to get gauge weight: %w", err)
	}
	if weight == nil {
		weight = &models.GaugeWeight{
			GaugeID: gaugeID,
			Epoch:   epochNum,
		}
	}
	total, err := lcommon.AddChecked(uint64(weight.TotalVotingPower), contribution)
	if err != nil {
		return err
	}
	weight.TotalVotingPower = types.Uint64(total)
	if err := op.DB().SetGaugeWeight(weight, op.Txn()); err != nil {
		return fmt.Errorf("failed to set gauge weight: %w", err)
	}
	return nil
}

// FinalizeEpochWeights converts the accumulated power of every gauge into a
// relative weight. It is allowed once per epoch, after its voting window
func (a *Allocator) FinalizeEpochWeights(
	ctx context.Context,
	call lcommon.Call,
	epochNum uint64,
) error {
	return a.config.Executor.Do(ctx, "gauge.finalize_weights", func(op *lcommon.Op) error {
		if current := a.config.Epochs.CurrentEpoch(call.Now); epochNum > current {
			return fmt.Errorf(
				"%w: epoch %d has not started, current epoch is %d",
				lcommon.ErrInvalidState,
				epochNum,
				current,
			)
		}
		bounds := a.config.Epochs.Schedule().Bounds(epochNum)
		if call.Now.Before(bounds.VotingEnd) {
			return fmt.Errorf(
				"%w: voting window of epoch %d is still open",
				lcommon.ErrInvalidState,
				epochNum,
			)
		}
		rec, err := a.config.Epochs.Ensure(op, epochNum, call.Now)
		if err != nil {
			return err
		}
		if err := a.config.Epochs.MarkWeightsFinalized(op, epochNum, call.Now); err != nil {
			return err
		}
		weights, err := op.DB().GetGaugeWeights(epochNum, op.Txn())
		if err != nil {
			return fmt.Errorf("failed to get gauge weights: %w", err)
		}
		epochTotal := uint64(rec.TotalVotingPower)
		relative := make(map[uint64]uint32, len(weights))
		for i := range weights {
			weight := &weights[i]
			var bps uint64
			if epochTotal > 0 {
				bps, err = lcommon.MulDiv(
					uint64(weight.TotalVotingPower),
					lcommon.BasisPoints,
					epochTotal,
				)
				if err != nil {
					return err
				}
			}
			if bps > lcommon.BasisPoints {
				return fmt.Errorf(
					"%w: gauge %d weight %d bps",
					lcommon.ErrArithmeticBound,
					weight.GaugeID,
					bps,
				)
			}
			weight.RelativeWeightBps = uint32(bps)
			if err := op.DB().SetGaugeWeight(weight, op.Txn()); err != nil {
				return fmt.Errorf("failed to set gauge weight: %w", err)
			}
			relative[weight.GaugeID] = uint32(bps)
		}
		op.Emit(
			event.GaugeWeightsFinalizedEventType,
			event.GaugeWeightsFinalizedEvent{
				Epoch:            epochNum,
				TotalVotingPower: epochTotal,
				WeightsBps:       relative,
			},
		)
		return nil
	})
}

// Distribute splits the funding of an epoch across gauges by relative
// weight. Rounding remainders stay undistributed
func (a *Allocator) Distribute(
	ctx context.Context,
	call lcommon.Call,
	epochNum uint64,
	amount uint64,
) error {
	if amount == 0 {
		return fmt.Errorf("%w: zero distribution", lcommon.ErrInvalidArgument)
	}
	return a.config.Executor.Do(ctx, "gauge.distribute", func(op *lcommon.Op) error {
		if err := a.config.Roles.RequireDistributor(call.Caller); err != nil {
			return err
		}
		rec, err := op.DB().GetEpoch(epochNum, op.Txn())
		if err != nil {
			return fmt.Errorf("failed to get epoch: %w", err)
		}
		if rec == nil || !rec.WeightsFinalized {
			return fmt.Errorf(
				"%w: weights of epoch %d are not final",
				lcommon.ErrInvalidState,
				epochNum,
			)
		}
		if err := a.config.Epochs.MarkDistributed(op, epochNum, call.Now); err != nil {
			return err
		}
		weights, err := op.DB().GetGaugeWeights(epochNum, op.Txn())
		if err != nil {
			return fmt.Errorf("failed to get gauge weights: %w", err)
		}
		allocations := make(map[uint64]uint64, len(weights))
		var distributed uint64
		for _, weight := range weights {
			if weight.RelativeWeightBps == 0 {
				continue
			}
			share, err := lcommon.MulDiv(amount, uint64(weight.RelativeWeightBps), lcommon.BasisPoints)
			if err != nil {
				return err
			}
			if share == 0 {
				continue
			}
			if err := a.credit(op, weight.GaugeID, epochNum, share, weight.RelativeWeightBps); err != nil {
				return err
			}
			allocations[weight.GaugeID] = share
			distributed += share
		}
		if err := a.config.Epochs.AddDistributed(op, epochNum, distributed, call.Now); err != nil {
			return err
		}
		op.Emit(
			event.GaugeDistributedEventType,
			event.GaugeDistributedEvent{
				Epoch:       epochNum,
				Amount:      distributed,
				Allocations: allocations,
			},
		)
		return nil
	})
}

func (a *Allocator) credit(
	op *lcommon.Op,
	gaugeID uint64,
	epochNum uint64,
	amount uint64,
	weightBps uint32,
) error {
	gauge, err := getGauge(op, gaugeID)
	if err != nil {
		return err
	}
	balance, err := lcommon.AddChecked(uint64(gauge.Balance), amount)
	if err != nil {
		return err
	}
	gauge.Balance = types.Uint64(balance)
	if err := op.DB().SetGauge(gauge, op.Txn()); err != nil {
		return fmt.Errorf("failed to set gauge: %w", err)
	}
	dist := &models.Distribution{
		GaugeID:   gaugeID,
		Epoch:     epochNum,
		Amount:    types.Uint64(amount),
		WeightBps: weightBps,
	}
	if err := op.DB().SetDistribution(dist, op.Txn()); err != nil {
		return fmt.Errorf("failed to set distribution: %w", err)
	}
	hooks, err := a.hooksFor(gauge.Kind)
	if err != nil {
		return err
	}
	return hooks.OnDistributionReceived(op, gauge, dist)
}

// ClaimDistribution pays the distribution of a standard gauge for an epoch
// to its target
func (a *Allocator) ClaimDistribution(
	ctx context.Context,
	call lcommon.Call,
	gaugeID uint64,
	epochNum uint64,
) (uint64, error) {
	var amount uint64
	err := a.config.Executor.Do(ctx, "gauge.claim", func(op *lcommon.Op) error {
		gauge, err := getGauge(op, gaugeID)
		if err != nil {
			return err
		}
		if gauge.Kind != models.GaugeKindStandard {
			return fmt.Errorf(
				"%w: gauge %d pays out through grants",
				lcommon.ErrInvalidState,
				gaugeID,
			)
		}
		claim := &Claim{
			Call:      call,
			Gauge:     gauge,
			Epoch:     epochNum,
			Recipient: gauge.Target,
			Source:    lcommon.ReleaseSourceDistribution,
			SourceID:  gaugeID,
		}
		if err := a.ClaimTxn(op, claim); err != nil {
			return err
		}
		amount = claim.Amount
		return nil
	})
	return amount, err
}

// ClaimTxn runs the claim path of a gauge inside an operation: the kind's
// BeforeClaim hook, the release of funds from the gauge balance, and the
// AfterClaim hook
func (a *Allocator) ClaimTxn(op *lcommon.Op, claim *Claim) error {
	hooks, err := a.hooksFor(claim.Gauge.Kind)
	if err != nil {
		return err
	}
	if err := hooks.BeforeClaim(op, claim); err != nil {
		return err
	}
	if claim.Amount == 0 {
		return fmt.Errorf("%w: nothing to claim", lcommon.ErrArithmeticBound)
	}
	balance, err := lcommon.SubChecked(uint64(claim.Gauge.Balance), claim.Amount)
	if err != nil {
		return fmt.Errorf("gauge %d balance: %w", claim.Gauge.ID, err)
	}
	claim.Gauge.Balance = types.Uint64(balance)
	if err := op.DB().SetGauge(claim.Gauge, op.Txn()); err != nil {
		return fmt.Errorf("failed to set gauge: %w", err)
	}
	err = a.config.Releaser.Release(op, lcommon.ReleaseRequest{
		To:       claim.Recipient,
		Amount:   claim.Amount,
		GaugeID:  claim.Gauge.ID,
		Epoch:    claim.Epoch,
		Source:   claim.Source,
		SourceID: claim.SourceID,
		Time:     claim.Call.Now,
	})
	if err != nil {
		return fmt.Errorf("failed to release funds: %w", err)
	}
	if err := hooks.AfterClaim(op, claim); err != nil {
		return err
	}
	op.Emit(
		event.GaugeClaimedEventType,
		event.GaugeClaimedEvent{
			GaugeID:   claim.Gauge.ID,
			Epoch:     claim.Epoch,
			Recipient: claim.Recipient,
			Amount:    claim.Amount,
		},
	)
	return nil
}

func getGauge(op *lcommon.Op, gaugeID uint64) (*models.Gauge, error) {
	gauge, err := op.DB().GetGauge(gaugeID, op.Txn())
	if err != nil {
		return nil, fmt.Errorf("failed to get gauge: %w", err)
	}
	if gauge == nil {
		return nil, fmt.Errorf("%w: gauge %d", lcommon.ErrNotFound, gaugeID)
	}
	return gauge, nil
}

func gaugeEvent(gauge *models.Gauge) event.GaugeEvent {
	return event.GaugeEvent{
		GaugeID:  gauge.ID,
		Target:   gauge.Target,
		Name:     gauge.Name,
		Category: gauge.Category,
		Kind:     gauge.Kind,
	}
}
