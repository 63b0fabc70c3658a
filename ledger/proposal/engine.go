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

package proposal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	lcommon "github.com/blinklabs-io/ballot/ledger/common"
)

const paramComponent = "proposal"

// Parameter names. Durations are stored in seconds
const (
	ParamThreshold     = "threshold"
	ParamQuorumBps     = "quorum_bps"
	ParamVotingDelay   = "voting_delay"
	ParamVotingPeriod  = "voting_period"
	ParamTimelockDelay = "timelock_delay"
)

// Params are the tunable governance parameters of the engine
type Params struct {
	// Voting power a proposer needs across all of their positions
	Threshold     uint64
	QuorumBps     uint32
	VotingDelay   time.Duration
	VotingPeriod  time.Duration
	TimelockDelay time.Duration
}

func (p Params) Validate() error {
	if p.QuorumBps > lcommon.BasisPoints {
		return fmt.Errorf(
			"%w: quorum %d bps exceeds %d",
			lcommon.ErrInvalidArgument,
			p.QuorumBps,
			lcommon.BasisPoints,
		)
	}
	if p.VotingPeriod < time.Second {
		return fmt.Errorf(
			"%w: voting period must be at least one second",
			lcommon.ErrInvalidArgument,
		)
	}
	if p.VotingDelay < 0 || p.TimelockDelay < 0 {
		return fmt.Errorf(
			"%w: negative voting or timelock delay",
			lcommon.ErrInvalidArgument,
		)
	}
	return nil
}

// Oversight is the council view the engine consults before queuing and
// executing
type Oversight interface {
	IsVetoedTxn(op *lcommon.Op, proposalID uint64) (bool, error)
	ActiveSpeedup(op *lcommon.Op, proposalID uint64) (time.Duration, time.Duration, bool, error)
}

type EngineConfig struct {
	Logger    *slog.Logger
	Executor  *lcommon.Executor
	Power     lcommon.VotingPowerSource
	Oversight Oversight
	Roles     lcommon.Roles
	Params    Params
}

// Engine runs the proposal lifecycle
type Engine struct {
	config      EngineConfig
	params      Params
	paramsMutex sync.RWMutex
}

func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Executor == nil || cfg.Power == nil || cfg.Oversight == nil {
		return nil, fmt.Errorf(
			"%w: executor, voting power source and oversight are required",
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
	e := &Engine{
		config: cfg,
		params: cfg.Params,
	}
	if err := e.loadParams(); err != nil {
		return nil, err
	}
	if err := e.params.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) loadParams() error {
	return e.config.Executor.View(
		context.Background(),
		"proposal.load_params",
		func(op *lcommon.Op) error {
			stored, err := lcommon.LoadParams(op, paramComponent)
			if err != nil {
				return err
			}
			if v, ok := stored[ParamThreshold]; ok {
				e.params.Threshold = v
			}
			if v, ok := stored[ParamQuorumBps]; ok {
				e.params.QuorumBps = uint32(v) // #nosec G115
			}
			if v, ok := stored[ParamVotingDelay]; ok {
				e.params.VotingDelay = seconds(v)
			}
			if v, ok := stored[ParamVotingPeriod]; ok {
				e.params.VotingPeriod = seconds(v)
			}
			if v, ok := stored[ParamTimelockDelay]; ok {
				e.params.TimelockDelay = seconds(v)
			}
			return nil
		},
	)
}

func seconds(v uint64) time.Duration {
	return time.Duration(v) * time.Second // #nosec G115
}

func toSeconds(d time.Duration) uint64 {
	return uint64(d / time.Second) // #nosec G115
}

// Params returns the current parameters
func (e *Engine) Params() Params {
	e.paramsMutex.RLock()
	defer e.paramsMutex.RUnlock()
	return e.params
}

// SetProposalThreshold changes the voting power needed to propose
func (e *Engine) SetProposalThreshold(ctx context.Context, call lcommon.Call, threshold uint64) error {
	return e.setParam(ctx, call, ParamThreshold, threshold, func(p *Params) uint64 {
		old := p.Threshold
		p.Threshold = threshold
		return old
	})
}

// SetQuorumBps changes the quorum, in basis points of the total voting power
func (e *Engine) SetQuorumBps(ctx context.Context, call lcommon.Call, quorumBps uint32) error {
	return e.setParam(ctx, call, ParamQuorumBps, uint64(quorumBps), func(p *Params) uint64 {
		old := p.QuorumBps
		p.QuorumBps = quorumBps
		return uint64(old)
	})
}

// SetVotingDelay changes the delay between proposal creation and voting
func (e *Engine) SetVotingDelay(ctx context.Context, call lcommon.Call, delay time.Duration) error {
	return e.setParam(ctx, call, ParamVotingDelay, toSeconds(delay), func(p *Params) uint64 {
		old := p.VotingDelay
		p.VotingDelay = delay
		return toSeconds(old)
	})
}

// SetVotingPeriod changes the length of the voting window
func (e *Engine) SetVotingPeriod(ctx context.Context, call lcommon.Call, period time.Duration) error {
	return e.setParam(ctx, call, ParamVotingPeriod, toSeconds(period), func(p *Params) uint64 {
		old := p.VotingPeriod
		p.VotingPeriod = period
		return toSeconds(old)
	})
}

// SetTimelockDelay changes the delay between queuing and execution
func (e *Engine) SetTimelockDelay(ctx context.Context, call lcommon.Call, delay time.Duration) error {
	return e.setParam(ctx, call, ParamTimelockDelay, toSeconds(delay), func(p *Params) uint64 {
		old := p.TimelockDelay
		p.TimelockDelay = delay
		return toSeconds(old)
	})
}

// setParam validates the change on a copy of the parameters, persists it,
// and swaps the new parameters in after commit
func (e *Engine) setParam(
	ctx context.Context,
	call lcommon.Call,
	name string,
	value uint64,
	apply func(*Params) uint64,
) error {
	return e.config.Executor.Do(ctx, "proposal.set_"+name, func(op *lcommon.Op) error {
		if err := e.config.Roles.RequireAdmin(call.Caller); err != nil {
			return err
		}
		updated := e.Params()
		old := apply(&updated)
		if err := updated.Validate(); err != nil {
			return err
		}
		if err := op.SetParam(call, paramComponent, name, old, value); err != nil {
			return err
		}
		op.OnCommit(func() {
			e.paramsMutex.Lock()
			e.params = updated
			e.paramsMutex.Unlock()
		})
		return nil
	})
}
