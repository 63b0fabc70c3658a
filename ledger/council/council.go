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

package council

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/blinklabs-io/ballot/database/models"
	"github.com/blinklabs-io/ballot/event"
	lcommon "github.com/blinklabs-io/ballot/ledger/common"
	"github.com/ethereum/go-ethereum/common"
)

const paramComponent = "council"

// Parameter names
const (
	ParamRequiredApprovals = "required_approvals"
	ParamVetoWindow        = "veto_window"
	ParamSpeedupWindow     = "speedup_window"
)

// StateFunc reports the lifecycle state of a proposal within an operation
type StateFunc func(op *lcommon.Op, proposalID uint64, now time.Time) (lcommon.ProposalState, error)

type CouncilConfig struct {
	Logger            *slog.Logger
	Executor          *lcommon.Executor
	Members           []common.Address
	RequiredApprovals uint32
	VetoWindow        time.Duration
	SpeedupWindow     time.Duration
	Roles             lcommon.Roles
	State             StateFunc
}

type params struct {
	requiredApprovals uint32
	vetoWindow        time.Duration
	speedupWindow     time.Duration
}

// Council is a fixed set of members that can veto a proposal or shorten
// its timing once enough of them approve
type Council struct {
	config      CouncilConfig
	params      params
	paramsMutex sync.RWMutex
}

func New(cfg CouncilConfig) (*Council, error) {
	if cfg.Executor == nil || cfg.State == nil {
		return nil, fmt.Errorf(
			"%w: executor and proposal state function are required",
			lcommon.ErrInvalidArgument,
		)
	}
	if len(cfg.Members) == 0 {
		return nil, fmt.Errorf("%w: council has no members", lcommon.ErrInvalidArgument)
	}
	for i, member := range cfg.Members {
		if member == (common.Address{}) {
			return nil, fmt.Errorf("%w: zero council member", lcommon.ErrInvalidArgument)
		}
		if slices.Contains(cfg.Members[:i], member) {
			return nil, fmt.Errorf(
				"%w: duplicate council member %s",
				lcommon.ErrInvalidArgument,
				member.Hex(),
			)
		}
	}
	if err := cfg.Roles.Validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	c := &Council{
		config: cfg,
		params: params{
			requiredApprovals: cfg.RequiredApprovals,
			vetoWindow:        cfg.VetoWindow,
			speedupWindow:     cfg.SpeedupWindow,
		},
	}
	if err := c.loadParams(); err != nil {
		return nil, err
	}
	if err := c.validateRequired(c.params.requiredApprovals); err != nil {
		return nil, err
	}
	if c.params.vetoWindow <= 0 || c.params.speedupWindow <= 0 {
		return nil, fmt.Errorf(
			"%w: council windows must be positive",
			lcommon.ErrInvalidArgument,
		)
	}
	return c, nil
}

// loadParams overlays persisted administrative changes on the configured
// defaults
func (c *Council) loadParams() error {
	return c.config.Executor.View(
		context.Background(),
		"council.load_params",
		func(op *lcommon.Op) error {
			stored, err := lcommon.LoadParams(op, paramComponent)
			if err != nil {
				return err
			}
			if v, ok := stored[ParamRequiredApprovals]; ok {
				c.params.requiredApprovals = uint32(v) // #nosec G115
			}
			if v, ok := stored[ParamVetoWindow]; ok {
				c.params.vetoWindow = time.Duration(v) * time.Second // #nosec G115
			}
			if v, ok := stored[ParamSpeedupWindow]; ok {
				c.params.speedupWindow = time.Duration(v) * time.Second // #nosec G115
			}
			return nil
		},
	)
}

func (c *Council) currentParams() params {
	c.paramsMutex.RLock()
	defer c.paramsMutex.RUnlock()
	return c.params
}

// Members returns the council members
func (c *Council) Members() []common.Address {
	return slices.Clone(c.config.Members)
}

// IsMember reports whether addr is a council member
func (c *Council) IsMember(addr common.Address) bool {
	return slices.Contains(c.config.Members, addr)
}

// RequiredApprovals returns the number of approvals that executes an action
func (c *Council) RequiredApprovals() uint32 {
	return c.currentParams().requiredApprovals
}

// VetoWindow returns how long a veto stays open for approvals
func (c *Council) VetoWindow() time.Duration {
	return c.currentParams().vetoWindow
}

// SpeedupWindow returns how long a speedup stays open for approvals
func (c *Council) SpeedupWindow() time.Duration {
	return c.currentParams().speedupWindow
}

func (c *Council) validateRequired(required uint32) error {
	if required == 0 {
		return fmt.Errorf(
			"%w: required approvals must be positive",
			lcommon.ErrInvalidArgument,
		)
	}
	if int(required) > len(c.config.Members) {
		return fmt.Errorf(
			"%w: required approvals %d exceed %d members",
			lcommon.ErrInvalidArgument,
			required,
			len(c.config.Members),
		)
	}
	return nil
}

// SetRequiredApprovals changes the approval threshold
func (c *Council) SetRequiredApprovals(
	ctx context.Context,
	call lcommon.Call,
	required uint32,
) error {
	if err := c.validateRequired(required); err != nil {
		return err
	}
	return c.config.Executor.Do(ctx, "council.set_required_approvals", func(op *lcommon.Op) error {
		if err := c.config.Roles.RequireAdmin(call.Caller); err != nil {
			return err
		}
		old := c.currentParams().requiredApprovals
		if err := op.SetParam(call, paramComponent, ParamRequiredApprovals, uint64(old), uint64(required)); err != nil {
			return err
		}
		op.OnCommit(func() {
			c.paramsMutex.Lock()
			c.params.requiredApprovals = required
			c.paramsMutex.Unlock()
		})
		return nil
	})
}

// SetVetoWindow changes the approval window of new vetoes
func (c *Council) SetVetoWindow(
	ctx context.Context,
	call lcommon.Call,
	window time.Duration,
) error {
	return c.setWindow(ctx, call, ParamVetoWindow, window, func(p *params) *time.Duration {
		return &p.vetoWindow
	})
}

// SetSpeedupWindow changes the approval window of new speedups
func (c *Council) SetSpeedupWindow(
	ctx context.Context,
	call lcommon.Call,
	window time.Duration,
) error {
	return c.setWindow(ctx, call, ParamSpeedupWindow, window, func(p *params) *time.Duration {
		return &p.speedupWindow
	})
}

func (c *Council) setWindow(
	ctx context.Context,
	call lcommon.Call,
	name string,
	window time.Duration,
	field func(*params) *time.Duration,
) error {
	if window < time.Second {
		return fmt.Errorf(
			"%w: %s must be at least one second",
			lcommon.ErrInvalidArgument,
			name,
		)
	}
	return c.config.Executor.Do(ctx, "council.set_"+name, func(op *lcommon.Op) error {
		if err := c.config.Roles.RequireAdmin(call.Caller); err != nil {
			return err
		}
		current := c.currentParams()
		old := *field(&current)
		err := op.SetParam(
			call,
			paramComponent,
			name,
			uint64(old/time.Second),    // #nosec G115
			uint64(window/time.Second), // #nosec G115
		)
		if err != nil {
			return err
		}
		op.OnCommit(func() {
			c.paramsMutex.Lock()
			*field(&c.params) = window
			c.paramsMutex.Unlock()
		})
		return nil
	})
}

// kindDesc holds what differs between veto and speedup actions
type kindDesc struct {
	kind          uint8
	name          string
	allowedStates []lcommon.ProposalState
	initiated     event.EventType
	approved      event.EventType
	executed      event.EventType
}

var (
	vetoKind = kindDesc{
		kind: models.CouncilActionKindVeto,
		name: "veto",
		allowedStates: []lcommon.ProposalState{
			lcommon.ProposalStateActive,
			lcommon.ProposalStateSucceeded,
			lcommon.ProposalStateQueued,
		},
		initiated: event.VetoInitiatedEventType,
		approved:  event.VetoApprovedEventType,
		executed:  event.VetoExecutedEventType,
	}
	speedupKind = kindDesc{
		kind: models.CouncilActionKindSpeedup,
		name: "speedup",
		allowedStates: []lcommon.ProposalState{
			lcommon.ProposalStatePending,
			lcommon.ProposalStateActive,
			lcommon.ProposalStateSucceeded,
		},
		initiated: event.SpeedupInitiatedEventType,
		approved:  event.SpeedupApprovedEventType,
		executed:  event.SpeedupExecutedEventType,
	}
)

func (c *Council) requireMember(call lcommon.Call) error {
	if !c.IsMember(call.Caller) {
		return fmt.Errorf(
			"%w: %s is not a council member",
			lcommon.ErrAuthorization,
			call.Caller.Hex(),
		)
	}
	return nil
}
