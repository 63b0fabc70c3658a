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

// Package ledger assembles the governance components on top of one
// database and one executor
package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/ballot/database"
	"github.com/blinklabs-io/ballot/event"
	lcommon "github.com/blinklabs-io/ballot/ledger/common"
	"github.com/blinklabs-io/ballot/ledger/council"
	"github.com/blinklabs-io/ballot/ledger/epoch"
	"github.com/blinklabs-io/ballot/ledger/gauge"
	"github.com/blinklabs-io/ballot/ledger/proposal"
	"github.com/blinklabs-io/ballot/ledger/treasury"
	"github.com/blinklabs-io/ballot/ledger/vesting"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
)

type LedgerStateConfig struct {
	Logger       *slog.Logger
	Database     *database.Database
	EventBus     *event.EventBus
	PromRegistry prometheus.Registerer
	Power        lcommon.VotingPowerSource
	// Releaser defaults to the built-in treasury
	Releaser       lcommon.FundsReleaser
	Roles          lcommon.Roles
	Schedule       epoch.Schedule
	ProposalParams proposal.Params
	// Council membership and default oversight parameters
	CouncilMembers           []common.Address
	CouncilRequiredApprovals uint32
	VetoWindow               time.Duration
	SpeedupWindow            time.Duration
}

// LedgerState owns the governance components and the executor they share
type LedgerState struct {
	config    LedgerStateConfig
	db        *database.Database
	executor  *lcommon.Executor
	epochs    *epoch.Scheduler
	treasury  *treasury.Treasury
	gauges    *gauge.Allocator
	vesting   *vesting.Vesting
	council   *council.Council
	proposals *proposal.Engine
	metrics   stateMetrics
	subs      []eventSubscription
}

type eventSubscription struct {
	eventType event.EventType
	id        event.EventSubscriberId
}

func NewLedgerState(cfg LedgerStateConfig) (*LedgerState, error) {
	if cfg.Database == nil {
		return nil, errors.New("no database provided")
	}
	if cfg.Power == nil {
		return nil, errors.New("no voting power source provided")
	}
	if cfg.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	ls := &LedgerState{
		config: cfg,
		db:     cfg.Database,
	}
	// Init metrics
	ls.metrics.init(cfg.PromRegistry)
	ls.executor = lcommon.NewExecutor(
		cfg.Database,
		lcommon.WithEventBus(cfg.EventBus),
		lcommon.WithLogger(cfg.Logger),
		lcommon.WithPromRegistry(cfg.PromRegistry),
	)
	var err error
	ls.epochs, err = epoch.NewScheduler(epoch.SchedulerConfig{
		Logger:   cfg.Logger,
		Executor: ls.executor,
		Schedule: cfg.Schedule,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create epoch scheduler: %w", err)
	}
	ls.treasury, err = treasury.New(treasury.TreasuryConfig{
		Logger:   cfg.Logger,
		Executor: ls.executor,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create treasury: %w", err)
	}
	releaser := cfg.Releaser
	if releaser == nil {
		releaser = ls.treasury
	}
	ls.gauges, err = gauge.NewAllocator(gauge.AllocatorConfig{
		Logger:   cfg.Logger,
		Executor: ls.executor,
		Epochs:   ls.epochs,
		Power:    cfg.Power,
		Releaser: releaser,
		Roles:    cfg.Roles,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gauge allocator: %w", err)
	}
	ls.vesting, err = vesting.New(vesting.VestingConfig{
		Logger:   cfg.Logger,
		Executor: ls.executor,
		Epochs:   ls.epochs,
		Gauges:   ls.gauges,
		Roles:    cfg.Roles,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create grant vesting: %w", err)
	}
	// The council reads proposal state through the engine, which is
	// created after it
	ls.council, err = council.New(council.CouncilConfig{
		Logger:            cfg.Logger,
		Executor:          ls.executor,
		Members:           cfg.CouncilMembers,
		RequiredApprovals: cfg.CouncilRequiredApprovals,
		VetoWindow:        cfg.VetoWindow,
		SpeedupWindow:     cfg.SpeedupWindow,
		Roles:             cfg.Roles,
		State:             ls.proposalState,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create council: %w", err)
	}
	ls.proposals, err = proposal.NewEngine(proposal.EngineConfig{
		Logger:    cfg.Logger,
		Executor:  ls.executor,
		Power:     cfg.Power,
		Oversight: ls.council,
		Roles:     cfg.Roles,
		Params:    cfg.ProposalParams,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create proposal engine: %w", err)
	}
	if cfg.EventBus != nil {
		ls.subscribeMetrics()
	}
	ls.metrics.nodeStartTime.Set(float64(time.Now().Unix()))
	return ls, nil
}

func (ls *LedgerState) proposalState(
	op *lcommon.Op,
	proposalID uint64,
	now time.Time,
) (lcommon.ProposalState, error) {
	return ls.proposals.StateTxn(op, proposalID, now)
}

// Advance moves the epoch scheduler to the epoch at the given time
func (ls *LedgerState) Advance(ctx context.Context, now time.Time) (uint64, bool, error) {
	return ls.epochs.Advance(ctx, lcommon.NewCall(common.Address{}, now))
}

func (ls *LedgerState) Database() *database.Database {
	return ls.db
}

func (ls *LedgerState) Executor() *lcommon.Executor {
	return ls.executor
}

func (ls *LedgerState) Epochs() *epoch.Scheduler {
	return ls.epochs
}

func (ls *LedgerState) Treasury() *treasury.Treasury {
	return ls.treasury
}

func (ls *LedgerState) Gauges() *gauge.Allocator {
	return ls.gauges
}

func (ls *LedgerState) Vesting() *vesting.Vesting {
	return ls.vesting
}

func (ls *LedgerState) Council() *council.Council {
	return ls.council
}

func (ls *LedgerState) Proposals() *proposal.Engine {
	return ls.proposals
}

// Close drops the metrics subscriptions and closes the database
func (ls *LedgerState) Close() error {
	for _, sub := range ls.subs {
		ls.config.EventBus.Unsubscribe(sub.eventType, sub.id)
	}
	ls.subs = nil
	return ls.db.Close()
}
