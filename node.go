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

// Package ballot runs the governance ledger as a long-lived service
package ballot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/blinklabs-io/ballot/api"
	"github.com/blinklabs-io/ballot/database"
	"github.com/blinklabs-io/ballot/event"
	"github.com/blinklabs-io/ballot/ledger"
)

type Node struct {
	eventBus      *event.EventBus
	db            *database.Database
	ledgerState   *ledger.LedgerState
	api           *api.API
	shutdownFuncs []func(context.Context) error
	config        Config
	done          chan struct{}
	loadOnce      sync.Once
	loadErr       error
	shutdownOnce  sync.Once
	advanceCancel context.CancelFunc
	advanceWg     sync.WaitGroup
}

func New(cfg Config) (*Node, error) {
	eventBus := event.NewEventBus(cfg.promRegistry, cfg.logger)
	n := &Node{
		config:   cfg,
		eventBus: eventBus,
		done:     make(chan struct{}),
	}
	if err := n.configValidate(); err != nil {
		eventBus.Stop()
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return n, nil
}

// Load opens the database and builds the ledger without starting any
// background work. Run calls it implicitly
func (n *Node) Load() error {
	n.loadOnce.Do(func() {
		n.loadErr = n.load()
	})
	return n.loadErr
}

func (n *Node) load() error {
	// Configure tracing
	if n.config.tracing {
		if err := n.setupTracing(); err != nil {
			return err
		}
	}
	// Load database
	dbConfig := &database.Config{
		DataDir:        n.config.dataDir,
		BlobPlugin:     n.config.blobPlugin,
		MetadataPlugin: n.config.metadataPlugin,
		Logger:         n.config.logger,
		PromRegistry:   n.config.promRegistry,
	}
	db, err := database.New(dbConfig)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		var dbErr database.CommitTimestampError
		if errors.As(err, &dbErr) {
			n.config.logger.Error(
				"metadata and blob stores are out of sync",
				"error",
				err,
			)
		}
		return fmt.Errorf("failed to open database: %w", err)
	}
	n.db = db
	// Load state
	state, err := ledger.NewLedgerState(
		ledger.LedgerStateConfig{
			Database:                 n.db,
			EventBus:                 n.eventBus,
			Logger:                   n.config.logger,
			PromRegistry:             n.config.promRegistry,
			Power:                    n.config.power,
			Releaser:                 n.config.releaser,
			Roles:                    n.config.roles,
			Schedule:                 n.config.schedule,
			ProposalParams:           n.config.proposalParams,
			CouncilMembers:           n.config.councilMembers,
			CouncilRequiredApprovals: n.config.councilRequiredApprovals,
			VetoWindow:               n.config.vetoWindow,
			SpeedupWindow:            n.config.speedupWindow,
		},
	)
	if err != nil {
		_ = n.db.Close()
		n.db = nil
		return fmt.Errorf("failed to load state database: %w", err)
	}
	n.ledgerState = state
	return nil
}

// Run loads the ledger, starts the epoch ticker and the REST API, and
// blocks until ctx is cancelled or Stop is called
func (n *Node) Run(ctx context.Context) error {
	if err := n.Load(); err != nil {
		return err
	}
	// Materialize the current epoch before serving
	if _, _, err := n.ledgerState.Advance(ctx, n.config.now()); err != nil {
		return fmt.Errorf("failed to advance epoch: %w", err)
	}
	if n.config.advanceInterval > 0 {
		advanceCtx, cancel := context.WithCancel(ctx)
		n.advanceCancel = cancel
		n.advanceWg.Add(1)
		go n.advanceLoop(advanceCtx)
	}
	// Configure REST API
	if n.config.apiListenAddress != "" {
		n.api = api.New(
			api.APIConfig{
				ListenAddress: n.config.apiListenAddress,
				Now:           n.config.now,
			},
			api.NewLedgerAdapter(n.ledgerState),
			n.config.logger,
		)
		if err := n.api.Start(ctx); err != nil {
			return fmt.Errorf("failed to start API: %w", err)
		}
	}

	// Wait for shutdown signal
	select {
	case <-ctx.Done():
	case <-n.done:
	}
	return nil
}

func (n *Node) advanceLoop(ctx context.Context) {
	defer n.advanceWg.Done()
	ticker := time.NewTicker(n.config.advanceInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, _, err := n.ledgerState.Advance(ctx, n.config.now()); err != nil {
				if ctx.Err() != nil {
					return
				}
				n.config.logger.Error(
					"failed to advance epoch",
					"error", err,
					"component", "node",
				)
			}
		}
	}
}

// LedgerState returns the loaded ledger. It is nil until Load succeeds
func (n *Node) LedgerState() *ledger.LedgerState {
	return n.ledgerState
}

// EventBus returns the event bus the ledger publishes to
func (n *Node) EventBus() *event.EventBus {
	return n.eventBus
}

// ApiAddr returns the address the REST API listens on, if it is running
func (n *Node) ApiAddr() string {
	if n.api == nil {
		return ""
	}
	return n.api.Addr()
}

func (n *Node) Stop() error {
	var err error
	n.shutdownOnce.Do(func() {
		err = n.shutdown()
	})
	return err
}

func (n *Node) shutdown() error {
	ctx, cancel := context.WithTimeout(
		context.Background(),
		n.config.shutdownTimeout,
	)
	defer cancel()

	var err error

	n.config.logger.Debug("starting graceful shutdown")

	// Phase 1: Stop accepting new work
	n.config.logger.Debug("shutdown phase 1: stopping new work")

	if n.api != nil {
		if stopErr := n.api.Stop(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("api shutdown: %w", stopErr))
		}
	}
	if n.advanceCancel != nil {
		n.advanceCancel()
	}
	n.advanceWg.Wait()

	// Phase 2: Flush state and close database
	n.config.logger.Debug("shutdown phase 2: closing database")

	if n.ledgerState != nil {
		if closeErr := n.ledgerState.Close(); closeErr != nil {
			err = errors.Join(
				err,
				fmt.Errorf("ledger state close: %w", closeErr),
			)
		}
	}

	// Phase 3: Cleanup resources
	n.config.logger.Debug("shutdown phase 3: cleanup resources")

	// Call registered shutdown functions
	for _, fn := range n.shutdownFuncs {
		if fnErr := fn(ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	n.shutdownFuncs = nil

	if n.eventBus != nil {
		n.eventBus.Stop()
	}

	n.config.logger.Debug("graceful shutdown complete")
	close(n.done)
	return err
}
