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

package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	_ "net/http/pprof" // #nosec G108
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blinklabs-io/ballot"
	"github.com/blinklabs-io/ballot/internal/config"
	lcommon "github.com/blinklabs-io/ballot/ledger/common"
	"github.com/blinklabs-io/ballot/ledger/epoch"
	"github.com/blinklabs-io/ballot/ledger/proposal"
	"github.com/blinklabs-io/ballot/power"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func parseAddresses(name string, values []string) ([]common.Address, error) {
	ret := make([]common.Address, 0, len(values))
	for _, value := range values {
		if !common.IsHexAddress(value) {
			return nil, fmt.Errorf("invalid address in %s: %q", name, value)
		}
		ret = append(ret, common.HexToAddress(value))
	}
	return ret, nil
}

func parseDuration(name string, value string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	ret, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return ret, nil
}

// nodeOptions translates the file/env config into node options
func nodeOptions(
	cfg *config.Config,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) ([]ballot.ConfigOptionFunc, error) {
	if cfg.PositionsFile == "" {
		return nil, errors.New("no positions file configured")
	}
	source, err := power.LoadFile(cfg.PositionsFile)
	if err != nil {
		return nil, err
	}
	admins, err := parseAddresses("roles.admins", cfg.Roles.Admins)
	if err != nil {
		return nil, err
	}
	executors, err := parseAddresses("roles.executors", cfg.Roles.Executors)
	if err != nil {
		return nil, err
	}
	distributors, err := parseAddresses("roles.distributors", cfg.Roles.Distributors)
	if err != nil {
		return nil, err
	}
	members, err := parseAddresses("council.members", cfg.Council.Members)
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := parseDuration(
		"shutdown timeout",
		cfg.ShutdownTimeout,
		ballot.DefaultShutdownTimeout,
	)
	if err != nil {
		return nil, err
	}
	advanceInterval, err := parseDuration(
		"advance interval",
		cfg.AdvanceInterval,
		ballot.DefaultAdvanceInterval,
	)
	if err != nil {
		return nil, err
	}
	return []ballot.ConfigOptionFunc{
		ballot.WithLogger(logger),
		ballot.WithDatabasePath(cfg.DatabasePath),
		ballot.WithBlobPlugin(cfg.BlobPlugin),
		ballot.WithMetadataPlugin(cfg.MetadataPlugin),
		ballot.WithPrometheusRegistry(promRegistry),
		ballot.WithVotingPowerSource(source),
		ballot.WithRoles(lcommon.Roles{
			Admins:       admins,
			Executors:    executors,
			Distributors: distributors,
		}),
		ballot.WithSchedule(epoch.Schedule{
			StartTime:          time.Unix(cfg.Epoch.StartTime, 0),
			CycleLength:        cfg.Epoch.CycleLength,
			VotingWindow:       cfg.Epoch.VotingWindow,
			DistributionWindow: cfg.Epoch.DistributionWindow,
		}),
		ballot.WithProposalParams(proposal.Params{
			Threshold:     cfg.Proposal.Threshold,
			QuorumBps:     cfg.Proposal.QuorumBps,
			VotingDelay:   cfg.Proposal.VotingDelay,
			VotingPeriod:  cfg.Proposal.VotingPeriod,
			TimelockDelay: cfg.Proposal.TimelockDelay,
		}),
		ballot.WithCouncil(members, cfg.Council.RequiredApprovals),
		ballot.WithCouncilWindows(
			cfg.Council.VetoWindow,
			cfg.Council.SpeedupWindow,
		),
		ballot.WithApiListenAddress(cfg.ApiListenAddress),
		ballot.WithAdvanceInterval(advanceInterval),
		ballot.WithShutdownTimeout(shutdownTimeout),
		ballot.WithTracing(cfg.Tracing),
		ballot.WithTracingStdout(cfg.TracingStdout),
	}, nil
}

// Open builds a node from the config and loads its ledger without serving.
// The caller must call Stop on the returned node
func Open(cfg *config.Config, logger *slog.Logger) (*ballot.Node, error) {
	opts, err := nodeOptions(cfg, logger, nil)
	if err != nil {
		return nil, err
	}
	n, err := ballot.New(ballot.NewConfig(opts...))
	if err != nil {
		return nil, err
	}
	if err := n.Load(); err != nil {
		_ = n.Stop()
		return nil, err
	}
	return n, nil
}

func Run(cfg *config.Config, logger *slog.Logger) error {
	logger.Debug(fmt.Sprintf("config: %+v", cfg), "component", "node")
	opts, err := nodeOptions(
		cfg,
		logger,
		// Enable metrics with default prometheus registry
		prometheus.DefaultRegisterer,
	)
	if err != nil {
		return err
	}
	nodeCfg := ballot.NewConfig(opts...)
	shutdownTimeout, err := parseDuration(
		"shutdown timeout",
		cfg.ShutdownTimeout,
		ballot.DefaultShutdownTimeout,
	)
	if err != nil {
		return err
	}
	n, err := ballot.New(nodeCfg)
	if err != nil {
		return err
	}
	// Metrics and debug listener
	http.Handle("/metrics", promhttp.Handler())
	logger.Info(
		"serving prometheus metrics on "+fmt.Sprintf(
			"%s:%d",
			cfg.BindAddr,
			cfg.MetricsPort,
		),
		"component",
		"node",
	)
	metricsServer := &http.Server{
		Addr: fmt.Sprintf(
			"%s:%d",
			cfg.BindAddr,
			cfg.MetricsPort,
		),
		ReadHeaderTimeout: 60 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			logger.Error(
				fmt.Sprintf("failed to start metrics listener: %s", err),
				"component", "node",
			)
			os.Exit(1)
		}
	}()
	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()

	// Run node until a signal arrives or it fails
	runErr := n.Run(signalCtx)
	if runErr != nil {
		logger.Error("node error", "error", runErr)
	} else {
		logger.Info("signal received, initiating graceful shutdown")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		shutdownTimeout,
	)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown error", "error", err)
	}
	if err := n.Stop(); err != nil {
		logger.Error("shutdown errors occurred", "error", err)
		return errors.Join(runErr, err)
	}
	if runErr == nil {
		logger.Info("shutdown complete")
	}
	return runErr
}
