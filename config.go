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

package ballot

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	lcommon "github.com/blinklabs-io/ballot/ledger/common"
	"github.com/blinklabs-io/ballot/ledger/epoch"
	"github.com/blinklabs-io/ballot/ledger/proposal"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	DefaultShutdownTimeout = 30 * time.Second
	DefaultAdvanceInterval = time.Minute
)

type Config struct {
	promRegistry             prometheus.Registerer
	logger                   *slog.Logger
	power                    lcommon.VotingPowerSource
	releaser                 lcommon.FundsReleaser
	now                      func() time.Time
	dataDir                  string
	blobPlugin               string
	metadataPlugin           string
	apiListenAddress         string
	roles                    lcommon.Roles
	schedule                 epoch.Schedule
	proposalParams           proposal.Params
	councilMembers           []common.Address
	councilRequiredApprovals uint32
	vetoWindow               time.Duration
	speedupWindow            time.Duration
	advanceInterval          time.Duration
	shutdownTimeout          time.Duration
	tracing                  bool
	tracingStdout            bool
}

func (n *Node) configValidate() error {
	if n.config.power == nil {
		return errors.New("no voting power source defined")
	}
	if err := n.config.schedule.Validate(); err != nil {
		return err
	}
	if len(n.config.councilMembers) == 0 {
		return errors.New("no council members defined")
	}
	if n.config.councilRequiredApprovals == 0 ||
		int(n.config.councilRequiredApprovals) > len(n.config.councilMembers) {
		return fmt.Errorf(
			"required council approvals (%d) must be between 1 and the number of members (%d)",
			n.config.councilRequiredApprovals,
			len(n.config.councilMembers),
		)
	}
	if n.config.advanceInterval < 0 {
		return fmt.Errorf(
			"invalid advance interval: %s",
			n.config.advanceInterval,
		)
	}
	return nil
}

// ConfigOptionFunc is a type that represents functions that modify the node config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new ballot config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger:          slog.New(slog.NewJSONHandler(io.Discard, nil)),
		now:             time.Now,
		advanceInterval: DefaultAdvanceInterval,
		shutdownTimeout: DefaultShutdownTimeout,
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithDatabasePath specifies the persistent data directory to use. The default is to store everything in memory
func WithDatabasePath(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithBlobPlugin specifies the blob storage plugin to use.
func WithBlobPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.blobPlugin = plugin
	}
}

// WithMetadataPlugin specifies the metadata storage plugin to use.
func WithMetadataPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.metadataPlugin = plugin
	}
}

// WithLogger specifies the logger to use. This defaults to discarding log output
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithPrometheusRegistry specifies a prometheus.Registerer instance to add metrics to. In most cases, prometheus.DefaultRegistry would be
// a good choice to get metrics working
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithVotingPowerSource specifies where voting power comes from. It is required
func WithVotingPowerSource(source lcommon.VotingPowerSource) ConfigOptionFunc {
	return func(c *Config) {
		c.power = source
	}
}

// WithFundsReleaser replaces the built-in treasury as the destination of
// gauge and grant payouts
func WithFundsReleaser(releaser lcommon.FundsReleaser) ConfigOptionFunc {
	return func(c *Config) {
		c.releaser = releaser
	}
}

// WithRoles specifies the admin, executor and distributor addresses
func WithRoles(roles lcommon.Roles) ConfigOptionFunc {
	return func(c *Config) {
		c.roles = roles
	}
}

// WithSchedule specifies the epoch cycle
func WithSchedule(schedule epoch.Schedule) ConfigOptionFunc {
	return func(c *Config) {
		c.schedule = schedule
	}
}

// WithProposalParams specifies the initial proposal parameters. Values
// already persisted by an admin take precedence
func WithProposalParams(params proposal.Params) ConfigOptionFunc {
	return func(c *Config) {
		c.proposalParams = params
	}
}

// WithCouncil specifies the council members and the number of approvals an
// action needs
func WithCouncil(
	members []common.Address,
	requiredApprovals uint32,
) ConfigOptionFunc {
	return func(c *Config) {
		c.councilMembers = members
		c.councilRequiredApprovals = requiredApprovals
	}
}

// WithCouncilWindows specifies how long veto and speedup actions stay open
func WithCouncilWindows(veto, speedup time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.vetoWindow = veto
		c.speedupWindow = speedup
	}
}

// WithApiListenAddress specifies the listen address for the read-only REST API. The API is disabled when empty
func WithApiListenAddress(addr string) ConfigOptionFunc {
	return func(c *Config) {
		c.apiListenAddress = addr
	}
}

// WithAdvanceInterval specifies how often the node materializes new epochs. A zero interval disables it
func WithAdvanceInterval(interval time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.advanceInterval = interval
	}
}

// WithClock replaces time.Now as the source of the current time
func WithClock(now func() time.Time) ConfigOptionFunc {
	return func(c *Config) {
		c.now = now
	}
}

// WithShutdownTimeout specifies the timeout for graceful shutdown. The default is 30 seconds
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}

// WithTracing enables tracing. By default, spans are submitted to a HTTP(s) endpoint using OTLP. This can be configured
// using the OTEL_EXPORTER_OTLP_* env vars documented in the README for [go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp]
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout enables tracing output to stdout. This also requires tracing to enabled separately. This is mostly useful for debugging
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}
