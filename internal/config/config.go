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

package config

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"time"

	"github.com/blinklabs-io/ballot/database/plugin"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "ballot.config"

const DefaultShutdownTimeout = "30s"

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

const (
	DefaultBlobPlugin     = "badger"
	DefaultMetadataPlugin = "sqlite"
)

type tempConfig struct {
	Config   yaml.Node                 `yaml:"config,omitempty"`
	Database *databaseConfig           `yaml:"database,omitempty"`
	Blob     map[string]map[string]any `yaml:"blob,omitempty"`
	Metadata map[string]map[string]any `yaml:"metadata,omitempty"`
}

type databaseConfig struct {
	Blob     map[string]any `yaml:"blob,omitempty"`
	Metadata map[string]any `yaml:"metadata,omitempty"`
}

// EpochConfig describes the epoch cycle. StartTime is in unix seconds
type EpochConfig struct {
	StartTime          int64         `yaml:"startTime"          split_words:"true"`
	CycleLength        time.Duration `yaml:"cycleLength"        split_words:"true"`
	VotingWindow       time.Duration `yaml:"votingWindow"       split_words:"true"`
	DistributionWindow time.Duration `yaml:"distributionWindow" split_words:"true"`
}

// ProposalConfig holds the initial proposal parameters
type ProposalConfig struct {
	Threshold     uint64        `yaml:"threshold"`
	QuorumBps     uint32        `yaml:"quorumBps"     split_words:"true"`
	VotingDelay   time.Duration `yaml:"votingDelay"   split_words:"true"`
	VotingPeriod  time.Duration `yaml:"votingPeriod"  split_words:"true"`
	TimelockDelay time.Duration `yaml:"timelockDelay" split_words:"true"`
}

// CouncilConfig holds the council membership and action windows. Members
// are hex addresses
type CouncilConfig struct {
	Members           []string      `yaml:"members"`
	RequiredApprovals uint32        `yaml:"requiredApprovals" split_words:"true"`
	VetoWindow        time.Duration `yaml:"vetoWindow"        split_words:"true"`
	SpeedupWindow     time.Duration `yaml:"speedupWindow"     split_words:"true"`
}

// RolesConfig lists the hex addresses holding each administrative role
type RolesConfig struct {
	Admins       []string `yaml:"admins"`
	Executors    []string `yaml:"executors"`
	Distributors []string `yaml:"distributors"`
}

type Config struct {
	MetadataPlugin   string         `yaml:"metadataPlugin"   envconfig:"BALLOT_DATABASE_METADATA_PLUGIN"`
	BlobPlugin       string         `yaml:"blobPlugin"       envconfig:"BALLOT_DATABASE_BLOB_PLUGIN"`
	DatabasePath     string         `yaml:"databasePath"                                               split_words:"true"`
	BindAddr         string         `yaml:"bindAddr"                                                   split_words:"true"`
	ApiListenAddress string         `yaml:"apiListenAddress"                                           split_words:"true"`
	PositionsFile    string         `yaml:"positionsFile"                                              split_words:"true"`
	ShutdownTimeout  string         `yaml:"shutdownTimeout"                                            split_words:"true"`
	AdvanceInterval  string         `yaml:"advanceInterval"                                            split_words:"true"`
	MetricsPort      uint           `yaml:"metricsPort"                                                split_words:"true"`
	Tracing          bool           `yaml:"tracing"`
	TracingStdout    bool           `yaml:"tracingStdout"                                              split_words:"true"`
	Epoch            EpochConfig    `yaml:"epoch"`
	Proposal         ProposalConfig `yaml:"proposal"`
	Council          CouncilConfig  `yaml:"council"`
	Roles            RolesConfig    `yaml:"roles"`
}

func defaultConfig() *Config {
	return &Config{
		BindAddr:         "0.0.0.0",
		DatabasePath:     ".ballot",
		MetricsPort:      12799,
		ApiListenAddress: "",
		PositionsFile:    "",
		BlobPlugin:       DefaultBlobPlugin,
		MetadataPlugin:   DefaultMetadataPlugin,
		ShutdownTimeout:  DefaultShutdownTimeout,
		AdvanceInterval:  "1m",
		Epoch: EpochConfig{
			CycleLength:        7 * 24 * time.Hour,
			VotingWindow:       5 * 24 * time.Hour,
			DistributionWindow: 24 * time.Hour,
		},
		Proposal: ProposalConfig{
			QuorumBps:     400,
			VotingDelay:   24 * time.Hour,
			VotingPeriod:  5 * 24 * time.Hour,
			TimelockDelay: 2 * 24 * time.Hour,
		},
		Council: CouncilConfig{
			RequiredApprovals: 1,
			VetoWindow:        3 * 24 * time.Hour,
			SpeedupWindow:     2 * 24 * time.Hour,
		},
	}
}

var globalConfig = defaultConfig()

// pluginSection extracts the plugin name and per-plugin options from a
// database.blob or database.metadata section
func pluginSection(
	kind string,
	section map[string]any,
) (string, map[string]map[string]any) {
	var pluginName string
	// Extract plugin name if specified
	if pluginVal, exists := section["plugin"]; exists {
		if name, ok := pluginVal.(string); ok {
			pluginName = name
			// Remove plugin from config map
			delete(section, "plugin")
		}
	}
	ret := make(map[string]map[string]any)
	for k, v := range section {
		if val, ok := v.(map[string]any); ok {
			ret[k] = val
		} else if val, ok := v.(map[any]any); ok {
			// Convert map[any]any to map[string]any
			stringAnyMap := make(map[string]any)
			for vk, vv := range val {
				if keyStr, ok := vk.(string); ok {
					stringAnyMap[keyStr] = vv
				}
			}
			ret[k] = stringAnyMap
		} else {
			// Log skipped non-map config entries
			fmt.Fprintf(os.Stderr, "warning: skipping %s config entry %q: expected map, got %T\n", kind, k, v)
		}
	}
	return pluginName, ret
}

func LoadConfig(configFile string) (*Config, error) {
	// Load config file as YAML if provided
	if configFile == "" {
		// Check for config file in this path: ~/.ballot/ballot.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".ballot", "ballot.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}

		// Try to check for /etc/ballot/ballot.yaml if still not found
		if configFile == "" {
			systemPath := "/etc/ballot/ballot.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}

	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}

		// First unmarshal into temp config to handle plugin sections
		var tempCfg tempConfig
		err = yaml.Unmarshal(buf, &tempCfg)
		if err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}

		// If config section exists, use it for main config. Decoding the
		// node directly overlays only the keys present in the file
		if !tempCfg.Config.IsZero() {
			err = tempCfg.Config.Decode(globalConfig)
			if err != nil {
				return nil, fmt.Errorf("error parsing config section: %w", err)
			}
		} else {
			// Otherwise unmarshal the whole file as main config
			err = yaml.Unmarshal(buf, globalConfig)
			if err != nil {
				return nil, fmt.Errorf("error parsing config file: %w", err)
			}
		}

		// Process plugin configurations
		pluginConfig := make(map[string]map[string]map[string]any)
		if tempCfg.Blob != nil {
			pluginConfig["blob"] = tempCfg.Blob
		}
		if tempCfg.Metadata != nil {
			pluginConfig["metadata"] = tempCfg.Metadata
		}
		// Handle database section if present
		if tempCfg.Database != nil {
			if tempCfg.Database.Blob != nil {
				name, blobConfig := pluginSection("blob", tempCfg.Database.Blob)
				if name != "" {
					globalConfig.BlobPlugin = name
				}
				// Merge with existing blob config instead of overwriting
				if pluginConfig["blob"] == nil {
					pluginConfig["blob"] = blobConfig
				} else {
					maps.Copy(pluginConfig["blob"], blobConfig)
				}
			}
			if tempCfg.Database.Metadata != nil {
				name, metadataConfig := pluginSection("metadata", tempCfg.Database.Metadata)
				if name != "" {
					globalConfig.MetadataPlugin = name
				}
				// Merge with existing metadata config instead of overwriting
				if pluginConfig["metadata"] == nil {
					pluginConfig["metadata"] = metadataConfig
				} else {
					maps.Copy(pluginConfig["metadata"], metadataConfig)
				}
			}
		}
		if len(pluginConfig) > 0 {
			err = plugin.ProcessConfig(pluginConfig)
			if err != nil {
				return nil, fmt.Errorf(
					"error processing plugin config: %w",
					err,
				)
			}
		}
	}
	// Process environment variables
	err := envconfig.Process("ballot", globalConfig)
	if err != nil {
		return nil, fmt.Errorf("error processing environment: %+w", err)
	}

	// Process plugin environment variables
	err = plugin.ProcessEnvVars()
	if err != nil {
		return nil, fmt.Errorf(
			"error processing plugin environment variables: %w",
			err,
		)
	}

	if err := globalConfig.validate(); err != nil {
		return nil, err
	}
	return globalConfig, nil
}

func (c *Config) validate() error {
	if c.ShutdownTimeout != "" {
		if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
			return fmt.Errorf("invalid shutdownTimeout: %w", err)
		}
	}
	if c.AdvanceInterval != "" {
		if _, err := time.ParseDuration(c.AdvanceInterval); err != nil {
			return fmt.Errorf("invalid advanceInterval: %w", err)
		}
	}
	if c.Proposal.QuorumBps > 10_000 {
		return fmt.Errorf(
			"invalid proposal.quorumBps: %d exceeds 10000",
			c.Proposal.QuorumBps,
		)
	}
	return nil
}

func GetConfig() *Config {
	return globalConfig
}
