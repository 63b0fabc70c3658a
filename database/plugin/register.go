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

package plugin

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
)

type PluginType int

const (
	PluginTypeBlob PluginType = iota + 1
	PluginTypeMetadata
)

func PluginTypeName(pluginType PluginType) string {
	switch pluginType {
	case PluginTypeBlob:
		return "blob"
	case PluginTypeMetadata:
		return "metadata"
	default:
		return "unknown"
	}
}

type PluginOptionType int

const (
	PluginOptionTypeString PluginOptionType = iota + 1
	PluginOptionTypeBool
	PluginOptionTypeInt
	PluginOptionTypeUint
)

// PluginOption describes a single tunable of a plugin. Dest points at the
// variable the plugin reads when it is instantiated
type PluginOption struct {
	DefaultValue any
	Dest         any
	Name         string
	Description  string
	Type         PluginOptionType
}

type PluginEntry struct {
	NewFromOptionsFunc func() Plugin
	Name               string
	Description        string
	Options            []PluginOption
	Type               PluginType
}

var pluginEntries []PluginEntry

var (
	environment struct {
		logger       *slog.Logger
		promRegistry prometheus.Registerer
	}
	environmentMutex sync.RWMutex
)

// SetEnvironment sets the logger and metrics registry handed to plugins
// created after the call
func SetEnvironment(logger *slog.Logger, promRegistry prometheus.Registerer) {
	environmentMutex.Lock()
	defer environmentMutex.Unlock()
	environment.logger = logger
	environment.promRegistry = promRegistry
}

// Environment returns the logger and metrics registry for new plugins.
// Either may be nil
func Environment() (*slog.Logger, prometheus.Registerer) {
	environmentMutex.RLock()
	defer environmentMutex.RUnlock()
	return environment.logger, environment.promRegistry
}

// Register adds a plugin to the registry. It is meant to be called from
// a plugin package's init()
func Register(pluginEntry PluginEntry) {
	pluginEntries = append(pluginEntries, pluginEntry)
}

// GetPlugins returns the registered plugins of the given type
func GetPlugins(pluginType PluginType) []PluginEntry {
	var ret []PluginEntry
	for _, p := range pluginEntries {
		if p.Type == pluginType {
			ret = append(ret, p)
		}
	}
	return ret
}

// GetPlugin instantiates the named plugin from its current options
func GetPlugin(pluginType PluginType, name string) Plugin {
	for _, p := range pluginEntries {
		if p.Type == pluginType && p.Name == name {
			return p.NewFromOptionsFunc()
		}
	}
	return nil
}

func optionFlagName(p PluginEntry, opt PluginOption) string {
	return fmt.Sprintf("%s-%s-%s", PluginTypeName(p.Type), p.Name, opt.Name)
}

func optionEnvName(p PluginEntry, opt PluginOption) string {
	return strings.ToUpper(
		strings.ReplaceAll(
			fmt.Sprintf(
				"BALLOT_DATABASE_%s_%s_%s",
				PluginTypeName(p.Type),
				p.Name,
				opt.Name,
			),
			"-",
			"_",
		),
	)
}

// PopulateCmdlineOptions adds a flag for every registered plugin option
func PopulateCmdlineOptions(fs *pflag.FlagSet) error {
	for _, p := range pluginEntries {
		for _, opt := range p.Options {
			flagName := optionFlagName(p, opt)
			switch opt.Type {
			case PluginOptionTypeString:
				dest, ok := opt.Dest.(*string)
				if !ok {
					return fmt.Errorf("option %s: destination is not *string", flagName)
				}
				def, _ := opt.DefaultValue.(string)
				fs.StringVar(dest, flagName, def, opt.Description)
			case PluginOptionTypeBool:
				dest, ok := opt.Dest.(*bool)
				if !ok {
					return fmt.Errorf("option %s: destination is not *bool", flagName)
				}
				def, _ := opt.DefaultValue.(bool)
				fs.BoolVar(dest, flagName, def, opt.Description)
			case PluginOptionTypeInt:
				dest, ok := opt.Dest.(*int)
				if !ok {
					return fmt.Errorf("option %s: destination is not *int", flagName)
				}
				def, _ := opt.DefaultValue.(int)
				fs.IntVar(dest, flagName, def, opt.Description)
			case PluginOptionTypeUint:
				dest, ok := opt.Dest.(*uint64)
				if !ok {
					return fmt.Errorf("option %s: destination is not *uint64", flagName)
				}
				def, _ := opt.DefaultValue.(uint64)
				fs.Uint64Var(dest, flagName, def, opt.Description)
			default:
				return fmt.Errorf("option %s: unknown option type %d", flagName, opt.Type)
			}
		}
	}
	return nil
}

// ProcessConfig applies plugin options from the config file. The map is
// keyed by plugin type name, then plugin name, then option name
func ProcessConfig(pluginConfig map[string]map[string]map[string]any) error {
	for _, p := range pluginEntries {
		typeConfig, ok := pluginConfig[PluginTypeName(p.Type)]
		if !ok {
			continue
		}
		options, ok := typeConfig[p.Name]
		if !ok {
			continue
		}
		for optName, value := range options {
			// YAML decodes small integers as int
			if v, ok := value.(int); ok {
				for _, opt := range p.Options {
					if opt.Name == optName && opt.Type == PluginOptionTypeUint {
						if v < 0 {
							return fmt.Errorf("option %s: negative value", optName)
						}
						value = uint64(v)
					}
				}
			}
			if err := SetPluginOption(p.Type, p.Name, optName, value); err != nil {
				return err
			}
		}
	}
	return nil
}

// ProcessEnvVars applies plugin options from BALLOT_DATABASE_* environment
// variables
func ProcessEnvVars() error {
	for _, p := range pluginEntries {
		for _, opt := range p.Options {
			envName := optionEnvName(p, opt)
			raw, ok := os.LookupEnv(envName)
			if !ok {
				continue
			}
			var value any
			var err error
			switch opt.Type {
			case PluginOptionTypeString:
				value = raw
			case PluginOptionTypeBool:
				value, err = strconv.ParseBool(raw)
			case PluginOptionTypeInt:
				value, err = strconv.Atoi(raw)
			case PluginOptionTypeUint:
				value, err = strconv.ParseUint(raw, 10, 64)
			}
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", envName, err)
			}
			if err := SetPluginOption(p.Type, p.Name, opt.Name, value); err != nil {
				return err
			}
		}
	}
	return nil
}
