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
	"errors"
	"fmt"
)

type Plugin interface {
	Start() error
	Stop() error
}

// ErrorPlugin is a plugin that always returns an error on Start()
type ErrorPlugin struct {
	Err error
}

func (e *ErrorPlugin) Start() error {
	return e.Err
}

func (e *ErrorPlugin) Stop() error {
	return nil
}

// NewErrorPlugin creates a new error plugin that returns the given error on Start()
func NewErrorPlugin(err error) Plugin {
	return &ErrorPlugin{Err: err}
}

// StartPlugin gets a plugin from the registry and starts it
func StartPlugin(pluginType PluginType, pluginName string) (Plugin, error) {
	p := GetPlugin(pluginType, pluginName)
	if p == nil {
		return nil, fmt.Errorf(
			"%s plugin '%s' not found",
			PluginTypeName(pluginType),
			pluginName,
		)
	}
	if err := p.Start(); err != nil {
		return nil, fmt.Errorf(
			"failed to start %s plugin '%s': %w",
			PluginTypeName(pluginType),
			pluginName,
			err,
		)
	}
	return p, nil
}

var errOptionType = errors.New("invalid option type")

// assignOption stores value into dest after checking both have type T
func assignOption[T any](optionName string, dest any, value any) error {
	v, ok := value.(T)
	if !ok {
		return fmt.Errorf(
			"%w for option %s: expected %T, got %T",
			errOptionType,
			optionName,
			*new(T),
			value,
		)
	}
	ptr, ok := dest.(*T)
	if !ok || ptr == nil {
		return fmt.Errorf(
			"invalid destination for option %s: expected *%T",
			optionName,
			*new(T),
		)
	}
	*ptr = v
	return nil
}

// SetPluginOption sets the value of a named option for a plugin entry. This
// is used to override plugin defaults before a plugin is instantiated (for
// example to point the data-dir at a temp directory in tests). Setting an
// option the plugin doesn't have is not an error.
// It must only be called during initialization: it writes plugin option
// destinations without synchronization.
func SetPluginOption(
	pluginType PluginType,
	pluginName string,
	optionName string,
	value any,
) error {
	for _, p := range pluginEntries {
		if p.Type != pluginType || p.Name != pluginName {
			continue
		}
		for _, opt := range p.Options {
			if opt.Name != optionName {
				continue
			}
			switch opt.Type {
			case PluginOptionTypeString:
				return assignOption[string](optionName, opt.Dest, value)
			case PluginOptionTypeBool:
				return assignOption[bool](optionName, opt.Dest, value)
			case PluginOptionTypeInt:
				return assignOption[int](optionName, opt.Dest, value)
			case PluginOptionTypeUint:
				if v, ok := value.(int); ok {
					if v < 0 {
						return fmt.Errorf(
							"invalid value for option %s: negative int",
							optionName,
						)
					}
					value = uint64(v)
				}
				return assignOption[uint64](optionName, opt.Dest, value)
			default:
				return fmt.Errorf(
					"unknown plugin option type %d for option %s",
					opt.Type,
					optionName,
				)
			}
		}
		return nil
	}
	return fmt.Errorf(
		"plugin %s of type %s not found",
		pluginName,
		PluginTypeName(pluginType),
	)
}
