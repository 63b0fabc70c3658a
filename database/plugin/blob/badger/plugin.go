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

package badger

import (
	"sync"

	"github.com/blinklabs-io/ballot/database/plugin"
)

var (
	cmdlineSettings = func() Settings {
		s := DefaultSettings()
		s.DataDir = ".ballot"
		return s
	}()
	cmdlineSettingsMutex sync.RWMutex
)

// Register plugin
func init() {
	defaults := cmdlineSettings
	plugin.Register(
		plugin.PluginEntry{
			Type:               plugin.PluginTypeBlob,
			Name:               "badger",
			Description:        "BadgerDB local key-value store",
			NewFromOptionsFunc: NewFromCmdlineOptions,
			Options: []plugin.PluginOption{
				{
					Name:         "data-dir",
					Type:         plugin.PluginOptionTypeString,
					Description:  "directory holding the blob/ badger files",
					DefaultValue: defaults.DataDir,
					Dest:         &cmdlineSettings.DataDir,
				},
				{
					Name:         "block-cache-size",
					Type:         plugin.PluginOptionTypeUint,
					Description:  "badger block cache size in bytes",
					DefaultValue: defaults.BlockCacheSize,
					Dest:         &cmdlineSettings.BlockCacheSize,
				},
				{
					Name:         "index-cache-size",
					Type:         plugin.PluginOptionTypeUint,
					Description:  "badger index cache size in bytes",
					DefaultValue: defaults.IndexCacheSize,
					Dest:         &cmdlineSettings.IndexCacheSize,
				},
				{
					Name:         "gc",
					Type:         plugin.PluginOptionTypeBool,
					Description:  "run value log garbage collection",
					DefaultValue: defaults.GC,
					Dest:         &cmdlineSettings.GC,
				},
			},
		},
	)
}

func NewFromCmdlineOptions() plugin.Plugin {
	cmdlineSettingsMutex.RLock()
	settings := cmdlineSettings
	cmdlineSettingsMutex.RUnlock()
	logger, promRegistry := plugin.Environment()
	p, err := New(
		WithLogger(logger),
		WithPromRegistry(promRegistry),
		WithSettings(settings),
	)
	if err != nil {
		// Return a plugin that defers the error to Start()
		return plugin.NewErrorPlugin(err)
	}
	return p
}
