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

package plugin_test

import (
	"slices"
	"testing"

	"github.com/blinklabs-io/ballot/database/plugin"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPlugin struct {
	name string
}

func (s *stubPlugin) Start() error { return nil }
func (s *stubPlugin) Stop() error  { return nil }

func registerStub(pluginType plugin.PluginType, name string) {
	plugin.Register(plugin.PluginEntry{
		Type: pluginType,
		Name: name,
		NewFromOptionsFunc: func() plugin.Plugin {
			return &stubPlugin{name: name}
		},
	})
}

func pluginNames(pluginType plugin.PluginType) []string {
	var names []string
	for _, entry := range plugin.GetPlugins(pluginType) {
		names = append(names, entry.Name)
	}
	return names
}

func TestRegistryFiltersByType(t *testing.T) {
	blobName := "stub-blob-" + t.Name()
	metaName := "stub-meta-" + t.Name()
	registerStub(plugin.PluginTypeBlob, blobName)
	registerStub(plugin.PluginTypeMetadata, metaName)

	blobs := pluginNames(plugin.PluginTypeBlob)
	metas := pluginNames(plugin.PluginTypeMetadata)
	assert.Contains(t, blobs, blobName)
	assert.NotContains(t, blobs, metaName)
	assert.Contains(t, metas, metaName)
	assert.NotContains(t, metas, blobName)
}

func TestGetPluginBuildsFreshInstances(t *testing.T) {
	name := "stub-" + t.Name()
	registerStub(plugin.PluginTypeBlob, name)

	first := plugin.GetPlugin(plugin.PluginTypeBlob, name)
	second := plugin.GetPlugin(plugin.PluginTypeBlob, name)
	require.IsType(t, &stubPlugin{}, first)
	assert.Equal(t, name, first.(*stubPlugin).name)
	assert.NotSame(t, first, second)

	assert.Nil(t, plugin.GetPlugin(plugin.PluginTypeMetadata, name))
	assert.Nil(t, plugin.GetPlugin(plugin.PluginTypeBlob, "missing-"+t.Name()))
}

func TestStartPluginReportsFailures(t *testing.T) {
	_, err := plugin.StartPlugin(plugin.PluginTypeBlob, "missing-"+t.Name())
	assert.ErrorContains(t, err, "not found")

	name := "broken-" + t.Name()
	plugin.Register(plugin.PluginEntry{
		Type: plugin.PluginTypeMetadata,
		Name: name,
		NewFromOptionsFunc: func() plugin.Plugin {
			return plugin.NewErrorPlugin(assert.AnError)
		},
	})
	_, err = plugin.StartPlugin(plugin.PluginTypeMetadata, name)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestPopulateCmdlineOptionsAddsFlags(t *testing.T) {
	var dir string
	var size uint64
	name := "flags" + t.Name()
	plugin.Register(plugin.PluginEntry{
		Type:               plugin.PluginTypeBlob,
		Name:               name,
		NewFromOptionsFunc: func() plugin.Plugin { return &stubPlugin{} },
		Options: []plugin.PluginOption{
			{
				Name:         "data-dir",
				Type:         plugin.PluginOptionTypeString,
				DefaultValue: "/srv/votes",
				Dest:         &dir,
			},
			{
				Name:         "cache-size",
				Type:         plugin.PluginOptionTypeUint,
				DefaultValue: uint64(16),
				Dest:         &size,
			},
		},
	})
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	require.NoError(t, plugin.PopulateCmdlineOptions(fs))
	assert.Equal(t, "/srv/votes", dir)
	assert.Equal(t, uint64(16), size)

	require.NoError(
		t,
		fs.Parse([]string{"--blob-" + name + "-cache-size=128"}),
	)
	assert.Equal(t, uint64(128), size)
	assert.True(
		t,
		slices.Contains(pluginNames(plugin.PluginTypeBlob), name),
	)
}
