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

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/blinklabs-io/ballot/database/plugin"
	"github.com/blinklabs-io/ballot/internal/config"
	"github.com/blinklabs-io/ballot/internal/version"
	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
)

const (
	programName = "ballot"
	// A plugin flag set to this prints the plugins of that kind
	listPluginsValue = "list"
)

func slogPrintf(format string, v ...any) {
	slog.Info(fmt.Sprintf(format, v...),
		"component", programName,
	)
}

var (
	globalFlags = struct {
		debug bool
	}{}
	configFile string
)

func commonRun() *slog.Logger {
	// Configure logger
	logLevel := slog.LevelInfo
	if globalFlags.debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			AddSource: globalFlags.debug,
			Level:     logLevel,
		}),
	)
	slog.SetDefault(logger)
	// Configure max processes with our logger wrapper, toss undo func
	if _, err := maxprocs.Set(maxprocs.Logger(slogPrintf)); err != nil {
		// If we hit this, something really wrong happened
		slog.Error(err.Error())
		os.Exit(1)
	}
	logger.Info(
		"version: "+version.GetVersionString(),
		"component", programName,
	)
	return logger
}

// printPlugins writes a table of the registered plugins of each type
func printPlugins(w io.Writer, pluginTypes ...plugin.PluginType) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tNAME\tDESCRIPTION")
	for _, pluginType := range pluginTypes {
		for _, p := range plugin.GetPlugins(pluginType) {
			fmt.Fprintf(
				tw,
				"%s\t%s\t%s\n",
				plugin.PluginTypeName(pluginType),
				p.Name,
				p.Description,
			)
		}
	}
	return tw.Flush()
}

func listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the available storage plugins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printPlugins(
				cmd.OutOrStdout(),
				plugin.PluginTypeBlob,
				plugin.PluginTypeMetadata,
			)
		},
	}
}

// configFromCommand returns the config loaded by the root pre-run hook
func configFromCommand(cmd *cobra.Command) *config.Config {
	cfg := config.FromContext(cmd.Context())
	if cfg == nil {
		slog.Error("no config found in context")
		os.Exit(1)
	}
	return cfg
}

func loadCommandConfig(cmd *cobra.Command) error {
	flags := cmd.Root().PersistentFlags()
	blobPlugin, _ := flags.GetString("blob")
	metadataPlugin, _ := flags.GetString("metadata")
	var listTypes []plugin.PluginType
	if blobPlugin == listPluginsValue {
		listTypes = append(listTypes, plugin.PluginTypeBlob)
	}
	if metadataPlugin == listPluginsValue {
		listTypes = append(listTypes, plugin.PluginTypeMetadata)
	}
	if len(listTypes) > 0 {
		if err := printPlugins(cmd.OutOrStdout(), listTypes...); err != nil {
			return err
		}
		os.Exit(0)
	}
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	// Flags given explicitly win over the config file
	if flags.Changed("blob") {
		cfg.BlobPlugin = blobPlugin
	}
	if flags.Changed("metadata") {
		cfg.MetadataPlugin = metadataPlugin
	}
	cmd.SetContext(config.WithContext(cmd.Context(), cfg))
	return nil
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   programName,
		Short: "Token-governed proposal, council and gauge engine",
		Run: func(cmd *cobra.Command, args []string) {
			serveRun(cmd, args, configFromCommand(cmd))
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch cmd.Name() {
			case "version", "list":
				return nil
			}
			return loadCommandConfig(cmd)
		},
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")
	flags.StringVar(&configFile, "config", "", "path to config file")
	flags.StringP(
		"blob",
		"b",
		config.DefaultBlobPlugin,
		"blob store plugin to use, 'list' to show available",
	)
	flags.StringP(
		"metadata",
		"m",
		config.DefaultMetadataPlugin,
		"metadata store plugin to use, 'list' to show available",
	)
	if err := plugin.PopulateCmdlineOptions(flags); err != nil {
		fmt.Fprintf(os.Stderr, "Error adding plugin flags: %v\n", err)
		os.Exit(1)
	}

	rootCmd.AddCommand(
		serveCommand(),
		epochCommand(),
		proposalCommand(),
		listCommand(),
		versionCommand(),
	)
	return rootCmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		// Cobra has already printed the error
		os.Exit(1)
	}
}
