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
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/blinklabs-io/ballot"
	"github.com/blinklabs-io/ballot/internal/node"
	"github.com/spf13/cobra"
)

// queryLogger keeps stdout free for command output
func queryLogger() *slog.Logger {
	logLevel := slog.LevelWarn
	if globalFlags.debug {
		logLevel = slog.LevelDebug
	}
	return slog.New(
		slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		}),
	)
}

// withNode opens the ledger from the loaded config, runs fn and closes it
func withNode(
	cmd *cobra.Command,
	fn func(ctx context.Context, n *ballot.Node) error,
) (err error) {
	n, err := node.Open(configFromCommand(cmd), queryLogger())
	if err != nil {
		return err
	}
	defer func() {
		if stopErr := n.Stop(); stopErr != nil && err == nil {
			err = stopErr
		}
	}()
	return fn(cmd.Context(), n)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseID(name string, arg string) (uint64, error) {
	ret, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, arg, err)
	}
	return ret, nil
}
