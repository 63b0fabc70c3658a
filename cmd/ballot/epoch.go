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
	"time"

	"github.com/blinklabs-io/ballot"
	"github.com/blinklabs-io/ballot/api"
	"github.com/spf13/cobra"
)

func epochCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "epoch",
		Short: "Inspect and advance epochs",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "current",
			Short: "Show the epoch in progress",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withNode(cmd, func(ctx context.Context, n *ballot.Node) error {
					info, err := api.NewLedgerAdapter(n.LedgerState()).
						CurrentEpoch(ctx, time.Now())
					if err != nil {
						return err
					}
					return printJSON(cmd, info)
				})
			},
		},
		&cobra.Command{
			Use:   "show EPOCH",
			Short: "Show an epoch by number",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				epochNum, err := parseID("epoch", args[0])
				if err != nil {
					return err
				}
				return withNode(cmd, func(ctx context.Context, n *ballot.Node) error {
					info, err := api.NewLedgerAdapter(n.LedgerState()).
						Epoch(ctx, epochNum, time.Now())
					if err != nil {
						return err
					}
					return printJSON(cmd, info)
				})
			},
		},
		&cobra.Command{
			Use:   "advance",
			Short: "Materialize the current epoch and finalize the previous one",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withNode(cmd, func(ctx context.Context, n *ballot.Node) error {
					epochNum, advanced, err := n.LedgerState().Advance(ctx, time.Now())
					if err != nil {
						return err
					}
					return printJSON(cmd, struct {
						Epoch    uint64 `json:"epoch"`
						Advanced bool   `json:"advanced"`
					}{
						Epoch:    epochNum,
						Advanced: advanced,
					})
				})
			},
		},
	)
	return cmd
}
