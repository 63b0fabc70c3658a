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
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/blinklabs-io/ballot"
	"github.com/blinklabs-io/ballot/api"
	"github.com/spf13/cobra"
)

func proposalCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proposal",
		Short: "Inspect proposals",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show ID",
			Short: "Show a proposal with its state and council actions",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID("proposal", args[0])
				if err != nil {
					return err
				}
				return withNode(cmd, func(ctx context.Context, n *ballot.Node) error {
					adapter := api.NewLedgerAdapter(n.LedgerState())
					now := time.Now()
					info, err := adapter.Proposal(ctx, id, now)
					if err != nil {
						return err
					}
					actions, err := adapter.CouncilActions(ctx, id, now)
					if err != nil {
						return err
					}
					return printJSON(cmd, struct {
						Proposal api.ProposalInfo        `json:"proposal"`
						Council  []api.CouncilActionInfo `json:"council"`
					}{
						Proposal: info,
						Council:  actions,
					})
				})
			},
		},
		proposalListCommand(),
	)
	return cmd
}

func proposalListCommand() *cobra.Command {
	var offset, limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List proposals with their current state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withNode(cmd, func(ctx context.Context, n *ballot.Node) error {
				proposals := n.LedgerState().Proposals()
				items, err := proposals.List(ctx, offset, limit)
				if err != nil {
					return err
				}
				now := time.Now()
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tSTATE\tPROPOSER\tVOTE END")
				for _, p := range items {
					state, err := proposals.State(ctx, p.ID, now)
					if err != nil {
						return err
					}
					fmt.Fprintf(
						w,
						"%d\t%s\t%s\t%s\n",
						p.ID,
						state,
						p.Proposer.Hex(),
						time.Unix(p.VoteEnd, 0).UTC().Format(time.RFC3339),
					)
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().IntVar(&offset, "offset", 0, "number of proposals to skip")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of proposals to list")
	return cmd
}
