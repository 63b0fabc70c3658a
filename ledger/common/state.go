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

package common

// ProposalState is the lifecycle state of a proposal
type ProposalState uint8

const (
	ProposalStatePending ProposalState = iota
	ProposalStateActive
	ProposalStateDefeated
	ProposalStateSucceeded
	ProposalStateQueued
	ProposalStateExecuted
	ProposalStateCancelled
	ProposalStateVetoed
)

var proposalStateNames = map[ProposalState]string{
	ProposalStatePending:   "pending",
	ProposalStateActive:    "active",
	ProposalStateDefeated:  "defeated",
	ProposalStateSucceeded: "succeeded",
	ProposalStateQueued:    "queued",
	ProposalStateExecuted:  "executed",
	ProposalStateCancelled: "cancelled",
	ProposalStateVetoed:    "vetoed",
}

func (s ProposalState) String() string {
	if name, ok := proposalStateNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalText renders the state by name in JSON and YAML output
func (s ProposalState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether the state can never change again
func (s ProposalState) Terminal() bool {
	switch s {
	case ProposalStateExecuted, ProposalStateCancelled, ProposalStateVetoed:
		return true
	default:
		return false
	}
}
