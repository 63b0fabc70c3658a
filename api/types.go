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

package api

// RootResponse is returned by GET /
type RootResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	IsHealthy bool `json:"is_healthy"`
}

// ErrorResponse is returned for every failed request
type ErrorResponse struct {
	StatusCode int    `json:"status_code"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

// EpochResponse represents an epoch. Amounts are decimal strings
type EpochResponse struct {
	Epoch            uint64 `json:"epoch"`
	Phase            string `json:"phase,omitempty"`
	StartTime        int64  `json:"start_time"`
	EndTime          int64  `json:"end_time"`
	VotingEnd        int64  `json:"voting_end"`
	DistributionEnd  int64  `json:"distribution_end"`
	TotalVotingPower string `json:"total_voting_power"`
	TotalDistributed string `json:"total_distributed"`
	Finalized        bool   `json:"finalized"`
	WeightsFinalized bool   `json:"weights_finalized"`
	Distributed      bool   `json:"distributed"`
}

// ProposalResponse represents a proposal and its tally
type ProposalResponse struct {
	ID            uint64 `json:"id"`
	Proposer      string `json:"proposer"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	ContentHash   string `json:"content_hash"`
	BodyHash      string `json:"body_hash"`
	State         string `json:"state"`
	CreatedTime   int64  `json:"created_time"`
	VoteStart     int64  `json:"vote_start"`
	VoteEnd       int64  `json:"vote_end"`
	ExecutionTime *int64 `json:"execution_time"`
	ForVotes      string `json:"for_votes"`
	AgainstVotes  string `json:"against_votes"`
	AbstainVotes  string `json:"abstain_votes"`
	TotalPower    string `json:"total_power"`
	Accelerated   bool   `json:"accelerated"`
}

// CouncilActionResponse represents a veto or speedup action
type CouncilActionResponse struct {
	ID               uint64   `json:"id"`
	Kind             string   `json:"kind"`
	Initiator        string   `json:"initiator"`
	CreatedTime      int64    `json:"created_time"`
	ExpiryTime       int64    `json:"expiry_time"`
	Approvals        int      `json:"approvals"`
	Approvers        []string `json:"approvers"`
	Executed         bool     `json:"executed"`
	Expired          bool     `json:"expired"`
	NewVotingPeriod  *int64   `json:"new_voting_period,omitempty"`
	NewTimelockDelay *int64   `json:"new_timelock_delay,omitempty"`
}

// GaugeResponse represents a gauge
type GaugeResponse struct {
	ID       uint64 `json:"id"`
	Target   string `json:"target"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Kind     string `json:"kind"`
	Active   bool   `json:"active"`
	Balance  string `json:"balance"`
}

// GaugeWeightResponse represents the weight of a gauge in an epoch
type GaugeWeightResponse struct {
	GaugeID           uint64 `json:"gauge_id"`
	Epoch             uint64 `json:"epoch"`
	TotalVotingPower  string `json:"total_voting_power"`
	RelativeWeightBps uint32 `json:"relative_weight_bps"`
}

// ClaimableResponse is the amount a grant could claim for an epoch
type ClaimableResponse struct {
	GrantID   uint64 `json:"grant_id"`
	Epoch     uint64 `json:"epoch"`
	Claimable string `json:"claimable"`
}
