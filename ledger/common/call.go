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

import (
	"context"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

// BasisPoints is 100% expressed in basis points
const BasisPoints = 10_000

// Call carries the authenticated caller and the current time into a
// state-changing operation
type Call struct {
	Caller ethcommon.Address
	Now    time.Time
}

// NewCall returns a Call for the given caller at the given time
func NewCall(caller ethcommon.Address, now time.Time) Call {
	return Call{Caller: caller, Now: now}
}

// VotingPowerSource supplies voting power for locked positions. It is
// read-only from the point of view of the governance core
type VotingPowerSource interface {
	VotingPowerOf(ctx context.Context, positionID uint64) (uint64, error)
	TotalVotingPower(ctx context.Context) (uint64, error)
	IsAuthorized(
		ctx context.Context,
		caller ethcommon.Address,
		positionID uint64,
	) (bool, error)
	PositionsOwnedBy(
		ctx context.Context,
		account ethcommon.Address,
	) ([]uint64, error)
}

// Payout sources
const (
	ReleaseSourceDistribution = "distribution"
	ReleaseSourceGrant        = "grant"
)

// ReleaseRequest describes a release of funds held by a gauge
type ReleaseRequest struct {
	To       ethcommon.Address
	Amount   uint64
	GaugeID  uint64
	Epoch    uint64
	Source   string
	SourceID uint64
	Time     time.Time
}

// FundsReleaser moves funds out of the treasury. It runs inside the
// operation transaction, so a failed release aborts the operation
type FundsReleaser interface {
	Release(op *Op, req ReleaseRequest) error
}
