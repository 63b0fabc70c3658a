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

package epoch

import (
	"fmt"
	"math"
	"time"

	lcommon "github.com/blinklabs-io/ballot/ledger/common"
)

// Phase is the sub-window of an epoch
type Phase uint8

const (
	PhasePreparation Phase = iota
	PhaseVoting
	PhaseDistribution
)

func (p Phase) String() string {
	switch p {
	case PhaseVoting:
		return "voting"
	case PhaseDistribution:
		return "distribution"
	default:
		return "preparation"
	}
}

// MarshalText renders the phase by name in JSON and YAML output
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Schedule describes the fixed epoch cycle. Each epoch starts with the
// voting window, followed by the distribution window. The remainder of the
// cycle is preparation
type Schedule struct {
	StartTime          time.Time
	CycleLength        time.Duration
	VotingWindow       time.Duration
	DistributionWindow time.Duration
}

// Bounds holds the computed boundaries of one epoch
type Bounds struct {
	Start           time.Time
	End             time.Time
	VotingEnd       time.Time
	DistributionEnd time.Time
}

// Validate checks that the sub-windows fit in the cycle
func (s Schedule) Validate() error {
	if s.CycleLength < time.Second {
		return fmt.Errorf(
			"%w: cycle length must be at least one second",
			lcommon.ErrInvalidArgument,
		)
	}
	if s.VotingWindow <= 0 {
		return fmt.Errorf(
			"%w: voting window must be positive",
			lcommon.ErrInvalidArgument,
		)
	}
	if s.DistributionWindow < 0 {
		return fmt.Errorf(
			"%w: distribution window must not be negative",
			lcommon.ErrInvalidArgument,
		)
	}
	if s.VotingWindow+s.DistributionWindow > s.CycleLength {
		return fmt.Errorf(
			"%w: voting and distribution windows exceed the cycle length",
			lcommon.ErrInvalidArgument,
		)
	}
	return nil
}

// EpochAt returns the epoch number at the given time. It is 0 before the
// schedule starts
func (s Schedule) EpochAt(now time.Time) uint64 {
	if !now.After(s.StartTime) {
		return 0
	}
	return uint64(now.Sub(s.StartTime) / s.CycleLength)
}

// PhaseAt returns the phase at the given time. It is Preparation before the
// schedule starts
func (s Schedule) PhaseAt(now time.Time) Phase {
	if now.Before(s.StartTime) {
		return PhasePreparation
	}
	offset := now.Sub(s.StartTime) % s.CycleLength
	switch {
	case offset < s.VotingWindow:
		return PhaseVoting
	case offset < s.VotingWindow+s.DistributionWindow:
		return PhaseDistribution
	default:
		return PhasePreparation
	}
}

// MaxEpoch is the last epoch whose start offset fits in a time.Duration
func (s Schedule) MaxEpoch() uint64 {
	return uint64(math.MaxInt64 / int64(s.CycleLength))
}

// Bounds returns the boundaries of an epoch. Epochs past MaxEpoch saturate
// to the bounds of MaxEpoch
func (s Schedule) Bounds(epoch uint64) Bounds {
	epoch = min(epoch, s.MaxEpoch())
	start := s.StartTime.Add(time.Duration(epoch) * s.CycleLength)
	return Bounds{
		Start:           start,
		End:             start.Add(s.CycleLength),
		VotingEnd:       start.Add(s.VotingWindow),
		DistributionEnd: start.Add(s.VotingWindow + s.DistributionWindow),
	}
}
