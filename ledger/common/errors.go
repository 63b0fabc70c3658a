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

import "errors"

// Failure taxonomy of governance operations. Every failure aborts the
// whole operation without side effects, except where ErrVetoed notes
// otherwise
var (
	// ErrAuthorization means the caller lacks a role or position authorization
	ErrAuthorization = errors.New("authorization failure")
	// ErrInvalidState means the operation is not allowed in the current lifecycle state
	ErrInvalidState = errors.New("invalid state transition")
	// ErrDuplicate means the action was already taken
	ErrDuplicate = errors.New("duplicate action")
	// ErrExpired means a council action is past its window
	ErrExpired = errors.New("expired action")
	// ErrThreshold means weights or approvals do not meet the required threshold
	ErrThreshold = errors.New("threshold violation")
	// ErrInsufficientPower means the voting power is zero or below threshold
	ErrInsufficientPower = errors.New("insufficient voting power")
	// ErrArithmeticBound means an amount would exceed a bound or overflow
	ErrArithmeticBound = errors.New("arithmetic bound violation")
	// ErrNotFound means the referenced record does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument means the input or configuration is out of range
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrReentrantCall means a core operation was invoked while another
	// state transition was in progress on the same context
	ErrReentrantCall = errors.New("re-entrant call during state transition")
	// ErrVetoed means the proposal was vetoed by the council. The Vetoed
	// transition is committed before this error is returned
	ErrVetoed = errors.New("proposal vetoed")
)
