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
	"fmt"
	"slices"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

// Roles holds the addresses allowed to perform role-gated operations
type Roles struct {
	Admins       []ethcommon.Address
	Executors    []ethcommon.Address
	Distributors []ethcommon.Address
}

// Validate rejects zero addresses
func (r Roles) Validate() error {
	for name, addrs := range map[string][]ethcommon.Address{
		"admin":       r.Admins,
		"executor":    r.Executors,
		"distributor": r.Distributors,
	} {
		for _, addr := range addrs {
			if addr == (ethcommon.Address{}) {
				return fmt.Errorf("%w: zero %s address", ErrInvalidArgument, name)
			}
		}
	}
	return nil
}

func (r Roles) IsAdmin(addr ethcommon.Address) bool {
	return slices.Contains(r.Admins, addr)
}

func (r Roles) IsExecutor(addr ethcommon.Address) bool {
	return slices.Contains(r.Executors, addr)
}

func (r Roles) IsDistributor(addr ethcommon.Address) bool {
	return slices.Contains(r.Distributors, addr)
}

// RequireAdmin fails with ErrAuthorization unless addr is an administrator
func (r Roles) RequireAdmin(addr ethcommon.Address) error {
	if !r.IsAdmin(addr) {
		return fmt.Errorf("%w: %s is not an administrator", ErrAuthorization, addr.Hex())
	}
	return nil
}

// RequireExecutor fails with ErrAuthorization unless addr is an executor
func (r Roles) RequireExecutor(addr ethcommon.Address) error {
	if !r.IsExecutor(addr) {
		return fmt.Errorf("%w: %s is not an executor", ErrAuthorization, addr.Hex())
	}
	return nil
}

// RequireDistributor fails with ErrAuthorization unless addr is a distributor
func (r Roles) RequireDistributor(addr ethcommon.Address) error {
	if !r.IsDistributor(addr) {
		return fmt.Errorf("%w: %s is not a distributor", ErrAuthorization, addr.Hex())
	}
	return nil
}
