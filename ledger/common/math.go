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
	"math/bits"

	"github.com/holiman/uint256"
)

// MulDiv returns a * b / denom, rounded down, using a 256-bit intermediate
// product
func MulDiv(a, b, denom uint64) (uint64, error) {
	if denom == 0 {
		return 0, fmt.Errorf("%w: division by zero", ErrArithmeticBound)
	}
	var result uint256.Int
	_, overflow := result.MulDivOverflow(
		uint256.NewInt(a),
		uint256.NewInt(b),
		uint256.NewInt(denom),
	)
	if overflow || !result.IsUint64() {
		return 0, fmt.Errorf(
			"%w: %d * %d / %d exceeds 64 bits",
			ErrArithmeticBound,
			a,
			b,
			denom,
		)
	}
	return result.Uint64(), nil
}

// AddChecked returns a + b, failing on overflow
func AddChecked(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, fmt.Errorf("%w: %d + %d overflows", ErrArithmeticBound, a, b)
	}
	return sum, nil
}

// SubChecked returns a - b, failing on underflow
func SubChecked(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, fmt.Errorf("%w: %d - %d underflows", ErrArithmeticBound, a, b)
	}
	return diff, nil
}
