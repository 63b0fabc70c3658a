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

package common_test

import (
	"math"
	"testing"

	"github.com/blinklabs-io/ballot/internal/test/testutil"
	lcommon "github.com/blinklabs-io/ballot/ledger/common"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMulDiv(t *testing.T) {
	testDefs := []struct {
		a, b, denom uint64
		expected    uint64
		expectErr   bool
	}{
		{a: 1_000_000, b: 1000, denom: lcommon.BasisPoints, expected: 100_000},
		{a: 100, b: 6000, denom: lcommon.BasisPoints, expected: 60},
		{a: 1200, b: 3, denom: 4, expected: 900},
		{a: 7, b: 1, denom: 2, expected: 3},
		// The intermediate product overflows 64 bits but the result fits
		{a: math.MaxUint64, b: 5000, denom: lcommon.BasisPoints, expected: math.MaxUint64 / 2},
		{a: math.MaxUint64, b: 2, denom: 1, expectErr: true},
		{a: 1, b: 1, denom: 0, expectErr: true},
	}
	for _, testDef := range testDefs {
		got, err := lcommon.MulDiv(testDef.a, testDef.b, testDef.denom)
		if testDef.expectErr {
			require.ErrorIs(t, err, lcommon.ErrArithmeticBound)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, testDef.expected, got)
	}
}

func TestCheckedArithmetic(t *testing.T) {
	sum, err := lcommon.AddChecked(2, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), sum)
	_, err = lcommon.AddChecked(math.MaxUint64, 1)
	require.ErrorIs(t, err, lcommon.ErrArithmeticBound)

	diff, err := lcommon.SubChecked(5, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), diff)
	_, err = lcommon.SubChecked(3, 5)
	require.ErrorIs(t, err, lcommon.ErrArithmeticBound)
}

func TestRoles(t *testing.T) {
	roles := lcommon.Roles{
		Admins:       []common.Address{testutil.Address(1)},
		Executors:    []common.Address{testutil.Address(2)},
		Distributors: []common.Address{testutil.Address(3)},
	}
	require.NoError(t, roles.Validate())
	require.NoError(t, roles.RequireAdmin(testutil.Address(1)))
	require.ErrorIs(t, roles.RequireAdmin(testutil.Address(2)), lcommon.ErrAuthorization)
	require.NoError(t, roles.RequireExecutor(testutil.Address(2)))
	require.ErrorIs(t, roles.RequireExecutor(testutil.Address(1)), lcommon.ErrAuthorization)
	require.NoError(t, roles.RequireDistributor(testutil.Address(3)))
	require.ErrorIs(t, roles.RequireDistributor(testutil.Address(1)), lcommon.ErrAuthorization)

	roles.Executors = append(roles.Executors, common.Address{})
	require.ErrorIs(t, roles.Validate(), lcommon.ErrInvalidArgument)
}

func TestProposalStateNames(t *testing.T) {
	assert.Equal(t, "defeated", lcommon.ProposalStateDefeated.String())
	text, err := lcommon.ProposalStateVetoed.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "vetoed", string(text))
	assert.True(t, lcommon.ProposalStateCancelled.Terminal())
	assert.False(t, lcommon.ProposalStateQueued.Terminal())
}
