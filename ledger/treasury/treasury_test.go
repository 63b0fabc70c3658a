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

package treasury_test

import (
	"context"
	"testing"
	"time"

	"github.com/blinklabs-io/ballot/event"
	"github.com/blinklabs-io/ballot/internal/test/testutil"
	lcommon "github.com/blinklabs-io/ballot/ledger/common"
	"github.com/blinklabs-io/ballot/ledger/treasury"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTreasury(t *testing.T) (*treasury.Treasury, *lcommon.Executor, *event.EventBus) {
	t.Helper()
	bus := event.NewEventBus(nil, nil)
	t.Cleanup(bus.Stop)
	exec := lcommon.NewExecutor(testutil.NewDatabase(t), lcommon.WithEventBus(bus))
	tr, err := treasury.New(treasury.TreasuryConfig{
		Executor: exec,
	})
	require.NoError(t, err)
	return tr, exec, bus
}

func TestReleaseRecordsPayout(t *testing.T) {
	tr, exec, bus := newTestTreasury(t)
	_, ch := bus.Subscribe(event.TreasuryReleasedEventType)
	recipient := testutil.Address(4)
	err := exec.Do(context.Background(), "release", func(op *lcommon.Op) error {
		return tr.Release(op, lcommon.ReleaseRequest{
			To:       recipient,
			Amount:   250,
			GaugeID:  2,
			Epoch:    6,
			Source:   lcommon.ReleaseSourceGrant,
			SourceID: 11,
			Time:     time.Unix(5000, 0),
		})
	})
	require.NoError(t, err)
	payouts, err := tr.Payouts(context.Background(), recipient)
	require.NoError(t, err)
	require.Len(t, payouts, 1)
	assert.Equal(t, uint64(250), uint64(payouts[0].Amount))
	assert.Equal(t, uint64(11), payouts[0].SourceID)
	assert.Equal(t, int64(5000), payouts[0].PaidTime)
	evt := testutil.RequireReceive(t, ch, time.Second, "release event")
	assert.Equal(t, uint64(250), evt.Data.(event.TreasuryReleasedEvent).Amount)
}

func TestReleaseRejectsInvalidRequests(t *testing.T) {
	tr, exec, _ := newTestTreasury(t)
	err := exec.Do(context.Background(), "release", func(op *lcommon.Op) error {
		return tr.Release(op, lcommon.ReleaseRequest{To: testutil.Address(4)})
	})
	require.ErrorIs(t, err, lcommon.ErrArithmeticBound)
	err = exec.Do(context.Background(), "release", func(op *lcommon.Op) error {
		return tr.Release(op, lcommon.ReleaseRequest{Amount: 1})
	})
	require.ErrorIs(t, err, lcommon.ErrInvalidArgument)
}
