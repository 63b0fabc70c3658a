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

package event_test

import (
	"sync"
	"testing"
	"time"

	"github.com/blinklabs-io/ballot/event"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func receive(t *testing.T, ch <-chan event.Event) event.Event {
	t.Helper()
	select {
	case evt, ok := <-ch:
		require.True(t, ok, "event channel closed unexpectedly")
		return evt
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
	return event.Event{}
}

func TestGovernanceEventTypesUnique(t *testing.T) {
	seen := make(map[event.EventType]bool)
	for _, evtType := range event.GovernanceEventTypes {
		assert.False(t, seen[evtType], "duplicate event type %s", evtType)
		seen[evtType] = true
	}
	assert.Equal(
		t,
		event.EventType("gauge.weights_finalized"),
		event.GaugeWeightsFinalizedEventType,
	)
}

func TestPublishReachesOnlyMatchingType(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()

	created := event.ProposalCreatedEvent{
		ProposalID: 7,
		Proposer:   common.HexToAddress("0x1234"),
		Title:      "fund audits",
		TotalPower: 1_000_000,
	}
	_, createdCh := eb.Subscribe(event.ProposalCreatedEventType)
	_, votedCh := eb.Subscribe(event.ProposalVotedEventType)
	eb.Publish(event.NewEvent(event.ProposalCreatedEventType, created))

	evt := receive(t, createdCh)
	assert.Equal(t, event.ProposalCreatedEventType, evt.Type)
	data, ok := evt.Data.(event.ProposalCreatedEvent)
	require.True(t, ok, "event data was not ProposalCreatedEvent")
	assert.Equal(t, created, data)
	assert.Empty(t, votedCh)
}

func TestPublishKeepsOrder(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	_, ch := eb.Subscribe(event.GrantClaimedEventType)
	eb.Publish(
		event.NewEvent(event.GrantClaimedEventType, event.GrantClaimedEvent{Epoch: 1}),
		event.NewEvent(event.GaugeClaimedEventType, event.GaugeClaimedEvent{}),
		event.NewEvent(event.GrantClaimedEventType, event.GrantClaimedEvent{Epoch: 2}),
	)
	for _, epoch := range []uint64{1, 2} {
		claimed, ok := receive(t, ch).Data.(event.GrantClaimedEvent)
		require.True(t, ok)
		assert.Equal(t, epoch, claimed.Epoch)
	}
	assert.Empty(t, ch)
}

func TestEverySubscriberReceives(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	channels := make([]<-chan event.Event, 3)
	for i := range channels {
		_, channels[i] = eb.Subscribe(event.EpochStartedEventType)
	}
	eb.Publish(
		event.NewEvent(
			event.EpochStartedEventType,
			event.EpochStartedEvent{Epoch: 4},
		),
	)
	for _, ch := range channels {
		started, ok := receive(t, ch).Data.(event.EpochStartedEvent)
		require.True(t, ok)
		assert.Equal(t, uint64(4), started.Epoch)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	subId, ch := eb.Subscribe(event.TreasuryReleasedEventType)
	eb.Unsubscribe(event.TreasuryReleasedEventType, subId)
	_, ok := <-ch
	assert.False(t, ok)
	// Repeated and unknown ids are ignored
	eb.Unsubscribe(event.TreasuryReleasedEventType, subId)
	eb.Unsubscribe(event.VetoApprovedEventType, 99)
	eb.Publish(event.NewEvent(event.TreasuryReleasedEventType, nil))
}

func TestStopClosesAllAndAllowsReuse(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	eb := event.NewEventBus(nil, nil)
	_, a := eb.Subscribe(event.VetoInitiatedEventType)
	_, b := eb.Subscribe(event.SpeedupInitiatedEventType)
	handled := make(chan struct{})
	eb.SubscribeFunc(event.VetoExecutedEventType, func(event.Event) {})
	eb.Stop()
	for _, ch := range []<-chan event.Event{a, b} {
		_, ok := <-ch
		assert.False(t, ok)
	}
	eb.Stop()

	eb.SubscribeFunc(event.VetoExecutedEventType, func(event.Event) {
		close(handled)
	})
	eb.Publish(event.NewEvent(event.VetoExecutedEventType, nil))
	select {
	case <-handled:
	case <-time.After(time.Second):
		t.Fatal("handler did not run after Stop")
	}
	eb.Stop()
}

func TestSubscribeFuncSurvivesPanic(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	eb := event.NewEventBus(nil, nil)
	got := make(chan uint64, 2)
	eb.SubscribeFunc(event.GaugeVotedEventType, func(evt event.Event) {
		voted := evt.Data.(event.GaugeVotedEvent)
		if voted.PositionID == 0 {
			panic("no position")
		}
		got <- voted.PositionID
	})
	eb.Publish(
		event.NewEvent(event.GaugeVotedEventType, event.GaugeVotedEvent{}),
		event.NewEvent(
			event.GaugeVotedEventType,
			event.GaugeVotedEvent{PositionID: 3},
		),
	)
	select {
	case id := <-got:
		assert.Equal(t, uint64(3), id)
	case <-time.After(time.Second):
		t.Fatal("handler stopped after panic")
	}
	eb.Stop()
}

func TestFullQueueWaitsForReader(t *testing.T) {
	reg := prometheus.NewRegistry()
	eb := event.NewEventBus(reg, nil)
	defer eb.Stop()
	_, ch := eb.Subscribe(event.ParamChangedEventType)
	total := event.EventQueueSize + 5
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := range total {
			eb.Publish(event.NewEvent(event.ParamChangedEventType, i))
		}
	}()
	require.Eventually(t, func() bool {
		return len(ch) == event.EventQueueSize
	}, 2*time.Second, 5*time.Millisecond)
	select {
	case <-done:
		t.Fatal("publish returned before the full subscriber read")
	case <-time.After(50 * time.Millisecond):
	}
	for i := range total {
		evt := receive(t, ch)
		assert.Equal(t, i, evt.Data)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish still blocked after the subscriber drained")
	}
	families, err := reg.Gather()
	require.NoError(t, err)
	var waits float64
	for _, family := range families {
		if family.GetName() == "ballot_event_subscriber_waits_total" {
			waits = family.GetMetric()[0].GetCounter().GetValue()
		}
	}
	assert.GreaterOrEqual(t, waits, float64(1))
}

func TestUnsubscribeReleasesBlockedPublish(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	subId, ch := eb.Subscribe(event.ParamChangedEventType)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range event.EventQueueSize + 1 {
			eb.Publish(event.NewEvent(event.ParamChangedEventType, nil))
		}
	}()
	require.Eventually(t, func() bool {
		return len(ch) == event.EventQueueSize
	}, 2*time.Second, 5*time.Millisecond)
	eb.Unsubscribe(event.ParamChangedEventType, subId)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish still blocked after unsubscribe")
	}
}

func TestConcurrentPublishAndUnsubscribe(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	eb := event.NewEventBus(nil, nil)
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				subId, ch := eb.Subscribe(event.GrantRevokedEventType)
				go func() {
					for range ch {
					}
				}()
				eb.Publish(event.NewEvent(event.GrantRevokedEventType, nil))
				eb.Unsubscribe(event.GrantRevokedEventType, subId)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range 20 {
			eb.SubscribeFunc(event.GrantRevokedEventType, func(event.Event) {})
			eb.Stop()
		}
	}()
	wg.Wait()
	eb.Stop()
}
