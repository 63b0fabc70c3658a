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

package ledger

import (
	"github.com/blinklabs-io/ballot/event"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type stateMetrics struct {
	epochNum          prometheus.Gauge
	proposalsCreated  prometheus.Counter
	proposalsExecuted prometheus.Counter
	proposalsVetoed   prometheus.Counter
	gaugeVotes        prometheus.Counter
	distributed       prometheus.Counter
	released          prometheus.Counter
	nodeStartTime     prometheus.Gauge
}

func (m *stateMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.epochNum = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "ballot_epoch_int",
		Help: "current epoch number",
	})
	m.proposalsCreated = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "ballot_proposals_created_total",
		Help: "total number of proposals created",
	})
	m.proposalsExecuted = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "ballot_proposals_executed_total",
		Help: "total number of proposals executed",
	})
	m.proposalsVetoed = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "ballot_proposals_vetoed_total",
		Help: "total number of proposals vetoed by the council",
	})
	m.gaugeVotes = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "ballot_gauge_votes_total",
		Help: "total number of gauge votes",
	})
	m.distributed = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "ballot_distributed_amount_total",
		Help: "total amount distributed to gauges",
	})
	m.released = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "ballot_treasury_released_amount_total",
		Help: "total amount released by the treasury",
	})
	m.nodeStartTime = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "ballot_start_time_int",
		Help: "unix timestamp when the ledger started",
	})
}

// subscribeMetrics keeps the metrics current from committed events
func (ls *LedgerState) subscribeMetrics() {
	handlers := map[event.EventType]event.EventHandlerFunc{
		event.EpochStartedEventType: func(evt event.Event) {
			if data, ok := evt.Data.(event.EpochStartedEvent); ok {
				ls.metrics.epochNum.Set(float64(data.Epoch))
			}
		},
		event.ProposalCreatedEventType: func(event.Event) {
			ls.metrics.proposalsCreated.Inc()
		},
		event.ProposalExecutedEventType: func(event.Event) {
			ls.metrics.proposalsExecuted.Inc()
		},
		event.ProposalVetoedEventType: func(event.Event) {
			ls.metrics.proposalsVetoed.Inc()
		},
		event.GaugeVotedEventType: func(event.Event) {
			ls.metrics.gaugeVotes.Inc()
		},
		event.GaugeDistributedEventType: func(evt event.Event) {
			if data, ok := evt.Data.(event.GaugeDistributedEvent); ok {
				ls.metrics.distributed.Add(float64(data.Amount))
			}
		},
		event.TreasuryReleasedEventType: func(evt event.Event) {
			if data, ok := evt.Data.(event.TreasuryReleasedEvent); ok {
				ls.metrics.released.Add(float64(data.Amount))
			}
		},
	}
	for eventType, handler := range handlers {
		id := ls.config.EventBus.SubscribeFunc(eventType, handler)
		ls.subs = append(ls.subs, eventSubscription{eventType: eventType, id: id})
	}
}
