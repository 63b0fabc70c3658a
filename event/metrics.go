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

package event

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type eventMetrics struct {
	published   *prometheus.CounterVec
	waits       *prometheus.CounterVec
	subscribers *prometheus.GaugeVec
}

func (e *EventBus) initMetrics(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	e.metrics = &eventMetrics{
		published: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ballot_event_published_total",
				Help: "total events published, by type",
			},
			[]string{"type"},
		),
		waits: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ballot_event_subscriber_waits_total",
				Help: "deliveries that waited on a full subscriber queue, by type",
			},
			[]string{"type"},
		),
		subscribers: promautoFactory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ballot_event_subscribers",
				Help: "current event subscriptions, by type",
			},
			[]string{"type"},
		),
	}
}
