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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type executorMetrics struct {
	operations *prometheus.CounterVec
	latency    *prometheus.HistogramVec
}

func newExecutorMetrics(promRegistry prometheus.Registerer) *executorMetrics {
	promautoFactory := promauto.With(promRegistry)
	return &executorMetrics{
		operations: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ballot_operations_total",
				Help: "governance operations, by name and result",
			},
			[]string{"operation", "result"},
		),
		latency: promautoFactory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ballot_operation_duration_seconds",
				Help:    "governance operation latency including commit",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
			},
			[]string{"operation"},
		),
	}
}
