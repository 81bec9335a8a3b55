// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
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

package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	samplesStored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemetry_sample_sets_stored_total",
			Help: "Total number of sample sets stored, by measurement type",
		},
		[]string{"type"},
	)

	storeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "telemetry_store_duration_seconds",
			Help:    "Time spent aggregating one sample set",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
		},
		[]string{"type"},
	)

	persistFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemetry_persist_failures_total",
			Help: "Total number of sample sets the persister failed to store",
		},
		[]string{"type"},
	)

	sessionEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telemetry_session_evictions_total",
			Help: "Total number of statistics sessions evicted to stay within the session limit",
		},
	)

	liveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "telemetry_sessions",
			Help: "Current number of statistics sessions",
		},
	)
)
