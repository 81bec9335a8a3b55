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

package collector

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	collectionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "telemetry_collection_duration_seconds",
			Help:    "Time taken by one collection tick of a source",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		},
		[]string{"source"},
	)

	collectionTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemetry_collection_total",
			Help: "Total number of collection ticks",
		},
		[]string{"source", "status"}, // success or error
	)

	batchesStored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemetry_collection_batches_total",
			Help: "Total number of sample sets handed to the aggregator",
		},
		[]string{"source", "type"},
	)

	storeErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemetry_collection_store_errors_total",
			Help: "Total number of sample sets the aggregator rejected",
		},
		[]string{"source", "type"},
	)
)
