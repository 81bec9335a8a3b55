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

// Package exporter publishes the latest device metrics as Prometheus
// gauges and counters.
//
// The Collector reads through the query service at scrape time, so the
// exposed values always match what the HTTP API reports:
//
//	reg := prometheus.NewRegistry()
//	reg.MustRegister(exporter.NewCollector(svc))
//
// Every measurement type maps to one metric family named
// telemetry_device_<type> with the labels device and tile. Device level
// values carry an empty tile label. Values are divided by the scale the
// collector reported, so power in milliwatts with scale 1000 is exposed
// in watts.
package exporter
