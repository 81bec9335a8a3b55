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

// Package collector feeds sample sets into the aggregation core.
//
// # Overview
//
// A Source produces the batches of one collection tick. Each Batch holds
// the sample set of one measurement type across every device the source
// covers:
//
//	type Source interface {
//	    Name() string
//	    Collect(ctx context.Context) ([]Batch, error)
//	}
//
// The Runner drives one goroutine per source. Every interval it collects
// and hands each batch to a Sink, normally the handler manager:
//
//	runner := collector.NewRunner(manager, sources,
//	    collector.WithInterval(time.Second))
//	err := runner.Run(ctx)
//
// Collection errors are logged and counted; they never stop the runner.
//
// # Replay Source
//
// Hardware access is outside this repository. The Replay source plays
// back a recorded SampleScript document, read from a file, URL or
// cm://namespace/name ConfigMap:
//
//	kind: SampleScript
//	apiVersion: telemetry.nvidia.com/v1alpha1
//	ticks:
//	  - samples:
//	      - type: power
//	        device: "0"
//	        value: 12000
//	        tiles: {0: 6000, 1: 6000}
//	      - type: energy
//	        device: "0"
//	        raw: 1234567
//
// The wire value 18446744073709551615 means "no reading" and is decoded
// into an absent value. Samples are stamped with the collection time.
//
// # Factory
//
// DefaultFactory builds sources from config.Source entries.
package collector
