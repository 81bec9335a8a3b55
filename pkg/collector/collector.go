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
	"context"
	"time"

	"github.com/NVIDIA/fleet-telemetry/pkg/handler"
	"github.com/NVIDIA/fleet-telemetry/pkg/measurement"
)

// Batch is the sample set of one measurement type from one tick.
type Batch struct {
	Type      measurement.Type
	Timestamp time.Time
	Set       measurement.SampleSet
}

// Source produces sample sets.
type Source interface {
	// Name identifies the source in logs and metrics.
	Name() string
	// Collect returns the batches of the next tick.
	Collect(ctx context.Context) ([]Batch, error)
}

// Sink receives collected sample sets.
type Sink interface {
	StoreMeasurementData(ctx context.Context, t measurement.Type, ts time.Time, set measurement.SampleSet) error
}

var _ Sink = (*handler.Manager)(nil)
