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
	"context"
	"time"

	"github.com/NVIDIA/fleet-telemetry/pkg/measurement"
)

// Family groups statistics that share session windows.
type Family string

const (
	FamilyDevice Family = "device"
	FamilyEngine Family = "engine"
	FamilyFabric Family = "fabric"
)

// Families lists every statistics family.
var Families = []Family{FamilyDevice, FamilyEngine, FamilyFabric}

// ParseFamily parses a family name.
func ParseFamily(s string) (Family, bool) {
	for _, f := range Families {
		if string(f) == s {
			return f, true
		}
	}
	return "", false
}

// FamilyOf returns the statistics family of a measurement type.
func FamilyOf(t measurement.Type) Family {
	switch t {
	case measurement.TypeEngineUtilization:
		return FamilyEngine
	case measurement.TypeFabricThroughput:
		return FamilyFabric
	default:
		return FamilyDevice
	}
}

// windowKey identifies the statistics of one session for one device.
type windowKey struct {
	Session  uint64
	DeviceID string
}

// Handler aggregates the sample sets of one measurement type.
type Handler interface {
	// Type is the measurement type handled.
	Type() measurement.Type
	// HandleData ingests one tick and returns a copy of the processed set.
	HandleData(set measurement.SampleSet) measurement.SampleSet
	// LatestData returns a copy of the newest data of a device, or nil.
	LatestData(deviceID string) *measurement.Data
	// openWindow discards the statistics of key and starts them over at start.
	openWindow(key windowKey, start time.Time)
	// dropSession discards every window of a session.
	dropSession(session uint64)
}

// Persister stores processed sample sets durably. Failures are logged by
// the Manager and never reach the collection path.
type Persister interface {
	Persist(ctx context.Context, t measurement.Type, ts time.Time, set measurement.SampleSet) error
}

func latestOf(set measurement.SampleSet, deviceID string) *measurement.Data {
	if set == nil {
		return nil
	}
	return set[deviceID].Clone()
}
