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

package measurement

import (
	"sort"
	"time"

	"k8s.io/utils/ptr"

	"github.com/NVIDIA/fleet-telemetry/pkg/defaults"
)

// ScalarBuilder provides a fluent API for building scalar Data.
type ScalarBuilder struct {
	data   *Data
	scalar *Scalar
}

// NewScalar starts a scalar Data for the given type, device and tick time.
func NewScalar(t Type, deviceID string, ts time.Time) *ScalarBuilder {
	s := &Scalar{}
	return &ScalarBuilder{
		data: &Data{
			Type:      t,
			DeviceID:  deviceID,
			Timestamp: ts,
			Scale:     defaults.MeasurementScale,
			Payload:   s,
		},
		scalar: s,
	}
}

// Scale overrides the fixed point divisor.
func (b *ScalarBuilder) Scale(scale int64) *ScalarBuilder {
	b.data.Scale = scale
	return b
}

// Value sets the device-level current value.
func (b *ScalarBuilder) Value(v int64) *ScalarBuilder {
	b.scalar.Current = ptr.To(v)
	return b
}

// Raw sets the device-level raw counter.
func (b *ScalarBuilder) Raw(v uint64, ts time.Time) *ScalarBuilder {
	b.scalar.Raw = NewRawSample(v, ts)
	return b
}

// SubDeviceValue sets the current value of a tile.
func (b *ScalarBuilder) SubDeviceValue(id uint32, v int64) *ScalarBuilder {
	b.sub(id).Current = ptr.To(v)
	return b
}

// SubDeviceRaw sets the raw counter of a tile.
func (b *ScalarBuilder) SubDeviceRaw(id uint32, v uint64, ts time.Time) *ScalarBuilder {
	b.sub(id).Raw = NewRawSample(v, ts)
	return b
}

func (b *ScalarBuilder) sub(id uint32) *SubDeviceSample {
	if b.scalar.SubDevices == nil {
		b.scalar.SubDevices = make(map[uint32]*SubDeviceSample)
	}
	s, ok := b.scalar.SubDevices[id]
	if !ok {
		s = &SubDeviceSample{}
		b.scalar.SubDevices[id] = s
	}
	return s
}

// Build returns the Data.
func (b *ScalarBuilder) Build() *Data {
	return b.data
}

// NewEngineData returns an empty engine collection for a device.
func NewEngineData(deviceID string, ts time.Time) *Data {
	return &Data{
		Type:      TypeEngineUtilization,
		DeviceID:  deviceID,
		Timestamp: ts,
		Scale:     defaults.MeasurementScale,
		Payload:   &EngineCollection{Engines: make(map[uint64]*EngineSample)},
	}
}

// NewFabricData returns an empty fabric collection for a device.
func NewFabricData(deviceID string, ts time.Time) *Data {
	return &Data{
		Type:      TypeFabricThroughput,
		DeviceID:  deviceID,
		Timestamp: ts,
		Scale:     defaults.MeasurementScale,
		Payload: &FabricCollection{
			Links:      make(map[FabricLinkKey]*FabricLinkSample),
			Throughput: make(map[FabricThroughputKey]*int64),
		},
	}
}

// SortThroughputKeys orders keys by link then by kind.
func SortThroughputKeys(keys []FabricThroughputKey) {
	kindOrder := make(map[FabricThroughputType]int, len(FabricThroughputTypes))
	for i, k := range FabricThroughputTypes {
		kindOrder[k] = i
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.AttachID != b.AttachID {
			return a.AttachID < b.AttachID
		}
		if a.RemoteFabricID != b.RemoteFabricID {
			return a.RemoteFabricID < b.RemoteFabricID
		}
		if a.RemoteAttachID != b.RemoteAttachID {
			return a.RemoteAttachID < b.RemoteAttachID
		}
		return kindOrder[a.Kind] < kindOrder[b.Kind]
	})
}
