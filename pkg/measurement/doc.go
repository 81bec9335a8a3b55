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

// Package measurement defines the telemetry signal model: measurement
// types, the device capabilities that gate them and the per-tick data
// entity handed to the aggregation handlers.
//
// # Types and capabilities
//
// Type is a closed enumeration of signals. Each Type maps to exactly one
// Capability; several types may share one (all RAS categories map to
// CapabilityRASError). The reverse mapping, Capability.CanonicalType,
// picks one representative type and is lossy.
//
// Counter types (energy, memory read/write, RAS categories, PCIe
// read/write) are delivered as monotonically increasing values; every
// other type is a gauge.
//
// # Data
//
// Data holds one type's value for one device for one tick. Its Payload
// is one of:
//
//   - *Scalar: device value, optional raw counter, per sub-device values
//   - *EngineCollection: per engine handle samples
//   - *FabricCollection: per link raw counters and derived throughput
//
// Absent readings are nil pointers; the wire sentinel Unavailable is
// converted with OptionalRaw and OptionalValue at the boundary.
//
// Usage:
//
//	d := measurement.NewScalar(measurement.TypePower, "0", now).
//	    Value(24500).
//	    SubDeviceValue(0, 12000).
//	    Build()
package measurement
