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

package device

import (
	"github.com/NVIDIA/fleet-telemetry/pkg/measurement"
)

// EngineInfo describes one engine of a device.
type EngineInfo struct {
	Handle      uint64                 `json:"handle" yaml:"handle"`
	Type        measurement.EngineType `json:"type" yaml:"type"`
	SubDeviceID *uint32                `json:"subDevice,omitempty" yaml:"subDevice,omitempty"`
}

// OnSubDevice reports whether the engine belongs to a tile.
func (e EngineInfo) OnSubDevice() bool {
	return e.SubDeviceID != nil
}

// FabricThroughputInfo describes one reportable fabric value of a device.
type FabricThroughputInfo struct {
	ID                        uint32 `json:"id" yaml:"id"`
	measurement.FabricLinkKey `yaml:",inline"`
	Kind                      measurement.FabricThroughputType `json:"kind" yaml:"kind"`
	SubDeviceID               *uint32                          `json:"subDevice,omitempty" yaml:"subDevice,omitempty"`
}

// Key returns the throughput key the fabric handler stores this value under.
func (f FabricThroughputInfo) Key() measurement.FabricThroughputKey {
	return measurement.FabricThroughputKey{FabricLinkKey: f.FabricLinkKey, Kind: f.Kind}
}

// Device is a read-only view of one GPU.
type Device interface {
	ID() string
	PCIAddress() string
	FabricID() uint32
	SubDeviceCount() uint32
	Capabilities() measurement.CapabilitySet
	EngineCount() int
	// EngineIndex returns the report index of the engine with the given
	// handle.
	EngineIndex(handle uint64) (int, bool)
	Engine(handle uint64) (EngineInfo, bool)
	FabricThroughputInfoCount() int
	FabricThroughputInfos() []FabricThroughputInfo
}

// Directory resolves device ids and fabric ids.
type Directory interface {
	Device(id string) (Device, bool)
	Devices() []Device
	DeviceIDByFabricID(fabricID uint32) (string, bool)
}
