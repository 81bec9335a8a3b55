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

package query

import (
	"time"

	"github.com/NVIDIA/fleet-telemetry/pkg/measurement"
)

// Window is the time range a statistics result covers.
type Window struct {
	Begin time.Time `json:"begin" yaml:"begin"`
	End   time.Time `json:"end" yaml:"end"`
}

// StatValue is the statistics of one measurement type in one scope.
// Counters report the net change since the window opened in Value and
// the latest reading in Accumulated; gauges report Avg, Min and Max.
type StatValue struct {
	Type        measurement.Type `json:"type" yaml:"type"`
	IsCounter   bool             `json:"isCounter" yaml:"isCounter"`
	Value       int64            `json:"value" yaml:"value"`
	Accumulated int64            `json:"accumulated,omitempty" yaml:"accumulated,omitempty"`
	Avg         float64          `json:"avg,omitempty" yaml:"avg,omitempty"`
	Min         int64            `json:"min,omitempty" yaml:"min,omitempty"`
	Max         int64            `json:"max,omitempty" yaml:"max,omitempty"`
	Scale       int64            `json:"scale" yaml:"scale"`
}

// DeviceStats is the statistics record of a device or one of its tiles.
type DeviceStats struct {
	DeviceID string      `json:"deviceId" yaml:"deviceId"`
	IsTile   bool        `json:"isTile" yaml:"isTile"`
	TileID   uint32      `json:"tileId" yaml:"tileId"`
	Data     []StatValue `json:"data" yaml:"data"`
}

// MetricValue is the latest value of one measurement type in one scope.
type MetricValue struct {
	Type      measurement.Type `json:"type" yaml:"type"`
	IsCounter bool             `json:"isCounter" yaml:"isCounter"`
	Value     int64            `json:"value" yaml:"value"`
	Timestamp time.Time        `json:"timestamp" yaml:"timestamp"`
	Scale     int64            `json:"scale" yaml:"scale"`
}

// DeviceMetrics is the latest value record of a device or one of its tiles.
type DeviceMetrics struct {
	DeviceID string        `json:"deviceId" yaml:"deviceId"`
	IsTile   bool          `json:"isTile" yaml:"isTile"`
	TileID   uint32        `json:"tileId" yaml:"tileId"`
	Data     []MetricValue `json:"data" yaml:"data"`
}

// EngineStats is the utilization statistics of one engine.
type EngineStats struct {
	DeviceID string                 `json:"deviceId" yaml:"deviceId"`
	Index    int                    `json:"index" yaml:"index"`
	Type     measurement.EngineType `json:"type" yaml:"type"`
	IsTile   bool                   `json:"isTile" yaml:"isTile"`
	TileID   uint32                 `json:"tileId" yaml:"tileId"`
	Value    int64                  `json:"value" yaml:"value"`
	Avg      float64                `json:"avg" yaml:"avg"`
	Min      int64                  `json:"min" yaml:"min"`
	Max      int64                  `json:"max" yaml:"max"`
	Scale    int64                  `json:"scale" yaml:"scale"`
}

// EngineUtilization is the latest utilization of one engine.
type EngineUtilization struct {
	DeviceID string                 `json:"deviceId" yaml:"deviceId"`
	Index    int                    `json:"index" yaml:"index"`
	Type     measurement.EngineType `json:"type" yaml:"type"`
	IsTile   bool                   `json:"isTile" yaml:"isTile"`
	TileID   uint32                 `json:"tileId" yaml:"tileId"`
	Value    int64                  `json:"value" yaml:"value"`
	Scale    int64                  `json:"scale" yaml:"scale"`
}

// FabricLink is one fabric link seen from the local device.
type FabricLink struct {
	DeviceID       string `json:"deviceId" yaml:"deviceId"`
	TileID         uint32 `json:"tileId" yaml:"tileId"`
	RemoteDeviceID string `json:"remoteDeviceId" yaml:"remoteDeviceId"`
	RemoteTileID   uint32 `json:"remoteTileId" yaml:"remoteTileId"`
}

// FabricStats is the statistics of one fabric throughput value.
type FabricStats struct {
	FabricLink  `yaml:",inline"`
	Type        measurement.FabricThroughputType `json:"type" yaml:"type"`
	Value       int64                            `json:"value" yaml:"value"`
	Accumulated int64                            `json:"accumulated,omitempty" yaml:"accumulated,omitempty"`
	Avg         float64                          `json:"avg,omitempty" yaml:"avg,omitempty"`
	Min         int64                            `json:"min,omitempty" yaml:"min,omitempty"`
	Max         int64                            `json:"max,omitempty" yaml:"max,omitempty"`
	Scale       int64                            `json:"scale" yaml:"scale"`
}

// FabricThroughput is the latest value of one fabric throughput value.
type FabricThroughput struct {
	FabricLink `yaml:",inline"`
	Type       measurement.FabricThroughputType `json:"type" yaml:"type"`
	Value      int64                            `json:"value" yaml:"value"`
	Scale      int64                            `json:"scale" yaml:"scale"`
}
