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
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Type identifies one telemetry signal (e.g. power, PCIe read).
type Type string

// String returns the string representation of the measurement Type.
func (t Type) String() string {
	return string(t)
}

const (
	TypeFrequency                     Type = "frequency"
	TypePower                         Type = "power"
	TypeEnergy                        Type = "energy"
	TypeTemperature                   Type = "temperature"
	TypeMemoryUsed                    Type = "memory_used"
	TypeMemoryUtilization             Type = "memory_utilization"
	TypeMemoryBandwidth               Type = "memory_bandwidth"
	TypeMemoryRead                    Type = "memory_read"
	TypeMemoryWrite                   Type = "memory_write"
	TypeMemoryReadThroughput          Type = "memory_read_throughput"
	TypeMemoryWriteThroughput         Type = "memory_write_throughput"
	TypeComputation                   Type = "computation"
	TypeEngineUtilization             Type = "engine_utilization"
	TypeEngineGroupComputeUtilization Type = "engine_group_compute_all_utilization"
	TypeEngineGroupMediaUtilization   Type = "engine_group_media_all_utilization"
	TypeEngineGroupCopyUtilization    Type = "engine_group_copy_all_utilization"
	TypeEngineGroupRenderUtilization  Type = "engine_group_render_all_utilization"
	TypeEngineGroup3DUtilization      Type = "engine_group_3d_all_utilization"
	TypeEUActive                      Type = "eu_active"
	TypeEUStall                       Type = "eu_stall"
	TypeEUIdle                        Type = "eu_idle"
	TypeRASReset                      Type = "ras_error_cat_reset"
	TypeRASProgrammingErrors          Type = "ras_error_cat_programming_errors"
	TypeRASDriverErrors               Type = "ras_error_cat_driver_errors"
	TypeRASCacheCorrectable           Type = "ras_error_cat_cache_errors_correctable"
	TypeRASCacheUncorrectable         Type = "ras_error_cat_cache_errors_uncorrectable"
	TypeRASDisplayCorrectable         Type = "ras_error_cat_display_errors_correctable"
	TypeRASDisplayUncorrectable       Type = "ras_error_cat_display_errors_uncorrectable"
	TypeRASNonComputeCorrectable      Type = "ras_error_cat_non_compute_errors_correctable"
	TypeRASNonComputeUncorrectable    Type = "ras_error_cat_non_compute_errors_uncorrectable"
	TypeRequestFrequency              Type = "request_frequency"
	TypeMemoryTemperature             Type = "memory_temperature"
	TypeFrequencyThrottle             Type = "frequency_throttle"
	TypeFrequencyThrottleReasonGPU    Type = "frequency_throttle_reason_gpu"
	TypePCIeReadThroughput            Type = "pcie_read_throughput"
	TypePCIeWriteThroughput           Type = "pcie_write_throughput"
	TypePCIeRead                      Type = "pcie_read"
	TypePCIeWrite                     Type = "pcie_write"
	TypeFabricThroughput              Type = "fabric_throughput"
	TypeMediaEngineFrequency          Type = "media_engine_frequency"
	TypePerf                          Type = "perf"
)

// Types is the ordered list of all measurement types.
// Result records list types in this order.
var Types = []Type{
	TypeFrequency,
	TypePower,
	TypeEnergy,
	TypeTemperature,
	TypeMemoryUsed,
	TypeMemoryUtilization,
	TypeMemoryBandwidth,
	TypeMemoryRead,
	TypeMemoryWrite,
	TypeMemoryReadThroughput,
	TypeMemoryWriteThroughput,
	TypeComputation,
	TypeEngineUtilization,
	TypeEngineGroupComputeUtilization,
	TypeEngineGroupMediaUtilization,
	TypeEngineGroupCopyUtilization,
	TypeEngineGroupRenderUtilization,
	TypeEngineGroup3DUtilization,
	TypeEUActive,
	TypeEUStall,
	TypeEUIdle,
	TypeRASReset,
	TypeRASProgrammingErrors,
	TypeRASDriverErrors,
	TypeRASCacheCorrectable,
	TypeRASCacheUncorrectable,
	TypeRASDisplayCorrectable,
	TypeRASDisplayUncorrectable,
	TypeRASNonComputeCorrectable,
	TypeRASNonComputeUncorrectable,
	TypeRequestFrequency,
	TypeMemoryTemperature,
	TypeFrequencyThrottle,
	TypeFrequencyThrottleReasonGPU,
	TypePCIeReadThroughput,
	TypePCIeWriteThroughput,
	TypePCIeRead,
	TypePCIeWrite,
	TypeFabricThroughput,
	TypeMediaEngineFrequency,
	TypePerf,
}

var typeIndex = func() map[Type]int {
	m := make(map[Type]int, len(Types))
	for i, t := range Types {
		m[t] = i
	}
	return m
}()

// ParseType parses a string into a measurement Type.
// Matching is case-insensitive and accepts '-' in place of '_'.
func ParseType(s string) (Type, bool) {
	t := Type(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if _, ok := typeIndex[t]; ok {
		return t, true
	}
	return "", false
}

// IsValid reports whether t is one of the known types.
func (t Type) IsValid() bool {
	_, ok := typeIndex[t]
	return ok
}

// Index returns the position of t in Types, or -1.
func (t Type) Index() int {
	if i, ok := typeIndex[t]; ok {
		return i
	}
	return -1
}

// DisplayName returns a human readable name, e.g. "Memory Read Throughput".
func (t Type) DisplayName() string {
	name := strings.ReplaceAll(string(t), "_", " ")
	name = strings.ReplaceAll(name, "pcie", "PCIe")
	name = strings.ReplaceAll(name, "ras error cat", "RAS")
	name = strings.ReplaceAll(name, "eu ", "EU ")
	// Casers keep state and must not be shared between goroutines.
	return cases.Title(language.English, cases.NoLower).String(name)
}

// counterTypes holds the types delivered as monotonically increasing counters.
var counterTypes = map[Type]struct{}{
	TypeEnergy:                     {},
	TypeMemoryRead:                 {},
	TypeMemoryWrite:                {},
	TypeRASReset:                   {},
	TypeRASProgrammingErrors:       {},
	TypeRASDriverErrors:            {},
	TypeRASCacheCorrectable:        {},
	TypeRASCacheUncorrectable:      {},
	TypeRASDisplayCorrectable:      {},
	TypeRASDisplayUncorrectable:    {},
	TypeRASNonComputeCorrectable:   {},
	TypeRASNonComputeUncorrectable: {},
	TypePCIeRead:                   {},
	TypePCIeWrite:                  {},
}

// IsCounter reports whether t is a counter metric. Counters are reported
// as a net delta since the window opened plus the accumulated total; all
// other types are gauges.
func (t Type) IsCounter() bool {
	_, ok := counterTypes[t]
	return ok
}

// IsSlowStarting reports whether the first value of t may take several
// collection ticks to appear.
func (t Type) IsSlowStarting() bool {
	switch t.Capability() {
	case CapabilityRASError, CapabilityEUActiveStallIdle:
		return true
	default:
		return false
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(text []byte) error {
	parsed, ok := ParseType(string(text))
	if !ok {
		return fmt.Errorf("unknown measurement type: %q", string(text))
	}
	*t = parsed
	return nil
}

// SupportedTypes returns the names of all measurement types.
func SupportedTypes() []string {
	out := make([]string, len(Types))
	for i, t := range Types {
		out[i] = t.String()
	}
	return out
}
