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
	"slices"
	"sort"
)

// Capability is a device feature that gates one or more measurement types.
type Capability string

// String returns the string representation of the Capability.
func (c Capability) String() string {
	return string(c)
}

// Grouped capabilities. Every other capability shares its name with the
// single measurement type it gates.
const (
	CapabilityFrequency                 Capability = "frequency"
	CapabilityMemoryUsedUtilization     Capability = "memory_used_utilization"
	CapabilityMemoryThroughputBandwidth Capability = "memory_throughput_bandwidth"
	CapabilityEUActiveStallIdle         Capability = "eu_active_stall_idle"
	CapabilityRASError                  Capability = "ras_error"
)

// groupedCapabilities maps many types onto one capability. Types absent
// from the table map to the capability of the same name.
var groupedCapabilities = map[Type]Capability{
	TypeFrequency:                  CapabilityFrequency,
	TypeRequestFrequency:           CapabilityFrequency,
	TypeMediaEngineFrequency:       CapabilityFrequency,
	TypeMemoryUsed:                 CapabilityMemoryUsedUtilization,
	TypeMemoryUtilization:          CapabilityMemoryUsedUtilization,
	TypeMemoryBandwidth:            CapabilityMemoryThroughputBandwidth,
	TypeMemoryRead:                 CapabilityMemoryThroughputBandwidth,
	TypeMemoryWrite:                CapabilityMemoryThroughputBandwidth,
	TypeMemoryReadThroughput:       CapabilityMemoryThroughputBandwidth,
	TypeMemoryWriteThroughput:      CapabilityMemoryThroughputBandwidth,
	TypeEUActive:                   CapabilityEUActiveStallIdle,
	TypeEUStall:                    CapabilityEUActiveStallIdle,
	TypeEUIdle:                     CapabilityEUActiveStallIdle,
	TypeRASReset:                   CapabilityRASError,
	TypeRASProgrammingErrors:       CapabilityRASError,
	TypeRASDriverErrors:            CapabilityRASError,
	TypeRASCacheCorrectable:        CapabilityRASError,
	TypeRASCacheUncorrectable:      CapabilityRASError,
	TypeRASDisplayCorrectable:      CapabilityRASError,
	TypeRASDisplayUncorrectable:    CapabilityRASError,
	TypeRASNonComputeCorrectable:   CapabilityRASError,
	TypeRASNonComputeUncorrectable: CapabilityRASError,
}

// canonicalTypes picks the representative type of each grouped capability.
// The mapping is lossy: converting a type to its capability and back only
// returns the same type for the representative itself.
var canonicalTypes = map[Capability]Type{
	CapabilityFrequency:                 TypeFrequency,
	CapabilityMemoryUsedUtilization:     TypeMemoryUsed,
	CapabilityMemoryThroughputBandwidth: TypeMemoryRead,
	CapabilityEUActiveStallIdle:         TypeEUActive,
	CapabilityRASError:                  TypeRASReset,
}

// Capability returns the device capability required to collect t.
func (t Type) Capability() Capability {
	if c, ok := groupedCapabilities[t]; ok {
		return c
	}
	return Capability(t)
}

// CanonicalType returns the representative measurement type of c and
// false when c gates no known type.
func (c Capability) CanonicalType() (Type, bool) {
	if t, ok := canonicalTypes[c]; ok {
		return t, true
	}
	t := Type(c)
	if t.IsValid() && t.Capability() == c {
		return t, true
	}
	return "", false
}

// Capabilities returns every distinct capability, sorted by name.
func Capabilities() []Capability {
	seen := make(map[Capability]struct{})
	out := make([]Capability, 0, len(Types))
	for _, t := range Types {
		c := t.Capability()
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// TypesOf returns the measurement types gated by c in Types order.
func TypesOf(c Capability) []Type {
	var out []Type
	for _, t := range Types {
		if t.Capability() == c {
			out = append(out, t)
		}
	}
	return out
}

// CapabilitySet is an immutable-by-convention set of device capabilities.
type CapabilitySet map[Capability]struct{}

// NewCapabilitySet builds a set from the given capabilities.
func NewCapabilitySet(caps ...Capability) CapabilitySet {
	s := make(CapabilitySet, len(caps))
	for _, c := range caps {
		s[c] = struct{}{}
	}
	return s
}

// Has reports whether c is in the set.
func (s CapabilitySet) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

// Supports reports whether the capability gating t is in the set.
func (s CapabilitySet) Supports(t Type) bool {
	return s.Has(t.Capability())
}

// FilterSupported returns the types of ts supported by the set, keeping order.
func (s CapabilitySet) FilterSupported(ts []Type) []Type {
	out := make([]Type, 0, len(ts))
	for _, t := range ts {
		if s.Supports(t) {
			out = append(out, t)
		}
	}
	return out
}

// List returns the capabilities in the set, sorted by name.
func (s CapabilitySet) List() []Capability {
	out := make([]Capability, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}
