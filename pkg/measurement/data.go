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
	"maps"
	"math"
	"time"

	"k8s.io/utils/ptr"
)

// Unavailable is the wire value probes use for "no reading this tick".
// It never reaches arithmetic: decoders turn it into an absent value.
const Unavailable uint64 = math.MaxUint64

// OptionalRaw converts a wire counter value into an optional one.
func OptionalRaw(v uint64) *uint64 {
	if v == Unavailable {
		return nil
	}
	return ptr.To(v)
}

// OptionalValue converts a wire gauge value into an optional one.
func OptionalValue(v uint64) *int64 {
	if v == Unavailable || v > math.MaxInt64 {
		return nil
	}
	return ptr.To(int64(v))
}

// RawSample is one raw counter reading.
type RawSample struct {
	Value     *uint64
	Timestamp time.Time
}

// IsValid reports whether the sample carries a reading.
func (s RawSample) IsValid() bool {
	return s.Value != nil
}

// NewRawSample returns a valid raw sample.
func NewRawSample(v uint64, ts time.Time) RawSample {
	return RawSample{Value: ptr.To(v), Timestamp: ts}
}

// Shape tags the payload variant of a Data.
type Shape int

const (
	ShapeScalar Shape = iota
	ShapeEngine
	ShapeFabric
)

// Payload is the closed set of per-tick value layouts.
type Payload interface {
	Shape() Shape
	clonePayload() Payload
}

// Data is the value of one measurement type for one device for one tick.
type Data struct {
	Type      Type
	DeviceID  string
	Timestamp time.Time
	// Scale is the fixed point divisor of every value in the payload.
	Scale   int64
	Payload Payload
}

// SampleSet holds one tick's data of a single type, keyed by device id.
type SampleSet map[string]*Data

// Clone deep copies the set.
func (s SampleSet) Clone() SampleSet {
	if s == nil {
		return nil
	}
	out := make(SampleSet, len(s))
	for id, d := range s {
		out[id] = d.Clone()
	}
	return out
}

// Clone deep copies d.
func (d *Data) Clone() *Data {
	if d == nil {
		return nil
	}
	c := *d
	if d.Payload != nil {
		c.Payload = d.Payload.clonePayload()
	}
	return &c
}

// Scalar returns the scalar payload, if d has one.
func (d *Data) Scalar() (*Scalar, bool) {
	if d == nil {
		return nil, false
	}
	s, ok := d.Payload.(*Scalar)
	return s, ok
}

// Engines returns the engine payload, if d has one.
func (d *Data) Engines() (*EngineCollection, bool) {
	if d == nil {
		return nil, false
	}
	e, ok := d.Payload.(*EngineCollection)
	return e, ok
}

// Fabric returns the fabric payload, if d has one.
func (d *Data) Fabric() (*FabricCollection, bool) {
	if d == nil {
		return nil, false
	}
	f, ok := d.Payload.(*FabricCollection)
	return f, ok
}

// Scalar is a device-level value with optional per sub-device values.
// Counter types may carry Raw instead of, or in addition to, Current.
type Scalar struct {
	Current    *int64
	Raw        RawSample
	SubDevices map[uint32]*SubDeviceSample
}

// SubDeviceSample is the value of one tile.
type SubDeviceSample struct {
	Current *int64
	Raw     RawSample
}

// Shape implements Payload.
func (s *Scalar) Shape() Shape { return ShapeScalar }

func (s *Scalar) clonePayload() Payload {
	c := &Scalar{
		Current: clonePtr(s.Current),
		Raw:     cloneRaw(s.Raw),
	}
	if s.SubDevices != nil {
		c.SubDevices = make(map[uint32]*SubDeviceSample, len(s.SubDevices))
		for id, sub := range s.SubDevices {
			if sub == nil {
				continue
			}
			c.SubDevices[id] = &SubDeviceSample{
				Current: clonePtr(sub.Current),
				Raw:     cloneRaw(sub.Raw),
			}
		}
	}
	return c
}

// EngineType classifies an engine.
type EngineType string

const (
	EngineTypeCompute          EngineType = "compute"
	EngineTypeRender           EngineType = "render"
	EngineTypeDecode           EngineType = "decode"
	EngineTypeEncode           EngineType = "encode"
	EngineTypeCopy             EngineType = "copy"
	EngineTypeMediaEnhancement EngineType = "media_enhancement"
	EngineType3D               EngineType = "3d"
	EngineTypeUnknown          EngineType = "unknown"
)

// EngineSample is the state of one engine, keyed by its driver handle.
// ActiveTime is the cumulative busy time in microseconds.
type EngineSample struct {
	Type        EngineType
	OnSubDevice bool
	SubDeviceID uint32
	ActiveTime  RawSample
	Current     *int64
}

// EngineCollection holds every engine of a device.
type EngineCollection struct {
	Engines map[uint64]*EngineSample
}

// Shape implements Payload.
func (e *EngineCollection) Shape() Shape { return ShapeEngine }

func (e *EngineCollection) clonePayload() Payload {
	c := &EngineCollection{Engines: make(map[uint64]*EngineSample, len(e.Engines))}
	for h, s := range e.Engines {
		if s == nil {
			continue
		}
		cs := *s
		cs.ActiveTime = cloneRaw(s.ActiveTime)
		cs.Current = clonePtr(s.Current)
		c.Engines[h] = &cs
	}
	return c
}

// FabricLinkKey identifies a fabric link from the local side.
type FabricLinkKey struct {
	AttachID       uint32 `json:"attachId" yaml:"attachId"`
	RemoteFabricID uint32 `json:"remoteFabricId" yaml:"remoteFabricId"`
	RemoteAttachID uint32 `json:"remoteAttachId" yaml:"remoteAttachId"`
}

// FabricThroughputType is the kind of value reported for a link.
type FabricThroughputType string

const (
	FabricReceived           FabricThroughputType = "received"
	FabricTransmitted        FabricThroughputType = "transmitted"
	FabricReceivedCounter    FabricThroughputType = "received_counter"
	FabricTransmittedCounter FabricThroughputType = "transmitted_counter"
)

// FabricThroughputTypes lists every kind in report order.
var FabricThroughputTypes = []FabricThroughputType{
	FabricReceived,
	FabricTransmitted,
	FabricReceivedCounter,
	FabricTransmittedCounter,
}

// IsCounter reports whether the kind carries a raw byte counter.
func (k FabricThroughputType) IsCounter() bool {
	return k == FabricReceivedCounter || k == FabricTransmittedCounter
}

// FabricThroughputKey identifies one reported fabric value.
type FabricThroughputKey struct {
	FabricLinkKey `yaml:",inline"`
	Kind          FabricThroughputType `json:"kind" yaml:"kind"`
}

// FabricLinkSample holds the raw rx and tx byte counters of a link.
type FabricLinkSample struct {
	Rx RawSample
	Tx RawSample
}

// FabricCollection holds the links of a device. Throughput is derived
// by the fabric handler from two consecutive ticks.
type FabricCollection struct {
	Links      map[FabricLinkKey]*FabricLinkSample
	Throughput map[FabricThroughputKey]*int64
}

// Shape implements Payload.
func (f *FabricCollection) Shape() Shape { return ShapeFabric }

func (f *FabricCollection) clonePayload() Payload {
	c := &FabricCollection{
		Links:      make(map[FabricLinkKey]*FabricLinkSample, len(f.Links)),
		Throughput: make(map[FabricThroughputKey]*int64, len(f.Throughput)),
	}
	for k, l := range f.Links {
		if l == nil {
			continue
		}
		c.Links[k] = &FabricLinkSample{Rx: cloneRaw(l.Rx), Tx: cloneRaw(l.Tx)}
	}
	for k, v := range f.Throughput {
		c.Throughput[k] = clonePtr(v)
	}
	return c
}

// ThroughputKeys returns the derived keys in a stable order.
func (f *FabricCollection) ThroughputKeys() []FabricThroughputKey {
	keys := make([]FabricThroughputKey, 0, len(f.Throughput))
	for k := range maps.Keys(f.Throughput) {
		keys = append(keys, k)
	}
	SortThroughputKeys(keys)
	return keys
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	return ptr.To(*v)
}

func cloneRaw(r RawSample) RawSample {
	return RawSample{Value: clonePtr(r.Value), Timestamp: r.Timestamp}
}
