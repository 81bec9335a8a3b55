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
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/NVIDIA/fleet-telemetry/pkg/header"
	"github.com/NVIDIA/fleet-telemetry/pkg/measurement"
)

// Script is a recorded sequence of collection ticks.
type Script struct {
	header.Header `json:",inline" yaml:",inline"`

	Ticks []Tick `json:"ticks" yaml:"ticks"`
}

// Tick is the samples of one collection.
type Tick struct {
	Samples []Sample `json:"samples" yaml:"samples"`
}

// Sample is one device reading of one measurement type. Scalar types use
// Value, Raw and the tile maps; engine utilization uses Engines; fabric
// throughput uses Links.
type Sample struct {
	Type    measurement.Type  `json:"type" yaml:"type"`
	Device  string            `json:"device" yaml:"device"`
	Scale   int64             `json:"scale,omitempty" yaml:"scale,omitempty"`
	Value   *uint64           `json:"value,omitempty" yaml:"value,omitempty"`
	Raw     *uint64           `json:"raw,omitempty" yaml:"raw,omitempty"`
	Tiles   map[uint32]uint64 `json:"tiles,omitempty" yaml:"tiles,omitempty"`
	TileRaw map[uint32]uint64 `json:"tileRaw,omitempty" yaml:"tileRaw,omitempty"`
	Engines []EngineReading   `json:"engines,omitempty" yaml:"engines,omitempty"`
	Links   []LinkReading     `json:"links,omitempty" yaml:"links,omitempty"`
}

// EngineReading is the state of one engine. ActiveTime is in
// microseconds.
type EngineReading struct {
	Handle     uint64                 `json:"handle" yaml:"handle"`
	Type       measurement.EngineType `json:"type,omitempty" yaml:"type,omitempty"`
	SubDevice  *uint32                `json:"subDevice,omitempty" yaml:"subDevice,omitempty"`
	ActiveTime *uint64                `json:"activeTime,omitempty" yaml:"activeTime,omitempty"`
	Value      *uint64                `json:"value,omitempty" yaml:"value,omitempty"`
}

// LinkReading is the byte counters of one fabric link.
type LinkReading struct {
	measurement.FabricLinkKey `yaml:",inline"`

	Rx *uint64 `json:"rx,omitempty" yaml:"rx,omitempty"`
	Tx *uint64 `json:"tx,omitempty" yaml:"tx,omitempty"`
}

// Validate checks every sample of the script.
func (s *Script) Validate() error {
	if s.Kind != "" && s.Kind != header.KindSampleScript {
		return fmt.Errorf("unexpected document kind %q, want %q", s.Kind, header.KindSampleScript)
	}
	if len(s.Ticks) == 0 {
		return fmt.Errorf("script has no ticks")
	}
	for i, tick := range s.Ticks {
		seen := make(map[string]struct{}, len(tick.Samples))
		for j, smp := range tick.Samples {
			if err := smp.validate(); err != nil {
				return fmt.Errorf("tick %d sample %d: %w", i, j, err)
			}
			key := string(smp.Type) + "/" + smp.Device
			if _, dup := seen[key]; dup {
				return fmt.Errorf("tick %d: duplicate %s sample of device %q", i, smp.Type, smp.Device)
			}
			seen[key] = struct{}{}
		}
	}
	return nil
}

func (s Sample) validate() error {
	if !s.Type.IsValid() {
		return fmt.Errorf("unknown measurement type %q", s.Type)
	}
	if s.Device == "" {
		return fmt.Errorf("%s sample has no device", s.Type)
	}
	if s.Scale < 0 {
		return fmt.Errorf("%s sample of device %q has negative scale", s.Type, s.Device)
	}
	scalar := s.Value != nil || s.Raw != nil || len(s.Tiles) > 0 || len(s.TileRaw) > 0
	switch s.Type {
	case measurement.TypeEngineUtilization:
		if len(s.Engines) == 0 || scalar || len(s.Links) > 0 {
			return fmt.Errorf("%s sample of device %q must only carry engines", s.Type, s.Device)
		}
	case measurement.TypeFabricThroughput:
		if len(s.Links) == 0 || scalar || len(s.Engines) > 0 {
			return fmt.Errorf("%s sample of device %q must only carry links", s.Type, s.Device)
		}
	default:
		if len(s.Engines) > 0 || len(s.Links) > 0 {
			return fmt.Errorf("%s sample of device %q cannot carry engines or links", s.Type, s.Device)
		}
	}
	return nil
}

// ReplayOption configures a Replay.
type ReplayOption func(*Replay)

// WithLoop restarts the script after its last tick.
func WithLoop(loop bool) ReplayOption {
	return func(r *Replay) {
		r.loop = loop
	}
}

// WithReplayClock sets the clock samples are stamped with.
func WithReplayClock(now func() time.Time) ReplayOption {
	return func(r *Replay) {
		if now != nil {
			r.now = now
		}
	}
}

// Replay is a Source playing back a Script, one tick per Collect.
type Replay struct {
	name   string
	script *Script
	loop   bool
	now    func() time.Time

	mu   sync.Mutex
	next int
	done bool
}

var _ Source = (*Replay)(nil)

// NewReplay validates script and returns a source replaying it.
func NewReplay(name string, script *Script, opts ...ReplayOption) (*Replay, error) {
	if script == nil {
		return nil, fmt.Errorf("replay %q: script is nil", name)
	}
	if err := script.Validate(); err != nil {
		return nil, fmt.Errorf("replay %q: %w", name, err)
	}
	r := &Replay{
		name:   name,
		script: script,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Name implements Source.
func (r *Replay) Name() string {
	return r.name
}

// Collect returns the next tick of the script. Once a non-looping script
// is exhausted it returns no batches.
func (r *Replay) Collect(ctx context.Context) ([]Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	if r.next >= len(r.script.Ticks) {
		if !r.loop {
			if !r.done {
				r.done = true
				slog.Info("replay finished", "source", r.name, "ticks", len(r.script.Ticks))
			}
			r.mu.Unlock()
			return nil, nil
		}
		r.next = 0
	}
	tick := r.script.Ticks[r.next]
	r.next++
	r.mu.Unlock()

	return buildBatches(tick, r.now()), nil
}

// buildBatches groups the samples of a tick by type, in order of first
// appearance.
func buildBatches(tick Tick, ts time.Time) []Batch {
	var batches []Batch
	index := make(map[measurement.Type]int)
	for _, smp := range tick.Samples {
		i, ok := index[smp.Type]
		if !ok {
			i = len(batches)
			index[smp.Type] = i
			batches = append(batches, Batch{
				Type:      smp.Type,
				Timestamp: ts,
				Set:       make(measurement.SampleSet),
			})
		}
		batches[i].Set[smp.Device] = smp.data(ts)
	}
	return batches
}

func (s Sample) data(ts time.Time) *measurement.Data {
	var d *measurement.Data
	switch s.Type {
	case measurement.TypeEngineUtilization:
		d = measurement.NewEngineData(s.Device, ts)
		engines, _ := d.Engines()
		for _, e := range s.Engines {
			es := &measurement.EngineSample{
				Type:        e.Type,
				OnSubDevice: e.SubDevice != nil,
				ActiveTime:  rawSample(e.ActiveTime, ts),
			}
			if e.SubDevice != nil {
				es.SubDeviceID = *e.SubDevice
			}
			if e.Value != nil {
				es.Current = measurement.OptionalValue(*e.Value)
			}
			engines.Engines[e.Handle] = es
		}

	case measurement.TypeFabricThroughput:
		d = measurement.NewFabricData(s.Device, ts)
		fabric, _ := d.Fabric()
		for _, l := range s.Links {
			fabric.Links[l.FabricLinkKey] = &measurement.FabricLinkSample{
				Rx: rawSample(l.Rx, ts),
				Tx: rawSample(l.Tx, ts),
			}
		}

	default:
		b := measurement.NewScalar(s.Type, s.Device, ts)
		d = b.Build()
		sc, _ := d.Scalar()
		if s.Value != nil {
			sc.Current = measurement.OptionalValue(*s.Value)
		}
		sc.Raw = rawSample(s.Raw, ts)
		for tile, v := range s.Tiles {
			if cur := measurement.OptionalValue(v); cur != nil {
				b.SubDeviceValue(tile, *cur)
			}
		}
		for tile, v := range s.TileRaw {
			if raw := measurement.OptionalRaw(v); raw != nil {
				b.SubDeviceRaw(tile, *raw, ts)
			}
		}
	}

	if s.Scale > 0 {
		d.Scale = s.Scale
	}
	return d
}

func rawSample(v *uint64, ts time.Time) measurement.RawSample {
	if v == nil {
		return measurement.RawSample{}
	}
	return measurement.RawSample{Value: measurement.OptionalRaw(*v), Timestamp: ts}
}
