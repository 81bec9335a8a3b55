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
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"

	"github.com/NVIDIA/fleet-telemetry/pkg/header"
	"github.com/NVIDIA/fleet-telemetry/pkg/measurement"
	"github.com/NVIDIA/fleet-telemetry/pkg/serializer"
)

// Spec is the inventory entry of one device.
type Spec struct {
	ID               string                   `json:"id" yaml:"id"`
	PCIAddress       string                   `json:"pciAddress,omitempty" yaml:"pciAddress,omitempty"`
	FabricID         uint32                   `json:"fabricId" yaml:"fabricId"`
	SubDevices       uint32                   `json:"subDevices" yaml:"subDevices"`
	Capabilities     []measurement.Capability `json:"capabilities" yaml:"capabilities"`
	Engines          []EngineInfo             `json:"engines,omitempty" yaml:"engines,omitempty"`
	FabricThroughput []FabricThroughputInfo   `json:"fabricThroughput,omitempty" yaml:"fabricThroughput,omitempty"`
}

// Inventory is the document a Static directory is built from.
type Inventory struct {
	header.Header `json:",inline" yaml:",inline"`

	Devices []Spec `json:"devices" yaml:"devices"`
}

// LoadInventory reads an inventory from a file, URL or cm://namespace/name
// and builds a Static directory from it.
func LoadInventory(ctx context.Context, path string) (*Static, error) {
	inv, err := serializer.FromFile[Inventory](ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory from %q: %w", path, err)
	}
	if inv.Kind != "" && inv.Kind != header.KindInventory {
		return nil, fmt.Errorf("unexpected document kind %q in %q, want %q", inv.Kind, path, header.KindInventory)
	}
	dir, err := NewStatic(inv.Devices...)
	if err != nil {
		return nil, fmt.Errorf("invalid inventory %q: %w", path, err)
	}
	slog.Info("device inventory loaded", "path", path, "devices", len(inv.Devices))
	return dir, nil
}

// Static is a Directory over a fixed set of devices.
type Static struct {
	devices  []*staticDevice
	byID     map[string]*staticDevice
	byFabric map[uint32]string
}

var _ Directory = (*Static)(nil)

// NewStatic validates the specs and builds the directory.
func NewStatic(specs ...Spec) (*Static, error) {
	s := &Static{
		byID:     make(map[string]*staticDevice, len(specs)),
		byFabric: make(map[uint32]string, len(specs)),
	}
	for i, spec := range specs {
		if spec.ID == "" {
			return nil, fmt.Errorf("device %d has no id", i)
		}
		if _, dup := s.byID[spec.ID]; dup {
			return nil, fmt.Errorf("duplicate device id %q", spec.ID)
		}
		d, err := newStaticDevice(spec)
		if err != nil {
			return nil, fmt.Errorf("device %q: %w", spec.ID, err)
		}
		s.devices = append(s.devices, d)
		s.byID[spec.ID] = d
		if spec.FabricID != 0 {
			if other, dup := s.byFabric[spec.FabricID]; dup {
				return nil, fmt.Errorf("fabric id %d shared by devices %q and %q", spec.FabricID, other, spec.ID)
			}
			s.byFabric[spec.FabricID] = spec.ID
		}
	}
	return s, nil
}

// Device returns the device with the given id.
func (s *Static) Device(id string) (Device, bool) {
	d, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return d, true
}

// Devices returns every device in inventory order.
func (s *Static) Devices() []Device {
	out := make([]Device, 0, len(s.devices))
	for _, d := range s.devices {
		out = append(out, d)
	}
	return out
}

// DeviceIDByFabricID returns the id of the device attached to the fabric
// with the given id.
func (s *Static) DeviceIDByFabricID(fabricID uint32) (string, bool) {
	id, ok := s.byFabric[fabricID]
	return id, ok
}

type staticDevice struct {
	spec        Spec
	caps        measurement.CapabilitySet
	engineIndex map[uint64]int
}

func newStaticDevice(spec Spec) (*staticDevice, error) {
	known := measurement.Capabilities()
	for _, c := range spec.Capabilities {
		if !slices.Contains(known, c) {
			return nil, fmt.Errorf("unknown capability %q", c)
		}
	}

	d := &staticDevice{
		spec:        spec,
		caps:        measurement.NewCapabilitySet(spec.Capabilities...),
		engineIndex: make(map[uint64]int, len(spec.Engines)),
	}
	for i, e := range spec.Engines {
		if _, dup := d.engineIndex[e.Handle]; dup {
			return nil, fmt.Errorf("duplicate engine handle %d", e.Handle)
		}
		if e.SubDeviceID != nil && *e.SubDeviceID >= spec.SubDevices {
			return nil, fmt.Errorf("engine %d on sub-device %d, device has %d", e.Handle, *e.SubDeviceID, spec.SubDevices)
		}
		d.engineIndex[e.Handle] = i
	}

	seen := make(map[uint32]struct{}, len(spec.FabricThroughput))
	for _, f := range spec.FabricThroughput {
		if _, dup := seen[f.ID]; dup {
			return nil, fmt.Errorf("duplicate fabric throughput id %d", f.ID)
		}
		seen[f.ID] = struct{}{}
		if !slices.Contains(measurement.FabricThroughputTypes, f.Kind) {
			return nil, fmt.Errorf("fabric throughput %d has unknown kind %q", f.ID, f.Kind)
		}
	}
	d.spec.FabricThroughput = slices.Clone(spec.FabricThroughput)
	sort.SliceStable(d.spec.FabricThroughput, func(i, j int) bool {
		return d.spec.FabricThroughput[i].ID < d.spec.FabricThroughput[j].ID
	})
	return d, nil
}

func (d *staticDevice) ID() string                              { return d.spec.ID }
func (d *staticDevice) PCIAddress() string                      { return d.spec.PCIAddress }
func (d *staticDevice) FabricID() uint32                        { return d.spec.FabricID }
func (d *staticDevice) SubDeviceCount() uint32                  { return d.spec.SubDevices }
func (d *staticDevice) Capabilities() measurement.CapabilitySet { return d.caps }
func (d *staticDevice) EngineCount() int                        { return len(d.spec.Engines) }
func (d *staticDevice) FabricThroughputInfoCount() int          { return len(d.spec.FabricThroughput) }

func (d *staticDevice) EngineIndex(handle uint64) (int, bool) {
	i, ok := d.engineIndex[handle]
	return i, ok
}

func (d *staticDevice) Engine(handle uint64) (EngineInfo, bool) {
	i, ok := d.engineIndex[handle]
	if !ok {
		return EngineInfo{}, false
	}
	return d.spec.Engines[i], true
}

func (d *staticDevice) FabricThroughputInfos() []FabricThroughputInfo {
	return slices.Clone(d.spec.FabricThroughput)
}
