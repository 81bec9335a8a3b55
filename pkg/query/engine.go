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
	"context"
	"sort"

	"github.com/NVIDIA/fleet-telemetry/pkg/device"
	"github.com/NVIDIA/fleet-telemetry/pkg/handler"
	"github.com/NVIDIA/fleet-telemetry/pkg/measurement"
)

type engineRef struct {
	handle uint64
	index  int
	info   device.EngineInfo
}

// engines returns the handles of data that resolve to a device engine, in
// engine index order. Handles the device no longer knows are skipped.
func engines(d device.Device, handles []uint64) []engineRef {
	refs := make([]engineRef, 0, len(handles))
	for _, h := range handles {
		idx, ok := d.EngineIndex(h)
		if !ok {
			continue
		}
		info, _ := d.Engine(h)
		refs = append(refs, engineRef{handle: h, index: idx, info: info})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].index < refs[j].index })
	return refs
}

func tileOf(info device.EngineInfo) (bool, uint32) {
	if info.SubDeviceID == nil {
		return false, 0
	}
	return true, *info.SubDeviceID
}

// EngineStatistics reports the session's utilization statistics of every
// engine of a device. A nil out returns the device's engine count.
func (s *Service) EngineStatistics(_ context.Context, deviceID string, session uint64, out []EngineStats) (int, Window, error) {
	d, err := s.device(deviceID)
	if err != nil {
		return 0, Window{}, err
	}
	if err := s.checkMetric(d, measurement.TypeEngineUtilization); err != nil {
		return 0, Window{}, err
	}
	if out == nil {
		return d.EngineCount(), Window{}, nil
	}

	begin := s.agg.WindowStart(handler.FamilyEngine, session, deviceID)
	win := Window{Begin: begin, End: s.now()}

	coll := s.agg.EngineStatistics(deviceID, session)
	if coll == nil {
		return 0, win, nil
	}
	scale := scaleOf(s.agg.LatestData(measurement.TypeEngineUtilization, deviceID))

	handles := make([]uint64, 0, len(coll.Items))
	for h, sum := range coll.Items {
		if sum != nil && !sum.Empty() {
			handles = append(handles, h)
		}
	}
	refs := engines(d, handles)
	if len(refs) > len(out) {
		return len(refs), win, tooSmall(len(refs), len(out))
	}

	for i, ref := range refs {
		sum := coll.Items[ref.handle]
		isTile, tile := tileOf(ref.info)
		out[i] = EngineStats{
			DeviceID: deviceID,
			Index:    ref.index,
			Type:     ref.info.Type,
			IsTile:   isTile,
			TileID:   tile,
			Value:    sum.Latest,
			Avg:      sum.Avg,
			Min:      sum.Min,
			Max:      sum.Max,
			Scale:    scale,
		}
	}
	return len(refs), win, nil
}

// EngineUtilizations reports the latest utilization of every engine of a
// device. A nil out returns the device's engine count.
func (s *Service) EngineUtilizations(_ context.Context, deviceID string, out []EngineUtilization) (int, error) {
	d, err := s.device(deviceID)
	if err != nil {
		return 0, err
	}
	if err := s.checkMetric(d, measurement.TypeEngineUtilization); err != nil {
		return 0, err
	}
	if out == nil {
		return d.EngineCount(), nil
	}

	data := s.agg.LatestData(measurement.TypeEngineUtilization, deviceID)
	coll, ok := data.Engines()
	if !ok {
		return 0, nil
	}

	handles := make([]uint64, 0, len(coll.Engines))
	for h, e := range coll.Engines {
		if e != nil && e.Current != nil {
			handles = append(handles, h)
		}
	}
	refs := engines(d, handles)
	if len(refs) > len(out) {
		return len(refs), tooSmall(len(refs), len(out))
	}

	for i, ref := range refs {
		e := coll.Engines[ref.handle]
		isTile, tile := tileOf(ref.info)
		if e.OnSubDevice {
			isTile, tile = true, e.SubDeviceID
		}
		typ := ref.info.Type
		if typ == "" {
			typ = e.Type
		}
		out[i] = EngineUtilization{
			DeviceID: deviceID,
			Index:    ref.index,
			Type:     typ,
			IsTile:   isTile,
			TileID:   tile,
			Value:    *e.Current,
			Scale:    scaleOf(data),
		}
	}
	return len(refs), nil
}
