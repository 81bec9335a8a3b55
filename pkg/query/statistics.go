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

	"github.com/NVIDIA/fleet-telemetry/pkg/handler"
	"github.com/NVIDIA/fleet-telemetry/pkg/measurement"
	"github.com/NVIDIA/fleet-telemetry/pkg/statistics"
)

type typeStats struct {
	t     measurement.Type
	stats *statistics.Stats
	scale int64
}

// MetricsStatistics reports the session's statistics of every enabled and
// supported scalar metric of a device. It always produces one record for
// the device followed by one per tile; records only carry the metrics
// with data in their scope.
func (s *Service) MetricsStatistics(ctx context.Context, deviceID string, session uint64, out []DeviceStats) (int, Window, error) {
	d, err := s.device(deviceID)
	if err != nil {
		return 0, Window{}, err
	}
	tiles := d.SubDeviceCount()
	needed := int(tiles) + 1
	if out == nil {
		return needed, Window{}, nil
	}
	if len(out) < needed {
		return needed, Window{}, tooSmall(needed, len(out))
	}

	begin := s.agg.WindowStart(handler.FamilyDevice, session, deviceID)

	var types []measurement.Type
	for _, t := range s.supportedMetrics(d) {
		if isWindowed(t) {
			types = append(types, t)
		}
	}

	collect := func() []typeStats {
		var found []typeStats
		for _, t := range types {
			st := s.agg.LatestStatistics(t, deviceID, session)
			if st == nil || !st.HasData() {
				continue
			}
			found = append(found, typeStats{t: t, stats: st, scale: scaleOf(s.agg.LatestData(t, deviceID))})
		}
		return found
	}

	missingSlow := func() bool {
		for _, t := range types {
			if !t.IsSlowStarting() {
				continue
			}
			if st := s.agg.LatestStatistics(t, deviceID, session); st == nil || !st.HasData() {
				return true
			}
		}
		return false
	}
	if err := s.waitFor(ctx, func() bool { return !missingSlow() }); err != nil {
		return 0, Window{}, err
	}

	found := collect()
	win := Window{Begin: begin, End: s.now()}

	dev := DeviceStats{DeviceID: deviceID, Data: []StatValue{}}
	for _, ts := range found {
		if ts.stats.HasDataOnDevice {
			dev.Data = append(dev.Data, statValue(ts.t, &ts.stats.Summary, ts.scale))
		}
	}
	out[0] = dev

	for tile := uint32(0); tile < tiles; tile++ {
		rec := DeviceStats{DeviceID: deviceID, IsTile: true, TileID: tile, Data: []StatValue{}}
		for _, ts := range found {
			if sub := ts.stats.SubDevice(tile); sub != nil && !sub.Empty() {
				rec.Data = append(rec.Data, statValue(ts.t, sub, ts.scale))
			}
		}
		out[tile+1] = rec
	}
	return needed, win, nil
}

func statValue(t measurement.Type, sum *statistics.Summary, scale int64) StatValue {
	v := StatValue{Type: t, Scale: scale}
	if t.IsCounter() {
		v.IsCounter = true
		v.Accumulated = sum.Latest
		v.Value = sum.Latest - sum.Min
		return v
	}
	v.Avg = sum.Avg
	v.Min = sum.Min
	v.Max = sum.Max
	v.Value = sum.Latest
	return v
}

// LatestMetrics reports the newest value of every enabled and supported
// scalar metric of a device, one record for the device followed by one
// per tile. It never waits for data.
func (s *Service) LatestMetrics(_ context.Context, deviceID string, out []DeviceMetrics) (int, error) {
	d, err := s.device(deviceID)
	if err != nil {
		return 0, err
	}
	tiles := d.SubDeviceCount()
	needed := int(tiles) + 1
	if out == nil {
		return needed, nil
	}
	if len(out) < needed {
		return needed, tooSmall(needed, len(out))
	}

	type latest struct {
		t      measurement.Type
		data   *measurement.Data
		scalar *measurement.Scalar
	}
	var found []latest
	for _, t := range s.supportedMetrics(d) {
		if !isWindowed(t) {
			continue
		}
		data := s.agg.LatestData(t, deviceID)
		sc, ok := data.Scalar()
		if !ok {
			continue
		}
		found = append(found, latest{t: t, data: data, scalar: sc})
	}

	dev := DeviceMetrics{DeviceID: deviceID, Data: []MetricValue{}}
	for _, l := range found {
		if l.scalar.Current != nil {
			dev.Data = append(dev.Data, MetricValue{
				Type:      l.t,
				IsCounter: l.t.IsCounter(),
				Value:     *l.scalar.Current,
				Timestamp: l.data.Timestamp,
				Scale:     scaleOf(l.data),
			})
		}
	}
	out[0] = dev

	for tile := uint32(0); tile < tiles; tile++ {
		rec := DeviceMetrics{DeviceID: deviceID, IsTile: true, TileID: tile, Data: []MetricValue{}}
		for _, l := range found {
			sub, ok := l.scalar.SubDevices[tile]
			if !ok || sub == nil || sub.Current == nil {
				continue
			}
			rec.Data = append(rec.Data, MetricValue{
				Type:      l.t,
				IsCounter: l.t.IsCounter(),
				Value:     *sub.Current,
				Timestamp: l.data.Timestamp,
				Scale:     scaleOf(l.data),
			})
		}
		out[tile+1] = rec
	}
	return needed, nil
}
