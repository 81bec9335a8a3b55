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

	"github.com/NVIDIA/fleet-telemetry/pkg/device"
	"github.com/NVIDIA/fleet-telemetry/pkg/handler"
	"github.com/NVIDIA/fleet-telemetry/pkg/measurement"
)

func (s *Service) link(deviceID string, key measurement.FabricLinkKey) (FabricLink, error) {
	remote, err := s.remoteDevice(key.RemoteFabricID)
	if err != nil {
		return FabricLink{}, err
	}
	return FabricLink{
		DeviceID:       deviceID,
		TileID:         key.AttachID,
		RemoteDeviceID: remote,
		RemoteTileID:   key.RemoteAttachID,
	}, nil
}

// FabricThroughputStatistics reports the session's statistics of every
// fabric throughput value of a device. A nil out returns the number of
// throughput values the device declares. Nothing is reported when no
// sample arrived since the window opened.
func (s *Service) FabricThroughputStatistics(_ context.Context, deviceID string, session uint64, out []FabricStats) (int, Window, error) {
	d, err := s.device(deviceID)
	if err != nil {
		return 0, Window{}, err
	}
	if err := s.checkMetric(d, measurement.TypeFabricThroughput); err != nil {
		return 0, Window{}, err
	}
	count := d.FabricThroughputInfoCount()
	if out == nil || count == 0 {
		return count, Window{}, nil
	}

	begin := s.agg.WindowStart(handler.FamilyFabric, session, deviceID)
	win := Window{Begin: begin, End: s.now()}

	coll := s.agg.FabricStatistics(deviceID, session)
	if coll == nil {
		return 0, win, nil
	}

	var infos []device.FabricThroughputInfo
	for _, info := range d.FabricThroughputInfos() {
		if sum := coll.Get(info.Key()); sum != nil && !sum.Empty() {
			infos = append(infos, info)
		}
	}
	if len(infos) > len(out) {
		return len(infos), win, tooSmall(len(infos), len(out))
	}

	latest := s.agg.LatestData(measurement.TypeFabricThroughput, deviceID)
	if latest == nil || latest.Timestamp.Before(begin) {
		return 0, win, nil
	}

	for i, info := range infos {
		l, err := s.link(deviceID, info.FabricLinkKey)
		if err != nil {
			return 0, win, err
		}
		sum := coll.Get(info.Key())
		rec := FabricStats{FabricLink: l, Type: info.Kind}
		if info.Kind.IsCounter() {
			rec.Value = sum.Latest - sum.Min
			rec.Accumulated = sum.Latest
			rec.Scale = 1
		} else {
			rec.Value = sum.Latest
			rec.Avg = sum.Avg
			rec.Min = sum.Min
			rec.Max = sum.Max
			rec.Scale = scaleOf(latest)
		}
		out[i] = rec
	}
	return len(infos), win, nil
}

// FabricThroughput reports the latest value of every fabric throughput
// value of a device. A nil out returns the number of throughput values the
// device declares.
func (s *Service) FabricThroughput(_ context.Context, deviceID string, out []FabricThroughput) (int, error) {
	d, err := s.device(deviceID)
	if err != nil {
		return 0, err
	}
	if err := s.checkMetric(d, measurement.TypeFabricThroughput); err != nil {
		return 0, err
	}
	count := d.FabricThroughputInfoCount()
	if out == nil || count == 0 {
		return count, nil
	}

	data := s.agg.LatestData(measurement.TypeFabricThroughput, deviceID)
	fabric, ok := data.Fabric()
	if !ok {
		return 0, nil
	}

	var infos []device.FabricThroughputInfo
	for _, info := range d.FabricThroughputInfos() {
		if v := fabric.Throughput[info.Key()]; v != nil {
			infos = append(infos, info)
		}
	}
	if len(infos) > len(out) {
		return len(infos), tooSmall(len(infos), len(out))
	}

	for i, info := range infos {
		l, err := s.link(deviceID, info.FabricLinkKey)
		if err != nil {
			return 0, err
		}
		scale := scaleOf(data)
		if info.Kind.IsCounter() {
			scale = 1
		}
		out[i] = FabricThroughput{
			FabricLink: l,
			Type:       info.Kind,
			Value:      *fabric.Throughput[info.Key()],
			Scale:      scale,
		}
	}
	return len(infos), nil
}

// FabricLinkInfo enumerates the distinct fabric links of a device.
func (s *Service) FabricLinkInfo(_ context.Context, deviceID string, out []FabricLink) (int, error) {
	d, err := s.device(deviceID)
	if err != nil {
		return 0, err
	}

	seen := make(map[measurement.FabricLinkKey]struct{})
	var links []FabricLink
	for _, info := range d.FabricThroughputInfos() {
		if _, dup := seen[info.FabricLinkKey]; dup {
			continue
		}
		seen[info.FabricLinkKey] = struct{}{}
		l, err := s.link(deviceID, info.FabricLinkKey)
		if err != nil {
			return 0, err
		}
		links = append(links, l)
	}

	if out == nil {
		return len(links), nil
	}
	if len(links) > len(out) {
		return len(links), tooSmall(len(links), len(out))
	}
	copy(out, links)
	return len(links), nil
}
