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

package handler

import (
	"math"
	"sync"
	"time"

	"k8s.io/utils/ptr"

	"github.com/NVIDIA/fleet-telemetry/pkg/measurement"
	"github.com/NVIDIA/fleet-telemetry/pkg/statistics"
)

// fabricHandler derives per link rx and tx throughput from byte counters
// and accumulates every throughput kind per link.
type fabricHandler struct {
	mu       sync.RWMutex
	previous measurement.SampleSet
	latest   measurement.SampleSet
	stats    map[windowKey]*statistics.Collection[measurement.FabricThroughputKey]
}

func newFabricHandler() *fabricHandler {
	return &fabricHandler{
		stats: make(map[windowKey]*statistics.Collection[measurement.FabricThroughputKey]),
	}
}

func (h *fabricHandler) Type() measurement.Type {
	return measurement.TypeFabricThroughput
}

func (h *fabricHandler) HandleData(set measurement.SampleSet) measurement.SampleSet {
	if len(set) == 0 {
		return nil
	}
	cur := set.Clone()

	h.mu.Lock()
	defer h.mu.Unlock()

	for id, d := range cur {
		fabric, ok := d.Fabric()
		if !ok {
			continue
		}
		var prev *measurement.FabricCollection
		if p, ok := h.previous[id]; ok {
			prev, _ = p.Fabric()
		}
		if fabric.Throughput == nil {
			fabric.Throughput = make(map[measurement.FabricThroughputKey]*int64)
		}
		for link, l := range fabric.Links {
			if l == nil {
				continue
			}
			setThroughput(fabric, link, measurement.FabricReceivedCounter, counterValue(l.Rx))
			setThroughput(fabric, link, measurement.FabricTransmittedCounter, counterValue(l.Tx))
			if prev == nil {
				continue
			}
			pl, ok := prev.Links[link]
			if !ok || pl == nil {
				continue
			}
			setThroughput(fabric, link, measurement.FabricReceived, throughput(pl.Rx, l.Rx, d.Scale))
			setThroughput(fabric, link, measurement.FabricTransmitted, throughput(pl.Tx, l.Tx, d.Scale))
		}
	}

	for key, c := range h.stats {
		d := cur[key.DeviceID]
		fabric, ok := d.Fabric()
		if !ok {
			continue
		}
		for k, v := range fabric.Throughput {
			c.Update(k, v, d.Timestamp)
		}
	}

	h.previous = cur
	h.latest = cur
	return cur.Clone()
}

func setThroughput(f *measurement.FabricCollection, link measurement.FabricLinkKey, kind measurement.FabricThroughputType, v *int64) {
	if v == nil {
		return
	}
	f.Throughput[measurement.FabricThroughputKey{FabricLinkKey: link, Kind: kind}] = v
}

func counterValue(r measurement.RawSample) *int64 {
	if !r.IsValid() {
		return nil
	}
	if *r.Value > math.MaxInt64 {
		return ptr.To(int64(math.MaxInt64))
	}
	return ptr.To(int64(*r.Value))
}

// throughput returns bytes per second between two counter readings in
// 1/scale units. A counter that went backwards yields nothing.
func throughput(prev, cur measurement.RawSample, scale int64) *int64 {
	if !prev.IsValid() || !cur.IsValid() || *cur.Value < *prev.Value {
		return nil
	}
	elapsed := cur.Timestamp.Sub(prev.Timestamp)
	if elapsed <= 0 {
		return nil
	}
	return ptr.To(perSecond(*cur.Value-*prev.Value, elapsed, scale))
}

func (h *fabricHandler) LatestData(deviceID string) *measurement.Data {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return latestOf(h.latest, deviceID)
}

// Statistics returns a snapshot of the per link statistics of key.
func (h *fabricHandler) Statistics(session uint64, deviceID string) *statistics.Collection[measurement.FabricThroughputKey] {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.stats[windowKey{Session: session, DeviceID: deviceID}].Snapshot()
}

func (h *fabricHandler) openWindow(key windowKey, start time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stats[key] = statistics.NewCollection[measurement.FabricThroughputKey](start)
}

func (h *fabricHandler) dropSession(session uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for key := range h.stats {
		if key.Session == session {
			delete(h.stats, key)
		}
	}
}
