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
	"sync"
	"time"

	"k8s.io/utils/ptr"

	"github.com/NVIDIA/fleet-telemetry/pkg/measurement"
	"github.com/NVIDIA/fleet-telemetry/pkg/statistics"
)

// engineHandler derives engine utilization from cumulative active time
// and accumulates it per engine handle.
type engineHandler struct {
	mu       sync.RWMutex
	previous measurement.SampleSet
	latest   measurement.SampleSet
	stats    map[windowKey]*statistics.Collection[uint64]
}

func newEngineHandler() *engineHandler {
	return &engineHandler{stats: make(map[windowKey]*statistics.Collection[uint64])}
}

func (h *engineHandler) Type() measurement.Type {
	return measurement.TypeEngineUtilization
}

func (h *engineHandler) HandleData(set measurement.SampleSet) measurement.SampleSet {
	if len(set) == 0 {
		return nil
	}
	cur := set.Clone()

	h.mu.Lock()
	defer h.mu.Unlock()

	for id, d := range cur {
		engines, ok := d.Engines()
		if !ok {
			continue
		}
		var prev *measurement.EngineCollection
		if p, ok := h.previous[id]; ok {
			prev, _ = p.Engines()
		}
		for handle, e := range engines.Engines {
			if e == nil || !e.ActiveTime.IsValid() {
				continue
			}
			e.Current = nil
			if prev == nil {
				continue
			}
			if pe, ok := prev.Engines[handle]; ok && pe != nil {
				e.Current = utilization(pe.ActiveTime, e.ActiveTime, d.Scale)
			}
		}
	}

	for key, c := range h.stats {
		d := cur[key.DeviceID]
		engines, ok := d.Engines()
		if !ok {
			continue
		}
		for handle, e := range engines.Engines {
			if e != nil {
				c.Update(handle, e.Current, d.Timestamp)
			}
		}
	}

	h.previous = cur
	h.latest = cur
	return cur.Clone()
}

// utilization returns the busy share between two active time readings in
// 1/scale percent, capped at 100 percent.
func utilization(prev, cur measurement.RawSample, scale int64) *int64 {
	if !prev.IsValid() || !cur.IsValid() || *cur.Value < *prev.Value {
		return nil
	}
	elapsed := cur.Timestamp.Sub(prev.Timestamp).Microseconds()
	if elapsed <= 0 {
		return nil
	}
	if scale <= 0 {
		scale = 1
	}
	full := scale * 100
	v := float64(full) * float64(*cur.Value-*prev.Value) / float64(elapsed)
	if v >= float64(full) {
		return ptr.To(full)
	}
	return ptr.To(int64(v))
}

func (h *engineHandler) LatestData(deviceID string) *measurement.Data {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return latestOf(h.latest, deviceID)
}

// Statistics returns a snapshot of the per engine statistics of key.
func (h *engineHandler) Statistics(session uint64, deviceID string) *statistics.Collection[uint64] {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.stats[windowKey{Session: session, DeviceID: deviceID}].Snapshot()
}

func (h *engineHandler) openWindow(key windowKey, start time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stats[key] = statistics.NewCollection[uint64](start)
}

func (h *engineHandler) dropSession(session uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for key := range h.stats {
		if key.Session == session {
			delete(h.stats, key)
		}
	}
}
