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

	"github.com/NVIDIA/fleet-telemetry/pkg/measurement"
	"github.com/NVIDIA/fleet-telemetry/pkg/statistics"
)

// statsHandler accumulates scalar data as is. It serves gauge types.
type statsHandler struct {
	typ measurement.Type

	mu     sync.RWMutex
	latest measurement.SampleSet
	stats  map[windowKey]*statistics.Stats
}

func newStatsHandler(t measurement.Type) *statsHandler {
	return &statsHandler{
		typ:   t,
		stats: make(map[windowKey]*statistics.Stats),
	}
}

func (h *statsHandler) Type() measurement.Type {
	return h.typ
}

func (h *statsHandler) HandleData(set measurement.SampleSet) measurement.SampleSet {
	if len(set) == 0 {
		return nil
	}
	cur := set.Clone()

	h.mu.Lock()
	defer h.mu.Unlock()

	h.accumulate(cur)
	h.latest = cur
	return cur.Clone()
}

// accumulate folds cur into every open window of the devices it covers.
// Callers hold h.mu.
func (h *statsHandler) accumulate(cur measurement.SampleSet) {
	for key, st := range h.stats {
		d := cur[key.DeviceID]
		s, ok := d.Scalar()
		if !ok {
			continue
		}
		st.Update(s.Current, d.Timestamp)
		for id, sub := range s.SubDevices {
			if sub != nil {
				st.UpdateSubDevice(id, sub.Current, d.Timestamp)
			}
		}
	}
}

func (h *statsHandler) LatestData(deviceID string) *measurement.Data {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return latestOf(h.latest, deviceID)
}

// Statistics returns a snapshot of the window of key, or nil when the
// window was never opened.
func (h *statsHandler) Statistics(session uint64, deviceID string) *statistics.Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.stats[windowKey{Session: session, DeviceID: deviceID}].Snapshot()
}

func (h *statsHandler) openWindow(key windowKey, start time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stats[key] = statistics.New(start)
}

func (h *statsHandler) dropSession(session uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for key := range h.stats {
		if key.Session == session {
			delete(h.stats, key)
		}
	}
}

// scalarHandler is implemented by the handlers of scalar types.
type scalarHandler interface {
	Handler
	Statistics(session uint64, deviceID string) *statistics.Stats
}

var (
	_ scalarHandler = (*statsHandler)(nil)
	_ scalarHandler = (*rateHandler)(nil)
)
