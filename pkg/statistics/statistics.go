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

package statistics

import (
	"maps"
	"time"
)

// Summary is the running aggregate of one value stream.
type Summary struct {
	Min    int64   `json:"min" yaml:"min"`
	Max    int64   `json:"max" yaml:"max"`
	Avg    float64 `json:"avg" yaml:"avg"`
	Latest int64   `json:"latest" yaml:"latest"`
	Count  uint64  `json:"count" yaml:"count"`
}

// Add folds v into the summary using an incremental mean.
func (s *Summary) Add(v int64) {
	s.Count++
	s.Latest = v
	if s.Count == 1 {
		s.Min, s.Max, s.Avg = v, v, float64(v)
		return
	}
	if v < s.Min {
		s.Min = v
	}
	if v > s.Max {
		s.Max = v
	}
	s.Avg += (float64(v) - s.Avg) / float64(s.Count)
}

// Empty reports whether nothing was added yet.
func (s *Summary) Empty() bool {
	return s == nil || s.Count == 0
}

// Stats aggregates one type for one device inside one session window.
type Stats struct {
	Summary
	StartTime       time.Time
	LatestTime      time.Time
	HasDataOnDevice bool
	SubDevices      map[uint32]*Summary
}

// New returns empty statistics whose window opens at start.
func New(start time.Time) *Stats {
	return &Stats{StartTime: start}
}

// Reset clears the statistics and opens a new window at start.
func (s *Stats) Reset(start time.Time) {
	*s = Stats{StartTime: start}
}

// Accepts reports whether a sample stamped ts belongs to the window.
func (s *Stats) Accepts(ts time.Time) bool {
	return !ts.Before(s.StartTime)
}

// Update folds a device-level value. It returns false when v is absent
// or ts predates the window.
func (s *Stats) Update(v *int64, ts time.Time) bool {
	if v == nil || !s.Accepts(ts) {
		return false
	}
	s.Add(*v)
	s.HasDataOnDevice = true
	s.touch(ts)
	return true
}

// UpdateSubDevice folds the value of one sub-device.
func (s *Stats) UpdateSubDevice(id uint32, v *int64, ts time.Time) bool {
	if v == nil || !s.Accepts(ts) {
		return false
	}
	if s.SubDevices == nil {
		s.SubDevices = make(map[uint32]*Summary)
	}
	sub, ok := s.SubDevices[id]
	if !ok {
		sub = &Summary{}
		s.SubDevices[id] = sub
	}
	sub.Add(*v)
	s.touch(ts)
	return true
}

// HasData reports whether any device or sub-device value was folded.
func (s *Stats) HasData() bool {
	return s.HasDataOnDevice || len(s.SubDevices) > 0
}

// SubDevice returns the summary of one sub-device, or nil.
func (s *Stats) SubDevice(id uint32) *Summary {
	if s == nil {
		return nil
	}
	return s.SubDevices[id]
}

// Snapshot returns a deep copy safe to hand to other goroutines.
func (s *Stats) Snapshot() *Stats {
	if s == nil {
		return nil
	}
	c := *s
	if s.SubDevices != nil {
		c.SubDevices = make(map[uint32]*Summary, len(s.SubDevices))
		for id, sub := range s.SubDevices {
			cs := *sub
			c.SubDevices[id] = &cs
		}
	}
	return &c
}

func (s *Stats) touch(ts time.Time) {
	if ts.After(s.LatestTime) {
		s.LatestTime = ts
	}
}

// Collection aggregates keyed items inside one session window.
type Collection[K comparable] struct {
	StartTime  time.Time
	LatestTime time.Time
	Items      map[K]*Summary
}

// NewCollection returns an empty collection whose window opens at start.
func NewCollection[K comparable](start time.Time) *Collection[K] {
	return &Collection[K]{StartTime: start, Items: make(map[K]*Summary)}
}

// Update folds the value of one item. It returns false when v is absent
// or ts predates the window.
func (c *Collection[K]) Update(key K, v *int64, ts time.Time) bool {
	if v == nil || ts.Before(c.StartTime) {
		return false
	}
	item, ok := c.Items[key]
	if !ok {
		item = &Summary{}
		c.Items[key] = item
	}
	item.Add(*v)
	if ts.After(c.LatestTime) {
		c.LatestTime = ts
	}
	return true
}

// Get returns the summary of key, or nil.
func (c *Collection[K]) Get(key K) *Summary {
	if c == nil {
		return nil
	}
	return c.Items[key]
}

// Snapshot returns a deep copy.
func (c *Collection[K]) Snapshot() *Collection[K] {
	if c == nil {
		return nil
	}
	out := &Collection[K]{
		StartTime:  c.StartTime,
		LatestTime: c.LatestTime,
		Items:      make(map[K]*Summary, len(c.Items)),
	}
	for k, v := range maps.All(c.Items) {
		cv := *v
		out.Items[k] = &cv
	}
	return out
}
