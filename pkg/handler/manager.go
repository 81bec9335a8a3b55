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
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/NVIDIA/fleet-telemetry/pkg/defaults"
	"github.com/NVIDIA/fleet-telemetry/pkg/errors"
	"github.com/NVIDIA/fleet-telemetry/pkg/measurement"
	"github.com/NVIDIA/fleet-telemetry/pkg/statistics"
)

// Option configures a Manager.
type Option func(*Manager)

// WithPersister stores every processed sample set through p.
func WithPersister(p Persister) Option {
	return func(m *Manager) {
		m.persister = p
	}
}

// WithMaxSessions bounds the number of concurrent statistics sessions.
// Zero or less disables the bound.
func WithMaxSessions(n int) Option {
	return func(m *Manager) {
		m.maxSessions = n
	}
}

// WithClock sets the clock used for window starts.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithTypes restricts the handler table to the given types.
func WithTypes(types ...measurement.Type) Option {
	return func(m *Manager) {
		m.types = types
	}
}

// Manager owns one handler per measurement type and the session book.
// The zero value is not usable; construct with NewManager.
type Manager struct {
	handlers map[measurement.Type]Handler
	scalars  map[measurement.Type]scalarHandler
	engine   *engineHandler
	fabric   *fabricHandler
	sessions *sessionBook
	// windowMu serializes book updates with the handler windows they open
	// or drop.
	windowMu sync.Mutex

	persister   Persister
	maxSessions int
	now         func() time.Time
	types       []measurement.Type
}

// NewManager builds the handler table.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		maxSessions: defaults.MaxStatisticsSessions,
		now:         time.Now,
		types:       measurement.Types,
	}
	for _, opt := range opts {
		opt(m)
	}

	m.handlers = make(map[measurement.Type]Handler, len(m.types))
	m.scalars = make(map[measurement.Type]scalarHandler, len(m.types))
	for _, t := range m.types {
		switch {
		case t == measurement.TypeEngineUtilization:
			m.engine = newEngineHandler()
			m.handlers[t] = m.engine
		case t == measurement.TypeFabricThroughput:
			m.fabric = newFabricHandler()
			m.handlers[t] = m.fabric
		case t.IsCounter():
			h := newRateHandler(t)
			m.handlers[t] = h
			m.scalars[t] = h
		default:
			h := newStatsHandler(t)
			m.handlers[t] = h
			m.scalars[t] = h
		}
	}
	m.sessions = newSessionBook(m.maxSessions, m.now)

	slog.Debug("handler manager initialized",
		"handlers", len(m.handlers),
		"maxSessions", m.maxSessions)
	return m
}

// Types returns the measurement types that have a handler.
func (m *Manager) Types() []measurement.Type {
	if m == nil {
		return nil
	}
	out := make([]measurement.Type, 0, len(m.handlers))
	for _, t := range measurement.Types {
		if _, ok := m.handlers[t]; ok {
			out = append(out, t)
		}
	}
	return out
}

// StoreMeasurementData forwards one tick of type t to its handler and then
// to the persister, if any. Persister failures are logged only.
func (m *Manager) StoreMeasurementData(ctx context.Context, t measurement.Type, ts time.Time, set measurement.SampleSet) error {
	if m == nil || m.handlers == nil {
		return errors.New(errors.ErrCodeUninitialized, "handler manager is not initialized")
	}
	h, ok := m.handlers[t]
	if !ok {
		return errors.NewWithContext(errors.ErrCodeNotFound,
			fmt.Sprintf("no handler for measurement type %q", t),
			map[string]any{"type": string(t)})
	}

	begin := time.Now()
	processed := h.HandleData(set)
	storeDuration.WithLabelValues(string(t)).Observe(time.Since(begin).Seconds())
	if processed == nil {
		return nil
	}
	samplesStored.WithLabelValues(string(t)).Inc()

	if m.persister != nil {
		pctx, cancel := context.WithTimeout(ctx, defaults.PersistTimeout)
		defer cancel()
		if err := m.persister.Persist(pctx, t, ts, processed); err != nil {
			persistFailures.WithLabelValues(string(t)).Inc()
			slog.Warn("failed to persist sample set",
				"type", t,
				"devices", len(processed),
				"error", err)
		}
	}
	return nil
}

// LatestData returns a copy of the newest data of a device, or nil.
func (m *Manager) LatestData(t measurement.Type, deviceID string) *measurement.Data {
	if m == nil {
		return nil
	}
	h, ok := m.handlers[t]
	if !ok {
		return nil
	}
	return h.LatestData(deviceID)
}

// LatestStatistics returns a snapshot of the statistics of a scalar type
// in the session's window, or nil.
func (m *Manager) LatestStatistics(t measurement.Type, deviceID string, session uint64) *statistics.Stats {
	if m == nil {
		return nil
	}
	h, ok := m.scalars[t]
	if !ok {
		return nil
	}
	return h.Statistics(session, deviceID)
}

// EngineStatistics returns a snapshot of the per engine statistics in the
// session's window, or nil.
func (m *Manager) EngineStatistics(deviceID string, session uint64) *statistics.Collection[uint64] {
	if m == nil || m.engine == nil {
		return nil
	}
	return m.engine.Statistics(session, deviceID)
}

// FabricStatistics returns a snapshot of the per link statistics in the
// session's window, or nil.
func (m *Manager) FabricStatistics(deviceID string, session uint64) *statistics.Collection[measurement.FabricThroughputKey] {
	if m == nil || m.fabric == nil {
		return nil
	}
	return m.fabric.Statistics(session, deviceID)
}

// StatsTimestamp returns the start of the device statistics window of the
// session, opening it on first use.
func (m *Manager) StatsTimestamp(session uint64, deviceID string) time.Time {
	return m.WindowStart(FamilyDevice, session, deviceID)
}

// EngineStatsTimestamp returns the start of the engine statistics window.
func (m *Manager) EngineStatsTimestamp(session uint64, deviceID string) time.Time {
	return m.WindowStart(FamilyEngine, session, deviceID)
}

// FabricStatsTimestamp returns the start of the fabric statistics window.
func (m *Manager) FabricStatsTimestamp(session uint64, deviceID string) time.Time {
	return m.WindowStart(FamilyFabric, session, deviceID)
}

// WindowStart returns the window start of a family, opening the window and
// clearing that family's statistics on first use. Later calls return the
// same instant until ResetWindow.
func (m *Manager) WindowStart(f Family, session uint64, deviceID string) time.Time {
	if m == nil || m.sessions == nil {
		return time.Time{}
	}
	m.windowMu.Lock()
	defer m.windowMu.Unlock()

	key := windowKey{Session: session, DeviceID: deviceID}
	start, opened, evicted := m.sessions.start(f, key)
	m.evict(evicted)
	if opened {
		m.openWindow(f, key, start)
	}
	return start
}

// ResetWindow starts a new window for a family now and returns its start.
func (m *Manager) ResetWindow(f Family, session uint64, deviceID string) time.Time {
	if m == nil || m.sessions == nil {
		return time.Time{}
	}
	m.windowMu.Lock()
	defer m.windowMu.Unlock()

	key := windowKey{Session: session, DeviceID: deviceID}
	start, evicted := m.sessions.reset(f, key)
	m.evict(evicted)
	m.openWindow(f, key, start)
	slog.Debug("statistics window reset",
		"family", f,
		"session", session,
		"device", deviceID)
	return start
}

// CloseSession drops every window of a session. It reports whether the
// session existed.
func (m *Manager) CloseSession(session uint64) bool {
	if m == nil || m.sessions == nil {
		return false
	}
	m.windowMu.Lock()
	defer m.windowMu.Unlock()

	if !m.sessions.drop(session) {
		return false
	}
	m.dropSession(session)
	liveSessions.Set(float64(m.sessions.sessions()))
	return true
}

func (m *Manager) openWindow(f Family, key windowKey, start time.Time) {
	for t, h := range m.handlers {
		if FamilyOf(t) == f {
			h.openWindow(key, start)
		}
	}
	liveSessions.Set(float64(m.sessions.sessions()))
}

func (m *Manager) evict(sessions []uint64) {
	for _, s := range sessions {
		m.dropSession(s)
		sessionEvictions.Inc()
		slog.Info("statistics session evicted", "session", s, "limit", m.maxSessions)
	}
}

func (m *Manager) dropSession(session uint64) {
	for _, h := range m.handlers {
		h.dropSession(session)
	}
}
