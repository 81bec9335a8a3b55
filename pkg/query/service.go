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
	"fmt"
	"log/slog"
	"slices"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/NVIDIA/fleet-telemetry/pkg/config"
	"github.com/NVIDIA/fleet-telemetry/pkg/defaults"
	"github.com/NVIDIA/fleet-telemetry/pkg/device"
	"github.com/NVIDIA/fleet-telemetry/pkg/errors"
	"github.com/NVIDIA/fleet-telemetry/pkg/handler"
	"github.com/NVIDIA/fleet-telemetry/pkg/measurement"
	"github.com/NVIDIA/fleet-telemetry/pkg/statistics"
)

// Aggregator is the read side of the handler manager.
type Aggregator interface {
	LatestData(t measurement.Type, deviceID string) *measurement.Data
	LatestStatistics(t measurement.Type, deviceID string, session uint64) *statistics.Stats
	EngineStatistics(deviceID string, session uint64) *statistics.Collection[uint64]
	FabricStatistics(deviceID string, session uint64) *statistics.Collection[measurement.FabricThroughputKey]
	WindowStart(f handler.Family, session uint64, deviceID string) time.Time
	ResetWindow(f handler.Family, session uint64, deviceID string) time.Time
}

// MetricsConfig supplies the operator's allow-list of metrics.
type MetricsConfig interface {
	EnabledMetrics() []measurement.Type
}

var (
	_ Aggregator    = (*handler.Manager)(nil)
	_ MetricsConfig = (*config.Config)(nil)
)

// Option configures a Service.
type Option func(*Service)

// WithWaitPolicy sets how long statistics queries wait for slow-starting
// metrics. A zero timeout disables the wait.
func WithWaitPolicy(p config.WaitPolicy) Option {
	return func(s *Service) {
		s.wait = p
	}
}

// WithHistory enables history reads from h.
func WithHistory(h HistoryReader) Option {
	return func(s *Service) {
		s.history = h
	}
}

// WithVersion sets the producer version stamped on reports.
func WithVersion(v string) Option {
	return func(s *Service) {
		s.version = v
	}
}

// WithClock sets the clock used for window ends.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service answers telemetry queries.
type Service struct {
	devices device.Directory
	agg     Aggregator
	metrics MetricsConfig
	history HistoryReader
	wait    config.WaitPolicy
	version string
	now     func() time.Time
}

// NewService returns a Service reading devices from dir, data from agg
// and the enabled metrics from cfg.
func NewService(dir device.Directory, agg Aggregator, cfg MetricsConfig, opts ...Option) *Service {
	s := &Service{
		devices: dir,
		agg:     agg,
		metrics: cfg,
		wait: config.WaitPolicy{
			Timeout:  defaults.DataWaitTimeout,
			Interval: defaults.DataWaitInterval,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Devices returns every known device.
func (s *Service) Devices() []device.Device {
	return s.devices.Devices()
}

// ResetWindow starts a new statistics window for a family.
func (s *Service) ResetWindow(_ context.Context, deviceID string, session uint64, f handler.Family) (time.Time, error) {
	if _, err := s.device(deviceID); err != nil {
		return time.Time{}, err
	}
	return s.agg.ResetWindow(f, session, deviceID), nil
}

func (s *Service) device(id string) (device.Device, error) {
	d, ok := s.devices.Device(id)
	if !ok {
		return nil, errors.NewWithContext(errors.ErrCodeDeviceNotFound,
			fmt.Sprintf("device %q not found", id),
			map[string]any{"device": id})
	}
	return d, nil
}

// supportedMetrics returns the enabled metrics the device supports.
func (s *Service) supportedMetrics(d device.Device) []measurement.Type {
	return d.Capabilities().FilterSupported(s.metrics.EnabledMetrics())
}

// checkMetric distinguishes a metric turned off by the operator from one
// the device cannot collect.
func (s *Service) checkMetric(d device.Device, t measurement.Type) error {
	if !slices.Contains(s.metrics.EnabledMetrics(), t) {
		return errors.NewWithContext(errors.ErrCodeMetricNotEnabled,
			fmt.Sprintf("metric %s is not enabled", t),
			map[string]any{"device": d.ID(), "type": string(t)})
	}
	if !d.Capabilities().Supports(t) {
		return errors.NewWithContext(errors.ErrCodeMetricNotSupported,
			fmt.Sprintf("device %q does not support %s", d.ID(), t),
			map[string]any{"device": d.ID(), "type": string(t)})
	}
	return nil
}

func (s *Service) remoteDevice(fabricID uint32) (string, error) {
	id, ok := s.devices.DeviceIDByFabricID(fabricID)
	if !ok {
		return "", errors.NewWithContext(errors.ErrCodeGeneric,
			fmt.Sprintf("no device attached to fabric %d", fabricID),
			map[string]any{"fabricId": fabricID})
	}
	return id, nil
}

// waitFor polls done per the wait policy. Running out of time is not an
// error; a canceled ctx is.
func (s *Service) waitFor(ctx context.Context, done func() bool) error {
	if done() || s.wait.Timeout <= 0 {
		return nil
	}
	interval := s.wait.Interval
	if interval <= 0 {
		interval = defaults.DataWaitInterval
	}
	err := wait.PollUntilContextTimeout(ctx, interval, s.wait.Timeout, false,
		func(context.Context) (bool, error) {
			return done(), nil
		})
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return errors.Wrap(errors.ErrCodeTimeout, "query canceled while waiting for data", ctx.Err())
	case wait.Interrupted(err):
		slog.Debug("gave up waiting for slow-starting metrics", "timeout", s.wait.Timeout)
		return nil
	default:
		return err
	}
}

func tooSmall(needed, got int) error {
	return errors.NewWithContext(errors.ErrCodeBufferTooSmall,
		fmt.Sprintf("buffer holds %d records, %d needed", got, needed),
		map[string]any{"needed": needed, "got": got})
}

func scaleOf(d *measurement.Data) int64 {
	if d == nil || d.Scale <= 0 {
		return defaults.MeasurementScale
	}
	return d.Scale
}

func isWindowed(t measurement.Type) bool {
	return t != measurement.TypeEngineUtilization && t != measurement.TypeFabricThroughput
}
