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

package exporter

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/NVIDIA/fleet-telemetry/pkg/device"
	"github.com/NVIDIA/fleet-telemetry/pkg/measurement"
	"github.com/NVIDIA/fleet-telemetry/pkg/query"
)

const namespace = "telemetry"

// DefaultScrapeTimeout bounds one scrape across all devices.
const DefaultScrapeTimeout = 5 * time.Second

// Source is the part of query.Service the exporter reads.
type Source interface {
	Devices() []device.Device
	LatestMetrics(ctx context.Context, deviceID string, out []query.DeviceMetrics) (int, error)
}

var _ Source = (*query.Service)(nil)

// Collector implements prometheus.Collector over a Source.
type Collector struct {
	source  Source
	timeout time.Duration
	descs   map[measurement.Type]*prometheus.Desc
	errors  *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// Option configures a Collector.
type Option func(*Collector)

// WithTimeout overrides DefaultScrapeTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Collector) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewCollector returns a Collector exposing every known measurement type.
func NewCollector(source Source, opts ...Option) *Collector {
	c := &Collector{
		source:  source,
		timeout: DefaultScrapeTimeout,
		descs:   make(map[measurement.Type]*prometheus.Desc, len(measurement.Types)),
		errors: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "exporter", "device_errors"),
			"Number of devices that could not be read during the last scrape",
			nil, nil,
		),
	}
	for _, t := range measurement.Types {
		c.descs[t] = prometheus.NewDesc(
			MetricName(t),
			t.DisplayName(),
			[]string{"device", "tile"}, nil,
		)
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// MetricName returns the fully qualified metric name of t.
func MetricName(t measurement.Type) string {
	return prometheus.BuildFQName(namespace, "device", string(t))
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, t := range measurement.Types {
		ch <- c.descs[t]
	}
	ch <- c.errors
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	failed := 0
	for _, d := range c.source.Devices() {
		id := d.ID()
		records, err := query.ReadAll(func(out []query.DeviceMetrics) (int, error) {
			return c.source.LatestMetrics(ctx, id, out)
		})
		if err != nil {
			slog.Debug("exporter skipped device", "device", id, "error", err)
			failed++
			continue
		}
		for _, rec := range records {
			tile := ""
			if rec.IsTile {
				tile = strconv.FormatUint(uint64(rec.TileID), 10)
			}
			for _, v := range rec.Data {
				if m := c.metric(v, id, tile); m != nil {
					ch <- m
				}
			}
		}
	}
	ch <- prometheus.MustNewConstMetric(c.errors, prometheus.GaugeValue, float64(failed))
}

func (c *Collector) metric(v query.MetricValue, deviceID, tile string) prometheus.Metric {
	desc, ok := c.descs[v.Type]
	if !ok {
		return nil
	}
	// Counter types report the per second rate derived from the raw
	// counter, which may go down between scrapes.
	m, err := prometheus.NewConstMetric(desc, prometheus.GaugeValue, scaled(v.Value, v.Scale), deviceID, tile)
	if err != nil {
		slog.Warn("failed to build metric", "type", v.Type, "device", deviceID, "error", err)
		return nil
	}
	if !v.Timestamp.IsZero() {
		m = prometheus.NewMetricWithTimestamp(v.Timestamp, m)
	}
	return m
}

func scaled(v, scale int64) float64 {
	if scale <= 1 {
		return float64(v)
	}
	return float64(v) / float64(scale)
}
