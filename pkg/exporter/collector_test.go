package exporter

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/fleet-telemetry/pkg/device"
	"github.com/NVIDIA/fleet-telemetry/pkg/errors"
	"github.com/NVIDIA/fleet-telemetry/pkg/measurement"
	"github.com/NVIDIA/fleet-telemetry/pkg/query"
)

type fakeSource struct {
	devices []device.Device
	records map[string][]query.DeviceMetrics
}

func (f *fakeSource) Devices() []device.Device { return f.devices }

func (f *fakeSource) LatestMetrics(_ context.Context, id string, out []query.DeviceMetrics) (int, error) {
	recs, ok := f.records[id]
	if !ok {
		return 0, errors.New(errors.ErrCodeDeviceNotFound, "unknown device")
	}
	if out == nil {
		return len(recs), nil
	}
	if len(out) < len(recs) {
		return len(recs), errors.New(errors.ErrCodeBufferTooSmall, "short")
	}
	return copy(out, recs), nil
}

func newSource(t *testing.T, ts time.Time) *fakeSource {
	t.Helper()
	dir, err := device.NewStatic(
		device.Spec{ID: "0", SubDevices: 2},
		device.Spec{ID: "missing"},
	)
	require.NoError(t, err)
	return &fakeSource{
		devices: dir.Devices(),
		records: map[string][]query.DeviceMetrics{
			"0": {
				{DeviceID: "0", Data: []query.MetricValue{
					{Type: measurement.TypePower, Value: 12500, Scale: 1000, Timestamp: ts},
					{Type: measurement.TypeEnergy, IsCounter: true, Value: 1000, Scale: 1, Timestamp: ts},
				}},
				{DeviceID: "0", IsTile: true, TileID: 1, Data: []query.MetricValue{
					{Type: measurement.TypePower, Value: 6000, Scale: 1000, Timestamp: ts},
				}},
			},
		},
	}
}

func TestCollector_Values(t *testing.T) {
	c := NewCollector(newSource(t, time.Time{}))

	expected := `
# HELP telemetry_device_power Power
# TYPE telemetry_device_power gauge
telemetry_device_power{device="0",tile=""} 12.5
telemetry_device_power{device="0",tile="1"} 6
# HELP telemetry_device_energy Energy
# TYPE telemetry_device_energy gauge
telemetry_device_energy{device="0",tile=""} 1000
# HELP telemetry_exporter_device_errors Number of devices that could not be read during the last scrape
# TYPE telemetry_exporter_device_errors gauge
telemetry_exporter_device_errors 1
`
	err := testutil.CollectAndCompare(c, strings.NewReader(expected),
		"telemetry_device_power", "telemetry_device_energy", "telemetry_exporter_device_errors")
	assert.NoError(t, err)
}

func TestCollector_CounterRateIsGauge(t *testing.T) {
	src := newSource(t, time.Time{})
	c := NewCollector(src)

	for _, rate := range []int64{2000, 500} {
		src.records["0"][0].Data[1].Value = rate
		expected := fmt.Sprintf(`
# HELP telemetry_device_energy Energy
# TYPE telemetry_device_energy gauge
telemetry_device_energy{device="0",tile=""} %d
`, rate)
		err := testutil.CollectAndCompare(c, strings.NewReader(expected), "telemetry_device_energy")
		assert.NoError(t, err, "rate %d", rate)
	}
}

func TestCollector_Count(t *testing.T) {
	c := NewCollector(newSource(t, time.Now()))
	assert.Equal(t, 2, testutil.CollectAndCount(c, MetricName(measurement.TypePower)))
	assert.Equal(t, 0, testutil.CollectAndCount(c, MetricName(measurement.TypeTemperature)))
}

func TestCollector_Register(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(NewCollector(newSource(t, time.Time{}))))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "telemetry_device_power")
	assert.Contains(t, names, "telemetry_exporter_device_errors")
}

func TestMetricName(t *testing.T) {
	assert.Equal(t, "telemetry_device_pcie_read_throughput", MetricName(measurement.TypePCIeReadThroughput))
}

func TestScaled(t *testing.T) {
	tests := []struct {
		name  string
		value int64
		scale int64
		want  float64
	}{
		{name: "unscaled", value: 7, scale: 1, want: 7},
		{name: "zero scale", value: 7, scale: 0, want: 7},
		{name: "percent", value: 4550, scale: 100, want: 45.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, scaled(tt.value, tt.scale), 1e-9)
		})
	}
}
