package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/ptr"

	"github.com/NVIDIA/fleet-telemetry/pkg/measurement"
	"github.com/NVIDIA/fleet-telemetry/pkg/persistency"
)

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleRecords() []persistency.Record {
	return []persistency.Record{
		{Type: measurement.TypePower, DeviceID: "0", Scope: persistency.ScopeDevice, Timestamp: base, Value: ptr.To(int64(12500)), Scale: 1000},
		{Type: measurement.TypePower, DeviceID: "0", Scope: "tile/1", Timestamp: base, Value: ptr.To(int64(6000)), Scale: 1000},
		{Type: measurement.TypeEnergy, DeviceID: "0", Scope: persistency.ScopeDevice, Timestamp: base.Add(time.Second), Raw: ptr.To(uint64(1<<63 + 5)), Scale: 1},
		{Type: measurement.TypePower, DeviceID: "0", Scope: persistency.ScopeDevice, Timestamp: base.Add(time.Second), Value: ptr.To(int64(13000)), Scale: 1000},
	}
}

func TestParquet_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteParquet(&buf, sampleRecords()))

	got, err := ReadParquet(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, got, 4)

	want := sampleRecords()
	for i := range want {
		assert.Equal(t, want[i].Type, got[i].Type)
		assert.Equal(t, want[i].Scope, got[i].Scope)
		assert.True(t, want[i].Timestamp.Equal(got[i].Timestamp))
		assert.Equal(t, want[i].Value, got[i].Value)
		assert.Equal(t, want[i].Raw, got[i].Raw)
	}
}

func TestParquet_ManyBatches(t *testing.T) {
	records := make([]persistency.Record, 0, ParquetBatchSize*2+3)
	for i := range ParquetBatchSize*2 + 3 {
		records = append(records, persistency.Record{
			Type:      measurement.TypeTemperature,
			DeviceID:  "1",
			Scope:     persistency.ScopeDevice,
			Timestamp: base.Add(time.Duration(i) * time.Millisecond),
			Value:     ptr.To(int64(i)),
			Scale:     1,
		})
	}

	var buf bytes.Buffer
	require.NoError(t, WriteParquet(&buf, records))
	got, err := ReadParquet(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, got, len(records))
	assert.Equal(t, int64(len(records)-1), *got[len(got)-1].Value)
}

func TestParquet_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteParquet(&buf, nil))
	got, err := ReadParquet(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWriteChart(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteChart(&buf, "device 0 history", sampleRecords()))

	html := buf.String()
	assert.Contains(t, html, "device 0 history")
	assert.Contains(t, html, "Power")
	assert.Contains(t, html, "0 tile/1")
	assert.False(t, strings.Contains(html, "Energy"), "records without values are not charted")
}

func TestCollect(t *testing.T) {
	stamps, all := collect(sampleRecords())
	require.Len(t, stamps, 2)
	require.Len(t, all, 2)
	assert.Equal(t, "0 device", all[0].name)
	assert.InDelta(t, 13.0, all[0].points[base.Add(time.Second).UnixNano()], 1e-9)
	assert.Len(t, all[1].points, 1)
}
