package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/fleet-telemetry/pkg/measurement"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func at(sec int) time.Time {
	return t0.Add(time.Duration(sec) * time.Second)
}

func counterSet(deviceID string, raw uint64, ts time.Time) measurement.SampleSet {
	return measurement.SampleSet{
		deviceID: measurement.NewScalar(measurement.TypeEnergy, deviceID, ts).Scale(1).Raw(raw, ts).Build(),
	}
}

func currentOf(t *testing.T, d *measurement.Data) *int64 {
	t.Helper()
	require.NotNil(t, d)
	s, ok := d.Scalar()
	require.True(t, ok)
	return s.Current
}

func TestRateHandlerCounterReset(t *testing.T) {
	h := newRateHandler(measurement.TypeEnergy)
	key := windowKey{Session: 1, DeviceID: "0"}
	h.openWindow(key, at(-1))

	out := h.HandleData(counterSet("0", 100, at(0)))
	assert.Nil(t, currentOf(t, out["0"]), "first tick has nothing to derive from")
	assert.False(t, h.Statistics(1, "0").HasData(), "first tick is not accumulated")

	out = h.HandleData(counterSet("0", 150, at(1)))
	require.NotNil(t, currentOf(t, out["0"]))
	assert.Equal(t, int64(50), *currentOf(t, out["0"]))

	out = h.HandleData(counterSet("0", 30, at(2)))
	assert.Nil(t, currentOf(t, out["0"]), "a counter going backwards must not produce a rate")

	st := h.Statistics(1, "0")
	require.NotNil(t, st)
	assert.Equal(t, uint64(1), st.Count)
	assert.Equal(t, int64(50), st.Min)
	assert.Equal(t, int64(50), st.Max)

	out = h.HandleData(counterSet("0", 40, at(3)))
	require.NotNil(t, currentOf(t, out["0"]))
	assert.Equal(t, int64(10), *currentOf(t, out["0"]), "series restarts after the reset")

	st = h.Statistics(1, "0")
	assert.Equal(t, uint64(2), st.Count)
	assert.Equal(t, int64(10), st.Min)
	assert.Equal(t, int64(50), st.Max)
	assert.InDelta(t, 30.0, st.Avg, 1e-9)
}

func TestRateHandlerNeverNegative(t *testing.T) {
	h := newRateHandler(measurement.TypeMemoryRead)
	raws := []uint64{10, 5, 5, 100, 0, 0, 7, 3, 1000}
	for i, r := range raws {
		out := h.HandleData(counterSet("0", r, at(i)))
		if c := currentOf(t, out["0"]); c != nil {
			assert.GreaterOrEqual(t, *c, int64(0), "tick %d", i)
		}
	}
}

func TestRateHandlerZeroElapsedCarriesPrevious(t *testing.T) {
	h := newRateHandler(measurement.TypeEnergy)

	h.HandleData(counterSet("0", 0, at(0)))
	out := h.HandleData(counterSet("0", 200, at(2)))
	require.NotNil(t, currentOf(t, out["0"]))
	assert.Equal(t, int64(100), *currentOf(t, out["0"]))

	out = h.HandleData(counterSet("0", 200, at(2)))
	require.NotNil(t, currentOf(t, out["0"]))
	assert.Equal(t, int64(100), *currentOf(t, out["0"]))
}

func TestRateHandlerSubDeviceReset(t *testing.T) {
	h := newRateHandler(measurement.TypeEnergy)
	build := func(dev, tile0, tile1 uint64, ts time.Time) measurement.SampleSet {
		return measurement.SampleSet{
			"0": measurement.NewScalar(measurement.TypeEnergy, "0", ts).Scale(1).
				Raw(dev, ts).
				SubDeviceRaw(0, tile0, ts).
				SubDeviceRaw(1, tile1, ts).
				Build(),
		}
	}

	h.HandleData(build(100, 40, 60, at(0)))
	out := h.HandleData(build(200, 10, 190, at(1)))

	s, ok := out["0"].Scalar()
	require.True(t, ok)
	require.NotNil(t, s.Current)
	assert.Equal(t, int64(100), *s.Current)
	assert.Nil(t, s.SubDevices[0].Current, "tile 0 was reset")
	require.NotNil(t, s.SubDevices[1].Current)
	assert.Equal(t, int64(130), *s.SubDevices[1].Current)
}

func TestRateHandlerEmptySet(t *testing.T) {
	h := newRateHandler(measurement.TypeEnergy)
	assert.Nil(t, h.HandleData(nil))
	assert.Nil(t, h.HandleData(measurement.SampleSet{}))
	assert.Nil(t, h.previous)
}

func TestRateHandlerOwnsItsCopy(t *testing.T) {
	h := newRateHandler(measurement.TypeEnergy)
	in := counterSet("0", 100, at(0))
	h.HandleData(in)

	s, _ := in["0"].Scalar()
	*s.Raw.Value = 1

	out := h.HandleData(counterSet("0", 150, at(1)))
	require.NotNil(t, currentOf(t, out["0"]))
	assert.Equal(t, int64(50), *currentOf(t, out["0"]))
}

func TestCounterOverflowDetection(t *testing.T) {
	prev := measurement.SampleSet{
		"0": measurement.NewScalar(measurement.TypeEnergy, "0", at(0)).Raw(100, at(0)).Build(),
		"1": measurement.NewScalar(measurement.TypeEnergy, "1", at(0)).Raw(100, at(0)).Build(),
		"2": measurement.NewScalar(measurement.TypeEnergy, "2", at(0)).Value(5).Build(),
	}
	cur := measurement.SampleSet{
		"0": measurement.NewScalar(measurement.TypeEnergy, "0", at(1)).Raw(50, at(1)).Build(),
		"1": measurement.NewScalar(measurement.TypeEnergy, "1", at(1)).Raw(150, at(1)).Build(),
		"2": measurement.NewScalar(measurement.TypeEnergy, "2", at(1)).Raw(1, at(1)).Build(),
	}

	counterOverflowDetection(prev, cur)

	assert.NotContains(t, prev, "0")
	assert.Contains(t, prev, "1")
	assert.Contains(t, prev, "2", "entries without a raw counter are kept")
}

func TestStatsHandlerAccumulatesGauges(t *testing.T) {
	h := newStatsHandler(measurement.TypePower)
	h.openWindow(windowKey{Session: 7, DeviceID: "0"}, at(0))

	for i, v := range []int64{10, 20, 15} {
		h.HandleData(measurement.SampleSet{
			"0": measurement.NewScalar(measurement.TypePower, "0", at(i)).
				Value(v).
				SubDeviceValue(0, v/2).
				Build(),
		})
	}

	st := h.Statistics(7, "0")
	require.NotNil(t, st)
	assert.Equal(t, int64(10), st.Min)
	assert.Equal(t, int64(20), st.Max)
	assert.InDelta(t, 15.0, st.Avg, 1e-9)
	assert.Equal(t, uint64(3), st.Count)
	assert.True(t, st.HasDataOnDevice)
	require.NotNil(t, st.SubDevice(0))
	assert.Equal(t, uint64(3), st.SubDevice(0).Count)

	latest := h.LatestData("0")
	require.NotNil(t, latest)
	assert.Equal(t, int64(15), *currentOf(t, latest))
	assert.Nil(t, h.LatestData("9"))
	assert.Nil(t, h.Statistics(8, "0"))
}

func TestStatsHandlerDropSession(t *testing.T) {
	h := newStatsHandler(measurement.TypePower)
	h.openWindow(windowKey{Session: 1, DeviceID: "0"}, at(0))
	h.openWindow(windowKey{Session: 1, DeviceID: "1"}, at(0))
	h.openWindow(windowKey{Session: 2, DeviceID: "0"}, at(0))

	h.dropSession(1)

	assert.Nil(t, h.Statistics(1, "0"))
	assert.Nil(t, h.Statistics(1, "1"))
	assert.NotNil(t, h.Statistics(2, "0"))
}

func TestParseFamily(t *testing.T) {
	for _, f := range Families {
		got, ok := ParseFamily(string(f))
		assert.True(t, ok)
		assert.Equal(t, f, got)
	}
	_, ok := ParseFamily("gpu")
	assert.False(t, ok)

	assert.Equal(t, FamilyEngine, FamilyOf(measurement.TypeEngineUtilization))
	assert.Equal(t, FamilyFabric, FamilyOf(measurement.TypeFabricThroughput))
	assert.Equal(t, FamilyDevice, FamilyOf(measurement.TypePower))
}
