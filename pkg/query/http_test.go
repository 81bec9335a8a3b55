package query

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/ptr"

	"github.com/NVIDIA/fleet-telemetry/pkg/handler"
	"github.com/NVIDIA/fleet-telemetry/pkg/header"
	"github.com/NVIDIA/fleet-telemetry/pkg/measurement"
	"github.com/NVIDIA/fleet-telemetry/pkg/persistency"
	"github.com/NVIDIA/fleet-telemetry/pkg/server"
)

type fakeHistory struct {
	records []persistency.Record
	since   time.Time
	limit   int
}

func (h *fakeHistory) History(_ context.Context, t measurement.Type, deviceID string, since time.Time, limit int) ([]persistency.Record, error) {
	h.since = since
	h.limit = limit
	var out []persistency.Record
	for _, r := range h.records {
		if r.Type == t && r.DeviceID == deviceID {
			out = append(out, r)
		}
	}
	return out, nil
}

func newMux(svc *Service) *http.ServeMux {
	mux := http.NewServeMux()
	for pattern, h := range svc.Handlers() {
		mux.HandleFunc(pattern, h)
	}
	return mux
}

func do(t *testing.T, mux http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHandlers_Devices(t *testing.T) {
	f := newFixture(t, allMetrics(), WithVersion("v1.2.3"))
	w := do(t, newMux(f.svc), http.MethodGet, "/v1/devices")
	require.Equal(t, http.StatusOK, w.Code)

	rep := decode[Report[DeviceInfo]](t, w)
	assert.Equal(t, header.KindInventory, rep.Kind)
	assert.Equal(t, "v1.2.3", rep.Metadata["version"])
	require.Len(t, rep.Records, 2)
	assert.Equal(t, "0", rep.Records[0].ID)
	assert.Equal(t, uint32(2), rep.Records[0].SubDevices)
	assert.Equal(t, 2, rep.Records[0].Engines)
	assert.Contains(t, rep.Records[0].Capabilities, measurement.CapabilityFrequency)
}

func TestHandlers_Statistics(t *testing.T) {
	f := newFixture(t, []measurement.Type{measurement.TypePower})
	mux := newMux(f.svc)

	w := do(t, mux, http.MethodGet, "/v1/devices/0/statistics?session=4")
	require.Equal(t, http.StatusOK, w.Code)

	f.store(t, measurement.TypePower, at(1), measurement.NewScalar(measurement.TypePower, "0", at(1)).Value(700).Build())

	w = do(t, mux, http.MethodGet, "/v1/devices/0/statistics?session=4")
	require.Equal(t, http.StatusOK, w.Code)

	rep := decode[Report[DeviceStats]](t, w)
	assert.Equal(t, header.KindStatisticsReport, rep.Kind)
	require.NotNil(t, rep.Session)
	assert.Equal(t, uint64(4), *rep.Session)
	require.NotNil(t, rep.Window)
	assert.True(t, base.Equal(rep.Window.Begin))
	require.Len(t, rep.Records, 3)
	require.Len(t, rep.Records[0].Data, 1)
	assert.Equal(t, int64(700), rep.Records[0].Data[0].Value)
}

func TestHandlers_Errors(t *testing.T) {
	f := newFixture(t, []measurement.Type{measurement.TypePower})
	mux := newMux(f.svc)

	tests := []struct {
		name   string
		method string
		target string
		status int
		code   string
	}{
		{"unknown device", http.MethodGet, "/v1/devices/9/statistics", http.StatusNotFound, "DEVICE_NOT_FOUND"},
		{"bad session", http.MethodGet, "/v1/devices/0/statistics?session=x", http.StatusBadRequest, "INVALID_REQUEST"},
		{"metric disabled", http.MethodGet, "/v1/devices/0/engines/statistics", http.StatusForbidden, "METRIC_NOT_ENABLED"},
		{"bad family", http.MethodPost, "/v1/devices/0/statistics/reset?family=gpu", http.StatusBadRequest, "INVALID_REQUEST"},
		{"history disabled", http.MethodGet, "/v1/devices/0/history?type=power", http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"history bad type", http.MethodGet, "/v1/devices/0/history?type=watts", http.StatusBadRequest, "INVALID_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, mux, tt.method, tt.target)
			assert.Equal(t, tt.status, w.Code)
			resp := decode[server.ErrorResponse](t, w)
			assert.Equal(t, tt.code, resp.Code)
			assert.NotEmpty(t, resp.RequestID)
		})
	}
}

func TestHandlers_NotSupported(t *testing.T) {
	f := newFixture(t, allMetrics())
	w := do(t, newMux(f.svc), http.MethodGet, "/v1/devices/1/fabric/throughput")
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestHandlers_Reset(t *testing.T) {
	f := newFixture(t, allMetrics())
	mux := newMux(f.svc)
	f.clock.Set(at(30))

	w := do(t, mux, http.MethodPost, "/v1/devices/0/statistics/reset?session=2")
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[ResetResult](t, w)
	assert.Equal(t, uint64(2), res.Session)
	assert.Len(t, res.Windows, len(handler.Families))
	assert.True(t, at(30).Equal(res.Windows[handler.FamilyEngine]))

	w = do(t, mux, http.MethodPost, "/v1/devices/0/statistics/reset?family=fabric")
	require.Equal(t, http.StatusOK, w.Code)
	res = decode[ResetResult](t, w)
	assert.Len(t, res.Windows, 1)

	w = do(t, mux, http.MethodGet, "/v1/devices/0/statistics/reset")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHandlers_EnginesAndFabric(t *testing.T) {
	f := newFixture(t, allMetrics())
	mux := newMux(f.svc)

	f.store(t, measurement.TypeEngineUtilization, at(1), engineData(1, map[uint64]int64{100: 9000}))
	f.store(t, measurement.TypeFabricThroughput, at(1), fabricData(1, 10, 20))
	f.store(t, measurement.TypeFabricThroughput, at(2), fabricData(2, 30, 60))

	w := do(t, mux, http.MethodGet, "/v1/devices/0/engines/utilization")
	require.Equal(t, http.StatusOK, w.Code)
	eng := decode[Report[EngineUtilization]](t, w)
	require.Len(t, eng.Records, 1)
	assert.Equal(t, int64(9000), eng.Records[0].Value)

	w = do(t, mux, http.MethodGet, "/v1/devices/0/fabric/throughput")
	require.Equal(t, http.StatusOK, w.Code)
	fab := decode[Report[FabricThroughput]](t, w)
	assert.Len(t, fab.Records, 4)

	w = do(t, mux, http.MethodGet, "/v1/devices/0/fabric/links")
	require.Equal(t, http.StatusOK, w.Code)
	links := decode[Report[FabricLink]](t, w)
	require.Len(t, links.Records, 1)
	assert.Equal(t, "1", links.Records[0].RemoteDeviceID)

	w = do(t, mux, http.MethodGet, "/v1/devices/0/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	metrics := decode[Report[DeviceMetrics]](t, w)
	assert.Len(t, metrics.Records, 3)
}

func TestHandlers_History(t *testing.T) {
	hist := &fakeHistory{records: []persistency.Record{
		{Type: measurement.TypePower, DeviceID: "0", Scope: persistency.ScopeDevice, Timestamp: at(1), Value: ptr.To(int64(1)), Scale: 100},
		{Type: measurement.TypePower, DeviceID: "1", Scope: persistency.ScopeDevice, Timestamp: at(1), Value: ptr.To(int64(2)), Scale: 100},
		{Type: measurement.TypeEnergy, DeviceID: "0", Scope: persistency.ScopeDevice, Timestamp: at(1), Raw: ptr.To(uint64(3)), Scale: 100},
	}}
	f := newFixture(t, allMetrics(), WithHistory(hist))
	f.clock.Set(at(3600))
	mux := newMux(f.svc)

	w := do(t, mux, http.MethodGet, "/v1/devices/0/history?type=power&since=10m&limit=5")
	require.Equal(t, http.StatusOK, w.Code)
	rep := decode[Report[persistency.Record]](t, w)
	assert.Equal(t, header.KindHistory, rep.Kind)
	assert.Equal(t, "power", rep.Metadata["type"])
	require.Len(t, rep.Records, 1)
	assert.Equal(t, int64(1), *rep.Records[0].Value)
	assert.True(t, at(3000).Equal(hist.since))
	assert.Equal(t, 5, hist.limit)

	w = do(t, mux, http.MethodGet, "/v1/devices/0/history?type=power&since=2025-03-01T12:00:30Z")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, at(30).Equal(hist.since))

	w = do(t, mux, http.MethodGet, "/v1/devices/0/history?type=power&since=yesterday")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, mux, http.MethodGet, "/v1/devices/0/history?type=power&limit=-1")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, mux, http.MethodGet, "/v1/devices/0/history?type=frequency")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[Report[persistency.Record]](t, w).Records)
}

func TestParseSince(t *testing.T) {
	now := at(100)
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{in: "", want: time.Time{}},
		{in: "30s", want: at(70)},
		{in: "-30s", want: at(70)},
		{in: "2025-03-01T12:00:05Z", want: at(5)},
		{in: "soon", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseSince(tt.in, now)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got))
		})
	}
}
