package query

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"k8s.io/utils/ptr"

	"github.com/NVIDIA/fleet-telemetry/pkg/config"
	"github.com/NVIDIA/fleet-telemetry/pkg/device"
	"github.com/NVIDIA/fleet-telemetry/pkg/handler"
	"github.com/NVIDIA/fleet-telemetry/pkg/measurement"
)

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func at(sec int) time.Time {
	return base.Add(time.Duration(sec) * time.Second)
}

type fixedMetrics []measurement.Type

func (m fixedMetrics) EnabledMetrics() []measurement.Type { return m }

// testClock is a manually advanced clock shared by the manager and the
// service.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

var testLink = measurement.FabricLinkKey{AttachID: 1, RemoteFabricID: 20, RemoteAttachID: 3}

func testDirectory(t *testing.T, extra ...device.Spec) *device.Static {
	t.Helper()
	specs := []device.Spec{
		{
			ID:         "0",
			FabricID:   10,
			SubDevices: 2,
			Capabilities: []measurement.Capability{
				measurement.Capability(measurement.TypePower),
				measurement.Capability(measurement.TypeEnergy),
				measurement.CapabilityFrequency,
				measurement.CapabilityEUActiveStallIdle,
				measurement.Capability(measurement.TypeEngineUtilization),
				measurement.Capability(measurement.TypeFabricThroughput),
			},
			Engines: []device.EngineInfo{
				{Handle: 100, Type: measurement.EngineTypeCompute},
				{Handle: 101, Type: measurement.EngineTypeCopy, SubDeviceID: ptr.To(uint32(1))},
			},
			FabricThroughput: []device.FabricThroughputInfo{
				{ID: 0, FabricLinkKey: testLink, Kind: measurement.FabricReceived},
				{ID: 1, FabricLinkKey: testLink, Kind: measurement.FabricTransmitted},
				{ID: 2, FabricLinkKey: testLink, Kind: measurement.FabricReceivedCounter},
				{ID: 3, FabricLinkKey: testLink, Kind: measurement.FabricTransmittedCounter},
			},
		},
		{
			ID:           "1",
			FabricID:     20,
			Capabilities: []measurement.Capability{measurement.Capability(measurement.TypePower)},
		},
	}
	dir, err := device.NewStatic(append(specs, extra...)...)
	require.NoError(t, err)
	return dir
}

type fixture struct {
	svc   *Service
	mgr   *handler.Manager
	clock *testClock
}

func newFixture(t *testing.T, enabled []measurement.Type, opts ...Option) *fixture {
	t.Helper()
	clock := &testClock{now: base}
	mgr := handler.NewManager(handler.WithClock(clock.Now))
	opts = append([]Option{
		WithClock(clock.Now),
		WithWaitPolicy(config.WaitPolicy{}),
	}, opts...)
	return &fixture{
		svc:   NewService(testDirectory(t), mgr, fixedMetrics(enabled), opts...),
		mgr:   mgr,
		clock: clock,
	}
}

func (f *fixture) store(t *testing.T, mt measurement.Type, ts time.Time, data ...*measurement.Data) {
	t.Helper()
	set := measurement.SampleSet{}
	for _, d := range data {
		set[d.DeviceID] = d
	}
	require.NoError(t, f.mgr.StoreMeasurementData(context.Background(), mt, ts, set))
}

func allMetrics() []measurement.Type {
	return append([]measurement.Type(nil), measurement.Types...)
}
