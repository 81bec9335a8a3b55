package persistency

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/fleet-telemetry/pkg/measurement"
)

func openTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "history.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestDSN(t *testing.T) {
	assert.Equal(t, "file:/tmp/a.db?_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL", DSN("/tmp/a.db"))
	assert.Equal(t, "file::memory:?cache=shared", DSN("file::memory:?cache=shared"))
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open(context.Background(), "")
	assert.Error(t, err)
}

func TestStore_PersistAndHistory(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		ts := base.Add(time.Duration(i) * time.Second)
		set := measurement.SampleSet{
			"0": measurement.NewScalar(measurement.TypePower, "0", ts).
				Value(int64(1000 + i)).
				SubDeviceValue(0, 500).
				SubDeviceValue(1, int64(500+i)).
				Build(),
			"1": measurement.NewScalar(measurement.TypePower, "1", ts).Value(42).Build(),
		}
		require.NoError(t, s.Persist(ctx, measurement.TypePower, ts, set))
	}

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)

	got, err := s.History(ctx, measurement.TypePower, "0", base.Add(time.Second), 0)
	require.NoError(t, err)
	require.Len(t, got, 6)

	assert.Equal(t, ScopeDevice, got[0].Scope)
	assert.True(t, base.Add(time.Second).Equal(got[0].Timestamp))
	require.NotNil(t, got[0].Value)
	assert.Equal(t, int64(1001), *got[0].Value)
	assert.Equal(t, "tile/0", got[1].Scope)
	assert.Equal(t, "tile/1", got[2].Scope)

	v, ok := got[0].Float()
	assert.True(t, ok)
	assert.InDelta(t, 10.01, v, 1e-9)

	limited, err := s.History(ctx, measurement.TypePower, "0", time.Time{}, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	other, err := s.History(ctx, measurement.TypeEnergy, "0", time.Time{}, 0)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestStore_RawCounterRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	// above the signed range to check the wrap through sqlite integers
	raw := uint64(1<<63 + 5)
	set := measurement.SampleSet{
		"0": measurement.NewScalar(measurement.TypeEnergy, "0", ts).Raw(raw, ts).Build(),
	}
	require.NoError(t, s.Persist(ctx, measurement.TypeEnergy, ts, set))

	got, err := s.Select(ctx, Query{Type: measurement.TypeEnergy, DeviceID: "0", Scope: ScopeDevice})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].Value)
	require.NotNil(t, got[0].Raw)
	assert.Equal(t, raw, *got[0].Raw)
}

func TestStore_PersistEmptySet(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Persist(context.Background(), measurement.TypePower, time.Now(), nil))

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_Prune(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		ts := base.Add(time.Duration(i) * time.Minute)
		set := measurement.SampleSet{
			"0": measurement.NewScalar(measurement.TypeTemperature, "0", ts).Value(4500).Build(),
		}
		require.NoError(t, s.Persist(ctx, measurement.TypeTemperature, ts, set))
	}

	removed, err := s.Prune(ctx, base.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestStore_RunRetention(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := openTestStore(t, WithRetention(time.Hour), WithClock(func() time.Time { return now }))
	ctx := context.Background()

	old := now.Add(-2 * time.Hour)
	require.NoError(t, s.Insert(ctx, []Record{
		{Type: measurement.TypePower, DeviceID: "0", Scope: ScopeDevice, Timestamp: old, Scale: 100},
		{Type: measurement.TypePower, DeviceID: "0", Scope: ScopeDevice, Timestamp: now, Scale: 100},
	}))

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- s.RunRetention(runCtx, 10*time.Millisecond) }()

	assert.Eventually(t, func() bool {
		n, err := s.Count(ctx)
		return err == nil && n == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("retention loop did not stop")
	}
}
