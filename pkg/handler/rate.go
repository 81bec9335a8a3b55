package handler

import (
	"math"
	"time"

	"k8s.io/utils/ptr"

	"github.com/NVIDIA/fleet-telemetry/pkg/measurement"
)

// rateHandler turns raw monotonic counters into per-second rates and
// accumulates the rates. Exactly one previous tick is retained; a counter
// that goes backwards means the device was reset, so the previous reading
// is discarded instead of producing a rate across the discontinuity.
type rateHandler struct {
	*statsHandler

	// previous is owned by the handler and replaced every tick.
	previous measurement.SampleSet
}

func newRateHandler(t measurement.Type) *rateHandler {
	return &rateHandler{statsHandler: newStatsHandler(t)}
}

func (h *rateHandler) HandleData(set measurement.SampleSet) measurement.SampleSet {
	if len(set) == 0 {
		return nil
	}
	cur := set.Clone()

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.previous != nil {
		counterOverflowDetection(h.previous, cur)
		calculateData(h.previous, cur)
		h.accumulate(cur)
	}
	h.previous = cur
	h.latest = cur
	return cur.Clone()
}

// counterOverflowDetection drops previous readings whose counter is above
// the current one. A device-level decrease drops the whole previous entry
// of that device; a sub-device decrease drops only that sub-device.
func counterOverflowDetection(previous, current measurement.SampleSet) {
	for id, cur := range current {
		prev, ok := previous[id]
		if !ok {
			continue
		}
		ps, pok := prev.Scalar()
		cs, cok := cur.Scalar()
		if !pok || !cok {
			continue
		}
		if decreased(ps.Raw, cs.Raw) {
			delete(previous, id)
			continue
		}
		for sid, csub := range cs.SubDevices {
			psub, ok := ps.SubDevices[sid]
			if !ok || psub == nil || csub == nil {
				continue
			}
			if decreased(psub.Raw, csub.Raw) {
				delete(ps.SubDevices, sid)
			}
		}
	}
}

// calculateData sets the current value of every reading carrying a raw
// counter to the rate since the previous tick. Readings without a usable
// previous counter get no value this tick. A zero elapsed time keeps the
// previous rate.
func calculateData(previous, current measurement.SampleSet) {
	for id, cur := range current {
		cs, ok := cur.Scalar()
		if !ok {
			continue
		}
		var ps *measurement.Scalar
		if prev, ok := previous[id]; ok {
			ps, _ = prev.Scalar()
		}

		if cs.Raw.IsValid() {
			var prevRaw measurement.RawSample
			var prevCur *int64
			if ps != nil {
				prevRaw, prevCur = ps.Raw, ps.Current
			}
			cs.Current = derive(prevRaw, cs.Raw, prevCur, cur.Scale)
		}

		for sid, csub := range cs.SubDevices {
			if csub == nil || !csub.Raw.IsValid() {
				continue
			}
			var prevRaw measurement.RawSample
			var prevCur *int64
			if ps != nil {
				if psub, ok := ps.SubDevices[sid]; ok && psub != nil {
					prevRaw, prevCur = psub.Raw, psub.Current
				}
			}
			csub.Current = derive(prevRaw, csub.Raw, prevCur, cur.Scale)
		}
	}
}

func decreased(prev, cur measurement.RawSample) bool {
	return prev.IsValid() && cur.IsValid() && *prev.Value > *cur.Value
}

// derive returns the rate between two raw readings in 1/scale units per
// second.
func derive(prev, cur measurement.RawSample, prevCurrent *int64, scale int64) *int64 {
	if !prev.IsValid() || !cur.IsValid() || *cur.Value < *prev.Value {
		return nil
	}
	elapsed := cur.Timestamp.Sub(prev.Timestamp)
	switch {
	case elapsed == 0:
		if prevCurrent == nil {
			return nil
		}
		return ptr.To(*prevCurrent)
	case elapsed < 0:
		return nil
	}
	return ptr.To(perSecond(*cur.Value-*prev.Value, elapsed, scale))
}

func perSecond(delta uint64, elapsed time.Duration, scale int64) int64 {
	if scale <= 0 {
		scale = 1
	}
	r := math.Round(float64(delta) * float64(scale) / elapsed.Seconds())
	if r > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(r)
}
