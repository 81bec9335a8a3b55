package persistency

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/NVIDIA/fleet-telemetry/pkg/measurement"
)

// Scope prefixes of persisted rows.
const (
	ScopeDevice = "device"
	ScopeTile   = "tile"
	ScopeEngine = "engine"
	ScopeFabric = "fabric"
)

// Record is one persisted value.
type Record struct {
	Type      measurement.Type `json:"type" yaml:"type"`
	DeviceID  string           `json:"deviceId" yaml:"deviceId"`
	Scope     string           `json:"scope" yaml:"scope"`
	Timestamp time.Time        `json:"timestamp" yaml:"timestamp"`
	Value     *int64           `json:"value,omitempty" yaml:"value,omitempty"`
	Raw       *uint64          `json:"raw,omitempty" yaml:"raw,omitempty"`
	Scale     int64            `json:"scale" yaml:"scale"`
}

// Float returns Value divided by Scale, or false when there is no value.
func (r Record) Float() (float64, bool) {
	if r.Value == nil {
		return 0, false
	}
	if r.Scale <= 0 {
		return float64(*r.Value), true
	}
	return float64(*r.Value) / float64(r.Scale), true
}

func tileScope(id uint32) string {
	return ScopeTile + "/" + strconv.FormatUint(uint64(id), 10)
}

func engineScope(handle uint64) string {
	return ScopeEngine + "/" + strconv.FormatUint(handle, 10)
}

func fabricScope(k measurement.FabricThroughputKey) string {
	return fmt.Sprintf("%s/%d.%d.%d/%s", ScopeFabric, k.AttachID, k.RemoteFabricID, k.RemoteAttachID, k.Kind)
}

// IsDeviceScope reports whether scope is the device level record.
func IsDeviceScope(scope string) bool {
	return scope == ScopeDevice
}

// ScopeKind returns the leading part of a scope, e.g. "tile".
func ScopeKind(scope string) string {
	kind, _, _ := strings.Cut(scope, "/")
	return kind
}

// Flatten turns a processed sample set into records ordered by device
// then scope. Scalars without a value or raw reading are skipped.
func Flatten(t measurement.Type, ts time.Time, set measurement.SampleSet) []Record {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []Record
	for _, id := range ids {
		d := set[id]
		if d == nil {
			continue
		}
		at := d.Timestamp
		if at.IsZero() {
			at = ts
		}
		base := Record{Type: t, DeviceID: id, Timestamp: at, Scale: d.Scale}

		switch p := d.Payload.(type) {
		case *measurement.Scalar:
			out = appendScalar(out, base, ScopeDevice, p.Current, p.Raw)
			tiles := make([]uint32, 0, len(p.SubDevices))
			for tile := range p.SubDevices {
				tiles = append(tiles, tile)
			}
			sort.Slice(tiles, func(i, j int) bool { return tiles[i] < tiles[j] })
			for _, tile := range tiles {
				sub := p.SubDevices[tile]
				if sub == nil {
					continue
				}
				out = appendScalar(out, base, tileScope(tile), sub.Current, sub.Raw)
			}

		case *measurement.EngineCollection:
			handles := make([]uint64, 0, len(p.Engines))
			for h := range p.Engines {
				handles = append(handles, h)
			}
			sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
			for _, h := range handles {
				e := p.Engines[h]
				if e == nil || e.Current == nil {
					continue
				}
				r := base
				r.Scope = engineScope(h)
				r.Value = e.Current
				out = append(out, r)
			}

		case *measurement.FabricCollection:
			for _, k := range p.ThroughputKeys() {
				v := p.Throughput[k]
				if v == nil {
					continue
				}
				r := base
				r.Scope = fabricScope(k)
				r.Value = v
				if k.Kind.IsCounter() {
					r.Scale = 1
				}
				out = append(out, r)
			}
		}
	}
	return out
}

func appendScalar(out []Record, base Record, scope string, current *int64, raw measurement.RawSample) []Record {
	if current == nil && !raw.IsValid() {
		return out
	}
	r := base
	r.Scope = scope
	if current != nil {
		v := *current
		r.Value = &v
	}
	if raw.IsValid() {
		v := *raw.Value
		r.Raw = &v
	}
	return append(out, r)
}
