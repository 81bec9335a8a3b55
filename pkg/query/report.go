package query

import (
	"fmt"

	"github.com/NVIDIA/fleet-telemetry/pkg/device"
	"github.com/NVIDIA/fleet-telemetry/pkg/errors"
	"github.com/NVIDIA/fleet-telemetry/pkg/header"
	"github.com/NVIDIA/fleet-telemetry/pkg/measurement"
)

// maxSizingAttempts bounds ReadAll when the result keeps growing between
// the sizing and the filling call.
const maxSizingAttempts = 3

// ReadAll runs the two-phase sizing protocol of fill and returns the
// filled records.
func ReadAll[T any](fill func(out []T) (int, error)) ([]T, error) {
	n, err := fill(nil)
	if err != nil {
		return nil, err
	}
	for range maxSizingAttempts {
		out := make([]T, n)
		got, err := fill(out)
		if errors.IsCode(err, errors.ErrCodeBufferTooSmall) {
			n = got
			continue
		}
		if err != nil {
			return nil, err
		}
		return out[:got], nil
	}
	return nil, errors.New(errors.ErrCodeInternal,
		fmt.Sprintf("result size kept changing after %d attempts", maxSizingAttempts))
}

// Report is the envelope of a query result.
type Report[T any] struct {
	header.Header `json:",inline" yaml:",inline"`

	DeviceID string  `json:"deviceId,omitempty" yaml:"deviceId,omitempty"`
	Session  *uint64 `json:"session,omitempty" yaml:"session,omitempty"`
	Window   *Window `json:"window,omitempty" yaml:"window,omitempty"`
	Records  []T     `json:"records" yaml:"records"`
}

func (s *Service) newReport(kind header.Kind, deviceID string) header.Header {
	var h header.Header
	h.Init(kind, header.APIVersion, s.version)
	if deviceID != "" {
		h.Metadata["device"] = deviceID
	}
	return h
}

// DeviceInfo describes one device of the directory.
type DeviceInfo struct {
	ID                   string                   `json:"id" yaml:"id"`
	PCIAddress           string                   `json:"pciAddress,omitempty" yaml:"pciAddress,omitempty"`
	FabricID             uint32                   `json:"fabricId" yaml:"fabricId"`
	SubDevices           uint32                   `json:"subDevices" yaml:"subDevices"`
	Engines              int                      `json:"engines" yaml:"engines"`
	FabricThroughputInfo int                      `json:"fabricThroughputInfo" yaml:"fabricThroughputInfo"`
	Capabilities         []measurement.Capability `json:"capabilities" yaml:"capabilities"`
}

// Describe returns the DeviceInfo of d.
func Describe(d device.Device) DeviceInfo {
	return DeviceInfo{
		ID:                   d.ID(),
		PCIAddress:           d.PCIAddress(),
		FabricID:             d.FabricID(),
		SubDevices:           d.SubDeviceCount(),
		Engines:              d.EngineCount(),
		FabricThroughputInfo: d.FabricThroughputInfoCount(),
		Capabilities:         d.Capabilities().List(),
	}
}
