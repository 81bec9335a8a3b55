package stream

import (
	"context"
	"log/slog"
	"time"

	"github.com/NVIDIA/fleet-telemetry/pkg/defaults"
	"github.com/NVIDIA/fleet-telemetry/pkg/device"
	"github.com/NVIDIA/fleet-telemetry/pkg/query"
)

// MetricsSource is the part of query.Service the publisher reads.
type MetricsSource interface {
	Devices() []device.Device
	LatestMetrics(ctx context.Context, deviceID string, out []query.DeviceMetrics) (int, error)
}

var _ MetricsSource = (*query.Service)(nil)

// DeviceMetrics is the payload of a metrics event.
type DeviceMetrics struct {
	DeviceID string                `json:"deviceId"`
	Records  []query.DeviceMetrics `json:"records"`
}

// Publisher periodically pushes the latest metrics of every device.
type Publisher struct {
	hub      *Hub
	source   MetricsSource
	interval time.Duration
}

// NewPublisher returns a Publisher; a non-positive interval uses the
// default.
func NewPublisher(hub *Hub, source MetricsSource, interval time.Duration) *Publisher {
	if interval <= 0 {
		interval = defaults.StreamPublishInterval
	}
	return &Publisher{hub: hub, source: source, interval: interval}
}

// Run publishes until ctx is done.
func (p *Publisher) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if p.hub.Clients() == 0 {
				continue
			}
			p.PublishOnce(ctx)
		}
	}
}

// PublishOnce pushes one metrics event per device and returns how many
// were published.
func (p *Publisher) PublishOnce(ctx context.Context) int {
	published := 0
	for _, d := range p.source.Devices() {
		id := d.ID()
		records, err := query.ReadAll(func(out []query.DeviceMetrics) (int, error) {
			return p.source.LatestMetrics(ctx, id, out)
		})
		if err != nil {
			slog.Debug("skipping device in stream", "device", id, "error", err)
			continue
		}
		if err := p.hub.Publish(ChannelDevice(id), EventMetrics, DeviceMetrics{DeviceID: id, Records: records}); err != nil {
			slog.Warn("failed to publish metrics", "device", id, "error", err)
			continue
		}
		published++
	}
	return published
}
