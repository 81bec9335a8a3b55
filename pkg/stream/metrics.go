package stream

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	streamClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "telemetry_stream_clients",
			Help: "Current number of connected stream clients",
		},
	)

	streamEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemetry_stream_events_total",
			Help: "Total number of events delivered to stream clients",
		},
		[]string{"event"},
	)

	streamDrops = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telemetry_stream_slow_client_drops_total",
			Help: "Total number of clients disconnected because their send buffer was full",
		},
	)
)
