// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package defaults

import "time"

// Collection timings.
const (
	// CollectionInterval is the default period between two collection ticks.
	CollectionInterval = 1 * time.Second

	// CollectionTimeout bounds a single tick of a collection source.
	// Must stay below CollectionInterval multiples to avoid tick pile-up.
	CollectionTimeout = 5 * time.Second
)

// Query timings and limits.
const (
	// DataWaitTimeout bounds the wait for slow-starting signals (RAS, EU)
	// before a statistics query gives up on them.
	DataWaitTimeout = 30 * time.Second

	// DataWaitInterval is the poll period during that wait.
	DataWaitInterval = 1 * time.Second

	// MaxStatisticsSessions is the default number of concurrent
	// statistics sessions kept per daemon.
	MaxStatisticsSessions = 3

	// MeasurementScale is the default fixed point divisor of reported values.
	MeasurementScale = 100

	// QueryHandlerTimeout is the timeout for one HTTP query request.
	// Longer than DataWaitTimeout so a full wait can complete.
	QueryHandlerTimeout = 45 * time.Second
)

// Server timeouts for HTTP server configuration.
const (
	// ServerReadTimeout is the maximum duration for reading request headers.
	ServerReadTimeout = 10 * time.Second

	// ServerReadHeaderTimeout prevents slow header attacks.
	ServerReadHeaderTimeout = 5 * time.Second

	// ServerWriteTimeout is the maximum duration for writing a response.
	ServerWriteTimeout = 60 * time.Second

	// ServerIdleTimeout is the maximum duration to wait for the next request.
	ServerIdleTimeout = 120 * time.Second

	// ServerShutdownTimeout is the maximum duration for graceful shutdown.
	ServerShutdownTimeout = 30 * time.Second
)

// Stream timings for WebSocket clients.
const (
	// StreamWriteWait is the time allowed to write one message.
	StreamWriteWait = 10 * time.Second

	// StreamPongWait is the time allowed to read the next pong.
	StreamPongWait = 60 * time.Second

	// StreamPingPeriod must be less than StreamPongWait.
	StreamPingPeriod = (StreamPongWait * 9) / 10

	// StreamPublishInterval is how often latest metrics are pushed.
	StreamPublishInterval = 2 * time.Second
)

// HTTP client timeouts for outbound requests.
const (
	// HTTPClientTimeout is the default total timeout for HTTP requests.
	HTTPClientTimeout = 60 * time.Second

	// HTTPConnectTimeout is the timeout for establishing connections.
	HTTPConnectTimeout = 5 * time.Second

	// HTTPTLSHandshakeTimeout is the timeout for TLS handshake.
	HTTPTLSHandshakeTimeout = 5 * time.Second

	// HTTPResponseHeaderTimeout is the timeout for reading response headers.
	// Statistics requests may wait for slow-starting signals server side.
	HTTPResponseHeaderTimeout = 50 * time.Second

	// HTTPIdleConnTimeout is the timeout for idle connections in the pool.
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPKeepAlive is the keep-alive duration for connections.
	HTTPKeepAlive = 30 * time.Second
)

// Kubernetes timeouts for ConfigMap operations.
const (
	// ConfigMapReadTimeout is the timeout for reading inventory ConfigMaps.
	ConfigMapReadTimeout = 15 * time.Second

	// ConfigMapWriteTimeout is the timeout for writing report ConfigMaps.
	ConfigMapWriteTimeout = 30 * time.Second
)

// Persistence timings.
const (
	// PersistTimeout bounds one sample set write.
	PersistTimeout = 2 * time.Second

	// HistoryRetention is how long persisted samples are kept.
	HistoryRetention = 24 * time.Hour

	// HistoryPruneInterval is the period of the retention sweep.
	HistoryPruneInterval = 10 * time.Minute
)
