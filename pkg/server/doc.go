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

// Package server hosts the telemetry HTTP API.
//
// The server is a net/http mux with a middleware chain in front of every
// API route:
//
//   - Prometheus RED metrics per route pattern
//   - API version negotiation (Accept: application/vnd.nvidia.telemetry.v1+json)
//   - Request ID tracking (X-Request-Id, UUID)
//   - Panic recovery
//   - Token bucket rate limiting (golang.org/x/time/rate)
//   - Optional HS256 bearer token auth (github.com/golang-jwt/jwt/v5)
//   - Request logging
//
// System routes (/health, /ready, /metrics) bypass the chain.
//
// # Usage
//
//	s := server.New(
//	    server.WithName("telemd"),
//	    server.WithVersion(version),
//	    server.WithHandler(svc.Handlers()),
//	    server.WithAuth([]byte(secret), "telemd"),
//	)
//	if err := s.Run(ctx); err != nil {
//	    return err
//	}
//
// # Environment
//
//	PORT                      listen port (default 8080)
//	SHUTDOWN_TIMEOUT_SECONDS  graceful shutdown budget (default 30)
//
// # Errors
//
// All API errors share one JSON envelope:
//
//	{
//	  "code": "METRIC_NOT_SUPPORTED",
//	  "message": "device 0 has no fabric throughput capability",
//	  "details": {"device": "0"},
//	  "requestId": "550e8400-e29b-41d4-a716-446655440000",
//	  "timestamp": "2025-12-22T12:00:00Z",
//	  "retryable": false
//	}
//
// Handlers use WriteErrorFromErr to derive status and retry hint from the
// code of a pkg/errors StructuredError.
package server
