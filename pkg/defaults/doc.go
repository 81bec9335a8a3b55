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

// Package defaults provides centralized timing and sizing constants for
// the telemetry service.
//
// # Categories
//
//   - Collection: tick interval and per-tick collection timeout
//   - Query: bounded wait for slow-starting signals, session limits
//   - Server: HTTP server timeouts
//   - Stream: WebSocket keep-alive timings
//   - HTTP client: outbound requests made by the CLI
//   - Kubernetes: ConfigMap read and write timeouts
//   - Persistence: sqlite write timeout and retention
//
// Import and use the constants directly:
//
//	ctx, cancel := context.WithTimeout(ctx, defaults.CollectionTimeout)
//	defer cancel()
package defaults
