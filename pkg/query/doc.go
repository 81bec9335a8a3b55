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

// Package query serves the read side of the telemetry service: device,
// engine and fabric statistics and latest values, flattened into flat
// result records.
//
// Every query follows the same two-phase sizing protocol:
//
//	n, _, err := svc.MetricsStatistics(ctx, "0", session, nil) // n is the required size
//	out := make([]query.DeviceStats, n)
//	n, win, err := svc.MetricsStatistics(ctx, "0", session, out)
//
// A buffer shorter than the result fails with ErrCodeBufferTooSmall and
// the returned count is the size that will succeed. The HTTP handlers
// run both phases server side.
//
// Statistics are scoped to the caller's session window (see
// pkg/handler). The first statistics query of a session opens its
// window, so it reports little or nothing; later queries report every
// sample collected since.
package query
