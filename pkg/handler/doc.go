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

// Package handler routes collected sample sets to per-type aggregation
// handlers and owns the per-session statistics windows.
//
// The Manager builds one handler per measurement type at construction:
//
//   - gauge types get a statistics handler
//   - counter types get a rate handler that turns raw counters into
//     per-second rates before accumulating
//   - engine utilization gets an engine handler keyed by engine handle
//   - fabric throughput gets a fabric handler keyed by link and kind
//
// The type to handler table is never mutated after NewManager returns.
// Each handler guards its own state, so stores of different types never
// contend.
//
// A session's window for a device opens the first time the session asks
// for the window start of a statistics family (device, engine or fabric)
// and only moves when ResetWindow is called. Statistics only include
// samples stamped at or after the window start.
package handler
