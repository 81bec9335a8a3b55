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

// Package statistics folds streams of samples into running min, max,
// average and count.
//
// Stats tracks one measurement type for one device within one session
// window, with an independent Summary per sub-device. Collection tracks
// keyed items (engine handles, fabric throughput keys) within a window.
//
// Absent values are skipped and samples stamped before the window start
// are ignored. Nothing here performs I/O or fails; callers provide
// locking.
package statistics
