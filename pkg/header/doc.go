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

// Package header provides the envelope shared by every document the
// telemetry service reads or writes: device inventories, statistics and
// metrics reports, history exports and configuration files.
//
// A Header follows Kubernetes resource conventions:
//
//	kind: StatisticsReport
//	apiVersion: telemetry.nvidia.com/v1alpha1
//	metadata:
//	  timestamp: "2025-03-01T12:00:00Z"
//	  version: v0.4.0
//
// Embed it inline in the document type:
//
//	type Report struct {
//	    header.Header `json:",inline" yaml:",inline"`
//	    Devices []DeviceStats `json:"devices" yaml:"devices"`
//	}
//
// and initialize it before writing:
//
//	r.Init(header.KindStatisticsReport, header.APIVersion, version)
//
// The ConfigMap writer in pkg/serializer reads Kind and Metadata through
// GetKind and GetMetadata to label the ConfigMap it applies.
package header
