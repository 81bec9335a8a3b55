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

// Package device describes the GPUs the telemetry service knows about.
//
// The aggregation core only needs a read-only view of the fleet: how many
// tiles a device has, which capabilities it supports, its engines and
// its fabric ports. That view is the Directory interface. The Static
// implementation is built from an inventory document that can live in a
// local file, behind an HTTP URL or in a ConfigMap:
//
//	dir, err := device.LoadInventory(ctx, "cm://telemetry/gpu-inventory")
//
// Inventory format:
//
//	kind: Inventory
//	apiVersion: telemetry.nvidia.com/v1alpha1
//	devices:
//	  - id: "0"
//	    pciAddress: "0000:4d:00.0"
//	    fabricId: 1
//	    subDevices: 2
//	    capabilities: [frequency, power, energy, engine_utilization]
//	    engines:
//	      - handle: 4096
//	        type: compute
//	        subDevice: 0
//	    fabricThroughput:
//	      - id: 0
//	        attachId: 0
//	        remoteFabricId: 2
//	        remoteAttachId: 1
//	        kind: received
package device
