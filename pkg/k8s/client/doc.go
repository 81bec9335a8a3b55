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

// Package client provides the Kubernetes client used to read device
// inventories from, and publish telemetry reports to, ConfigMaps.
//
// The shared client is built once from automatic discovery:
//
//   - KUBECONFIG environment variable
//   - ~/.kube/config
//   - in-cluster service account
//
// Usage:
//
//	c, err := client.ForKubeconfig("")
//	if err != nil {
//	    return fmt.Errorf("failed to get kubernetes client: %w", err)
//	}
//	cm, err := c.CoreV1().ConfigMaps("telemetry").Get(ctx, "inventory", metav1.GetOptions{})
//
// An explicit kubeconfig path always builds a new client.
package client
