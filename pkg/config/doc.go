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

// Package config loads the operator configuration of the telemetry daemon.
//
// Configuration is layered, later layers winning:
//
//  1. built-in defaults from pkg/defaults
//  2. a YAML or JSON document (file, URL or cm://namespace/name)
//  3. a .env file in the working directory, if present
//  4. TELEM_* environment variables
//
// Example document:
//
//	kind: Config
//	apiVersion: telemetry.nvidia.com/v1alpha1
//	inventory: cm://telemetry/gpu-inventory
//	metrics: ["*"]
//	disabledMetrics: ["perf"]
//	maxSessions: 3
//	collectionInterval: 1s
//	wait:
//	  timeout: 30s
//	  interval: 1s
//	persistence:
//	  dsn: /var/lib/telemd/history.db
//	  retention: 24h
//	sources:
//	  - name: rack-a
//	    path: /etc/telemd/rack-a.yaml
//
// Metric patterns accept the wildcards of measurement.MatchTypes. A
// pattern that matches nothing fails Load.
package config
