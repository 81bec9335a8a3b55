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

// Package serializer reads and writes telemetry documents.
//
// Formats:
//   - JSON: indented, machine readable
//   - YAML: inventories, configuration and sample scripts
//   - Table: human readable CLI output (write only)
//
// Locations accepted by FromFile and NewFileWriterOrStdout:
//   - local paths, format from the extension
//   - http(s) URLs (read only)
//   - cm://namespace/name ConfigMaps, stored under data["telemetry.<ext>"]
//
// Loading an inventory:
//
//	inv, err := serializer.FromFile[device.Inventory](ctx, "cm://telemetry/inventory")
//
// Writing a report:
//
//	w := serializer.NewFileWriterOrStdout(serializer.FormatTable, "")
//	if err := w.Serialize(ctx, report); err != nil {
//	    return err
//	}
//
// HTTP handlers answer with RespondJSON, which encodes before writing
// headers so a failed encode never produces a partial body.
package serializer
