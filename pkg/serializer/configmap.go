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

package serializer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	accorev1 "k8s.io/client-go/applyconfigurations/core/v1"

	"github.com/NVIDIA/fleet-telemetry/pkg/defaults"
	"github.com/NVIDIA/fleet-telemetry/pkg/header"
	"github.com/NVIDIA/fleet-telemetry/pkg/k8s/client"
)

const (
	configMapDataPrefix   = "telemetry"
	configMapFormatKey    = "format"
	configMapTimestampKey = "timestamp"
	configMapFieldManager = "telemctl"
	configMapAppName      = "fleet-telemetry"
)

func dataKey(f Format) string {
	return configMapDataPrefix + "." + f.Extension()
}

// ConfigMapWriter publishes a serialized document into a ConfigMap with
// Server-Side Apply, creating or replacing it.
type ConfigMapWriter struct {
	namespace string
	name      string
	format    Format
	client    client.Interface
}

// NewConfigMapWriter creates a writer for namespace/name. The shared
// client is resolved on first Serialize unless WithKubeClient is used.
func NewConfigMapWriter(namespace, name string, format Format) *ConfigMapWriter {
	if format.IsUnknown() {
		slog.Warn("unknown format, defaulting to JSON", "format", format)
		format = FormatJSON
	}
	return &ConfigMapWriter{
		namespace: namespace,
		name:      name,
		format:    format,
	}
}

// WithKubeClient sets the client used to apply the ConfigMap.
func (w *ConfigMapWriter) WithKubeClient(c client.Interface) *ConfigMapWriter {
	w.client = c
	return w
}

// Serialize stores v under data["telemetry.<ext>"] together with the
// format and a timestamp. Documents carrying a header label the
// ConfigMap with their kind and API version.
func (w *ConfigMapWriter) Serialize(ctx context.Context, v any) error {
	writeCtx, cancel := context.WithTimeout(ctx, defaults.ConfigMapWriteTimeout)
	defer cancel()

	c := w.client
	if c == nil {
		var err error
		if c, _, err = client.GetKubeClient(); err != nil {
			return fmt.Errorf("failed to get kubernetes client: %w", err)
		}
	}

	content, err := encode(w.format, v)
	if err != nil {
		return fmt.Errorf("failed to serialize document: %w", err)
	}

	kind, version := "document", "unknown"
	if h, ok := v.(interface {
		GetKind() header.Kind
		GetAPIVersion() string
	}); ok {
		if k := h.GetKind(); k != "" {
			kind = strings.ToLower(k.String())
		}
		if av := h.GetAPIVersion(); av != "" {
			// label values may not contain "/"
			version = strings.ReplaceAll(av, "/", ".")
		}
	}

	configMap := accorev1.ConfigMap(w.name, w.namespace).
		WithLabels(map[string]string{
			"app.kubernetes.io/name":      configMapAppName,
			"app.kubernetes.io/component": kind,
			"app.kubernetes.io/version":   version,
		}).
		WithData(map[string]string{
			dataKey(w.format):     string(content),
			configMapFormatKey:    string(w.format),
			configMapTimestampKey: time.Now().UTC().Format(time.RFC3339),
		})

	slog.Info("applying ConfigMap",
		"namespace", w.namespace,
		"name", w.name,
		"format", w.format)

	// Force takes ownership from a previous field manager (daemon vs CLI).
	_, err = c.CoreV1().ConfigMaps(w.namespace).Apply(writeCtx, configMap, metav1.ApplyOptions{
		FieldManager: configMapFieldManager,
		Force:        true,
	})
	if err != nil {
		return fmt.Errorf("failed to apply ConfigMap %s/%s: %w", w.namespace, w.name, err)
	}
	return nil
}

// Close is a no-op.
func (w *ConfigMapWriter) Close() error {
	return nil
}
