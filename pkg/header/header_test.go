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

package header

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNew(t *testing.T) {
	h := New(
		WithKind(KindInventory),
		WithMetadata("source", "cm://telemetry/inventory"),
	)

	assert.Equal(t, KindInventory, h.GetKind())
	assert.Equal(t, APIVersion, h.GetAPIVersion())
	assert.Equal(t, APIVersion, h.APIVersion)
	assert.Equal(t, "cm://telemetry/inventory", h.GetMetadata()["source"])

	h = New(WithAPIVersion("telemetry.nvidia.com/v1"))
	assert.Equal(t, "telemetry.nvidia.com/v1", h.APIVersion)
}

func TestInit(t *testing.T) {
	var h Header
	h.Init(KindStatisticsReport, APIVersion, "v1.2.3")

	assert.Equal(t, KindStatisticsReport, h.Kind)
	assert.Equal(t, "v1.2.3", h.Metadata["version"])
	_, err := time.Parse(time.RFC3339, h.Metadata["timestamp"])
	require.NoError(t, err)

	h.Init(KindHistory, APIVersion, "")
	assert.NotContains(t, h.Metadata, "version")
}

func TestKindIsValid(t *testing.T) {
	tests := []struct {
		kind Kind
		want bool
	}{
		{KindInventory, true},
		{KindConfig, true},
		{KindStatisticsReport, true},
		{KindMetricsReport, true},
		{KindEngineReport, true},
		{KindFabricReport, true},
		{KindHistory, true},
		{KindSampleScript, true},
		{Kind("Snapshot"), false},
		{Kind(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.IsValid())
		})
	}
}

func TestInlineYAML(t *testing.T) {
	type doc struct {
		Header `yaml:",inline"`
		Items  []string `yaml:"items"`
	}

	in := []byte("kind: Inventory\napiVersion: telemetry.nvidia.com/v1alpha1\nitems: [a, b]\n")
	var d doc
	require.NoError(t, yaml.Unmarshal(in, &d))
	assert.Equal(t, KindInventory, d.Kind)
	assert.Equal(t, []string{"a", "b"}, d.Items)
}
