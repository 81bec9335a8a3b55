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
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

type sampleDoc struct {
	Name    string   `json:"name" yaml:"name"`
	Devices []string `json:"devices" yaml:"devices"`
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"inventory.json", FormatJSON},
		{"inventory.YAML", FormatYAML},
		{"inventory.yml", FormatYAML},
		{"report.txt", FormatTable},
		{"report.table", FormatTable},
		{"noext", FormatJSON},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatFromPath(tt.path))
		})
	}
}

func TestNewReaderRejectsTable(t *testing.T) {
	_, err := NewReader(FormatTable, strings.NewReader(""))
	assert.Error(t, err)

	_, err = NewReader(Format("xml"), strings.NewReader(""))
	assert.Error(t, err)
}

func TestFromBytes(t *testing.T) {
	doc, err := FromBytes[sampleDoc](FormatYAML, []byte("name: lab\ndevices: [\"0\", \"1\"]\n"))
	require.NoError(t, err)
	assert.Equal(t, "lab", doc.Name)
	assert.Equal(t, []string{"0", "1"}, doc.Devices)

	_, err = FromBytes[sampleDoc](FormatJSON, []byte("{"))
	assert.Error(t, err)
}

func TestFromFileLocal(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "doc.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("name: a\ndevices: [\"0\"]\n"), 0o600))
	jsonPath := filepath.Join(dir, "doc.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"name":"b","devices":["1"]}`), 0o600))

	doc, err := FromFile[sampleDoc](context.Background(), yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "a", doc.Name)

	doc, err = FromFile[sampleDoc](context.Background(), jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "b", doc.Name)

	_, err = FromFile[sampleDoc](context.Background(), filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestFromFileHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, HttpReaderUserAgent, r.Header.Get("User-Agent"))
		switch r.URL.Path {
		case "/inventory.yaml":
			_, _ = w.Write([]byte("name: remote\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	doc, err := FromFile[sampleDoc](context.Background(), srv.URL+"/inventory.yaml?rev=2")
	require.NoError(t, err)
	assert.Equal(t, "remote", doc.Name)

	_, err = FromFile[sampleDoc](context.Background(), srv.URL+"/missing.yaml")
	assert.Error(t, err)
}

func TestFromConfigMap(t *testing.T) {
	c := fake.NewClientset(
		&corev1.ConfigMap{
			ObjectMeta: metav1.ObjectMeta{Name: "inventory", Namespace: "telemetry"},
			Data: map[string]string{
				"format":         "yaml",
				"telemetry.yaml": "name: cm\n",
			},
		},
		&corev1.ConfigMap{
			ObjectMeta: metav1.ObjectMeta{Name: "legacy", Namespace: "telemetry"},
			Data: map[string]string{
				"telemetry.json": `{"name":"fallback"}`,
			},
		},
		&corev1.ConfigMap{
			ObjectMeta: metav1.ObjectMeta{Name: "empty", Namespace: "telemetry"},
		},
	)

	doc, err := FromConfigMap[sampleDoc](context.Background(), c, "telemetry", "inventory")
	require.NoError(t, err)
	assert.Equal(t, "cm", doc.Name)

	doc, err = FromConfigMap[sampleDoc](context.Background(), c, "telemetry", "legacy")
	require.NoError(t, err)
	assert.Equal(t, "fallback", doc.Name)

	_, err = FromConfigMap[sampleDoc](context.Background(), c, "telemetry", "empty")
	assert.Error(t, err)

	_, err = FromConfigMap[sampleDoc](context.Background(), c, "telemetry", "absent")
	assert.Error(t, err)
}

func TestParseConfigMapURI(t *testing.T) {
	tests := []struct {
		name          string
		uri           string
		wantNamespace string
		wantName      string
		wantErr       bool
	}{
		{name: "valid", uri: "cm://telemetry/inventory", wantNamespace: "telemetry", wantName: "inventory"},
		{name: "trims spaces", uri: "cm://telemetry / inventory ", wantNamespace: "telemetry", wantName: "inventory"},
		{name: "missing scheme", uri: "telemetry/inventory", wantErr: true},
		{name: "wrong scheme", uri: "http://telemetry/inventory", wantErr: true},
		{name: "no name", uri: "cm://telemetry", wantErr: true},
		{name: "empty namespace", uri: "cm:///inventory", wantErr: true},
		{name: "only scheme", uri: "cm://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ns, name, err := parseConfigMapURI(tt.uri)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantNamespace, ns)
			assert.Equal(t, tt.wantName, name)
		})
	}
}
