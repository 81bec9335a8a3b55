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

package client

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveKubeconfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	t.Run("argument wins", func(t *testing.T) {
		t.Setenv("KUBECONFIG", "/env/config")
		assert.Equal(t, "/arg/config", resolveKubeconfig("/arg/config"))
	})

	t.Run("env fallback", func(t *testing.T) {
		t.Setenv("KUBECONFIG", "/env/config")
		assert.Equal(t, "/env/config", resolveKubeconfig(""))
	})

	t.Run("in-cluster when nothing found", func(t *testing.T) {
		t.Setenv("KUBECONFIG", "")
		assert.Empty(t, resolveKubeconfig(""))
	})
}

func TestBuildKubeClientInvalidPath(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
	}{
		{
			name:  "missing file",
			setup: func(*testing.T) string { return "/nonexistent/path/to/kubeconfig" },
		},
		{
			name: "garbage file",
			setup: func(t *testing.T) string {
				p := filepath.Join(t.TempDir(), "kubeconfig")
				require.NoError(t, os.WriteFile(p, []byte("invalid yaml content"), 0o600))
				return p
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := BuildKubeClient(tt.setup(t))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "failed to build kube config")
		})
	}
}

func TestForKubeconfigExplicitPathError(t *testing.T) {
	_, err := ForKubeconfig("/nonexistent/kubeconfig")
	assert.Error(t, err)
}

func TestGetKubeClientIsCached(t *testing.T) {
	reset := func() {
		clientOnce = sync.Once{}
		cachedClient = nil
		cachedConfig = nil
		clientErr = nil
	}
	reset()
	t.Cleanup(reset)

	c1, cfg1, err1 := GetKubeClient()
	c2, cfg2, err2 := GetKubeClient()

	// nolint:errorlint // same cached instance
	assert.True(t, err1 == err2)
	assert.Equal(t, c1, c2)
	assert.Equal(t, cfg1, cfg2)
}
