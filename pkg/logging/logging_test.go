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

package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLogLevel(tt.input))
		})
	}
}

func TestNewLoggerAttributes(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "telemd", "v1.2.3", slog.LevelInfo)

	l.Info("collector started", "interval", "1s")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "telemd", rec["module"])
	assert.Equal(t, "v1.2.3", rec["version"])
	assert.Equal(t, "collector started", rec["msg"])
	assert.NotContains(t, rec, slog.SourceKey)
}

func TestNewLoggerDebugSource(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "telemd", "dev", slog.LevelDebug)

	l.Debug("tick")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	src, ok := rec[slog.SourceKey].(map[string]any)
	require.True(t, ok, "debug records carry source")
	assert.Equal(t, "logging_test.go", src["file"])
}

func TestNewLoggerFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "telemd", "dev", slog.LevelWarn)

	l.Info("dropped")
	assert.Zero(t, buf.Len())

	l.Warn("kept")
	assert.NotZero(t, buf.Len())
}

func TestNewLogLogger(t *testing.T) {
	assert.NotNil(t, NewLogLogger(slog.LevelError, true))
}
