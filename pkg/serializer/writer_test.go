package serializer

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	Device string
	Value  *int64
	At     time.Time
}

type nested struct {
	Name  string
	Stats map[string]int
	Rows  []row
}

func TestWriterFormats(t *testing.T) {
	doc := sampleDoc{Name: "lab", Devices: []string{"0"}}

	tests := []struct {
		format Format
		want   string
	}{
		{FormatJSON, `"name": "lab"`},
		{FormatYAML, "name: lab"},
		{FormatTable, "Name"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, NewWriter(tt.format, &buf).Serialize(context.Background(), doc))
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestWriterUnknownFormatDefaultsToJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(Format("xml"), &buf).Serialize(context.Background(), map[string]int{"a": 1}))
	assert.Contains(t, buf.String(), `"a": 1`)
}

func TestTableColumns(t *testing.T) {
	v := int64(42)
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	rows := []row{
		{Device: "0", Value: &v, At: at},
		{Device: "1", At: at},
	}

	out, err := encode(FormatTable, rows)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "DEVICE")
	assert.Contains(t, lines[0], "VALUE")
	assert.Contains(t, lines[1], "42")
	assert.Contains(t, lines[1], "2025-01-02T03:04:05Z")
	assert.Contains(t, lines[2], "-")
}

func TestTableFlattensNested(t *testing.T) {
	out, err := encode(FormatTable, nested{
		Name:  "x",
		Stats: map[string]int{"power": 3},
		Rows:  []row{{Device: "0"}},
	})
	require.NoError(t, err)

	s := string(out)
	assert.Contains(t, s, "FIELD")
	assert.Contains(t, s, "Stats.power")
	assert.Contains(t, s, "Rows.[0].Device")
}

func TestTableEmpty(t *testing.T) {
	out, err := encode(FormatTable, struct{}{})
	require.NoError(t, err)
	assert.Equal(t, "<empty>\n", string(out))
}

func TestNewFileWriterOrStdout(t *testing.T) {
	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.yaml")
		s := NewFileWriterOrStdout(FormatYAML, path)
		w, ok := s.(*Writer)
		require.True(t, ok)
		require.NoError(t, w.Serialize(context.Background(), sampleDoc{Name: "f"}))
		require.NoError(t, w.Close())
		require.NoError(t, w.Close())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "name: f")
	})

	t.Run("configmap", func(t *testing.T) {
		s := NewFileWriterOrStdout(FormatJSON, "cm://telemetry/report")
		_, ok := s.(*ConfigMapWriter)
		assert.True(t, ok)
	})

	t.Run("bad configmap uri falls back to stdout", func(t *testing.T) {
		s := NewFileWriterOrStdout(FormatJSON, "cm://only")
		_, ok := s.(*Writer)
		assert.True(t, ok)
	})

	t.Run("empty path is stdout", func(t *testing.T) {
		s := NewFileWriterOrStdout(FormatJSON, "  ")
		_, ok := s.(*Writer)
		assert.True(t, ok)
	})
}
