package serializer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/NVIDIA/fleet-telemetry/pkg/defaults"
	"github.com/NVIDIA/fleet-telemetry/pkg/k8s/client"
)

// Reader decodes JSON or YAML from an io.Reader. Table output is write only.
type Reader struct {
	format Format
	input  io.Reader
	closer io.Closer
}

// NewReader creates a Reader over input. If input is an io.Closer,
// Close releases it.
func NewReader(format Format, input io.Reader) (*Reader, error) {
	if format.IsUnknown() {
		return nil, fmt.Errorf("unknown format: %s", format)
	}
	if format == FormatTable {
		return nil, fmt.Errorf("table format does not support deserialization")
	}

	r := &Reader{
		format: format,
		input:  input,
	}
	if closer, ok := input.(io.Closer); ok {
		r.closer = closer
	}
	return r, nil
}

// NewFileReader opens a local file for decoding.
func NewFileReader(format Format, filePath string) (*Reader, error) {
	if format.IsUnknown() || format == FormatTable {
		return nil, fmt.Errorf("unsupported format for reading: %s", format)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return &Reader{format: format, input: file, closer: file}, nil
}

// Deserialize decodes the input into v, which must be a pointer.
func (r *Reader) Deserialize(v any) error {
	if r == nil {
		return fmt.Errorf("reader is nil")
	}
	if r.input == nil {
		return fmt.Errorf("input source is nil")
	}

	switch r.format {
	case FormatJSON:
		if err := json.NewDecoder(r.input).Decode(v); err != nil {
			return fmt.Errorf("failed to decode JSON: %w", err)
		}
		return nil
	case FormatYAML:
		if err := yaml.NewDecoder(r.input).Decode(v); err != nil {
			return fmt.Errorf("failed to decode YAML: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported format for deserialization: %s", r.format)
	}
}

// Close releases the underlying input. Safe to call more than once.
func (r *Reader) Close() error {
	if r == nil || r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}

// FromBytes decodes data in the given format into a new T.
func FromBytes[T any](format Format, data []byte) (*T, error) {
	reader, err := NewReader(format, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	var v T
	if err := reader.Deserialize(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

// FromFile loads a T from a local path, an http(s) URL or a
// cm://namespace/name ConfigMap. The format comes from the extension;
// ConfigMaps record their own.
func FromFile[T any](ctx context.Context, path string) (*T, error) {
	return FromFileWithKubeconfig[T](ctx, path, "")
}

// FromFileWithKubeconfig is FromFile with an explicit kubeconfig for
// ConfigMap locations.
func FromFileWithKubeconfig[T any](ctx context.Context, path, kubeconfig string) (*T, error) {
	switch {
	case strings.HasPrefix(path, ConfigMapURIScheme):
		namespace, name, err := parseConfigMapURI(path)
		if err != nil {
			return nil, err
		}
		c, err := client.ForKubeconfig(kubeconfig)
		if err != nil {
			return nil, fmt.Errorf("failed to get kubernetes client: %w", err)
		}
		return FromConfigMap[T](ctx, c, namespace, name)

	case strings.HasPrefix(path, "http://"), strings.HasPrefix(path, "https://"):
		data, err := NewHttpReader().ReadWithContext(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %q: %w", path, err)
		}
		u, err := url.Parse(path)
		if err != nil {
			return nil, fmt.Errorf("invalid url %q: %w", path, err)
		}
		v, err := FromBytes[T](FormatFromPath(u.Path), data)
		if err != nil {
			return nil, fmt.Errorf("failed to deserialize object from %q: %w", path, err)
		}
		return v, nil
	}

	reader, err := NewFileReader(FormatFromPath(path), path)
	if err != nil {
		return nil, fmt.Errorf("failed to create reader for %q: %w", path, err)
	}
	defer func() {
		if closeErr := reader.Close(); closeErr != nil {
			slog.Warn("failed to close reader", "error", closeErr)
		}
	}()

	var v T
	if err := reader.Deserialize(&v); err != nil {
		return nil, fmt.Errorf("failed to deserialize object from %q: %w", path, err)
	}

	slog.Debug("loaded object from file", "path", path)
	return &v, nil
}

// FromConfigMap decodes the document stored by ConfigMapWriter.
func FromConfigMap[T any](ctx context.Context, c client.Interface, namespace, name string) (*T, error) {
	readCtx, cancel := context.WithTimeout(ctx, defaults.ConfigMapReadTimeout)
	defer cancel()

	cm, err := c.CoreV1().ConfigMaps(namespace).Get(readCtx, name, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get ConfigMap %s/%s: %w", namespace, name, err)
	}

	format := FormatYAML
	if f, ok := cm.Data[configMapFormatKey]; ok {
		format = Format(f)
	}

	content, ok := cm.Data[dataKey(format)]
	if !ok {
		found := false
		for _, f := range []Format{FormatYAML, FormatJSON} {
			if content, found = cm.Data[dataKey(f)]; found {
				format = f
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("ConfigMap %s/%s has no %s data", namespace, name, configMapDataPrefix)
		}
	}

	slog.Debug("reading from ConfigMap",
		"namespace", namespace,
		"name", name,
		"format", format,
		"size", len(content))

	v, err := FromBytes[T](format, []byte(content))
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize ConfigMap %s/%s: %w", namespace, name, err)
	}
	return v, nil
}
