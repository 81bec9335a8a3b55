package serializer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"reflect"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultValueKey = "value"

// Writer serializes values to an io.Writer.
// Close must be called to release file handles when using NewFileWriterOrStdout.
type Writer struct {
	format Format
	output io.Writer
	closer io.Closer
}

// NewWriter creates a Writer. A nil output means stdout and an unknown
// format falls back to JSON.
func NewWriter(format Format, output io.Writer) *Writer {
	if output == nil {
		output = os.Stdout
	}
	if format.IsUnknown() {
		slog.Warn("unknown format, defaulting to JSON", "format", format)
		format = FormatJSON
	}
	return &Writer{
		format: format,
		output: output,
	}
}

// NewStdoutWriter creates a Writer on stdout.
func NewStdoutWriter(format Format) *Writer {
	return NewWriter(format, os.Stdout)
}

// NewFileWriterOrStdout returns a Serializer for path: stdout when empty,
// a ConfigMapWriter for cm://namespace/name, otherwise a file. Failures to
// open the destination fall back to stdout.
func NewFileWriterOrStdout(format Format, path string) Serializer {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return NewStdoutWriter(format)
	}

	if strings.HasPrefix(trimmed, ConfigMapURIScheme) {
		namespace, name, err := parseConfigMapURI(trimmed)
		if err != nil {
			slog.Error("invalid ConfigMap URI, falling back to stdout", "error", err, "uri", trimmed)
			return NewStdoutWriter(format)
		}
		return NewConfigMapWriter(namespace, name, format)
	}

	file, err := os.Create(trimmed)
	if err != nil {
		slog.Error("failed to create output file", "error", err, "path", trimmed)
		return NewStdoutWriter(format)
	}

	w := NewWriter(format, file)
	w.closer = file
	return w
}

// Close releases the output file, if any.
func (w *Writer) Close() error {
	if w.closer != nil {
		err := w.closer.Close()
		w.closer = nil
		return err
	}
	return nil
}

// Serialize writes v in the configured format.
func (w *Writer) Serialize(_ context.Context, v any) error {
	if w.format == FormatJSON {
		encoder := json.NewEncoder(w.output)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(v); err != nil {
			return fmt.Errorf("failed to serialize to JSON: %w", err)
		}
		return nil
	}

	content, err := encode(w.format, v)
	if err != nil {
		return err
	}
	if _, err := w.output.Write(content); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// encode renders v into bytes.
func encode(format Format, v any) ([]byte, error) {
	switch format {
	case FormatJSON:
		content, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to serialize to JSON: %w", err)
		}
		return content, nil
	case FormatYAML:
		var buf bytes.Buffer
		encoder := yaml.NewEncoder(&buf)
		encoder.SetIndent(2)
		if err := encoder.Encode(v); err != nil {
			return nil, fmt.Errorf("failed to serialize to YAML: %w", err)
		}
		if err := encoder.Close(); err != nil {
			return nil, fmt.Errorf("failed to serialize to YAML: %w", err)
		}
		return buf.Bytes(), nil
	case FormatTable:
		return encodeTable(v)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// encodeTable renders a slice of flat structs as columns and anything
// else as sorted FIELD/VALUE rows of flattened keys.
func encodeTable(v any) ([]byte, error) {
	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	if rows, cols, ok := columns(reflect.ValueOf(v)); ok {
		fmt.Fprintln(tw, strings.Join(cols, "\t"))
		for _, row := range rows {
			fmt.Fprintln(tw, strings.Join(row, "\t"))
		}
	} else {
		flat := make(map[string]any)
		flattenValue(flat, reflect.ValueOf(v), "")
		if len(flat) == 0 {
			return []byte("<empty>\n"), nil
		}

		keys := make([]string, 0, len(flat))
		for k := range flat {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Fprintln(tw, "FIELD\tVALUE")
		fmt.Fprintln(tw, "-----\t-----")
		for _, key := range keys {
			fmt.Fprintf(tw, "%s\t%v\n", key, flat[key])
		}
	}

	if err := tw.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush table: %w", err)
	}
	return buf.Bytes(), nil
}

var timeType = reflect.TypeOf(time.Time{})

// columns renders val as rows when it is a non-empty slice of structs
// whose exported fields are all scalars.
func columns(val reflect.Value) ([][]string, []string, bool) {
	for val.IsValid() && (val.Kind() == reflect.Pointer || val.Kind() == reflect.Interface) {
		if val.IsNil() {
			return nil, nil, false
		}
		val = val.Elem()
	}
	if !val.IsValid() || val.Kind() != reflect.Slice || val.Len() == 0 {
		return nil, nil, false
	}

	typ := val.Type().Elem()
	if typ.Kind() != reflect.Struct || typ == timeType {
		return nil, nil, false
	}

	var fields []int
	var cols []string
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if !f.IsExported() {
			continue
		}
		if !isScalar(f.Type) {
			return nil, nil, false
		}
		fields = append(fields, i)
		cols = append(cols, strings.ToUpper(f.Name))
	}

	rows := make([][]string, 0, val.Len())
	for i := 0; i < val.Len(); i++ {
		item := val.Index(i)
		row := make([]string, 0, len(fields))
		for _, fi := range fields {
			fv := item.Field(fi)
			if fv.Kind() == reflect.Pointer {
				if fv.IsNil() {
					row = append(row, "-")
					continue
				}
				fv = fv.Elem()
			}
			if fv.Type() == timeType {
				row = append(row, fv.Interface().(time.Time).Format(time.RFC3339))
				continue
			}
			row = append(row, fmt.Sprintf("%v", fv.Interface()))
		}
		rows = append(rows, row)
	}
	return rows, cols, true
}

func isScalar(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == timeType {
		return true
	}
	//nolint:exhaustive // everything else is composite
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func flattenValue(out map[string]any, val reflect.Value, prefix string) {
	if !val.IsValid() {
		return
	}

	for val.Kind() == reflect.Pointer || val.Kind() == reflect.Interface {
		if val.IsNil() {
			if prefix != "" {
				out[prefix] = nil
			}
			return
		}
		val = val.Elem()
	}

	if val.Type() == timeType {
		if prefix == "" {
			prefix = defaultValueKey
		}
		out[prefix] = val.Interface().(time.Time).Format(time.RFC3339)
		return
	}

	//nolint:exhaustive // We handle the common cases explicitly; all others go to default
	switch val.Kind() {
	case reflect.Struct:
		typ := val.Type()
		for i := 0; i < val.NumField(); i++ {
			field := typ.Field(i)
			if !field.IsExported() {
				continue
			}
			name := field.Name
			if field.Anonymous {
				name = ""
			}
			flattenValue(out, val.Field(i), joinKey(prefix, name))
		}
	case reflect.Map:
		for _, mapKey := range val.MapKeys() {
			key := joinKey(prefix, fmt.Sprintf("%v", mapKey.Interface()))
			flattenValue(out, val.MapIndex(mapKey), key)
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < val.Len(); i++ {
			key := joinKey(prefix, fmt.Sprintf("[%d]", i))
			flattenValue(out, val.Index(i), key)
		}
	default:
		if prefix == "" {
			prefix = defaultValueKey
		}
		out[prefix] = val.Interface()
	}
}

func joinKey(prefix, suffix string) string {
	if prefix == "" {
		return suffix
	}
	if suffix == "" {
		return prefix
	}
	return prefix + "." + suffix
}
