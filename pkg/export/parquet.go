package export

import (
	"fmt"
	"io"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/NVIDIA/fleet-telemetry/pkg/measurement"
	"github.com/NVIDIA/fleet-telemetry/pkg/persistency"
)

// ParquetBatchSize is the number of rows handed to the writer at once.
const ParquetBatchSize = 1000

// Row is the parquet layout of one history record.
type Row struct {
	Type      string  `parquet:"type,dict"`
	DeviceID  string  `parquet:"device_id,dict"`
	Scope     string  `parquet:"scope,dict"`
	Timestamp int64   `parquet:"timestamp_ns"`
	Value     *int64  `parquet:"value,optional"`
	Raw       *uint64 `parquet:"raw,optional"`
	Scale     int64   `parquet:"scale"`
}

// NewRow converts a record.
func NewRow(r persistency.Record) Row {
	return Row{
		Type:      string(r.Type),
		DeviceID:  r.DeviceID,
		Scope:     r.Scope,
		Timestamp: r.Timestamp.UnixNano(),
		Value:     r.Value,
		Raw:       r.Raw,
		Scale:     r.Scale,
	}
}

// Record converts the row back.
func (r Row) Record() persistency.Record {
	return persistency.Record{
		Type:      measurement.Type(r.Type),
		DeviceID:  r.DeviceID,
		Scope:     r.Scope,
		Timestamp: time.Unix(0, r.Timestamp).UTC(),
		Value:     r.Value,
		Raw:       r.Raw,
		Scale:     r.Scale,
	}
}

// WriteParquet writes records to w as a single parquet file.
func WriteParquet(w io.Writer, records []persistency.Record) error {
	pw := parquet.NewGenericWriter[Row](w)

	batch := make([]Row, 0, ParquetBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if _, err := pw.Write(batch); err != nil {
			return fmt.Errorf("failed to write parquet rows: %w", err)
		}
		batch = batch[:0]
		return nil
	}

	for _, r := range records {
		batch = append(batch, NewRow(r))
		if len(batch) == ParquetBatchSize {
			if err := flush(); err != nil {
				pw.Close()
				return err
			}
		}
	}
	if err := flush(); err != nil {
		pw.Close()
		return err
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

// ReadParquet reads a file written by WriteParquet.
func ReadParquet(r io.ReaderAt, size int64) ([]persistency.Record, error) {
	rows, err := parquet.Read[Row](r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet: %w", err)
	}
	out := make([]persistency.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Record())
	}
	return out, nil
}
