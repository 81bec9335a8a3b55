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

package persistency

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	// registers the "sqlite3" driver
	_ "github.com/mattn/go-sqlite3"

	"github.com/NVIDIA/fleet-telemetry/pkg/defaults"
	"github.com/NVIDIA/fleet-telemetry/pkg/handler"
	"github.com/NVIDIA/fleet-telemetry/pkg/measurement"
)

var _ handler.Persister = (*Store)(nil)

// DefaultHistoryLimit caps History when no limit is given.
const DefaultHistoryLimit = 10000

const schema = `
CREATE TABLE IF NOT EXISTS samples (
	id        INTEGER PRIMARY KEY,
	type      TEXT    NOT NULL,
	device_id TEXT    NOT NULL,
	scope     TEXT    NOT NULL,
	ts        INTEGER NOT NULL,
	value     INTEGER,
	raw       INTEGER,
	scale     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_samples_lookup ON samples (type, device_id, ts);
CREATE INDEX IF NOT EXISTS idx_samples_ts ON samples (ts);
`

// Option configures a Store.
type Option func(*Store)

// WithRetention sets how long rows are kept by RunRetention.
func WithRetention(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.retention = d
		}
	}
}

// WithClock sets the clock used for retention cutoffs.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store is a sqlite backed sample history.
type Store struct {
	db        *sql.DB
	retention time.Duration
	now       func() time.Time
}

// DSN expands a file path into a sqlite DSN with WAL journaling and a
// busy timeout. Values already starting with "file:" are returned as is.
func DSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	return fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL", path)
}

// Open opens or creates the database at path and applies the schema.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is empty")
	}

	db, err := sql.Open("sqlite3", DSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database not responding: %w", err)
	}

	// sqlite serializes writers; a small pool avoids lock churn
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(5 * time.Minute)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate samples table: %w", err)
	}

	s := &Store{
		db:        db,
		retention: defaults.HistoryRetention,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	slog.Debug("history store opened", "path", path, "retention", s.retention)
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Persist writes every value of a processed sample set.
func (s *Store) Persist(ctx context.Context, t measurement.Type, ts time.Time, set measurement.SampleSet) error {
	records := Flatten(t, ts, set)
	if len(records) == 0 {
		return nil
	}
	return s.Insert(ctx, records)
}

// Insert writes records in one transaction.
func (s *Store) Insert(ctx context.Context, records []Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// no-op after a successful commit
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO samples (type, device_id, scope, ts, value, raw, scale) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		var value, raw sql.NullInt64
		if r.Value != nil {
			value = sql.NullInt64{Int64: *r.Value, Valid: true}
		}
		if r.Raw != nil {
			// sqlite integers are signed; counters wrap into the negative range
			raw = sql.NullInt64{Int64: int64(*r.Raw), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, string(r.Type), r.DeviceID, r.Scope,
			r.Timestamp.UnixNano(), value, raw, r.Scale); err != nil {
			return fmt.Errorf("failed to insert %s sample of device %s: %w", r.Type, r.DeviceID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit samples: %w", err)
	}
	return nil
}

// Query selects history rows.
type Query struct {
	Type     measurement.Type
	DeviceID string
	Since    time.Time
	Until    time.Time
	// Scope restricts rows to one scope; empty means all.
	Scope string
	Limit int
}

// History returns rows of one type and device newer than since, oldest first.
func (s *Store) History(ctx context.Context, t measurement.Type, deviceID string, since time.Time, limit int) ([]Record, error) {
	return s.Select(ctx, Query{Type: t, DeviceID: deviceID, Since: since, Limit: limit})
}

// Select runs q.
func (s *Store) Select(ctx context.Context, q Query) ([]Record, error) {
	where := []string{"type = ?", "device_id = ?"}
	args := []any{string(q.Type), q.DeviceID}

	if !q.Since.IsZero() {
		where = append(where, "ts >= ?")
		args = append(args, q.Since.UnixNano())
	}
	if !q.Until.IsZero() {
		where = append(where, "ts <= ?")
		args = append(args, q.Until.UnixNano())
	}
	if q.Scope != "" {
		where = append(where, "scope = ?")
		args = append(args, q.Scope)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	args = append(args, limit)

	query := "SELECT type, device_id, scope, ts, value, raw, scale FROM samples WHERE " +
		strings.Join(where, " AND ") + " ORDER BY ts, id LIMIT ?"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r          Record
			typ        string
			ts         int64
			value, raw sql.NullInt64
		)
		if err := rows.Scan(&typ, &r.DeviceID, &r.Scope, &ts, &value, &raw, &r.Scale); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		r.Type = measurement.Type(typ)
		r.Timestamp = time.Unix(0, ts).UTC()
		if value.Valid {
			v := value.Int64
			r.Value = &v
		}
		if raw.Valid {
			v := uint64(raw.Int64)
			r.Raw = &v
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of stored rows.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM samples").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count samples: %w", err)
	}
	return n, nil
}

// Prune deletes rows older than before and returns how many were removed.
func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM samples WHERE ts < ?", before.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to prune samples: %w", err)
	}
	return res.RowsAffected()
}

// RunRetention prunes rows older than the retention every interval until
// ctx is done.
func (s *Store) RunRetention(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = defaults.HistoryPruneInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := s.Prune(ctx, s.now().Add(-s.retention))
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				slog.Warn("history prune failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Debug("history pruned", "rows", n, "retention", s.retention)
			}
		}
	}
}
