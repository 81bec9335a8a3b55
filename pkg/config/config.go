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

package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/NVIDIA/fleet-telemetry/pkg/defaults"
	"github.com/NVIDIA/fleet-telemetry/pkg/header"
	"github.com/NVIDIA/fleet-telemetry/pkg/measurement"
	"github.com/NVIDIA/fleet-telemetry/pkg/serializer"
)

// Environment variables read by Load.
const (
	EnvConfig             = "TELEM_CONFIG"
	EnvInventory          = "TELEM_INVENTORY"
	EnvMetrics            = "TELEM_METRICS"
	EnvDisabledMetrics    = "TELEM_DISABLED_METRICS"
	EnvMaxSessions        = "TELEM_MAX_SESSIONS"
	EnvCollectionInterval = "TELEM_COLLECTION_INTERVAL"
	EnvWaitTimeout        = "TELEM_WAIT_TIMEOUT"
	EnvWaitInterval       = "TELEM_WAIT_INTERVAL"
	EnvDSN                = "TELEM_DB_DSN"
	EnvRetention          = "TELEM_HISTORY_RETENTION"
	EnvAuthSecret         = "TELEM_AUTH_SECRET"
	EnvSources            = "TELEM_SOURCES"
	EnvStreamInterval     = "TELEM_STREAM_INTERVAL"
)

// WaitPolicy bounds the wait for slow-starting metrics on a statistics
// query.
type WaitPolicy struct {
	Timeout  time.Duration `json:"timeout" yaml:"timeout"`
	Interval time.Duration `json:"interval" yaml:"interval"`
}

// Persistence configures the history store. An empty DSN disables it.
type Persistence struct {
	DSN       string        `json:"dsn,omitempty" yaml:"dsn,omitempty"`
	Retention time.Duration `json:"retention,omitempty" yaml:"retention,omitempty"`
}

// Enabled reports whether samples are persisted.
func (p Persistence) Enabled() bool {
	return p.DSN != ""
}

// Auth configures bearer token authentication of the API. An empty
// secret disables it.
type Auth struct {
	Secret string `json:"-" yaml:"secret,omitempty"`
	Issuer string `json:"issuer,omitempty" yaml:"issuer,omitempty"`
}

// Enabled reports whether requests must carry a token.
func (a Auth) Enabled() bool {
	return a.Secret != ""
}

// Source is one recorded sample script replayed by the collector.
type Source struct {
	Name string `json:"name" yaml:"name"`
	Path string `json:"path" yaml:"path"`
	// Loop restarts the script after its last tick.
	Loop bool `json:"loop,omitempty" yaml:"loop,omitempty"`
}

// Config is the operator configuration.
type Config struct {
	header.Header `json:",inline" yaml:",inline"`

	Inventory          string        `json:"inventory" yaml:"inventory"`
	Metrics            []string      `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	DisabledMetrics    []string      `json:"disabledMetrics,omitempty" yaml:"disabledMetrics,omitempty"`
	MaxSessions        int           `json:"maxSessions" yaml:"maxSessions"`
	CollectionInterval time.Duration `json:"collectionInterval" yaml:"collectionInterval"`
	StreamInterval     time.Duration `json:"streamInterval" yaml:"streamInterval"`
	Wait               WaitPolicy    `json:"wait" yaml:"wait"`
	Persistence        Persistence   `json:"persistence" yaml:"persistence"`
	Auth               Auth          `json:"auth" yaml:"auth"`
	Sources            []Source      `json:"sources,omitempty" yaml:"sources,omitempty"`

	enabled []measurement.Type
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Header:             *header.New(header.WithKind(header.KindConfig)),
		Metrics:            []string{"*"},
		MaxSessions:        defaults.MaxStatisticsSessions,
		CollectionInterval: defaults.CollectionInterval,
		StreamInterval:     defaults.StreamPublishInterval,
		Wait: WaitPolicy{
			Timeout:  defaults.DataWaitTimeout,
			Interval: defaults.DataWaitInterval,
		},
		Persistence: Persistence{
			Retention: defaults.HistoryRetention,
		},
	}
}

// Load builds the configuration from the document at path, if any, then
// applies .env and TELEM_* overrides. An empty path falls back to
// TELEM_CONFIG.
func Load(ctx context.Context, path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}

	if path == "" {
		path = os.Getenv(EnvConfig)
	}

	cfg := Default()
	if path != "" {
		doc, err := serializer.FromFile[Config](ctx, path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %q: %w", path, err)
		}
		cfg.merge(doc)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.Debug("configuration loaded",
		"path", path,
		"metrics", len(cfg.enabled),
		"maxSessions", cfg.MaxSessions,
		"collectionInterval", cfg.CollectionInterval,
		"persistence", cfg.Persistence.Enabled(),
		"auth", cfg.Auth.Enabled())
	return cfg, nil
}

// merge overlays the fields set in doc.
func (c *Config) merge(doc *Config) {
	if doc.Kind != "" {
		c.Kind = doc.Kind
	}
	if doc.Inventory != "" {
		c.Inventory = doc.Inventory
	}
	if len(doc.Metrics) > 0 {
		c.Metrics = doc.Metrics
	}
	if len(doc.DisabledMetrics) > 0 {
		c.DisabledMetrics = doc.DisabledMetrics
	}
	if doc.MaxSessions != 0 {
		c.MaxSessions = doc.MaxSessions
	}
	if doc.CollectionInterval != 0 {
		c.CollectionInterval = doc.CollectionInterval
	}
	if doc.StreamInterval != 0 {
		c.StreamInterval = doc.StreamInterval
	}
	if doc.Wait.Timeout != 0 {
		c.Wait.Timeout = doc.Wait.Timeout
	}
	if doc.Wait.Interval != 0 {
		c.Wait.Interval = doc.Wait.Interval
	}
	if doc.Persistence.DSN != "" {
		c.Persistence.DSN = doc.Persistence.DSN
	}
	if doc.Persistence.Retention != 0 {
		c.Persistence.Retention = doc.Persistence.Retention
	}
	if doc.Auth.Secret != "" {
		c.Auth.Secret = doc.Auth.Secret
	}
	if doc.Auth.Issuer != "" {
		c.Auth.Issuer = doc.Auth.Issuer
	}
	if len(doc.Sources) > 0 {
		c.Sources = doc.Sources
	}
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvInventory); v != "" {
		c.Inventory = v
	}
	if v := os.Getenv(EnvMetrics); v != "" {
		c.Metrics = splitList(v)
	}
	if v := os.Getenv(EnvDisabledMetrics); v != "" {
		c.DisabledMetrics = splitList(v)
	}
	if v := os.Getenv(EnvMaxSessions); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvMaxSessions, v, err)
		}
		c.MaxSessions = n
	}
	durations := []struct {
		env string
		dst *time.Duration
	}{
		{EnvCollectionInterval, &c.CollectionInterval},
		{EnvStreamInterval, &c.StreamInterval},
		{EnvWaitTimeout, &c.Wait.Timeout},
		{EnvWaitInterval, &c.Wait.Interval},
		{EnvRetention, &c.Persistence.Retention},
	}
	for _, d := range durations {
		v := os.Getenv(d.env)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", d.env, v, err)
		}
		*d.dst = parsed
	}
	if v := os.Getenv(EnvDSN); v != "" {
		c.Persistence.DSN = v
	}
	if v := os.Getenv(EnvAuthSecret); v != "" {
		c.Auth.Secret = v
	}
	if v := os.Getenv(EnvSources); v != "" {
		c.Sources = nil
		for _, p := range splitList(v) {
			c.Sources = append(c.Sources, Source{Name: p, Path: p})
		}
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks the configuration and resolves the enabled metrics.
func (c *Config) Validate() error {
	if c.MaxSessions < 0 {
		return fmt.Errorf("maxSessions must not be negative, got %d", c.MaxSessions)
	}
	if c.CollectionInterval <= 0 {
		return fmt.Errorf("collectionInterval must be positive, got %s", c.CollectionInterval)
	}
	if c.Wait.Timeout < 0 || c.Wait.Interval <= 0 {
		return fmt.Errorf("invalid wait policy timeout=%s interval=%s", c.Wait.Timeout, c.Wait.Interval)
	}
	if c.Persistence.Retention < 0 {
		return fmt.Errorf("retention must not be negative, got %s", c.Persistence.Retention)
	}
	for i, s := range c.Sources {
		if s.Path == "" {
			return fmt.Errorf("source %d has no path", i)
		}
	}

	enabled, err := measurement.MatchTypes(c.Metrics)
	if err != nil {
		return fmt.Errorf("invalid metrics: %w", err)
	}
	if _, err := measurement.MatchTypes(c.DisabledMetrics); err != nil {
		return fmt.Errorf("invalid disabledMetrics: %w", err)
	}
	c.enabled = measurement.FilterOut(enabled, normalize(c.DisabledMetrics))
	return nil
}

func normalize(patterns []string) []string {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, strings.ReplaceAll(strings.ToLower(strings.TrimSpace(p)), "-", "_"))
	}
	return out
}

// EnabledMetrics returns the metrics the operator enabled, in
// measurement.Types order.
func (c *Config) EnabledMetrics() []measurement.Type {
	if c == nil {
		return nil
	}
	if c.enabled == nil {
		if err := c.Validate(); err != nil {
			slog.Warn("invalid configuration, no metric enabled", "error", err)
			return nil
		}
	}
	return slices.Clone(c.enabled)
}

// IsEnabled reports whether t is enabled.
func (c *Config) IsEnabled(t measurement.Type) bool {
	return slices.Contains(c.EnabledMetrics(), t)
}
