package collector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/NVIDIA/fleet-telemetry/pkg/config"
	"github.com/NVIDIA/fleet-telemetry/pkg/serializer"
)

// Factory builds collection sources from configuration.
type Factory interface {
	CreateSource(ctx context.Context, src config.Source) (Source, error)
}

// FactoryOption configures a DefaultFactory.
type FactoryOption func(*DefaultFactory)

// WithKubeconfig sets the kubeconfig used to read cm:// scripts.
func WithKubeconfig(path string) FactoryOption {
	return func(f *DefaultFactory) {
		f.Kubeconfig = path
	}
}

// WithClock sets the clock replayed samples are stamped with.
func WithClock(now func() time.Time) FactoryOption {
	return func(f *DefaultFactory) {
		f.now = now
	}
}

// DefaultFactory creates replay sources from sample scripts.
type DefaultFactory struct {
	Kubeconfig string

	now func() time.Time
}

var _ Factory = (*DefaultFactory)(nil)

// NewDefaultFactory creates a factory with default settings.
func NewDefaultFactory(opts ...FactoryOption) *DefaultFactory {
	f := &DefaultFactory{}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateSource loads the sample script of src and returns a Replay.
func (f *DefaultFactory) CreateSource(ctx context.Context, src config.Source) (Source, error) {
	if src.Path == "" {
		return nil, fmt.Errorf("source %q has no path", src.Name)
	}
	name := src.Name
	if name == "" {
		name = src.Path
	}

	script, err := serializer.FromFileWithKubeconfig[Script](ctx, src.Path, f.Kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to load sample script of source %q: %w", name, err)
	}

	r, err := NewReplay(name, script, WithLoop(src.Loop), WithReplayClock(f.now))
	if err != nil {
		return nil, err
	}
	slog.Info("replay source loaded",
		"source", name,
		"path", src.Path,
		"ticks", len(script.Ticks),
		"loop", src.Loop)
	return r, nil
}

// CreateSources builds every configured source.
func (f *DefaultFactory) CreateSources(ctx context.Context, srcs []config.Source) ([]Source, error) {
	out := make([]Source, 0, len(srcs))
	for _, src := range srcs {
		s, err := f.CreateSource(ctx, src)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
