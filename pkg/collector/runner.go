package collector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/NVIDIA/fleet-telemetry/pkg/defaults"
)

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithInterval sets the collection interval.
func WithInterval(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithTimeout bounds a single Collect call.
func WithTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// Runner ticks every source and stores what it collects.
type Runner struct {
	sink     Sink
	sources  []Source
	interval time.Duration
	timeout  time.Duration
}

// NewRunner returns a Runner storing into sink.
func NewRunner(sink Sink, sources []Source, opts ...RunnerOption) *Runner {
	r := &Runner{
		sink:     sink,
		sources:  sources,
		interval: defaults.CollectionInterval,
		timeout:  defaults.CollectionTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run collects from every source until ctx is done. Each source gets its
// own goroutine so a slow source does not delay the others.
func (r *Runner) Run(ctx context.Context) error {
	if r.sink == nil {
		return fmt.Errorf("collector runner has no sink")
	}
	if len(r.sources) == 0 {
		slog.Warn("no collection source configured")
		<-ctx.Done()
		return nil
	}

	slog.Info("collection started",
		"sources", len(r.sources),
		"interval", r.interval)

	g, gctx := errgroup.WithContext(ctx)
	for _, src := range r.sources {
		g.Go(func() error {
			r.loop(gctx, src)
			return nil
		})
	}
	return g.Wait()
}

func (r *Runner) loop(ctx context.Context, src Source) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	// first tick immediately so counters have a baseline
	r.Tick(ctx, src)
	for {
		select {
		case <-ctx.Done():
			slog.Debug("collection stopped", "source", src.Name())
			return
		case <-ticker.C:
			r.Tick(ctx, src)
		}
	}
}

// Tick runs one collection of src and stores the batches. It returns the
// number of batches stored.
func (r *Runner) Tick(ctx context.Context, src Source) int {
	name := src.Name()
	start := time.Now()
	defer func() {
		collectionDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()

	cctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	batches, err := src.Collect(cctx)
	if err != nil {
		if ctx.Err() != nil {
			return 0
		}
		collectionTotal.WithLabelValues(name, "error").Inc()
		slog.Warn("collection failed", "source", name, "error", err)
		return 0
	}
	collectionTotal.WithLabelValues(name, "success").Inc()

	stored := 0
	for _, b := range batches {
		if len(b.Set) == 0 {
			continue
		}
		if err := r.sink.StoreMeasurementData(ctx, b.Type, b.Timestamp, b.Set); err != nil {
			storeErrors.WithLabelValues(name, string(b.Type)).Inc()
			slog.Warn("failed to store sample set",
				"source", name,
				"type", b.Type,
				"error", err)
			continue
		}
		batchesStored.WithLabelValues(name, string(b.Type)).Inc()
		stored++
	}
	return stored
}
