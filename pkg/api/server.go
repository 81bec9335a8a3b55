package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/NVIDIA/fleet-telemetry/pkg/collector"
	"github.com/NVIDIA/fleet-telemetry/pkg/config"
	"github.com/NVIDIA/fleet-telemetry/pkg/defaults"
	"github.com/NVIDIA/fleet-telemetry/pkg/device"
	"github.com/NVIDIA/fleet-telemetry/pkg/exporter"
	"github.com/NVIDIA/fleet-telemetry/pkg/handler"
	"github.com/NVIDIA/fleet-telemetry/pkg/logging"
	"github.com/NVIDIA/fleet-telemetry/pkg/persistency"
	"github.com/NVIDIA/fleet-telemetry/pkg/query"
	"github.com/NVIDIA/fleet-telemetry/pkg/server"
	"github.com/NVIDIA/fleet-telemetry/pkg/stream"
)

const (
	name           = "telemd"
	versionDefault = "dev"

	// StreamPattern is the route of the websocket metrics stream.
	StreamPattern = "GET /v1/stream"
)

var (
	// overridden during build with ldflags to reflect actual version info
	// e.g., -X "github.com/NVIDIA/fleet-telemetry/pkg/api.version=1.0.0"
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// Daemon is the assembled telemetry service: collection feeding the
// handler manager, queries over HTTP, the metrics stream, the Prometheus
// exporter and optional sqlite history.
type Daemon struct {
	cfg       *config.Config
	store     *persistency.Store
	manager   *handler.Manager
	service   *query.Service
	sources   []collector.Source
	runner    *collector.Runner
	hub       *stream.Hub
	publisher *stream.Publisher
	exporter  *exporter.Collector
	server    *server.Server
}

// Option configures a Daemon.
type Option func(*options)

type options struct {
	kubeconfig   string
	serverConfig *server.Config
}

// WithKubeconfig sets the kubeconfig used for cm:// inventory and scripts.
func WithKubeconfig(path string) Option {
	return func(o *options) {
		o.kubeconfig = path
	}
}

// WithServerConfig replaces the environment derived server configuration.
func WithServerConfig(cfg *server.Config) Option {
	return func(o *options) {
		o.serverConfig = cfg
	}
}

// New assembles a Daemon from cfg. Close releases what New opened.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if cfg.Inventory == "" {
		return nil, errors.New("no device inventory configured")
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	dir, err := device.LoadInventory(ctx, cfg.Inventory)
	if err != nil {
		return nil, err
	}

	d := &Daemon{cfg: cfg}

	mopts := []handler.Option{handler.WithMaxSessions(cfg.MaxSessions)}
	qopts := []query.Option{
		query.WithWaitPolicy(cfg.Wait),
		query.WithVersion(version),
	}
	if cfg.Persistence.Enabled() {
		d.store, err = persistency.Open(ctx, cfg.Persistence.DSN,
			persistency.WithRetention(cfg.Persistence.Retention))
		if err != nil {
			return nil, fmt.Errorf("failed to open history store: %w", err)
		}
		mopts = append(mopts, handler.WithPersister(d.store))
		qopts = append(qopts, query.WithHistory(d.store))
	}

	d.manager = handler.NewManager(mopts...)
	d.service = query.NewService(dir, d.manager, cfg, qopts...)

	factory := collector.NewDefaultFactory(collector.WithKubeconfig(o.kubeconfig))
	d.sources, err = factory.CreateSources(ctx, cfg.Sources)
	if err != nil {
		d.Close()
		return nil, err
	}
	d.runner = collector.NewRunner(d.manager, d.sources,
		collector.WithInterval(cfg.CollectionInterval))

	d.hub = stream.NewHub()
	d.publisher = stream.NewPublisher(d.hub, d.service, cfg.StreamInterval)

	d.exporter = exporter.NewCollector(d.service)
	if err := prometheus.Register(d.exporter); err != nil {
		d.Close()
		return nil, fmt.Errorf("failed to register device exporter: %w", err)
	}

	sopts := []server.Option{
		server.WithName(name),
		server.WithVersion(version),
		server.WithHandler(d.Routes()),
	}
	if o.serverConfig != nil {
		sopts = append([]server.Option{server.WithConfig(o.serverConfig)}, sopts...)
	}
	if cfg.Auth.Enabled() {
		sopts = append(sopts, server.WithAuth([]byte(cfg.Auth.Secret), cfg.Auth.Issuer))
	}
	d.server = server.New(sopts...)

	slog.Info("daemon assembled",
		"devices", len(dir.Devices()),
		"sources", len(d.sources),
		"metrics", len(cfg.EnabledMetrics()),
		"history", d.store != nil,
		"auth", cfg.Auth.Enabled())
	return d, nil
}

// Routes returns the API routes served by the daemon.
func (d *Daemon) Routes() map[string]http.HandlerFunc {
	routes := d.service.Handlers()
	routes[StreamPattern] = stream.NewHandler(d.hub).ServeHTTP
	return routes
}

// Handler returns the root HTTP handler.
func (d *Daemon) Handler() http.Handler {
	return d.server.Handler()
}

// Service returns the query service.
func (d *Daemon) Service() *query.Service {
	return d.service
}

// Run starts every component and blocks until ctx is done or one of them
// fails.
func (d *Daemon) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return d.runner.Run(gctx) })
	g.Go(func() error { return d.hub.Run(gctx) })
	g.Go(func() error { return d.publisher.Run(gctx) })
	if d.store != nil {
		g.Go(func() error { return d.store.RunRetention(gctx, defaults.HistoryPruneInterval) })
	}
	g.Go(func() error { return d.server.Start(gctx) })

	if err := g.Wait(); err != nil {
		return fmt.Errorf("daemon error: %w", err)
	}
	return nil
}

// Close unregisters the exporter and closes the history store.
func (d *Daemon) Close() error {
	if d.exporter != nil {
		prometheus.Unregister(d.exporter)
	}
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Serve loads the configuration, starts the daemon and blocks until
// SIGINT/SIGTERM.
func Serve() error {
	logging.SetDefaultStructuredLogger(name, version)
	slog.Info("starting",
		"name", name,
		"version", version,
		"commit", commit,
		"date", date,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	d, err := New(ctx, cfg, WithKubeconfig(os.Getenv("KUBECONFIG")))
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.Run(ctx); err != nil {
		slog.Error("daemon exited with error", "error", err)
		return err
	}
	slog.Info("daemon stopped gracefully")
	return nil
}
