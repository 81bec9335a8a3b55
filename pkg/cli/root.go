package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/fleet-telemetry/pkg/logging"
	"github.com/NVIDIA/fleet-telemetry/pkg/serializer"
)

const (
	name           = "telemctl"
	versionDefault = "dev"

	// DefaultServer is the daemon address used when --server is not set.
	DefaultServer = "http://localhost:8080"
)

var (
	// overridden during build with ldflags
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

var (
	outputFlag = &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "output destination: file path, cm://namespace/name or stdout when empty",
	}

	formatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"t"},
		Value:   string(serializer.FormatYAML),
		Usage:   fmt.Sprintf("output format (supported: %v)", serializer.SupportedFormats()),
	}

	sessionFlag = &cli.UintFlag{
		Name:    "session",
		Aliases: []string{"s"},
		Usage:   "statistics session id; each session keeps its own window",
	}
)

// Execute runs the CLI with os.Args. It is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cli.Command {
	return &cli.Command{
		Name:                  name,
		Usage:                 "query GPU fleet telemetry from a telemd daemon",
		Version:               fmt.Sprintf("%s (commit: %s, date: %s)", version, commit, date),
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Usage:   "telemd base URL",
				Value:   DefaultServer,
				Sources: cli.EnvVars("TELEM_SERVER"),
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "bearer token for daemons with auth enabled",
				Sources: cli.EnvVars("TELEM_TOKEN"),
			},
			&cli.BoolFlag{
				Name:  "insecure",
				Usage: "skip TLS certificate verification",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logging.SetDefaultStructuredLoggerWithLevel(name, version, cmd.String("log-level"))
			slog.Debug("starting",
				"name", name,
				"version", version,
				"commit", commit,
				"date", date)
			return ctx, nil
		},
		Commands: []*cli.Command{
			devicesCmd(),
			statsCmd(),
			metricsCmd(),
			resetCmd(),
			enginesCmd(),
			fabricCmd(),
			historyCmd(),
			exportCmd(),
			chartCmd(),
			tokenCmd(),
		},
	}
}

// parseOutputFormat validates the --format flag.
func parseOutputFormat(cmd *cli.Command) (serializer.Format, error) {
	f := serializer.Format(cmd.String("format"))
	if f.IsUnknown() {
		return "", fmt.Errorf("unknown output format: %q, supported: %v", f, serializer.SupportedFormats())
	}
	return f, nil
}

// writeOutput serializes v to the --output destination.
func writeOutput(ctx context.Context, cmd *cli.Command, v any) error {
	format, err := parseOutputFormat(cmd)
	if err != nil {
		return err
	}

	ser := serializer.NewFileWriterOrStdout(format, cmd.String("output"))
	defer func() {
		if closer, ok := ser.(serializer.Closer); ok {
			if err := closer.Close(); err != nil {
				slog.Warn("failed to close serializer", "error", err)
			}
		}
	}()

	return ser.Serialize(ctx, v)
}

// deviceArg returns the required device id argument.
func deviceArg(cmd *cli.Command) (string, error) {
	id := cmd.Args().First()
	if id == "" {
		return "", fmt.Errorf("device id argument is required")
	}
	return id, nil
}
