package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/fleet-telemetry/pkg/export"
	"github.com/NVIDIA/fleet-telemetry/pkg/measurement"
	"github.com/NVIDIA/fleet-telemetry/pkg/persistency"
	"github.com/NVIDIA/fleet-telemetry/pkg/query"
)

func historyFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:     "type",
			Usage:    "measurement type, can be repeated (e.g. power, temperature)",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "since",
			Usage: "start of the range: a duration back from now (15m) or an RFC3339 time",
		},
		&cli.IntFlag{
			Name:  "limit",
			Usage: "maximum records per type, 0 for the daemon default",
		},
	}
}

// fetchHistory reads the history of every --type of a device in type
// order.
func fetchHistory(ctx context.Context, cmd *cli.Command, id string) ([]persistency.Record, error) {
	types, err := parseTypes(cmd.StringSlice("type"))
	if err != nil {
		return nil, err
	}
	c, err := newAPIClient(cmd)
	if err != nil {
		return nil, err
	}

	var out []persistency.Record
	for _, t := range types {
		params := url.Values{query.ParamType: {string(t)}}
		if v := cmd.String("since"); v != "" {
			params.Set(query.ParamSince, v)
		}
		if n := cmd.Int("limit"); n > 0 {
			params.Set(query.ParamLimit, strconv.Itoa(n))
		}
		var rep query.Report[persistency.Record]
		if err := c.get(ctx, devicePath(id, "history"), params, &rep); err != nil {
			return nil, err
		}
		out = append(out, rep.Records...)
	}
	return out, nil
}

func parseTypes(values []string) ([]measurement.Type, error) {
	var types []measurement.Type
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			t, ok := measurement.ParseType(part)
			if !ok {
				return nil, fmt.Errorf("unknown measurement type %q, supported: %v", part, measurement.SupportedTypes())
			}
			types = append(types, t)
		}
	}
	if len(types) == 0 {
		return nil, fmt.Errorf("at least one measurement type is required")
	}
	return types, nil
}

func historyCmd() *cli.Command {
	return &cli.Command{
		Name:      "history",
		Usage:     "Show persisted history of a device",
		ArgsUsage: "<device-id>",
		Description: `Read values the daemon persisted to its history store. The daemon must
run with persistence.dsn set.

  telemctl history 0 --type power --since 30m --format table`,
		Flags: append(historyFlags(), outputFlag, formatFlag),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id, err := deviceArg(cmd)
			if err != nil {
				return err
			}
			records, err := fetchHistory(ctx, cmd, id)
			if err != nil {
				return err
			}
			return writeOutput(ctx, cmd, records)
		},
	}
}

func exportCmd() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Export persisted history of a device to a parquet file",
		ArgsUsage: "<device-id>",
		Flags: append(historyFlags(), &cli.StringFlag{
			Name:     "file",
			Aliases:  []string{"f"},
			Usage:    "destination parquet file",
			Required: true,
		}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id, err := deviceArg(cmd)
			if err != nil {
				return err
			}
			records, err := fetchHistory(ctx, cmd, id)
			if err != nil {
				return err
			}
			return writeFile(cmd.String("file"), func(f *os.File) error {
				return export.WriteParquet(f, records)
			}, len(records))
		},
	}
}

func chartCmd() *cli.Command {
	return &cli.Command{
		Name:      "chart",
		Usage:     "Render persisted history of a device as an HTML line chart",
		ArgsUsage: "<device-id>",
		Flags: append(historyFlags(), &cli.StringFlag{
			Name:     "file",
			Aliases:  []string{"f"},
			Usage:    "destination HTML file",
			Required: true,
		}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id, err := deviceArg(cmd)
			if err != nil {
				return err
			}
			records, err := fetchHistory(ctx, cmd, id)
			if err != nil {
				return err
			}
			title := fmt.Sprintf("Device %s telemetry", id)
			return writeFile(cmd.String("file"), func(f *os.File) error {
				return export.WriteChart(f, title, records)
			}, len(records))
		},
	}
}

func writeFile(path string, write func(*os.File) error, records int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %q: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %q: %w", path, err)
	}
	slog.Info("history written", "path", path, "records", records)
	return nil
}
