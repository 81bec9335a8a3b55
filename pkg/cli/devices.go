package cli

import (
	"context"
	"net/url"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/fleet-telemetry/pkg/query"
)

func devicesCmd() *cli.Command {
	return &cli.Command{
		Name:  "devices",
		Usage: "List the devices known to the daemon",
		Description: `List every device of the inventory with its tiles, engines,
fabric throughput endpoints and capabilities.`,
		Flags: []cli.Flag{
			outputFlag,
			formatFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c, err := newAPIClient(cmd)
			if err != nil {
				return err
			}
			var rep query.Report[query.DeviceInfo]
			if err := c.get(ctx, "/v1/devices", nil, &rep); err != nil {
				return err
			}
			return writeOutput(ctx, cmd, rep)
		},
	}
}

func statsCmd() *cli.Command {
	return &cli.Command{
		Name:      "stats",
		Usage:     "Show windowed statistics of a device",
		ArgsUsage: "<device-id>",
		Description: `Show min, max, average and count of every enabled metric since the
window of the session opened. The first call of a session opens the
window; use reset to start a new one.

  telemctl stats 0 --session 2 --format table`,
		Flags: []cli.Flag{
			sessionFlag,
			outputFlag,
			formatFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return deviceReport[query.DeviceStats](ctx, cmd, "statistics", sessionParams(cmd))
		},
	}
}

func metricsCmd() *cli.Command {
	return &cli.Command{
		Name:      "metrics",
		Usage:     "Show the latest value of every enabled metric of a device",
		ArgsUsage: "<device-id>",
		Flags: []cli.Flag{
			outputFlag,
			formatFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return deviceReport[query.DeviceMetrics](ctx, cmd, "metrics", nil)
		},
	}
}

func resetCmd() *cli.Command {
	return &cli.Command{
		Name:      "reset",
		Usage:     "Restart the statistics window of a session",
		ArgsUsage: "<device-id>",
		Flags: []cli.Flag{
			sessionFlag,
			&cli.StringFlag{
				Name:  "family",
				Usage: "window family to reset (device, engine, fabric); all when empty",
			},
			outputFlag,
			formatFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id, err := deviceArg(cmd)
			if err != nil {
				return err
			}
			c, err := newAPIClient(cmd)
			if err != nil {
				return err
			}
			params := sessionParams(cmd)
			if f := cmd.String("family"); f != "" {
				params.Set(query.ParamFamily, f)
			}
			var res query.ResetResult
			if err := c.post(ctx, devicePath(id, "statistics", "reset"), params, &res); err != nil {
				return err
			}
			return writeOutput(ctx, cmd, res)
		},
	}
}

// deviceReport fetches a report under /v1/devices/{id}/ and writes it.
func deviceReport[T any](ctx context.Context, cmd *cli.Command, path string, params url.Values) error {
	id, err := deviceArg(cmd)
	if err != nil {
		return err
	}
	c, err := newAPIClient(cmd)
	if err != nil {
		return err
	}
	var rep query.Report[T]
	if err := c.get(ctx, devicePath(id, path), params, &rep); err != nil {
		return err
	}
	return writeOutput(ctx, cmd, rep)
}
