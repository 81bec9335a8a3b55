package cli

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/fleet-telemetry/pkg/query"
)

func enginesCmd() *cli.Command {
	return &cli.Command{
		Name:  "engines",
		Usage: "Show engine utilization of a device",
		Commands: []*cli.Command{
			{
				Name:      "stats",
				Usage:     "Windowed utilization statistics per engine",
				ArgsUsage: "<device-id>",
				Flags:     []cli.Flag{sessionFlag, outputFlag, formatFlag},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return deviceReport[query.EngineStats](ctx, cmd, "engines/statistics", sessionParams(cmd))
				},
			},
			{
				Name:      "utilization",
				Usage:     "Latest utilization per engine",
				ArgsUsage: "<device-id>",
				Flags:     []cli.Flag{outputFlag, formatFlag},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return deviceReport[query.EngineUtilization](ctx, cmd, "engines/utilization", nil)
				},
			},
		},
	}
}

func fabricCmd() *cli.Command {
	return &cli.Command{
		Name:  "fabric",
		Usage: "Show fabric throughput and topology of a device",
		Commands: []*cli.Command{
			{
				Name:      "stats",
				Usage:     "Windowed rx/tx statistics per fabric link",
				ArgsUsage: "<device-id>",
				Flags:     []cli.Flag{sessionFlag, outputFlag, formatFlag},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return deviceReport[query.FabricStats](ctx, cmd, "fabric/statistics", sessionParams(cmd))
				},
			},
			{
				Name:      "throughput",
				Usage:     "Latest rx/tx throughput per fabric link",
				ArgsUsage: "<device-id>",
				Flags:     []cli.Flag{outputFlag, formatFlag},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return deviceReport[query.FabricThroughput](ctx, cmd, "fabric/throughput", nil)
				},
			},
			{
				Name:      "links",
				Usage:     "Fabric links of a device and their remote ends",
				ArgsUsage: "<device-id>",
				Flags:     []cli.Flag{outputFlag, formatFlag},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return deviceReport[query.FabricLink](ctx, cmd, "fabric/links", nil)
				},
			},
		},
	}
}
