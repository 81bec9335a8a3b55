package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/fleet-telemetry/pkg/config"
	"github.com/NVIDIA/fleet-telemetry/pkg/server"
)

func tokenCmd() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Mint a bearer token for a daemon with auth enabled",
		Description: `Sign an HS256 token with the daemon's shared secret.

  export TELEM_TOKEN=$(telemctl token --secret "$TELEM_AUTH_SECRET" --ttl 1h)`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "secret",
				Usage:    "shared signing secret of the daemon",
				Sources:  cli.EnvVars(config.EnvAuthSecret),
				Required: true,
			},
			&cli.StringFlag{
				Name:  "issuer",
				Usage: "issuer claim, must match the daemon's auth.issuer when set",
			},
			&cli.StringFlag{
				Name:  "subject",
				Usage: "subject claim identifying the caller",
				Value: name,
			},
			&cli.DurationFlag{
				Name:  "ttl",
				Usage: "token lifetime",
				Value: 24 * time.Hour,
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			token, err := server.IssueToken([]byte(cmd.String("secret")), cmd.String("issuer"),
				cmd.String("subject"), cmd.Duration("ttl"))
			if err != nil {
				return fmt.Errorf("failed to issue token: %w", err)
			}
			_, err = fmt.Fprintln(cmd.Root().Writer, token)
			return err
		},
	}
}
