package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/allisson/captoken/cmd/app/commands"
	"github.com/allisson/captoken/internal/app"
	"github.com/allisson/captoken/internal/config"
)

func getKeyCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-keeper-key",
			Usage: "Generate a local keeper key URI for encrypting signing key material",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunCreateKeeperKey(commands.DefaultIO().Writer)
			},
		},
		{
			Name:  "create-signing-key",
			Usage: "Create the initial token signing key",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				signingKeyUseCase, err := container.SigningKeyUseCase()
				if err != nil {
					return err
				}

				return commands.RunCreateSigningKey(
					ctx,
					signingKeyUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "rotate-signing-key",
			Usage: "Rotate the token signing key with a verification overlap",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "overlap-seconds",
					Aliases: []string{"o"},
					Value:   0,
					Usage:   "How long the previous key keeps verifying tokens (0 uses the configured default)",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				signingKeyUseCase, err := container.SigningKeyUseCase()
				if err != nil {
					return err
				}

				overlap := cfg.KeyRotationOverlap
				if seconds := cmd.Int("overlap-seconds"); seconds > 0 {
					overlap = time.Duration(seconds) * time.Second
				}

				return commands.RunRotateSigningKey(
					ctx,
					signingKeyUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					overlap,
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "list-signing-keys",
			Usage: "List signing key metadata",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				signingKeyUseCase, err := container.SigningKeyUseCase()
				if err != nil {
					return err
				}

				return commands.RunListSigningKeys(
					ctx,
					signingKeyUseCase,
					commands.DefaultIO().Writer,
					cmd.String("format"),
				)
			},
		},
	}
}
