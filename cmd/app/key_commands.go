package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/tiago-cos/prosa-sub000/cmd/app/commands"
	"github.com/tiago-cos/prosa-sub000/internal/app"
	"github.com/tiago-cos/prosa-sub000/internal/config"
)

func getKeyCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-signing-key",
			Usage: "Generate a new Ed25519 session signing key",
			Flags: []cli.Flag{
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container := app.NewContainer(config.Load())
				defer commands.CloseContainer(container, container.Logger())

				keyStore, err := container.KeyStore()
				if err != nil {
					return err
				}

				return commands.RunCreateSigningKey(
					ctx,
					keyStore,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "list-signing-keys",
			Usage: "List stored session signing keys",
			Flags: []cli.Flag{
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer commands.CloseContainer(container, container.Logger())

				keyStore, err := container.KeyStore()
				if err != nil {
					return err
				}

				return commands.RunListSigningKeys(
					ctx,
					keyStore,
					cfg.AuthSigningKeyID,
					commands.DefaultIO().Writer,
					cmd.String("format"),
				)
			},
		},
	}
}
