package cli

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/ctxlog"
	"github.com/secmon-lab/shepherd/pkg/cli/config"
	"github.com/secmon-lab/shepherd/pkg/repository"
	"github.com/secmon-lab/shepherd/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdConnect() *cli.Command {
	var (
		snykCfg    config.Snyk
		connectCfg config.Connect
	)

	flags := joinFlags(
		snykCfg.Flags(),
		connectCfg.Flags(),
	)

	return &cli.Command{
		Name:  "connect",
		Usage: "Attach every organization in a snapshot to a Universal Broker connection",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			if err := connectCfg.Validate(); err != nil {
				return err
			}

			// Configure validates the API settings and loads the token,
			// so a missing SNYK_TOKEN surfaces here, before any request
			client, err := snykCfg.Configure()
			if err != nil {
				return err
			}

			logger.Info("Starting broker connection run",
				slog.Any("snyk", snykCfg),
				slog.Any("connect", connectCfg),
			)

			uc := usecase.NewConnect(client, repository.NewFilesystem(),
				usecase.WithDelay(connectCfg.Delay),
			)

			// Per-organization failures are recorded in the run log and do
			// not fail the command; only fatal errors reach here
			if _, err := uc.Execute(ctx, connectCfg.Input()); err != nil {
				return err
			}
			return nil
		},
	}
}
