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

func cmdCollect() *cli.Command {
	var (
		snykCfg    config.Snyk
		collectCfg config.Collect
	)

	flags := joinFlags(
		snykCfg.Flags(),
		collectCfg.Flags(),
	)

	return &cli.Command{
		Name:  "collect",
		Usage: "Fetch all organizations of a Snyk group into a snapshot file",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			if err := collectCfg.Validate(); err != nil {
				return err
			}

			// Configure validates the API settings and loads the token,
			// so a missing SNYK_TOKEN surfaces here, before any request
			client, err := snykCfg.Configure()
			if err != nil {
				return err
			}

			logger.Info("Starting organization collection",
				slog.Any("snyk", snykCfg),
				slog.Any("collect", collectCfg),
			)

			uc := usecase.NewCollect(client, repository.NewFilesystem(),
				usecase.WithPageSize(collectCfg.PageSize),
				usecase.WithMaxPages(collectCfg.MaxPages),
				usecase.WithAPIBase(snykCfg.APIURL),
			)

			if _, err := uc.Execute(ctx, collectCfg.Input()); err != nil {
				return err
			}
			return nil
		},
	}
}
