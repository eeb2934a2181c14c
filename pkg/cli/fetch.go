package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/dsfetch/pkg/cli/config"
	"github.com/m-mizutani/dsfetch/pkg/report"
	"github.com/m-mizutani/dsfetch/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// consoleOutput is where progress and failure reports are printed
var consoleOutput io.Writer = os.Stdout

func fetchAction(fetchCfg *config.Fetch, sentryCfg *config.Sentry) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		if err := fetchCfg.LoadFile(c.IsSet); err != nil {
			return err
		}

		req, err := fetchCfg.Request()
		if err != nil {
			return err
		}

		flush, err := sentryCfg.Configure()
		if err != nil {
			return err
		}
		defer flush()

		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger := ctxlog.From(ctx).With(
			"run_id", uuid.NewString(),
			"dataset", req.Dataset.String(),
		)
		ctx = ctxlog.With(ctx, logger)

		console := report.NewConsole(consoleOutput)
		fetcher := usecase.NewFetcher(fetchCfg.NewClient(), console)

		if _, err := fetcher.Run(ctx, req); err != nil {
			console.Failure(ctx, err)
			if sentryCfg.Enabled() {
				sentry.CaptureException(err)
			}
			return err
		}

		return nil
	}
}
