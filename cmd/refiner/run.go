package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amityadav/refiner/internal/core"
	appfx "github.com/amityadav/refiner/internal/fx"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func runCMD() *cobra.Command {
	var limit int
	var dryRun bool
	run := &cobra.Command{
		Use:   "run",
		Short: "Enrich one batch of unprocessed articles and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			var pipeline *core.EnrichmentCore
			app := fx.New(
				appfx.PipelineModules,
				fx.Supply(appfx.Options{DryRun: dryRun, Limit: limit}),
				fx.Populate(&pipeline),
				fxLogger(),
			)
			if err := app.Err(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := app.Start(ctx); err != nil {
				return err
			}
			defer func() {
				stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				defer cancel()
				_ = app.Stop(stopCtx)
			}()

			report, err := pipeline.Run(ctx)
			if report != nil {
				fmt.Println(report)
			}
			return err
		},
	}
	run.Flags().IntVar(&limit, "limit", 0, "maximum articles to process (0 = PIPELINE_BATCH_LIMIT)")
	run.Flags().BoolVar(&dryRun, "dry-run", false, "synthesize without persisting")
	return run
}
