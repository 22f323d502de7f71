package main

import (
	appfx "github.com/amityadav/refiner/internal/fx"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func serveCMD() *cobra.Command {
	var memory bool
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the article API with scheduled enrichment",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fx.New(
				appfx.PipelineModules, // config, store, search, extractor, ai, pipeline
				appfx.WorkerModule,    // *worker.Worker
				appfx.ServerModule,    // HTTP server lifecycle + worker start
				fx.Supply(appfx.Options{Memory: memory, Migrate: !memory}),
				fxLogger(),
			)
			if err := app.Err(); err != nil {
				return err
			}

			// Run blocks until the app receives a shutdown signal
			app.Run()
			return nil
		},
	}
	serve.Flags().BoolVar(&memory, "memory", false, "use an in-memory store instead of Postgres")
	return serve
}
