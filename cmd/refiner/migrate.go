package main

import (
	"github.com/amityadav/refiner/internal/config"
	"github.com/amityadav/refiner/internal/errs"
	"github.com/amityadav/refiner/internal/store"
	"github.com/spf13/cobra"
)

func migrateCMD() *cobra.Command {
	var direction string
	var steps int
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cfg.DatabaseURL == "" {
				return errs.Config("DATABASE_URL is required")
			}
			return store.Migrate(cfg.DatabaseURL, direction, steps)
		},
	}
	migrate.Flags().StringVar(&direction, "direction", "up", "up or down")
	migrate.Flags().IntVar(&steps, "steps", 0, "number of steps (0 = all)")
	return migrate
}
