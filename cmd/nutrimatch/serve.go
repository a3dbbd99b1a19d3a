package main

import (
	"github.com/spf13/cobra"

	"github.com/lueurxax/nutrimatch/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API with health checks and metrics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		cfg, logger, err := setup()
		if err != nil {
			return err
		}

		database, err := connect(ctx, cfg, &logger)
		if err != nil {
			return err
		}

		if database != nil {
			defer database.Close()

			if err := database.Migrate(ctx); err != nil {
				return err
			}
		}

		logger.Info().Int("port", cfg.API.Port).Bool("postgres", database != nil).Msg("Starting nutrimatch")

		if err := app.New(cfg, database, &logger).RunServer(ctx); err != nil {
			return err
		}

		logger.Info().Msg("application stopped")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
