package main

import (
	"errors"

	"github.com/spf13/cobra"
)

var errNoDatabase = errors.New("POSTGRES_DSN is not set")

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
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

		if database == nil {
			return errNoDatabase
		}
		defer database.Close()

		if err := database.Migrate(ctx); err != nil {
			return err
		}

		logger.Info().Msg("Migrations applied")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
