package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lueurxax/nutrimatch/internal/app"
)

var papersCmd = &cobra.Command{
	Use:   "papers <ingredient>",
	Short: "Look up citations for an ingredient and print them as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		goal, err := cmd.Flags().GetString("goal")
		if err != nil {
			return err
		}

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
		}

		res, err := app.New(cfg, database, &logger).LookupPapers(ctx, args[0], goal)
		if err != nil {
			return fmt.Errorf("lookup %q: %w", args[0], err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(map[string]any{
			"papers":    res.Citations,
			"fromCache": res.FromCache,
			"fallback":  res.Fallback,
		})
	},
}

func init() {
	papersCmd.Flags().String("goal", "", "health goal to rank citations against")

	rootCmd.AddCommand(papersCmd)
}
