package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/migration"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := migration.NewRunner(cfg.Database.URL, nil, logger).Up(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), success("schema is up to date"))
		return nil
	},
}
