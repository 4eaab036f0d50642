package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/repository"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the stored connection status for a user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		status, err := repository.NewConnectionStatusRepository(pool, logger).GetConnectionStatus(ctx, userID)
		if err != nil {
			return err
		}
		if status == nil {
			return fmt.Errorf("no connection status for user %s", userID)
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), status)
		}
		printStatus(cmd.OutOrStdout(), status)
		return nil
	},
}

func init() {
	requireUser(statusCmd)
}
