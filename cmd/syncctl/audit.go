package main

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/audit"
)

var (
	auditLimit    int
	auditResource string
	auditSince    time.Duration
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "List the most recent audit entries for a user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		filter := audit.Filter{
			UserID:       userID,
			ResourceType: audit.ResourceType(auditResource),
			Limit:        auditLimit,
		}
		if auditSince > 0 {
			filter.Since = time.Now().Add(-auditSince)
		}

		logs, err := audit.NewLogger(pool, logger).List(ctx, filter)
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), logs)
		}
		printAuditLogs(cmd.OutOrStdout(), logs)
		return nil
	},
}

func init() {
	requireUser(auditCmd)
	auditCmd.Flags().IntVar(&auditLimit, "limit", 20, "number of entries")
	auditCmd.Flags().StringVar(&auditResource, "resource", "", "only this resource type, e.g. daily_record")
	auditCmd.Flags().DurationVar(&auditSince, "since", 0, "only entries newer than this, e.g. 72h")
}
