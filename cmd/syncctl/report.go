package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/pdf"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/repository"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/service"
)

var (
	reportFrom string
	reportTo   string
	reportOut  string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export a user's daily records as a PDF",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		location, err := cfg.Sync.Location()
		if err != nil {
			return err
		}
		to := time.Now().In(location)
		if reportTo != "" {
			if to, err = time.ParseInLocation(time.DateOnly, reportTo, location); err != nil {
				return fmt.Errorf("invalid --to %q: %w", reportTo, err)
			}
		}
		from := to.AddDate(0, 0, -29)
		if reportFrom != "" {
			if from, err = time.ParseInLocation(time.DateOnly, reportFrom, location); err != nil {
				return fmt.Errorf("invalid --from %q: %w", reportFrom, err)
			}
		}
		if to.Before(from) {
			return fmt.Errorf("--to is before --from")
		}

		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		records, err := repository.NewDailyRecordRepository(pool, logger).ListRecords(ctx, userID, service.RecordDate(from, location), service.RecordDate(to, location))
		if err != nil {
			return err
		}
		status, err := repository.NewConnectionStatusRepository(pool, logger).GetConnectionStatus(ctx, userID)
		if err != nil {
			return err
		}

		data, err := pdf.NewPDFGenerator(logger).Generate(&pdf.ReportData{
			UserID:     userID,
			From:       from,
			To:         to,
			Connection: status,
			Records:    records,
		})
		if err != nil {
			return err
		}

		if err := os.WriteFile(reportOut, data, 0o600); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %d records written to %s\n", success("report ok"), len(records), reportOut)
		return nil
	},
}

func init() {
	requireUser(reportCmd)
	reportCmd.Flags().StringVar(&reportFrom, "from", "", "first day, YYYY-MM-DD (default 30 days before --to)")
	reportCmd.Flags().StringVar(&reportTo, "to", "", "last day, YYYY-MM-DD (default today)")
	reportCmd.Flags().StringVar(&reportOut, "out", "report.pdf", "output file")
}
