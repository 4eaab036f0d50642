package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/audit"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/azure"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/bridge"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/events"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/healthsource"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/platform"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/repository"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/service"
)

var syncDate string

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one orchestrated sync for a user",
	Long: `Reads the health store for the day, falls back to the manual record when the
wearable yields nothing, and merges the result into the daily record.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		location, err := cfg.Sync.Location()
		if err != nil {
			return err
		}

		var date *time.Time
		if syncDate != "" {
			d, err := time.ParseInLocation(time.DateOnly, syncDate, location)
			if err != nil {
				return fmt.Errorf("invalid --date %q: %w", syncDate, err)
			}
			date = &d
		}

		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		healthDataRepo := repository.NewHealthDataRepository(pool, logger)
		healthBridge, err := bridge.New(cfg.Bridge.Kind, cfg.Bridge.RemoteURL, cfg.Bridge.RemoteTimeout, healthDataRepo, logger)
		if err != nil {
			return err
		}
		capability := platform.New(platform.ParsePlatform(cfg.Bridge.Platform), healthBridge, logger)

		var publisher service.EventPublisher = events.NopPublisher{}
		if cfg.Redis.Addr != "" {
			client := events.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
			defer client.Close()
			publisher = events.NewRedisPublisher(client, cfg.Redis.Stream, logger)
		}

		var archiver service.SnapshotArchiver = azure.NopArchive{}
		if cfg.Azure.Storage.Enabled() {
			archive, err := azure.OpenArchive(ctx, cfg.Azure.Storage, logger)
			if err != nil {
				return err
			}
			archiver = archive
		}

		orchestrator := service.NewSyncOrchestrator(
			healthsource.NewSource(capability, cfg.Sync.Timeout, location, logger),
			repository.NewDailyRecordRepository(pool, logger),
			repository.NewConnectionStatusRepository(pool, logger),
			publisher,
			archiver,
			audit.NewLogger(pool, logger),
			capability.Platform(),
			location,
			logger,
		)

		result := orchestrator.SyncWithFallback(ctx, userID, date)
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), result)
		}
		printSyncResult(cmd.OutOrStdout(), result)
		if !result.Success {
			return fmt.Errorf("sync failed")
		}
		return nil
	},
}

func init() {
	requireUser(syncCmd)
	syncCmd.Flags().StringVar(&syncDate, "date", "", "day to sync, YYYY-MM-DD (default today)")
}
