package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/config"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/logging"
	"go.uber.org/zap"
)

var (
	cfg        *config.Config
	logger     *zap.Logger
	jsonOutput bool
	userID     string
)

var rootCmd = &cobra.Command{
	Use:   "syncctl",
	Short: "Wearable sync maintenance tool",
	Long: `syncctl applies schema migrations and runs one-off syncs.
It can also print a user's connection status or audit history and export PDF reports.

Configuration is read from the same environment variables as the service.`,
	PersistentPreRunE: setup,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", failure("error:"), err)
		os.Exit(1)
	}
}

func setup(_ *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err = logging.New(cfg.Logging.Level, "console")
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

func openPool(ctx context.Context) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

func requireUser(cmd *cobra.Command) {
	cmd.Flags().StringVar(&userID, "user", "", "user id")
	_ = cmd.MarkFlagRequired("user")
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print JSON instead of text")

	rootCmd.AddCommand(migrateCmd, syncCmd, statusCmd, auditCmd, reportCmd)
}
