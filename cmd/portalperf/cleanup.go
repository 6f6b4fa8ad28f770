package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/atlasinovacoes/portalperf/internal/config"
	"github.com/atlasinovacoes/portalperf/internal/runlog"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Clean up old run history",
	RunE:  runCleanup,
}

var (
	cleanupDays   int
	cleanupDryRun bool
)

func init() {
	cleanupCmd.Flags().IntVar(&cleanupDays, "days", 90, "Delete runs older than N days")
	cleanupCmd.Flags().BoolVar(&cleanupDryRun, "dry-run", false, "Show what would be deleted without actually deleting")
	cleanupCmd.Flags().StringVarP(&configFile, "config", "c", "/etc/portalperf/config.yaml", "Path to configuration file")
}

func runCleanup(cmd *cobra.Command, args []string) error {
	if cleanupDays < 1 {
		return fmt.Errorf("--days must be at least 1")
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	db, err := runlog.New(cfg.Storage.HistoryPath)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return err
	}

	cutoff := time.Now().AddDate(0, 0, -cleanupDays)
	repo := runlog.NewRepository(db)

	if cleanupDryRun {
		count, err := repo.CountOlderThan(cmd.Context(), cutoff)
		if err != nil {
			return err
		}
		fmt.Printf("Dry run: %d run(s) older than %d days would be deleted\n", count, cleanupDays)
		return nil
	}

	deleted, err := repo.DeleteOlderThan(cmd.Context(), cutoff)
	if err != nil {
		return err
	}
	fmt.Printf("Deleted %d run(s) older than %d days\n", deleted, cleanupDays)

	return nil
}
