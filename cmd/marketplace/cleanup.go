package main

import (
	"context"
	"time"

	"translation_marketplace/internal/infra/config"
	idb "translation_marketplace/internal/infra/database"
	"translation_marketplace/internal/infra/logger"

	"github.com/spf13/cobra"
)

func newCleanupJobsCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "cleanup-jobs",
		Short: "Delete fired reminder jobs older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger.Init(cfg)
			log := logger.Get()

			db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
			defer cancel()

			cutoff := time.Now().AddDate(0, 0, -days)
			deleted, err := idb.NewPostgresReminderRepository(db).DeleteFiredBefore(ctx, cutoff)
			if err != nil {
				return err
			}
			log.WithFields(map[string]any{
				"deleted": deleted,
				"cutoff":  cutoff.Format("2006-01-02"),
			}).Info("fired reminder jobs deleted")
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 7, "delete fired jobs older than this many days")
	return cmd
}
