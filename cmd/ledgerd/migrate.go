package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"equipment-ledger-backend/internal/db"
)

func NewMigrateCommand(env envFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := env()
			if err != nil {
				return err
			}
			defer logger.Sync()

			dbCfg := cfg.Database
			dbCfg.AutoMigrate = false
			gormDB, err := db.Init(&dbCfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			sqlDB, err := gormDB.DB()
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			if err := db.Migrate(gormDB, logger); err != nil {
				return err
			}
			logger.Info("migrations complete")
			return nil
		},
	}
}
