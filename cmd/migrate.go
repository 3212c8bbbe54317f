package cmd

import (
	"fmt"

	"github.com/jmehdipour/inventory-sim/internal/app"
	"github.com/jmehdipour/inventory-sim/internal/logger"
	"github.com/jmehdipour/inventory-sim/internal/repository"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the inventory, customers and usage tables (idempotent)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		if cfg.Inventory.Backend != "synthetic" {
			sqlDB, dialect, err := app.OpenSQL(cfg)
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			if err := repository.ApplySchema(ctx, sqlDB, dialect); err != nil {
				return fmt.Errorf("migrate %s: %w", dialect, err)
			}
			logger.Log.Info("schema applied", zap.String("dialect", string(dialect)))
		}

		if cfg.Usage.Enabled {
			chDB, err := app.OpenClickHouse(cfg)
			if err != nil {
				return err
			}
			defer chDB.Close()

			if err := repository.InitUsageSchema(ctx, chDB); err != nil {
				return fmt.Errorf("migrate clickhouse: %w", err)
			}
			logger.Log.Info("schema applied", zap.String("dialect", string(repository.DialectClickHouse)))
		}

		fmt.Println(">> Migration complete")
		return nil
	},
}
