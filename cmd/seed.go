package cmd

import (
	"fmt"

	"github.com/jmehdipour/inventory-sim/internal/app"
	"github.com/jmehdipour/inventory-sim/internal/logger"
	"github.com/jmehdipour/inventory-sim/internal/repository"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var seedItems int

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the sql database with sample items and the configured customers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		sqlDB, dialect, err := app.OpenSQL(cfg)
		if err != nil {
			return err
		}
		defer sqlDB.Close()

		if err := repository.ApplySchema(ctx, sqlDB, dialect); err != nil {
			return err
		}

		n := seedItems
		if n <= 0 {
			n = cfg.Inventory.SampleSize
		}
		items := repository.NewInventoryRepository(sqlDB, dialect, 0)
		if err := items.SeedSample(ctx, n); err != nil {
			return fmt.Errorf("seed items: %w", err)
		}

		customers := repository.NewCustomersRepository(sqlDB, dialect)
		if err := customers.Upsert(ctx, cfg.Auth.Customers); err != nil {
			return fmt.Errorf("seed customers: %w", err)
		}

		logger.Log.Info("seed completed",
			zap.Int("items", n), zap.Int("customers", len(cfg.Auth.Customers)))
		return nil
	},
}

func init() {
	seedCmd.Flags().IntVar(&seedItems, "items", 0, "number of sample items (default inventory.sample_size)")
}
