package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmehdipour/inventory-sim/internal/kafka"
	"github.com/jmehdipour/inventory-sim/internal/model"
	"github.com/spf13/cobra"
)

var (
	adjustDelta  int64
	adjustReason string
)

var adjustCmd = &cobra.Command{
	Use:   "adjust ITEM_ID",
	Short: "Publish an inventory adjustment to Kafka",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if adjustDelta == 0 {
			return errors.New("--delta must not be zero")
		}

		payload, err := json.Marshal(model.Adjustment{ItemID: args[0], Delta: adjustDelta, Reason: adjustReason})
		if err != nil {
			return err
		}

		p := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer p.Close()
		if err := p.Publish(cmd.Context(), []byte(args[0]), payload); err != nil {
			return fmt.Errorf("publish: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "published %s to %s\n", payload, cfg.Kafka.Topic)
		return nil
	},
}

func init() {
	adjustCmd.Flags().Int64Var(&adjustDelta, "delta", 0, "signed quantity change")
	adjustCmd.Flags().StringVar(&adjustReason, "reason", "manual", "free-text reason")
}
