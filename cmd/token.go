package cmd

import (
	"errors"
	"fmt"

	"github.com/jmehdipour/inventory-sim/internal/auth"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token CUSTOMER_ID",
	Short: "Print a session token for a configured customer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		tokens, err := auth.NewTokenService(cfg.Auth.Secret, cfg.Auth.TokenTTL)
		if err != nil {
			return err
		}

		for _, c := range cfg.Auth.Customers {
			if c.ID != args[0] {
				continue
			}
			tok, exp, err := tokens.Issue(c.ID, c.Tier)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n# tier=%s expires=%s\n", tok, c.Tier, exp.UTC().Format("2006-01-02T15:04:05Z"))
			return nil
		}
		return errors.New("unknown customer " + args[0])
	},
}
