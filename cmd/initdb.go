package cmd

import (
	"fmt"

	"github.com/jimmyBizMobile/SensAI/internal/database"
	"github.com/spf13/cobra"
)

var initDBCmd = &cobra.Command{
	Use:   "initdb",
	Short: "Create the database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is not set")
		}

		db, err := database.Open(cmd.Context(), cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		fmt.Fprintln(cmd.OutOrStdout(), "Tables created successfully.")
		return nil
	},
}
