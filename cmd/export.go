package cmd

import (
	"fmt"

	"github.com/jimmyBizMobile/SensAI/internal/database"
	"github.com/jimmyBizMobile/SensAI/internal/excel"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the quiz history to .xlsx or .csv",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		limit, _ := cmd.Flags().GetInt("limit")

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

		records, err := database.NewQuizHistoryRepository(db).List(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("query history: %w", err)
		}
		if err := excel.ExportHistory(records, out); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d quizzes to %s\n", len(records), out)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("out", "quiz_history.xlsx", "Output file (.xlsx or .csv)")
	exportCmd.Flags().Int("limit", 0, "Export only the N most recent quizzes (0 = all)")
}
