package cmd

import (
	"github.com/jimmyBizMobile/SensAI/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sensai",
	Short: "Japanese tutor bot for Telegram",
	Long: "SensAI checks Japanese sentences, explains grammar points and posts " +
		"regular fill-in-the-blank quizzes, using a hosted language model.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBot(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("env-file", ".env", "Path to a .env file loaded before reading the environment")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(initDBCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the --env-file (if present) and the environment.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	if envFile == "" {
		return config.FromEnv(getenv)
	}
	return config.Load(envFile)
}
