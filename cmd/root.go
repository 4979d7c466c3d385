package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/chatlead/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "chatlead",
	Short: "Conversation-to-lead pipeline",
	Long:  "Harvests expiring chat sessions from the session cache, scores each conversation through an analysis provider cascade, persists qualified leads, and fans them out to spreadsheet, Salesforce, Notion, and webhook subscribers.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
