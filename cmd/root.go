package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/claimline/receivables-cli/internal/config"
	"github.com/claimline/receivables-cli/internal/status"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "receivables-cli",
	Short: "Receivables analytics for the provider portal",
	Long:  "Aggregates invoice/collection records into KPI summaries, law-firm performance grades, and risk classifications.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		if cfg.Status.VocabularyFile != "" {
			if err := status.LoadOverrides(cfg.Status.VocabularyFile); err != nil {
				return fmt.Errorf("load status vocabulary: %w", err)
			}
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
