package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zonova/leadscout/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "leadscout",
	Short: "Local business lead acquisition and pipeline tracker",
	Long:  "Searches Google Places for local businesses, qualifies the ones without a website, and tracks saved leads through a sales pipeline.",
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
