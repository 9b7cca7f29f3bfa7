package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/underwriting-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "underwriting-cli",
	Short: "Underwriting model intake pipeline",
	Long:  "Discovers legacy underwriting model spreadsheets, groups them by structural fingerprint, infers field locations per group, and extracts typed values with provenance.",
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
