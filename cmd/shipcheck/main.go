// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the shipcheck CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/shipcheck/internal/config"
	"github.com/pdiddy/shipcheck/internal/secrets"
	"github.com/pdiddy/shipcheck/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// cfg is loaded once per invocation before any subcommand runs.
	cfg *types.Config

	// loadedSecrets holds credentials read from .secrets/ at startup.
	loadedSecrets secrets.Secrets
)

// rootCmd is the base command for the shipcheck CLI.
var rootCmd = &cobra.Command{
	Use:   "shipcheck",
	Short: "Extract and reconcile shipping document quantities",
	Long: `shipcheck reads a bill of lading, a commercial invoice and a packing list,
extracts the carton count, gross weight and volume from each, and reports
whether the documents agree.

Operator rules steer extraction per vendor, and every corrected value is
remembered so the next document from the same vendor is read correctly.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfgFile, _ := cmd.Flags().GetString("config")
		c, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			c.Log.Level = lvl
		}
		if err := config.InitLogger(c.Log); err != nil {
			return err
		}
		cfg = c

		s, err := secrets.Load(secrets.DefaultDir)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if names := s.Names(); len(names) > 0 {
			zap.L().Debug("secrets loaded", zap.Strings("names", names))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./shipcheck.yaml or ~/.config/shipcheck/shipcheck.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "override log.level (debug, info, warn, error)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
