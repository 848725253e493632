// Command accessgate runs the research data access gating engine: the HTTP
// API, the periodic compliance reconciliation and the initial credits sweep.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"accessgate/internal/platform/config"
	"accessgate/internal/platform/logger"
	"accessgate/internal/platform/metrics"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "accessgate",
	Short:        "Research data access gating engine",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.AddCommand(serveCmd, reconcileCmd, creditsCmd, migrateCmd, tokenCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// loadApp reads configuration and wires the application for one command.
func loadApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return newApp(cmd.Context(), cfg, logger.New(cfg.Log.Level, cfg.Log.Format), metrics.NewRegistry())
}
