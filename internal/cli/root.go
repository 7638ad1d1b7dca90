// Package cli defines the factuurcheck command tree.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/bkooistra/factuurcheck/internal/infrastructure/config"
	"github.com/bkooistra/factuurcheck/internal/infrastructure/logging"
)

var (
	cfgFile string
	verbose bool

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "factuurcheck",
	Short: "Reconcile system exports against supplier delivery notes and invoices",
	Long: `factuurcheck compares purchase-order line items from an internal system
export against supplier documents (pakbonnen, facturen) and reports
per-line discrepancies in quantity and net amount.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.LoadOrEnvWithPath(cfgFile)
		if verbose {
			cfg.Observability.Logging.Level = "debug"
		}
		logger = logging.NewLogger(cfg.Observability.Logging)
	},
}

// Execute runs the command tree.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}
