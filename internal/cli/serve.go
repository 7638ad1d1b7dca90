package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bkooistra/factuurcheck/internal/adapters/supplierpdf"
	"github.com/bkooistra/factuurcheck/internal/api"
	"github.com/bkooistra/factuurcheck/internal/application/pipeline"
	"github.com/bkooistra/factuurcheck/internal/audit"
	"github.com/bkooistra/factuurcheck/internal/infrastructure/storage"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for the web frontend",
	RunE: func(cmd *cobra.Command, args []string) error {
		if servePort != 0 {
			cfg.API.Port = servePort
		}

		repo, err := storage.NewStorage(cfg.Storage.DatabasePath)
		if err != nil {
			return fmt.Errorf("open history database: %w", err)
		}
		defer repo.Close()

		p := pipeline.New(cfg, logger, audit.New(logger, repo))
		converter := supplierpdf.New(supplierpdf.ContentExtractor{})
		server := api.NewServer(p, repo, converter, logger, cfg.API)
		return server.Run()
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
