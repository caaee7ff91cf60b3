package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Folio server",
	Long: `Start the Folio HTTP server.

The server owns the job engine and page cache. When it shuts down (via
Ctrl+C or SIGTERM) queued loads are cancelled and the reading position
of the open book is saved.

Edits to the config file are applied while the server runs: layout
changes re-lay the open book and cache size changes take effect at once.

Examples:
  folio serve                    # Listen on server.addr (default :8484)
  folio serve --port 3000        # Start on custom port
  folio serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		h, cm, err := loadConfig()
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		logger, err := newLogger(cm.Get())
		if err != nil {
			return err
		}
		slog.SetDefault(logger)
		cm.SetLogger(logger)
		if cm.ConfigFile() != "" {
			cm.WatchConfig()
			logger.Info("watching config", "file", cm.ConfigFile())
		}

		srv, err := server.New(server.Config{
			Host:          serveHost,
			Port:          servePort,
			ConfigManager: cm,
			Home:          h,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default: from server.addr)")
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (default: from server.addr)")

	rootCmd.AddCommand(serveCmd)
}
