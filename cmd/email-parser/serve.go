package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ShipCreekGroup/email-parser/internal/config"
	"github.com/ShipCreekGroup/email-parser/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the email parser server",
	Long: `Start the email parser HTTP server.

The server hosts the browser UI, the streaming parse endpoint, and the
export endpoints. Configuration changes are picked up without a restart.

Examples:
  email-parser serve                # Start on default port 8080
  email-parser serve --port 3000    # Start on custom port
  email-parser serve --host 0.0.0.0 # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		cfgPath, err := configPath()
		if err != nil {
			return err
		}
		cfgMgr, err := config.NewManager(cfgPath)
		if err != nil {
			return err
		}
		cfgMgr.WatchConfig()

		host, port := serveHost, servePort
		if cfg := cfgMgr.Get(); cfg != nil {
			if !cmd.Flags().Changed("host") && cfg.Server.Host != "" {
				host = cfg.Server.Host
			}
			if !cmd.Flags().Changed("port") && cfg.Server.Port != "" {
				port = cfg.Server.Port
			}
		}

		srv, err := server.New(server.Config{
			Host:          host,
			Port:          port,
			ConfigManager: cfgMgr,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Blocks until shutdown
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind to")
	serveCmd.Flags().StringVar(&servePort, "port", "8080", "Port to listen on")

	rootCmd.AddCommand(serveCmd)
}
