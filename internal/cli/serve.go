package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/ppiankov/landlock/internal/api"
	"github.com/ppiankov/landlock/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	serveHost string
	servePort int
)

// serveCmd starts the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve region panels over HTTP",
	Long: `Serve exposes analysis over a JSON API:

  GET  /health
  POST /api/v1/analyze                 scrape and analyze a region
  POST /api/v1/analyze-from-registry   replay a region from the registry
  GET  /api/v1/sources/{region}        registered sources
  GET  /api/v1/panels/{region}         latest stored panel
  GET  /api/v1/panels/{region}/history stored panels, newest first`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := pipeline.NewEnv(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = env.Close() }()

		var panels api.PanelReader
		if env.Store != nil {
			panels = env.Store
		}

		host := serveHost
		if host == "" {
			host = cfg.Server.Host
		}
		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := api.NewServer(env.Runner, env.Registry, panels, Version)
		return srv.ListenAndServe(ctx, fmt.Sprintf("%s:%d", host, port))
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "listen host (default from config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
