package main

import (
	"github.com/spf13/cobra"

	"github.com/opd-ai/repairdoc/srv/config"
	"github.com/opd-ai/repairdoc/srv/logging"
	"github.com/opd-ai/repairdoc/srv/web"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		Long: `Starts the repairdoc HTTP API: project CRUD, image uploads, batch
assignment, async export jobs and downloads. Configuration comes from
repairdoc.toml, REPAIRDOC_* environment variables and built-in defaults.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			logger := logging.New(&logging.Config{
				Level:  cfg.Log.Level,
				Format: cfg.Log.Format,
				Output: cfg.Log.Output,
			})
			defer logger.Sync()

			s, err := web.NewServer(cfg, logger.Named("web"))
			if err != nil {
				return err
			}
			return web.Run(cfg, s, logger)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to repairdoc.toml")
	return cmd
}
