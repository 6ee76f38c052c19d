package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/opd-ai/repairdoc/report"
	"github.com/opd-ai/repairdoc/srv/logging"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "repairdoc",
		Version: report.Version,
		Short:   "Repair report builder with Excel and PDF export",
		Long: `repairdoc assembles repair reports - numbered repair items, each with a
description and photographs - and renders them as an .xlsx spreadsheet or a
paginated A4 PDF.

Projects live in JSON files that the subcommands edit in place; the serve
subcommand exposes the same operations over HTTP.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	cmd.PersistentFlags().Bool("verbose", false, "enable debug logging")

	cmd.AddCommand(newNewCmd())
	cmd.AddCommand(newAddCmd())
	cmd.AddCommand(newAttachCmd())
	cmd.AddCommand(newPreviewCmd())
	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

func cliLogger(cmd *cobra.Command) *zap.Logger {
	level := "warn"
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = "debug"
	}
	return logging.New(&logging.Config{Level: level, Format: "console", Output: "stderr"})
}
