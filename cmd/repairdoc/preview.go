package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/opd-ai/repairdoc/report"
	"github.com/opd-ai/repairdoc/reportcompiler"
)

func newPreviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preview FILE",
		Short: "Print a plain-text preview of a project file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := report.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), reportcompiler.Preview(p, time.Now()))
			return nil
		},
	}
}
