package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opd-ai/repairdoc/report"
)

func newAddCmd() *cobra.Command {
	var desc string

	cmd := &cobra.Command{
		Use:   "add FILE",
		Short: "Append a repair item to a project file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := report.Load(args[0])
			if err != nil {
				return err
			}
			item := p.AddItem(desc)
			if err := p.Save(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added item %d\n", item.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&desc, "desc", "d", "", "repair item description")
	cmd.MarkFlagRequired("desc")
	return cmd
}
