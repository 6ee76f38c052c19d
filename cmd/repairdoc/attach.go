package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opd-ai/repairdoc/report"
	"github.com/opd-ai/repairdoc/reportcompiler"
)

func newAttachCmd() *cobra.Command {
	var item int

	cmd := &cobra.Command{
		Use:   "attach FILE IMAGE...",
		Short: "Attach image files to a repair item",
		Long: `Attach validates each image (existence, extension, decodability) and
appends the ones that pass to the chosen item. Paths the item already
holds are skipped. Items are numbered from 1 in preview order.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := report.Load(args[0])
			if err != nil {
				return err
			}

			idx := item - 1
			if _, err := p.ItemAt(idx); err != nil {
				return err
			}

			var valid []string
			for _, img := range args[1:] {
				if err := reportcompiler.ValidateImageFile(img); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "skipping %s: %v\n", img, err)
					continue
				}
				valid = append(valid, img)
			}

			added, err := p.AddImages(idx, valid...)
			if err != nil {
				return err
			}
			if err := p.Save(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "attached %d image(s) to item %d\n", added, item)
			return nil
		},
	}

	cmd.Flags().IntVarP(&item, "item", "i", 1, "item number (1-based)")
	return cmd
}
