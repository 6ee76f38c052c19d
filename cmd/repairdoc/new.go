package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/opd-ai/repairdoc/report"
)

func newNewCmd() *cobra.Command {
	var (
		title   string
		suggest bool
	)

	cmd := &cobra.Command{
		Use:   "new [FILE]",
		Short: "Create a new project file",
		Example: `  repairdoc new --title "三月份水泵检修" pump.json
  repairdoc new --suggest`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if suggest {
				for _, s := range report.SuggestedTitles(time.Now()) {
					fmt.Fprintln(cmd.OutOrStdout(), s)
				}
				return nil
			}
			if len(args) != 1 {
				return fmt.Errorf("a project file path is required")
			}

			path := args[0]
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}

			if title == "" {
				title = report.DefaultTitle
			}
			p := report.New(title)
			if err := p.Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", path, p.Title)
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "report title")
	cmd.Flags().BoolVar(&suggest, "suggest", false, "print suggested titles and exit")
	return cmd
}
