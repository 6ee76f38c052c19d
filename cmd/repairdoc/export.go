package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/opd-ai/repairdoc/report"
	"github.com/opd-ai/repairdoc/reportcompiler"
)

func newExportCmd() *cobra.Command {
	var (
		format  string
		out     string
		tempDir string
		font    string
	)

	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Render a project file to xlsx and/or pdf",
		Example: `  repairdoc export pump.json --format excel --out pump.xlsx
  repairdoc export pump.json --format all --out reports/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := report.Load(args[0])
			if err != nil {
				return err
			}

			opts := reportcompiler.DefaultOptions()
			opts.TempDir = tempDir
			if opts.TempDir == "" {
				opts.TempDir = os.TempDir()
			}
			opts.FontPath = font

			comp := reportcompiler.New(opts, cliLogger(cmd))
			base := "维修报告_" + time.Now().Format("20060102_150405")

			var outputs []string
			writeOne := func(render func(*report.Project, string) (*reportcompiler.Tracker, error), path string) error {
				tracker, err := render(p, path)
				if tracker != nil {
					defer tracker.Dispose()
				}
				if err != nil {
					return err
				}
				outputs = append(outputs, path)
				return nil
			}

			switch format {
			case "excel":
				path := out
				if path == "" {
					path = base + ".xlsx"
				}
				if err := writeOne(comp.ExportExcel, path); err != nil {
					return err
				}
			case "pdf":
				path := out
				if path == "" {
					path = base + ".pdf"
				}
				if err := writeOne(comp.ExportPDF, path); err != nil {
					return err
				}
			case "all":
				dir := out
				if dir == "" {
					dir = "."
				}
				if err := writeOne(comp.ExportExcel, filepath.Join(dir, base+".xlsx")); err != nil {
					return err
				}
				if err := writeOne(comp.ExportPDF, filepath.Join(dir, base+".pdf")); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unsupported export format %q", format)
			}

			for _, path := range outputs {
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "excel", `output format: "excel", "pdf" or "all"`)
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (directory when --format all)")
	cmd.Flags().StringVar(&tempDir, "temp-dir", "", "directory for intermediate image artifacts")
	cmd.Flags().StringVar(&font, "font", "", "TTF font for CJK text in the PDF")
	return cmd
}
