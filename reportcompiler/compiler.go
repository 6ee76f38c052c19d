package reportcompiler

import (
	"go.uber.org/zap"

	"github.com/opd-ai/repairdoc/report"
)

// Compiler renders projects into deliverable documents. One Compiler can
// serve many export calls; each call gets its own artifact tracker so
// concurrent exports never share or race on temp files.
type Compiler struct {
	opts   Options
	logger *zap.Logger
}

// New returns a compiler using opts. A nil logger is replaced with a nop.
func New(opts Options, logger *zap.Logger) *Compiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Compiler{opts: opts, logger: logger}
}

// ExportExcel renders p to an .xlsx workbook at outPath. The returned
// tracker holds the intermediate artifacts; dispose it once the document
// has been consumed. It is returned even on error so partial artifacts can
// still be cleaned up.
func (c *Compiler) ExportExcel(p *report.Project, outPath string) (*Tracker, error) {
	tracker := NewTracker(c.logger)
	proc := NewProcessor(c.opts, tracker, c.logger)
	err := NewExcelRenderer(c.opts, proc, c.logger).Render(p, outPath)
	return tracker, err
}

// ExportPDF renders p to a PDF document at outPath, with the same tracker
// contract as ExportExcel.
func (c *Compiler) ExportPDF(p *report.Project, outPath string) (*Tracker, error) {
	tracker := NewTracker(c.logger)
	proc := NewProcessor(c.opts, tracker, c.logger)
	err := NewPdfRenderer(c.opts, proc, c.logger).Render(p, outPath)
	return tracker, err
}
