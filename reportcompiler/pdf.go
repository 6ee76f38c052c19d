package reportcompiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"

	"github.com/opd-ai/repairdoc/report"
)

// PdfRenderer writes a project to a paginated A4 document with a centered
// title header and one section per item with its photo grid. When no item
// has photos at all the document degrades to a compact text table.
type PdfRenderer struct {
	opts   Options
	proc   *Processor
	logger *zap.Logger

	pdf       *gofpdf.Fpdf
	labels    Labels
	font      string
	boldStyle string
	pageW     float64
	breakAt   float64
}

// NewPdfRenderer returns a renderer embedding photos through proc.
func NewPdfRenderer(opts Options, proc *Processor, logger *zap.Logger) *PdfRenderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PdfRenderer{opts: opts, proc: proc, logger: logger}
}

// Render writes p to a PDF file at outPath. Photo failures degrade to
// placeholder text in the affected cell; only a destination write failure
// fails the call.
func (r *PdfRenderer) Render(p *report.Project, outPath string) error {
	now := r.opts.timestamp()
	r.pdf = gofpdf.New("P", "mm", "A4", "")
	r.pdf.SetMargins(r.opts.MarginSide, r.opts.MarginTop, r.opts.MarginSide)
	r.pdf.SetAutoPageBreak(true, r.opts.MarginBottom)
	if r.opts.Now != nil {
		r.pdf.SetCreationDate(now)
	}
	r.setupFonts()

	w, h := r.pdf.GetPageSize()
	r.pageW = w
	r.breakAt = h - r.opts.MarginBottom

	r.pdf.AddPage()
	r.renderHeader(p.ExportTitle(), now)

	if hasImages(p) {
		for i, item := range p.Items {
			if i > 0 {
				if len(item.Images) > r.opts.BreakImageCount || i%r.opts.BreakEvery == 0 {
					r.pdf.AddPage()
				} else {
					r.pdf.Ln(r.opts.SectionGap)
				}
			}
			r.renderSection(i, item)
		}
	} else if len(p.Items) > 0 {
		r.renderTextTable(p)
	}

	if err := r.pdf.Error(); err != nil {
		return &WriteError{Path: outPath, Err: err}
	}
	if err := r.save(outPath); err != nil {
		return err
	}
	r.logger.Info("pdf export complete",
		zap.String("path", outPath),
		zap.Int("items", len(p.Items)))
	return nil
}

// setupFonts registers a CJK font when one is available, otherwise falls
// back to the built-in Helvetica with the English label set.
func (r *PdfRenderer) setupFonts() {
	if path := findCJKFont(r.opts.FontPath); path != "" {
		r.pdf.AddUTF8Font(cjkFontName, "", path)
		if !r.pdf.Err() {
			r.font = cjkFontName
			r.boldStyle = ""
			r.labels = ChineseLabels()
			return
		}
		r.pdf.ClearError()
		r.logger.Warn("CJK font failed to register", zap.String("font", path))
	}
	r.font = "Helvetica"
	r.boldStyle = "B"
	r.labels = EnglishLabels()
	r.logger.Warn("no CJK font available, rendering English labels")
}

func (r *PdfRenderer) renderHeader(title string, now time.Time) {
	r.pdf.SetFont(r.font, r.boldStyle, 20)
	r.pdf.CellFormat(0, 12, title, "", 1, "C", false, 0, "")
	r.pdf.SetFont(r.font, "", 11)
	r.pdf.SetTextColor(102, 102, 102)
	r.pdf.CellFormat(0, 6, r.labels.GeneratedLine(now), "", 1, "C", false, 0, "")
	r.pdf.SetTextColor(0, 0, 0)
	r.pdf.Ln(r.opts.HeaderGap)
}

func (r *PdfRenderer) renderSection(idx int, item *report.Item) {
	if n := len(item.Images); n > 0 && n <= r.opts.KeepTogetherMax {
		if r.pdf.GetY()+r.sectionHeight(idx, item) > r.breakAt {
			r.pdf.AddPage()
		}
	}
	r.pdf.SetFont(r.font, r.boldStyle, 12)
	r.pdf.MultiCell(0, 7, fmt.Sprintf("%d. %s", idx+1, item.Description), "", "L", false)
	r.pdf.Ln(2)

	if len(item.Images) == 0 {
		r.pdf.SetFont(r.font, "", 10)
		r.pdf.SetTextColor(128, 128, 128)
		r.pdf.MultiCell(0, 5, r.labels.NoImages, "", "L", false)
		r.pdf.SetTextColor(0, 0, 0)
		return
	}
	r.renderImageGrid(item.Images)
}

// sectionHeight estimates the vertical room a section needs so small
// sections can be kept on a single page.
func (r *PdfRenderer) sectionHeight(idx int, item *report.Item) float64 {
	r.pdf.SetFont(r.font, r.boldStyle, 12)
	contentW := r.pageW - 2*r.opts.MarginSide
	lines := r.pdf.SplitText(fmt.Sprintf("%d. %s", idx+1, item.Description), contentW)
	h := float64(len(lines))*7 + 2
	grid := PlanGrid(len(item.Images))
	_, cellH, _ := r.opts.CellBox(grid.Columns)
	h += float64(grid.Rows) * (cellH + 2*r.opts.CellPad)
	return h
}

func (r *PdfRenderer) renderImageGrid(images []string) {
	grid := PlanGrid(len(images))
	cellW, cellH, colW := r.opts.CellBox(grid.Columns)
	contentW := r.pageW - 2*r.opts.MarginSide
	blockW := float64(grid.Columns) * colW
	startX := r.opts.MarginSide + (contentW-blockW)/2
	rowHt := cellH + 2*r.opts.CellPad

	for _, row := range SplitRows(images, grid.Columns) {
		if r.pdf.GetY()+rowHt > r.breakAt {
			r.pdf.AddPage()
		}
		y := r.pdf.GetY()
		for c, img := range row {
			if img == "" {
				continue
			}
			r.renderImageCell(img, startX+float64(c)*colW, y, colW, cellW, cellH)
		}
		r.pdf.SetY(y + rowHt)
	}
}

// renderImageCell fits one photo into its cell budget and centers the
// result in the cell, or renders placeholder text when the photo fails.
func (r *PdfRenderer) renderImageCell(img string, cellX, cellY, colW, cellW, cellH float64) {
	fitted, err := r.proc.Fit(img, int(cellW)*pxPerMM, int(cellH)*pxPerMM, ArtifactJPEG)
	if err != nil {
		r.logger.Warn("image failed", zap.String("image", img), zap.Error(err))
		r.pdf.SetFont(r.font, "", 8)
		r.pdf.SetTextColor(150, 150, 150)
		r.pdf.SetXY(cellX+r.opts.CellPad, cellY+r.opts.CellPad)
		r.pdf.MultiCell(colW-2*r.opts.CellPad, 4,
			fmt.Sprintf("%s\n%s", r.labels.LoadFailed, filepath.Base(img)), "", "C", false)
		r.pdf.SetTextColor(0, 0, 0)
		return
	}
	w := float64(fitted.Width) / pxPerMM
	h := float64(fitted.Height) / pxPerMM
	x := cellX + (colW-w)/2
	y := cellY + r.opts.CellPad + (cellH-h)/2
	r.pdf.ImageOptions(fitted.Path, x, y, w, h, false, gofpdf.ImageOptions{}, 0, "")
}

// renderTextTable draws the compact two-column fallback used when no item
// has any photos: a filled header row and one row per item, with row
// heights measured from the wrapped description.
func (r *PdfRenderer) renderTextTable(p *report.Project) {
	lineHt := 6.0
	idxW, descW := r.opts.TextIndexW, r.opts.TextDescW

	r.pdf.SetLineWidth(0.18)
	r.pdf.SetDrawColor(0, 0, 0)
	r.pdf.SetFont(r.font, r.boldStyle, 12)
	r.pdf.SetFillColor(211, 211, 211)
	r.pdf.CellFormat(idxW, 8, r.labels.ColumnIndex, "1", 0, "C", true, 0, "")
	r.pdf.CellFormat(descW, 8, r.labels.ColumnDesc, "1", 1, "C", true, 0, "")

	r.pdf.SetFont(r.font, "", 10)
	for i, item := range p.Items {
		lines := r.pdf.SplitText(item.Description, descW-4)
		rowHt := float64(len(lines)) * lineHt
		if rowHt < lineHt {
			rowHt = lineHt
		}
		if r.pdf.GetY()+rowHt > r.breakAt {
			r.pdf.AddPage()
		}
		x, y := r.pdf.GetX(), r.pdf.GetY()
		r.pdf.Rect(x, y, idxW, rowHt, "D")
		r.pdf.CellFormat(idxW, rowHt, strconv.Itoa(i+1), "", 0, "C", false, 0, "")
		r.pdf.Rect(x+idxW, y, descW, rowHt, "D")
		r.pdf.SetXY(x+idxW+2, y)
		r.pdf.MultiCell(descW-4, lineHt, item.Description, "", "L", false)
		r.pdf.SetXY(x, y+rowHt)
	}
}

// save writes the document through a temporary sibling so a failed write
// never leaves a truncated document claiming success.
func (r *PdfRenderer) save(outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return &WriteError{Path: outPath, Err: err}
	}
	tmp := outPath + ".tmp"
	if err := r.pdf.OutputFileAndClose(tmp); err != nil {
		os.Remove(tmp)
		return &WriteError{Path: outPath, Err: err}
	}
	if err := os.Rename(tmp, outPath); err != nil {
		os.Remove(tmp)
		return &WriteError{Path: outPath, Err: err}
	}
	return nil
}

func hasImages(p *report.Project) bool {
	for _, it := range p.Items {
		if len(it.Images) > 0 {
			return true
		}
	}
	return false
}
