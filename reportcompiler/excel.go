package reportcompiler

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/opd-ai/repairdoc/report"
)

// ExcelRenderer writes a project to an .xlsx workbook with a merged title
// header and one row per item. Image columns form a uniform block sized by
// the project-wide maximum.
type ExcelRenderer struct {
	opts   Options
	labels Labels
	proc   *Processor
	logger *zap.Logger
}

// NewExcelRenderer returns a renderer embedding photos through proc.
func NewExcelRenderer(opts Options, proc *Processor, logger *zap.Logger) *ExcelRenderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExcelRenderer{opts: opts, labels: ChineseLabels(), proc: proc, logger: logger}
}

type excelStyles struct {
	title    int
	subtitle int
	header   int
	index    int
	desc     int
	image    int
}

// Render writes p to an .xlsx file at outPath. Photo failures degrade to
// placeholder text in the affected cell; only a destination write failure
// fails the call.
func (r *ExcelRenderer) Render(p *report.Project, outPath string) error {
	now := r.opts.timestamp()
	f := excelize.NewFile()
	defer f.Close()

	sheet := r.labels.SheetName
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return &WriteError{Path: outPath, Err: err}
	}

	cols := UniformColumns(p.MaxImagesPerRow)
	totalCols := 2 + cols
	endCol, err := excelize.ColumnNumberToName(totalCols)
	if err != nil {
		return &WriteError{Path: outPath, Err: err}
	}

	styles, err := r.buildStyles(f)
	if err != nil {
		return &WriteError{Path: outPath, Err: err}
	}

	f.SetCellValue(sheet, "A1", p.ExportTitle())
	f.MergeCell(sheet, "A1", endCol+"1")
	f.SetCellStyle(sheet, "A1", endCol+"1", styles.title)

	f.SetCellValue(sheet, "A2", r.labels.GeneratedLine(now))
	f.MergeCell(sheet, "A2", endCol+"2")
	f.SetCellStyle(sheet, "A2", endCol+"2", styles.subtitle)

	f.SetCellValue(sheet, "A4", r.labels.ColumnIndex)
	f.SetCellValue(sheet, "B4", r.labels.ColumnDesc)
	for i := 0; i < cols; i++ {
		cell, err := excelize.CoordinatesToCellName(3+i, 4)
		if err != nil {
			return &WriteError{Path: outPath, Err: err}
		}
		f.SetCellValue(sheet, cell, fmt.Sprintf(r.labels.ColumnImage, i+1))
	}
	f.SetCellStyle(sheet, "A4", endCol+"4", styles.header)

	f.SetColWidth(sheet, "A", "A", r.opts.ExcelColIndex)
	f.SetColWidth(sheet, "B", "B", r.opts.ExcelColDesc)
	f.SetColWidth(sheet, "C", endCol, r.opts.ExcelColImage)

	for i, item := range p.Items {
		if err := r.renderRow(f, sheet, 5+i, i, item, cols, styles); err != nil {
			return &WriteError{Path: outPath, Err: err}
		}
	}

	if err := r.save(f, outPath); err != nil {
		return err
	}
	r.logger.Info("excel export complete",
		zap.String("path", outPath),
		zap.Int("items", len(p.Items)))
	return nil
}

func (r *ExcelRenderer) renderRow(f *excelize.File, sheet string, row, idx int, item *report.Item, cols int, styles excelStyles) error {
	indexCell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	descCell, err := excelize.CoordinatesToCellName(2, row)
	if err != nil {
		return err
	}
	f.SetCellValue(sheet, indexCell, idx+1)
	f.SetCellStyle(sheet, indexCell, indexCell, styles.index)
	f.SetCellValue(sheet, descCell, item.Description)
	f.SetCellStyle(sheet, descCell, descCell, styles.desc)

	firstImage, err := excelize.CoordinatesToCellName(3, row)
	if err != nil {
		return err
	}
	lastImage, err := excelize.CoordinatesToCellName(2+cols, row)
	if err != nil {
		return err
	}
	f.SetCellStyle(sheet, firstImage, lastImage, styles.image)

	images := item.Images
	if len(images) > cols {
		images = images[:cols]
	}
	rowHeight := 0.0
	for j, img := range images {
		cell, err := excelize.CoordinatesToCellName(3+j, row)
		if err != nil {
			return err
		}
		if _, err := os.Stat(img); err != nil {
			f.SetCellValue(sheet, cell, fmt.Sprintf(r.labels.FileMissing, filepath.Base(img)))
			r.logger.Warn("image missing", zap.String("image", img), zap.Error(err))
			continue
		}
		fitted, err := r.proc.Fit(img, r.opts.ExcelFitWidth, r.opts.ExcelFitHeight, ArtifactPNG)
		if err != nil {
			f.SetCellValue(sheet, cell, fmt.Sprintf(r.labels.ProcessFailed, filepath.Base(img)))
			r.logger.Warn("image processing failed", zap.String("image", img), zap.Error(err))
			continue
		}
		if err := f.AddPicture(sheet, cell, fitted.Path, &excelize.GraphicOptions{
			ScaleX: r.opts.ExcelScale,
			ScaleY: r.opts.ExcelScale,
		}); err != nil {
			f.SetCellValue(sheet, cell, fmt.Sprintf(r.labels.ProcessFailed, filepath.Base(img)))
			r.logger.Warn("image embed failed", zap.String("image", img), zap.Error(err))
			continue
		}
		h := float64(fitted.Height) * r.opts.ExcelScale * r.opts.ExcelRowFactor
		if h < r.opts.ExcelRowMin {
			h = r.opts.ExcelRowMin
		}
		if h > rowHeight {
			rowHeight = h
		}
	}
	if rowHeight > 0 {
		f.SetRowHeight(sheet, row, rowHeight)
	}
	return nil
}

func (r *ExcelRenderer) buildStyles(f *excelize.File) (excelStyles, error) {
	var s excelStyles
	var err error

	thin := []excelize.Border{
		{Type: "left", Style: 1, Color: "000000"},
		{Type: "right", Style: 1, Color: "000000"},
		{Type: "top", Style: 1, Color: "000000"},
		{Type: "bottom", Style: 1, Color: "000000"},
	}

	s.title, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 20, Family: "微软雅黑"},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return s, err
	}
	s.subtitle, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Italic: true, Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return s, err
	}
	s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E6E6FA"}},
		Border:    thin,
	})
	if err != nil {
		return s, err
	}
	s.index, err = f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thin,
	})
	if err != nil {
		return s, err
	}
	s.desc, err = f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "top", WrapText: true},
		Border:    thin,
	})
	if err != nil {
		return s, err
	}
	s.image, err = f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    thin,
	})
	return s, err
}

// save writes the workbook through a temporary sibling so a failed write
// never leaves a truncated document claiming success.
func (r *ExcelRenderer) save(f *excelize.File, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return &WriteError{Path: outPath, Err: err}
	}
	tmp := outPath + ".tmp"
	if err := f.SaveAs(tmp); err != nil {
		os.Remove(tmp)
		return &WriteError{Path: outPath, Err: err}
	}
	if err := os.Rename(tmp, outPath); err != nil {
		os.Remove(tmp)
		return &WriteError{Path: outPath, Err: err}
	}
	return nil
}
