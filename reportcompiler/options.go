package reportcompiler

import (
	"os"
	"time"
)

// pixels of artifact resolution per millimeter of page space
const pxPerMM = 10

// Options carries every layout and encoding tunable the renderers consult.
// Start from DefaultOptions and override what the deployment needs.
type Options struct {
	// TempDir receives the intermediate image artifacts.
	TempDir string
	// FontPath, when set, is tried before the platform CJK font candidates.
	FontPath string
	// Now supplies document timestamps; nil means time.Now. Pinning it also
	// pins the PDF creation date, which keeps repeated exports comparable.
	Now func() time.Time

	// Spreadsheet photo handling.
	ExcelFitWidth  int
	ExcelFitHeight int
	ExcelScale     float64
	ExcelRowMin    float64
	ExcelRowFactor float64
	Sharpen        bool
	SharpenSigma   float64

	// Spreadsheet column widths, Excel character units.
	ExcelColIndex float64
	ExcelColDesc  float64
	ExcelColImage float64

	// PDF page geometry, millimeters.
	MarginTop    float64
	MarginBottom float64
	MarginSide   float64
	HeaderGap    float64
	SectionGap   float64

	// PDF photo grid, millimeters.
	SingleImageW float64
	SingleImageH float64
	SingleColW   float64
	TwoColCell   float64
	TwoColW      float64
	ThreeColCell float64
	ThreeColW    float64
	CellPad      float64

	// PDF text-only fallback table, millimeters.
	TextIndexW float64
	TextDescW  float64

	// Pagination policy: force a break after every BreakEvery-th section,
	// before any section with more than BreakImageCount photos, and keep
	// sections with at most KeepTogetherMax photos on a single page.
	BreakEvery      int
	BreakImageCount int
	KeepTogetherMax int

	JPEGQuality int
}

// DefaultOptions returns the stock A4 layout and encoding settings.
func DefaultOptions() Options {
	return Options{
		TempDir: os.TempDir(),

		ExcelFitWidth:  1200,
		ExcelFitHeight: 900,
		ExcelScale:     0.32,
		ExcelRowMin:    40,
		ExcelRowFactor: 0.8,
		Sharpen:        true,
		SharpenSigma:   1.5,
		ExcelColIndex:  8,
		ExcelColDesc:   45,
		ExcelColImage:  52,

		MarginTop:    20,
		MarginBottom: 20,
		MarginSide:   15,
		HeaderGap:    10,
		SectionGap:   7,

		SingleImageW: 150,
		SingleImageH: 100,
		SingleColW:   170,
		TwoColCell:   70,
		TwoColW:      85,
		ThreeColCell: 50,
		ThreeColW:    56,
		CellPad:      2,

		TextIndexW: 20,
		TextDescW:  165,

		BreakEvery:      3,
		BreakImageCount: 4,
		KeepTogetherMax: 3,

		JPEGQuality: 92,
	}
}

func (o Options) timestamp() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}
