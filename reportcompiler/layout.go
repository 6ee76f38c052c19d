package reportcompiler

// Grid describes how a set of photographs is arranged on the page.
type Grid struct {
	Columns int
	Rows    int
}

// PlanGrid returns the layout density for n photographs: a single photo
// gets one large cell, two to four photos flow into two columns, five or
// more into three.
func PlanGrid(n int) Grid {
	switch {
	case n <= 0:
		return Grid{}
	case n == 1:
		return Grid{Columns: 1, Rows: 1}
	case n <= 4:
		return Grid{Columns: 2, Rows: (n + 1) / 2}
	default:
		return Grid{Columns: 3, Rows: (n + 2) / 3}
	}
}

// SplitRows chunks images into rows of cols cells, padding the final row
// with empty strings so every row is the same width.
func SplitRows(images []string, cols int) [][]string {
	if cols < 1 || len(images) == 0 {
		return nil
	}
	var rows [][]string
	for start := 0; start < len(images); start += cols {
		end := start + cols
		if end > len(images) {
			end = len(images)
		}
		row := make([]string, cols)
		copy(row, images[start:end])
		rows = append(rows, row)
	}
	return rows
}

// UniformColumns returns the spreadsheet image-column count for a
// project-wide row width, floored at one.
func UniformColumns(maxImagesPerRow int) int {
	if maxImagesPerRow < 1 {
		return 1
	}
	return maxImagesPerRow
}

// CellBox returns the photo cell budget and column width in millimeters
// for a grid density.
func (o Options) CellBox(cols int) (cellW, cellH, colW float64) {
	switch cols {
	case 1:
		return o.SingleImageW, o.SingleImageH, o.SingleColW
	case 2:
		return o.TwoColCell, o.TwoColCell, o.TwoColW
	default:
		return o.ThreeColCell, o.ThreeColCell, o.ThreeColW
	}
}
