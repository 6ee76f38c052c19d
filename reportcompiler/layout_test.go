package reportcompiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlanGrid(t *testing.T) {
	cases := []struct {
		name string
		n    int
		want Grid
	}{
		{"none", 0, Grid{}},
		{"negative", -3, Grid{}},
		{"single", 1, Grid{Columns: 1, Rows: 1}},
		{"pair", 2, Grid{Columns: 2, Rows: 1}},
		{"three", 3, Grid{Columns: 2, Rows: 2}},
		{"four", 4, Grid{Columns: 2, Rows: 2}},
		{"five", 5, Grid{Columns: 3, Rows: 2}},
		{"six", 6, Grid{Columns: 3, Rows: 2}},
		{"seven", 7, Grid{Columns: 3, Rows: 3}},
		{"nine", 9, Grid{Columns: 3, Rows: 3}},
		{"ten", 10, Grid{Columns: 3, Rows: 4}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, PlanGrid(tc.n))
		})
	}
}

func TestSplitRowsPadsFinalRow(t *testing.T) {
	rows := SplitRows([]string{"a", "b", "c", "d", "e"}, 3)
	assert.Equal(t, [][]string{
		{"a", "b", "c"},
		{"d", "e", ""},
	}, rows)

	for _, row := range rows {
		assert.Len(t, row, 3, "every row is rectangular")
	}
}

func TestSplitRowsEdgeCases(t *testing.T) {
	assert.Nil(t, SplitRows(nil, 2))
	assert.Nil(t, SplitRows([]string{"a"}, 0))
	assert.Equal(t, [][]string{{"a", ""}}, SplitRows([]string{"a"}, 2))
}

func TestUniformColumns(t *testing.T) {
	assert.Equal(t, 1, UniformColumns(0))
	assert.Equal(t, 1, UniformColumns(-2))
	assert.Equal(t, 1, UniformColumns(1))
	assert.Equal(t, 7, UniformColumns(7))
}

func TestCellBoxByDensity(t *testing.T) {
	o := DefaultOptions()

	w, h, col := o.CellBox(1)
	assert.Equal(t, 150.0, w)
	assert.Equal(t, 100.0, h)
	assert.Equal(t, 170.0, col)

	w, h, col = o.CellBox(2)
	assert.Equal(t, 70.0, w)
	assert.Equal(t, 70.0, h)
	assert.Equal(t, 85.0, col)

	w, h, col = o.CellBox(3)
	assert.Equal(t, 50.0, w)
	assert.Equal(t, 50.0, h)
	assert.Equal(t, 56.0, col)
}
