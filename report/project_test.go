package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddItemAssignsSequentialIDs(t *testing.T) {
	p := New("测试项目")
	a := p.AddItem("更换水泵")
	b := p.AddItem("检修管道")

	assert.Equal(t, 1, a.ID)
	assert.Equal(t, 2, b.ID)
	assert.Len(t, p.Items, 2)
}

func TestMaxImagesPerRowInvariant(t *testing.T) {
	p := New("")
	assert.Equal(t, 1, p.MaxImagesPerRow, "empty project floors at one")

	p.AddItem("无图片项目")
	assert.Equal(t, 1, p.MaxImagesPerRow, "items without images floor at one")

	p.AddItem("三图项目")
	_, err := p.AddImages(1, "a.jpg", "b.jpg", "c.jpg")
	require.NoError(t, err)
	assert.Equal(t, 3, p.MaxImagesPerRow)

	p.AddItem("五图项目")
	_, err = p.AddImages(2, "1.png", "2.png", "3.png", "4.png", "5.png")
	require.NoError(t, err)
	assert.Equal(t, 5, p.MaxImagesPerRow)

	require.NoError(t, p.ClearImages(2))
	assert.Equal(t, 3, p.MaxImagesPerRow, "invariant recomputed after clearing")

	p.RemoveItems(1)
	assert.Equal(t, 1, p.MaxImagesPerRow, "invariant recomputed after removal")
}

func TestAddImagesDeduplicates(t *testing.T) {
	p := New("")
	p.AddItem("项目")

	added, err := p.AddImages(0, "x.jpg", "y.jpg")
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	added, err = p.AddImages(0, "x.jpg", "z.jpg")
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Equal(t, []string{"x.jpg", "y.jpg", "z.jpg"}, p.Items[0].Images)
}

func TestRemoveImage(t *testing.T) {
	p := New("")
	p.AddItem("项目")
	_, err := p.AddImages(0, "a.jpg", "b.jpg", "c.jpg")
	require.NoError(t, err)

	require.NoError(t, p.RemoveImage(0, "b.jpg"))
	assert.Equal(t, []string{"a.jpg", "c.jpg"}, p.Items[0].Images)

	err = p.RemoveImage(0, "missing.jpg")
	assert.Error(t, err)
}

func TestMovePreservesOrder(t *testing.T) {
	p := New("")
	p.AddItem("第一项")
	p.AddItem("第二项")
	p.AddItem("第三项")

	require.NoError(t, p.Move(2, -1))
	assert.Equal(t, "第三项", p.Items[1].Description)
	assert.Equal(t, "第二项", p.Items[2].Description)

	assert.Error(t, p.Move(0, -1), "moving past the top fails")
	assert.Error(t, p.Move(5, 1), "out of range index fails")
}

func TestRemoveItemsIgnoresInvalidIndices(t *testing.T) {
	p := New("")
	p.AddItem("甲")
	p.AddItem("乙")
	p.AddItem("丙")

	removed := p.RemoveItems(2, 0, 99, -1)
	assert.Equal(t, 2, removed)
	require.Len(t, p.Items, 1)
	assert.Equal(t, "乙", p.Items[0].Description)
}

func TestRemoveItemByID(t *testing.T) {
	p := New("")
	p.AddItem("甲")
	b := p.AddItem("乙")

	assert.True(t, p.RemoveItemByID(b.ID))
	assert.False(t, p.RemoveItemByID(999))
	assert.Len(t, p.Items, 1)
}

func TestSnapshotIsolation(t *testing.T) {
	p := New("原始标题")
	p.AddItem("项目")
	_, err := p.AddImages(0, "a.jpg")
	require.NoError(t, err)

	snap := p.Snapshot()
	p.Title = "修改后的标题"
	_, err = p.AddImages(0, "b.jpg")
	require.NoError(t, err)
	require.NoError(t, p.SetDescription(0, "改写"))

	assert.Equal(t, "原始标题", snap.Title)
	assert.Equal(t, "项目", snap.Items[0].Description)
	assert.Equal(t, []string{"a.jpg"}, snap.Items[0].Images)
}

func TestExportTitleFallback(t *testing.T) {
	p := New("   ")
	assert.Equal(t, DefaultTitle, p.ExportTitle())

	p.Title = "2024年3月维修报告"
	assert.Equal(t, "2024年3月维修报告", p.ExportTitle())
}

func TestStats(t *testing.T) {
	p := New("")
	p.AddItem("甲")
	p.AddItem("乙")
	_, err := p.AddImages(0, "a.jpg", "b.jpg")
	require.NoError(t, err)
	_, err = p.AddImages(1, "c.jpg")
	require.NoError(t, err)

	s := p.Stats()
	assert.Equal(t, 2, s.Items)
	assert.Equal(t, 3, s.Images)
}
