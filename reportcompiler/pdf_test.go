package reportcompiler

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/opd-ai/repairdoc/report"
)

// pdfPageCount counts page objects in the document. gofpdf compresses
// content streams but writes object dictionaries as plain text.
func pdfPageCount(data []byte) int {
	return bytes.Count(data, []byte("/Type /Page")) - bytes.Count(data, []byte("/Type /Pages"))
}

func renderPDF(t *testing.T, p *report.Project) ([]byte, *Tracker) {
	t.Helper()
	opts := testOptions(t)
	c := New(opts, zap.NewNop())
	out := filepath.Join(t.TempDir(), "report.pdf")
	tracker, err := c.ExportPDF(p, out)
	require.NoError(t, err)
	t.Cleanup(tracker.Dispose)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	return data, tracker
}

func TestPDFQ1Scenario(t *testing.T) {
	p := q1Project(t)
	data, tracker := renderPDF(t, p)

	assert.True(t, len(data) > 2000, "document carries embedded photos")
	assert.Equal(t, "%PDF-", string(data[:5]))
	assert.Len(t, tracker.Paths(), 3, "one JPEG artifact per photo")
	for _, path := range tracker.Paths() {
		assert.Contains(t, filepath.Base(path), "pdf_img_")
		assert.Equal(t, ".jpg", filepath.Ext(path))
	}
}

func TestPDFTextOnlyFallback(t *testing.T) {
	p := report.New("文字报告")
	p.AddItem("检查供水管路密封情况")
	p.AddItem("更换配电柜老化线缆")
	p.AddItem("清洗冷却塔填料")

	data, tracker := renderPDF(t, p)

	assert.Equal(t, "%PDF-", string(data[:5]))
	assert.Equal(t, 1, pdfPageCount(data), "compact table stays on one page")
	assert.Empty(t, tracker.Paths(), "no artifacts for a text-only document")
}

func TestPDFMissingImageStillSucceeds(t *testing.T) {
	p := report.New("")
	p.AddItem("更换轴承")
	_, err := p.AddImages(0, filepath.Join(t.TempDir(), "nowhere.jpg"))
	require.NoError(t, err)

	data, tracker := renderPDF(t, p)

	assert.Equal(t, "%PDF-", string(data[:5]))
	assert.Empty(t, tracker.Paths())
}

func TestPDFMixedDensities(t *testing.T) {
	dir := t.TempDir()
	p := report.New("混合密度")

	p.AddItem("单图项目")
	_, err := p.AddImages(0, writeTestPNG(t, dir, "one.png", 320, 240))
	require.NoError(t, err)

	p.AddItem("双列项目")
	for i := 0; i < 4; i++ {
		_, err := p.AddImages(1, writeTestPNG(t, dir, "two"+string(rune('a'+i))+".png", 200, 150))
		require.NoError(t, err)
	}

	p.AddItem("三列项目")
	for i := 0; i < 6; i++ {
		_, err := p.AddImages(2, writeTestPNG(t, dir, "three"+string(rune('a'+i))+".png", 200, 150))
		require.NoError(t, err)
	}

	p.AddItem("无图项目")

	data, tracker := renderPDF(t, p)

	assert.Equal(t, "%PDF-", string(data[:5]))
	assert.Len(t, tracker.Paths(), 11)
}

func TestPDFBreakBeforeImageHeavySection(t *testing.T) {
	dir := t.TempDir()
	p := report.New("泵房检修")

	p.AddItem("更换水泵密封圈")
	for i := 0; i < 2; i++ {
		_, err := p.AddImages(0, writeTestPNG(t, dir, fmt.Sprintf("seal%d.png", i), 200, 150))
		require.NoError(t, err)
	}

	p.AddItem("管廊渗漏整治")
	for i := 0; i < 5; i++ {
		_, err := p.AddImages(1, writeTestPNG(t, dir, fmt.Sprintf("leak%d.png", i), 200, 150))
		require.NoError(t, err)
	}

	data, tracker := renderPDF(t, p)

	assert.Equal(t, 2, pdfPageCount(data), "five-photo section opens its own page")
	assert.Len(t, tracker.Paths(), 7)
}

func TestPDFBreakEveryThirdSection(t *testing.T) {
	dir := t.TempDir()
	opts := testOptions(t)
	opts.SingleImageW = 45
	opts.SingleImageH = 30

	p := report.New("周期巡检")
	for i := 0; i < 4; i++ {
		p.AddItem(fmt.Sprintf("巡检点位 %d", i+1))
		_, err := p.AddImages(i, writeTestPNG(t, dir, fmt.Sprintf("spot%d.png", i), 160, 120))
		require.NoError(t, err)
	}

	c := New(opts, zap.NewNop())
	out := filepath.Join(t.TempDir(), "report.pdf")
	tracker, err := c.ExportPDF(p, out)
	require.NoError(t, err)
	t.Cleanup(tracker.Dispose)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, 2, pdfPageCount(data), "fourth section starts a fresh page")
	assert.Len(t, tracker.Paths(), 4)
}

func TestPDFWriteFailure(t *testing.T) {
	p := report.New("x")
	p.AddItem("项目")
	opts := testOptions(t)
	c := New(opts, zap.NewNop())

	blocker := touch(t, t.TempDir(), "file.txt")
	tracker, err := c.ExportPDF(p, filepath.Join(blocker, "report.pdf"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDocumentWrite))
	assert.NotNil(t, tracker)
}

func TestPDFEmptyProject(t *testing.T) {
	data, _ := renderPDF(t, report.New("空"))
	assert.Equal(t, "%PDF-", string(data[:5]))
}

func TestPDFRepeatedExportsComparable(t *testing.T) {
	p := q1Project(t)

	a, _ := renderPDF(t, p)
	b, _ := renderPDF(t, p)

	assert.InDelta(t, len(a), len(b), 64, "pinned timestamp keeps repeated exports structurally alike")
}
