package reportcompiler

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/opd-ai/repairdoc/report"
)

// Preview renders a plain-text summary of the project: the same structure
// the documents will have, without producing any files.
func Preview(p *report.Project, now time.Time) string {
	var b strings.Builder
	bar := strings.Repeat("=", 60)
	b.WriteString(bar + "\n")
	b.WriteString(centerText(p.ExportTitle(), 60) + "\n")
	b.WriteString(bar + "\n\n")

	stats := p.Stats()
	fmt.Fprintf(&b, "生成时间: %s\n", now.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "项目总数: %d\n", stats.Items)
	fmt.Fprintf(&b, "图片总数: %d\n", stats.Images)
	fmt.Fprintf(&b, "工具版本: v%s\n\n", report.Version)

	rule := strings.Repeat("-", 60)
	for i, item := range p.Items {
		b.WriteString(rule + "\n")
		fmt.Fprintf(&b, "项目 %d: %s\n", i+1, item.Description)
		b.WriteString(rule + "\n")
		if len(item.Images) == 0 {
			b.WriteString("暂无图片\n\n")
			continue
		}
		fmt.Fprintf(&b, "包含图片 (%d 张):\n", len(item.Images))
		for j, img := range item.Images {
			b.WriteString("  " + imageLine(j+1, img) + "\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Markdown renders the same summary as a Markdown document, ready for HTML
// conversion.
func Markdown(p *report.Project, now time.Time) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", p.ExportTitle())

	stats := p.Stats()
	fmt.Fprintf(&b, "- 生成时间: %s\n", now.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "- 项目总数: %d\n", stats.Items)
	fmt.Fprintf(&b, "- 图片总数: %d\n", stats.Images)
	fmt.Fprintf(&b, "- 工具版本: v%s\n\n", report.Version)

	for i, item := range p.Items {
		fmt.Fprintf(&b, "## %d. %s\n\n", i+1, item.Description)
		if len(item.Images) == 0 {
			b.WriteString("暂无图片\n\n")
			continue
		}
		for j, img := range item.Images {
			b.WriteString(imageLine(j+1, img) + "\n")
		}
		b.WriteString("\n")
	}
	return []byte(b.String())
}

// imageLine describes one attached photo with its size and dimensions, or
// a cannot-read note when the file is unreadable.
func imageLine(n int, path string) string {
	base := filepath.Base(path)
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Sprintf("%d. %s (无法读取信息)", n, base)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Sprintf("%d. %s (无法读取信息)", n, base)
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return fmt.Sprintf("%d. %s (无法读取信息)", n, base)
	}
	return fmt.Sprintf("%d. %s (%.1fKB, %d×%d)", n, base, float64(info.Size())/1024, cfg.Width, cfg.Height)
}

func centerText(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	left := (width - n) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-n-left)
}
