package reportcompiler

import "time"

// Labels holds the static strings rendered into documents. Spreadsheets
// always use the Chinese set; the PDF renderer falls back to the English
// set when no CJK-capable font can be registered, so the document keeps
// its structure and only the fixed strings change.
type Labels struct {
	SheetName       string
	GeneratedPrefix string
	TimeFormat      string
	ColumnIndex     string
	ColumnDesc      string
	ColumnImage     string
	NoImages        string
	FileMissing     string
	ProcessFailed   string
	LoadFailed      string
}

// GeneratedLine formats the document timestamp subtitle.
func (l Labels) GeneratedLine(now time.Time) string {
	return l.GeneratedPrefix + now.Format(l.TimeFormat)
}

// ChineseLabels returns the default label set.
func ChineseLabels() Labels {
	return Labels{
		SheetName:       "维修报告",
		GeneratedPrefix: "生成时间：",
		TimeFormat:      "2006年01月02日 15:04",
		ColumnIndex:     "序号",
		ColumnDesc:      "维修内容描述",
		ColumnImage:     "图片%d",
		NoImages:        "暂无图片",
		FileMissing:     "图片文件不存在:\n%s",
		ProcessFailed:   "图片处理失败:\n%s",
		LoadFailed:      "图片加载失败",
	}
}

// EnglishLabels returns the fallback label set for PDF output without a
// CJK font.
func EnglishLabels() Labels {
	return Labels{
		SheetName:       "维修报告",
		GeneratedPrefix: "Generated: ",
		TimeFormat:      "2006-01-02 15:04",
		ColumnIndex:     "No.",
		ColumnDesc:      "Repair Description",
		ColumnImage:     "Image %d",
		NoImages:        "No images",
		FileMissing:     "file missing:\n%s",
		ProcessFailed:   "processing failed:\n%s",
		LoadFailed:      "image failed to load",
	}
}
