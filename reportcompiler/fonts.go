package reportcompiler

import (
	"os"
	"runtime"

	"github.com/jung-kurt/gofpdf"
)

const cjkFontName = "cjk"

// cjkFontCandidates lists the font files tried per platform, in order.
func cjkFontCandidates() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{
			"C:/Windows/Fonts/simhei.ttf",
			"C:/Windows/Fonts/simsun.ttc",
			"C:/Windows/Fonts/msyh.ttc",
		}
	case "darwin":
		return []string{
			"/Library/Fonts/Arial Unicode.ttf",
			"/System/Library/Fonts/Supplemental/Arial Unicode.ttf",
			"/System/Library/Fonts/PingFang.ttc",
			"/System/Library/Fonts/STHeiti Light.ttc",
		}
	default:
		return []string{
			"/usr/share/fonts/truetype/droid/DroidSansFallbackFull.ttf",
			"/usr/share/fonts/truetype/wqy/wqy-microhei.ttc",
			"/usr/share/fonts/truetype/wqy/wqy-zenhei.ttc",
		}
	}
}

// findCJKFont returns the first candidate font file that actually parses,
// trying the explicit override first. Probing happens on a throwaway
// document so an unreadable file (a .ttc collection, say) cannot leave the
// real document in an error state.
func findCJKFont(explicit string) string {
	candidates := cjkFontCandidates()
	if explicit != "" {
		candidates = append([]string{explicit}, candidates...)
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		probe := gofpdf.New("P", "mm", "A4", "")
		probe.AddUTF8Font(cjkFontName, "", path)
		if probe.Err() {
			continue
		}
		return path
	}
	return ""
}
