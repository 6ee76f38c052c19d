package reportcompiler

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"

	_ "image/gif"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decode guards against corrupt headers claiming absurd sizes.
const (
	maxImageSide   = 30000
	maxImagePixels = 64 << 20
)

// ArtifactFormat selects the on-disk encoding of a fitted artifact.
type ArtifactFormat int

const (
	// ArtifactPNG is lossless, used for spreadsheet embeds.
	ArtifactPNG ArtifactFormat = iota
	// ArtifactJPEG is quality-controlled, used for PDF embeds.
	ArtifactJPEG
)

// Fitted describes one rendered artifact on disk.
type Fitted struct {
	Path   string
	Width  int
	Height int
}

// Processor turns source photographs into bounded, embeddable artifacts.
// Every successful Fit produces exactly one artifact file, registered with
// the tracker before the call returns.
type Processor struct {
	opts    Options
	tracker *Tracker
	logger  *zap.Logger
}

// NewProcessor returns a processor writing artifacts into opts.TempDir.
func NewProcessor(opts Options, tracker *Tracker, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{opts: opts, tracker: tracker, logger: logger}
}

// Fit loads the photograph at path, scales it to fit inside maxW by maxH
// pixels preserving aspect ratio, and writes it as a fresh artifact in the
// requested format. Load and encode failures are typed so callers can
// recover per image.
func (p *Processor) Fit(path string, maxW, maxH int, format ArtifactFormat) (*Fitted, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, loadError(path, err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil, loadError(path, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, loadError(path, fmt.Errorf("degenerate dimensions %dx%d", cfg.Width, cfg.Height))
	}
	if cfg.Width > maxImageSide || cfg.Height > maxImageSide || cfg.Width*cfg.Height > maxImagePixels {
		return nil, loadError(path, fmt.Errorf("image too large: %dx%d", cfg.Width, cfg.Height))
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, loadError(path, err)
	}
	src, _, err := image.Decode(f)
	if err != nil {
		return nil, loadError(path, err)
	}

	w, h := fitDimensions(cfg.Width, cfg.Height, maxW, maxH)
	resized := imaging.Resize(src, w, h, imaging.Lanczos)
	if format == ArtifactPNG && p.opts.Sharpen {
		resized = imaging.Sharpen(resized, p.opts.SharpenSigma)
	}

	out := filepath.Join(p.opts.TempDir, artifactName(format))
	dst, err := os.Create(out)
	if err != nil {
		return nil, encodeError(path, err)
	}
	switch format {
	case ArtifactJPEG:
		err = jpeg.Encode(dst, resized, &jpeg.Options{Quality: p.opts.JPEGQuality})
	default:
		enc := png.Encoder{CompressionLevel: png.BestSpeed}
		err = enc.Encode(dst, resized)
	}
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(out)
		return nil, encodeError(path, err)
	}

	if p.tracker != nil {
		p.tracker.Track(out)
	}
	return &Fitted{Path: out, Width: w, Height: h}, nil
}

// fitDimensions scales (w, h) to fit inside (maxW, maxH) preserving aspect
// ratio. The height binds when the box is proportionally wider than the
// image, the width otherwise.
func fitDimensions(w, h, maxW, maxH int) (int, int) {
	ratio := float64(w) / float64(h)
	var nw, nh int
	if float64(maxW)/float64(maxH) > ratio {
		nh = maxH
		nw = int(math.Round(float64(maxH) * ratio))
	} else {
		nw = maxW
		nh = int(math.Round(float64(maxW) / ratio))
	}
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return nw, nh
}

func artifactName(format ArtifactFormat) string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	if format == ArtifactJPEG {
		return fmt.Sprintf("pdf_img_%s.jpg", id)
	}
	return fmt.Sprintf("excel_img_%s.png", id)
}

// acceptedExtensions are the photograph types the tool accepts.
var acceptedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".tiff": true,
	".webp": true,
}

// ValidateImageFile checks that path names a usable photograph: a
// non-empty file with an accepted extension whose header decodes.
func ValidateImageFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return loadError(path, err)
	}
	if info.Size() == 0 {
		return loadError(path, fmt.Errorf("file is empty"))
	}
	ext := strings.ToLower(filepath.Ext(path))
	if !acceptedExtensions[ext] {
		return loadError(path, fmt.Errorf("unsupported extension %q", ext))
	}
	f, err := os.Open(path)
	if err != nil {
		return loadError(path, err)
	}
	defer f.Close()
	if _, _, err := image.DecodeConfig(f); err != nil {
		return loadError(path, err)
	}
	return nil
}
