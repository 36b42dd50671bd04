package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/tanjoen/forenaide/internal/common"
)

type Config struct {
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	DPI           int    // rasterization DPI, default 300
	MaxPages      int    // 0 = no limit

	PSM int // e.g., 6 is good for uniform block of text
	OEM int // 1 = LSTM; leave 0 to use default
}

func (c *Config) applyDefaults() {
	if c.Pdftoppm == "" {
		c.Pdftoppm = "pdftoppm"
	}
	if c.Tesseract == "" {
		c.Tesseract = "tesseract"
	}
	if c.TesseractLang == "" {
		c.TesseractLang = "eng"
	}
	if c.DPI <= 0 {
		c.DPI = 300
	}
}

// Rasterizer renders PDF pages to JPEG via pdftoppm.
type Rasterizer struct {
	cfg    Config
	runner Runner
}

func NewRasterizer(cfg Config) *Rasterizer {
	cfg.applyDefaults()
	return &Rasterizer{cfg: cfg, runner: execRunner{}}
}

// NewRasterizerWithRunner is for tests.
func NewRasterizerWithRunner(cfg Config, runner Runner) *Rasterizer {
	cfg.applyDefaults()
	return &Rasterizer{cfg: cfg, runner: runner}
}

func (r *Rasterizer) ImageType() string { return "JPEG" }

// Rasterize writes the PDF to a temp dir, runs pdftoppm, and returns the
// rendered pages in page order.
func (r *Rasterizer) Rasterize(ctx context.Context, pdfBytes []byte) ([][]byte, error) {
	tmpDir, err := os.MkdirTemp("", "fn-raster-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)

	pdfPath := filepath.Join(tmpDir, "input.pdf")
	if err := os.WriteFile(pdfPath, pdfBytes, 0o600); err != nil {
		return nil, err
	}

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -jpeg <in.pdf> <tmp/page>
	_, errb, err := r.runner.Run(ctx, r.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", r.cfg.DPI), "-jpeg", pdfPath, prefix)
	if err != nil {
		return nil, fmt.Errorf("%w: %v: %s", common.ErrRasterizationFailed, err, truncate(string(errb), 512))
	}

	// collect generated jpegs (prefix-1.jpg, prefix-2.jpg, ...); page numbers
	// are zero-padded to equal width, so a lexical sort is page order
	matches, _ := filepath.Glob(prefix + "-*.jpg")
	sort.Strings(matches)
	if r.cfg.MaxPages > 0 && len(matches) > r.cfg.MaxPages {
		matches = matches[:r.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: pdftoppm produced no images", common.ErrRasterizationFailed)
	}

	images := make([][]byte, 0, len(matches))
	for _, path := range matches {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: read page image: %v", common.ErrRasterizationFailed, err)
		}
		images = append(images, b)
	}
	return images, nil
}
