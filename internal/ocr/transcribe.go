package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Transcriber runs tesseract over a single encoded image.
type Transcriber struct {
	cfg    Config
	runner Runner
}

func NewTranscriber(cfg Config) *Transcriber {
	cfg.applyDefaults()
	return &Transcriber{cfg: cfg, runner: execRunner{}}
}

// NewTranscriberWithRunner is for tests.
func NewTranscriberWithRunner(cfg Config, runner Runner) *Transcriber {
	cfg.applyDefaults()
	return &Transcriber{cfg: cfg, runner: runner}
}

func (t *Transcriber) Transcribe(ctx context.Context, image []byte) (string, error) {
	tmpDir, err := os.MkdirTemp("", "fn-ocr-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(tmpDir)

	imgPath := filepath.Join(tmpDir, "page.jpg")
	if err := os.WriteFile(imgPath, image, 0o600); err != nil {
		return "", err
	}

	// tesseract <img> stdout -l eng [--psm N] [--oem N]
	args := []string{imgPath, "stdout", "-l", t.cfg.TesseractLang}
	if t.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(t.cfg.PSM))
	}
	if t.cfg.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(t.cfg.OEM))
	}

	out, errb, err := t.runner.Run(ctx, t.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %v: %s", err, truncate(string(errb), 512))
	}
	return string(out), nil
}
