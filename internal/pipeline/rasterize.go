package pipeline

import (
	"context"

	"github.com/tanjoen/forenaide/internal/common"
)

// Rasterizer renders PDF bytes into one encoded image per page, in page order.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdfBytes []byte) ([][]byte, error)
	ImageType() string
}

// RasterizeStep turns a normalized PDF into page images. Order is significant:
// downstream steps assume index i == page i.
type RasterizeStep struct {
	rasterizer Rasterizer
}

func NewRasterizeStep(rasterizer Rasterizer) *RasterizeStep {
	return &RasterizeStep{rasterizer: rasterizer}
}

func (s *RasterizeStep) Name() string { return "rasterize" }

func (s *RasterizeStep) Process(ctx context.Context, data StepData) (StepData, error) {
	var pdfBytes []byte
	switch ev := data.Event.(type) {
	case PDFEvent:
		pdfBytes = ev.Bytes
	case FileEvent:
		// PDF uploads skip normalization and arrive here directly.
		pdfBytes = ev.Bytes
	default:
		return StepData{}, badInput(s.Name(), "PDFEvent or FileEvent", data.Event)
	}

	images, err := s.rasterizer.Rasterize(ctx, pdfBytes)
	if err != nil {
		return StepData{}, common.WrapError(err, "rasterize pdf")
	}

	return StepData{
		Event: ImagesEvent{
			ImageType: s.rasterizer.ImageType(),
			Images:    images,
		},
		Context: data.Context,
	}, nil
}
