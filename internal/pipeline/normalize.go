package pipeline

import (
	"context"
	"strings"

	"github.com/tanjoen/forenaide/constants"
	"github.com/tanjoen/forenaide/internal/common"
)

// PDFConverter renders an office/image document to PDF bytes.
type PDFConverter interface {
	ConvertToPDF(ctx context.Context, filename, mimetype string, fileBytes []byte) ([]byte, error)
}

// NormalizeStep converts an arbitrary uploaded file into a PDF via the
// external document-conversion service.
type NormalizeStep struct {
	converter PDFConverter
}

func NewNormalizeStep(converter PDFConverter) *NormalizeStep {
	return &NormalizeStep{converter: converter}
}

func (s *NormalizeStep) Name() string { return "normalize" }

func (s *NormalizeStep) Process(ctx context.Context, data StepData) (StepData, error) {
	file, ok := data.Event.(FileEvent)
	if !ok {
		return StepData{}, badInput(s.Name(), "FileEvent", data.Event)
	}
	if constants.ClassifyMimetype(file.Mimetype) != constants.MediaClassConvertible {
		return StepData{}, common.NewAppError("NORMALIZE_MIMETYPE",
			"mimetype "+file.Mimetype+" is not convertible", common.ErrUnsupportedMediaType)
	}

	pdfBytes, err := s.converter.ConvertToPDF(ctx, file.Filename, file.Mimetype, file.Bytes)
	if err != nil {
		return StepData{}, common.WrapError(err, "convert to pdf")
	}

	return StepData{
		Event: PDFEvent{
			Filename: pdfFilename(file.Filename),
			Bytes:    pdfBytes,
		},
		Context: data.Context,
	}, nil
}

func pdfFilename(name string) string {
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	return name + ".pdf"
}
