package pipeline

import (
	"context"
	"fmt"

	"github.com/tanjoen/forenaide/internal/common"
)

// Transcriber extracts plain text from a single encoded image.
type Transcriber interface {
	Transcribe(ctx context.Context, image []byte) (string, error)
}

// TranscribeStep runs OCR over every page image. Texts[i] corresponds to
// Images[i]; a failure on any page fails the step, there is no partial
// transcript.
type TranscribeStep struct {
	transcriber Transcriber
}

func NewTranscribeStep(transcriber Transcriber) *TranscribeStep {
	return &TranscribeStep{transcriber: transcriber}
}

func (s *TranscribeStep) Name() string { return "transcribe" }

func (s *TranscribeStep) Process(ctx context.Context, data StepData) (StepData, error) {
	images, ok := data.Event.(ImagesEvent)
	if !ok {
		return StepData{}, badInput(s.Name(), "ImagesEvent", data.Event)
	}

	texts := make([]string, len(images.Images))
	for i, img := range images.Images {
		text, err := s.transcriber.Transcribe(ctx, img)
		if err != nil {
			return StepData{}, fmt.Errorf("%w: page %d: %v", common.ErrTranscriptionFailed, i, err)
		}
		texts[i] = text
	}

	return StepData{
		Event:   TextsEvent{Texts: texts},
		Context: data.Context,
	}, nil
}
