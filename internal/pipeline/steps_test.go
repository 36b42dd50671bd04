package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanjoen/forenaide/internal/common"
	"github.com/tanjoen/forenaide/internal/schema"
)

type fakeConverter struct {
	pdf  []byte
	err  error
	last string // filename of the most recent call
}

func (f *fakeConverter) ConvertToPDF(_ context.Context, filename, _ string, _ []byte) ([]byte, error) {
	f.last = filename
	return f.pdf, f.err
}

type fakeRasterizer struct {
	images [][]byte
	err    error
}

func (f *fakeRasterizer) Rasterize(_ context.Context, _ []byte) ([][]byte, error) {
	return f.images, f.err
}

func (f *fakeRasterizer) ImageType() string { return "jpeg" }

type fakeTranscriber struct {
	texts map[string]string // image content -> transcript
	err   error
}

func (f *fakeTranscriber) Transcribe(_ context.Context, image []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.texts[string(image)], nil
}

type fakeToolCaller struct {
	respond func(unit ContentUnit) ([]byte, error)
}

func (f *fakeToolCaller) CallTool(_ context.Context, _ schema.ToolContract, unit ContentUnit) ([]byte, error) {
	if f.respond == nil {
		return []byte(`{"instances": []}`), nil
	}
	return f.respond(unit)
}

func TestNormalizeStepConvertsAndRenames(t *testing.T) {
	conv := &fakeConverter{pdf: []byte("%PDF-1.7")}
	step := NewNormalizeStep(conv)

	out, err := step.Process(context.Background(), StepData{
		Event: FileEvent{Filename: "report.docx",
			Mimetype: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
			Bytes:    []byte("docx")},
	})
	require.NoError(t, err)

	pdf, ok := out.Event.(PDFEvent)
	require.True(t, ok)
	assert.Equal(t, "report.pdf", pdf.Filename)
	assert.Equal(t, []byte("%PDF-1.7"), pdf.Bytes)
	assert.Equal(t, "report.docx", conv.last)
}

func TestNormalizeStepRejectsNonConvertible(t *testing.T) {
	step := NewNormalizeStep(&fakeConverter{})

	_, err := step.Process(context.Background(), StepData{
		Event: FileEvent{Filename: "archive.zip", Mimetype: "application/zip"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrUnsupportedMediaType))
}

func TestNormalizeStepPropagatesConverterFailure(t *testing.T) {
	boom := fmt.Errorf("%w: status 500", common.ErrConversionFailed)
	step := NewNormalizeStep(&fakeConverter{err: boom})

	_, err := step.Process(context.Background(), StepData{
		Event: FileEvent{Filename: "a.png", Mimetype: "image/png"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrConversionFailed))
}

func TestRasterizeStepAcceptsPDFAndFileEvents(t *testing.T) {
	step := NewRasterizeStep(&fakeRasterizer{images: [][]byte{[]byte("p1"), []byte("p2")}})

	for _, ev := range []Event{
		PDFEvent{Filename: "a.pdf", Bytes: []byte("pdf")},
		FileEvent{Filename: "a.pdf", Mimetype: "application/pdf", Bytes: []byte("pdf")},
	} {
		out, err := step.Process(context.Background(), StepData{Event: ev})
		require.NoError(t, err)

		images, ok := out.Event.(ImagesEvent)
		require.True(t, ok)
		assert.Equal(t, "jpeg", images.ImageType)
		assert.Equal(t, [][]byte{[]byte("p1"), []byte("p2")}, images.Images)
	}
}

func TestRasterizeStepRejectsWrongEvent(t *testing.T) {
	step := NewRasterizeStep(&fakeRasterizer{})
	_, err := step.Process(context.Background(), StepData{Event: TextsEvent{}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInvalidInput))
}

func TestTranscribeStepPreservesPageOrder(t *testing.T) {
	step := NewTranscribeStep(&fakeTranscriber{texts: map[string]string{
		"img-a": "page one",
		"img-b": "page two",
	}})

	out, err := step.Process(context.Background(), StepData{
		Event: ImagesEvent{ImageType: "jpeg", Images: [][]byte{[]byte("img-a"), []byte("img-b")}},
	})
	require.NoError(t, err)

	texts, ok := out.Event.(TextsEvent)
	require.True(t, ok)
	assert.Equal(t, []string{"page one", "page two"}, texts.Texts)
}

func TestTranscribeStepFailsWholePageSet(t *testing.T) {
	step := NewTranscribeStep(&fakeTranscriber{err: errors.New("tesseract exploded")})

	_, err := step.Process(context.Background(), StepData{
		Event: ImagesEvent{Images: [][]byte{[]byte("img")}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrTranscriptionFailed))
}
