package pipeline

import (
	"context"
	"fmt"

	"github.com/tanjoen/forenaide/internal/common"
	"github.com/tanjoen/forenaide/internal/schema"
)

// Event is the stage-specific payload threaded through a pipeline. Each step
// narrows the event to the concrete type its contract requires and produces a
// fresh one; steps never mutate their input.
type Event interface {
	stepEvent()
}

// FileEvent is the entry payload: the uploaded file as-is.
type FileEvent struct {
	Filename string
	Mimetype string
	Bytes    []byte
}

// PDFEvent is a normalized document.
type PDFEvent struct {
	Filename string
	Bytes    []byte
}

// ImagesEvent holds one encoded image per page, in page order.
type ImagesEvent struct {
	ImageType string
	Images    [][]byte
}

// TextsEvent holds one transcript per page; Texts[i] corresponds to page i.
type TextsEvent struct {
	Texts []string
}

// RowsEvent is the terminal payload: extracted row instances.
type RowsEvent struct {
	Rows []schema.RowInstance
}

func (FileEvent) stepEvent()   {}
func (PDFEvent) stepEvent()    {}
func (ImagesEvent) stepEvent() {}
func (TextsEvent) stepEvent()  {}
func (RowsEvent) stepEvent()   {}

// Context carries stage-independent metadata end to end.
type Context struct {
	Extraction *schema.Config
}

// StepData is the envelope a pipeline threads through its steps.
type StepData struct {
	Event   Event
	Context Context
}

// Step is one unit of transformation.
type Step interface {
	Name() string
	Process(ctx context.Context, data StepData) (StepData, error)
}

func badInput(step string, want string, got Event) error {
	return common.NewAppError("STEP_INPUT",
		fmt.Sprintf("step %s requires %s, got %T", step, want, got),
		common.ErrInvalidInput)
}
