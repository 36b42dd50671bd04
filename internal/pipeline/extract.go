package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/tanjoen/forenaide/internal/common"
	"github.com/tanjoen/forenaide/internal/schema"
)

// ContentUnit is one page worth of input to the extraction backend: either a
// transcript or an encoded image, never both.
type ContentUnit struct {
	Text      string
	Image     []byte
	ImageType string
}

// ToolCaller invokes the extraction backend with the compiled contract for a
// single content unit and returns the raw tool-call arguments. Implementations
// surface common.ErrNoToolCallMade and common.ErrToolNameMismatch.
type ToolCaller interface {
	CallTool(ctx context.Context, contract schema.ToolContract, unit ContentUnit) ([]byte, error)
}

// Below this many units the fan-out is unbounded; larger batches share a
// fixed number of in-flight calls.
const (
	extractSmallBatch  = 16
	extractConcurrency = 8
)

// ExtractStep fans out one tool call per page, validates every response
// against the compiled contract, and concatenates the row instances in page
// order. A failure on any page fails the step.
type ExtractStep struct {
	caller ToolCaller
}

func NewExtractStep(caller ToolCaller) *ExtractStep {
	return &ExtractStep{caller: caller}
}

func (s *ExtractStep) Name() string { return "structured_extract" }

func (s *ExtractStep) Process(ctx context.Context, data StepData) (StepData, error) {
	if data.Context.Extraction == nil {
		return StepData{}, common.NewAppError("EXTRACT_NO_SCHEMA",
			"step data carries no extraction schema", common.ErrInvalidInput)
	}

	var units []ContentUnit
	switch ev := data.Event.(type) {
	case ImagesEvent:
		units = make([]ContentUnit, len(ev.Images))
		for i, img := range ev.Images {
			units[i] = ContentUnit{Image: img, ImageType: ev.ImageType}
		}
	case TextsEvent:
		units = make([]ContentUnit, len(ev.Texts))
		for i, text := range ev.Texts {
			units[i] = ContentUnit{Text: text}
		}
	default:
		return StepData{}, badInput(s.Name(), "ImagesEvent or TextsEvent", data.Event)
	}

	contract := schema.Compile(data.Context.Extraction)

	perUnit := make([][]schema.RowInstance, len(units))
	errs := make([]error, len(units))

	limit := len(units)
	if limit > extractSmallBatch {
		limit = extractConcurrency
	}
	sem := make(chan struct{}, maxInt(limit, 1))

	var wg sync.WaitGroup
	for i, unit := range units {
		wg.Add(1)
		go func(i int, unit ContentUnit) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			raw, err := s.caller.CallTool(ctx, contract, unit)
			if err != nil {
				errs[i] = fmt.Errorf("unit %d: %w", i, err)
				return
			}
			rows, err := schema.ValidateResponse(contract, raw)
			if err != nil {
				errs[i] = fmt.Errorf("unit %d: %w", i, err)
				return
			}
			perUnit[i] = rows
		}(i, unit)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return StepData{}, err
		}
	}

	var rows []schema.RowInstance
	for _, unitRows := range perUnit {
		rows = append(rows, unitRows...)
	}

	return StepData{
		Event:   RowsEvent{Rows: rows},
		Context: data.Context,
	}, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
