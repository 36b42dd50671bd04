package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/tanjoen/forenaide/constants"
	"github.com/tanjoen/forenaide/internal/common"
)

// Backends bundles the external collaborators the step variants depend on.
// Everything is injected so tests can swap in doubles.
type Backends struct {
	Converter   PDFConverter
	Rasterizer  Rasterizer
	Transcriber Transcriber
	OpenAI      ToolCaller
	Ollama      ToolCaller
	Logger      *slog.Logger
}

// Router maps (strategy, media class) onto a pre-built step sequence.
type Router struct {
	table  map[constants.StrategyID]map[constants.MediaClass][]Step
	logger *slog.Logger
}

// NewRouter builds the default strategy table. PDF uploads skip
// normalization; convertible formats go through the converter first.
func NewRouter(b Backends) *Router {
	normalize := NewNormalizeStep(b.Converter)
	rasterize := NewRasterizeStep(b.Rasterizer)
	transcribe := NewTranscribeStep(b.Transcriber)
	extractImageOpenAI := NewExtractStep(b.OpenAI)
	extractTextOpenAI := NewExtractStep(b.OpenAI)
	extractTextOllama := NewExtractStep(b.Ollama)

	table := map[constants.StrategyID]map[constants.MediaClass][]Step{
		constants.StrategyFileImageOpenAI: {
			constants.MediaClassPDF:         {rasterize, extractImageOpenAI},
			constants.MediaClassConvertible: {normalize, rasterize, extractImageOpenAI},
		},
		constants.StrategyFileTextOpenAI: {
			constants.MediaClassPDF:         {rasterize, transcribe, extractTextOpenAI},
			constants.MediaClassConvertible: {normalize, rasterize, transcribe, extractTextOpenAI},
		},
		constants.StrategyFileTextOllama: {
			constants.MediaClassPDF:         {rasterize, transcribe, extractTextOllama},
			constants.MediaClassConvertible: {normalize, rasterize, transcribe, extractTextOllama},
		},
	}
	return NewRouterWithTable(table, b.Logger)
}

// NewRouterWithTable builds a router over an explicit strategy table.
func NewRouterWithTable(table map[constants.StrategyID]map[constants.MediaClass][]Step, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{table: table, logger: logger}
}

// Route selects the pipeline for a strategy and mimetype.
func (r *Router) Route(strategy constants.StrategyID, mimetype string) (*Pipeline, error) {
	routes, ok := r.table[strategy]
	if !ok {
		return nil, fmt.Errorf("%w: %q", common.ErrStrategyNotImplemented, strategy)
	}

	class := constants.ClassifyMimetype(mimetype)
	if class == constants.MediaClassUnsupported {
		return nil, fmt.Errorf("%w: %q", common.ErrUnsupportedMediaType, mimetype)
	}

	steps, ok := routes[class]
	if !ok {
		return nil, fmt.Errorf("%w: strategy %q, class %s", common.ErrRouteNotImplemented, strategy, class)
	}
	return New(r.logger, steps...), nil
}
