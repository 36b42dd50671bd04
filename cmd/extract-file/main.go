// Command extract-file runs a single local file through an extraction
// pipeline without the daemon, database, or object store. Useful for
// trying out a schema or debugging a strategy route.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/tanjoen/forenaide/constants"
	"github.com/tanjoen/forenaide/internal/common"
	"github.com/tanjoen/forenaide/internal/convert"
	"github.com/tanjoen/forenaide/internal/llm/openai"
	"github.com/tanjoen/forenaide/internal/ocr"
	"github.com/tanjoen/forenaide/internal/outputs"
	"github.com/tanjoen/forenaide/internal/pipeline"
	"github.com/tanjoen/forenaide/internal/schema"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	var (
		filePath   = flag.String("file", "", "path to the document to extract from")
		mimetype   = flag.String("mimetype", "application/pdf", "mimetype of the document")
		strategyID = flag.String("strategy", string(constants.StrategyFileImageOpenAI), "extraction strategy")
		schemaPath = flag.String("schema", "", "path to a JSON extraction schema")
		asCSV      = flag.Bool("csv", false, "emit CSV instead of JSON")
		timeout    = flag.Duration("timeout", 5*time.Minute, "overall deadline")
	)
	flag.Parse()

	if *filePath == "" || *schemaPath == "" {
		logger.Error("usage", "cmd", "extract-file -file <doc> -schema <schema.json> [-mimetype m] [-strategy s]")
		os.Exit(2)
	}

	var extraction schema.Config
	schemaBytes, err := os.ReadFile(*schemaPath)
	if err != nil {
		logger.Error("read schema", "path", *schemaPath, "error", err)
		os.Exit(1)
	}
	if err := json.Unmarshal(schemaBytes, &extraction); err != nil {
		logger.Error("parse schema", "path", *schemaPath, "error", err)
		os.Exit(1)
	}
	if err := extraction.Validate(); err != nil {
		logger.Error("invalid schema", "error", err)
		os.Exit(1)
	}

	data, err := os.ReadFile(*filePath)
	if err != nil {
		logger.Error("read file", "path", *filePath, "error", err)
		os.Exit(1)
	}

	cfg := common.LoadConfig()
	ocrCfg := ocr.Config{
		Pdftoppm:      cfg.OCR.Pdftoppm,
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.TesseractLang,
		DPI:           cfg.OCR.DPI,
		MaxPages:      cfg.OCR.MaxPages,
	}
	router := pipeline.NewRouter(pipeline.Backends{
		Converter: convert.NewClient(convert.Config{
			BaseURL: cfg.Converter.BaseURL,
			Timeout: cfg.Converter.Timeout,
		}, logger),
		Rasterizer:  ocr.NewRasterizer(ocrCfg),
		Transcriber: ocr.NewTranscriber(ocrCfg),
		OpenAI: openai.NewClient(openai.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
		}, logger),
		Ollama: openai.NewClient(openai.Config{
			APIKey:  "ollama",
			BaseURL: cfg.LLM.OllamaBaseURL,
			Model:   cfg.LLM.OllamaModel,
			Timeout: cfg.LLM.Timeout,
		}, logger),
		Logger: logger,
	})

	p, err := router.Route(constants.StrategyID(*strategyID), *mimetype)
	if err != nil {
		logger.Error("no route for file", "strategy", *strategyID, "mimetype", *mimetype, "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	start := time.Now()
	out, err := p.Execute(ctx, pipeline.StepData{
		Event: pipeline.FileEvent{
			Filename: filepath.Base(*filePath),
			Mimetype: *mimetype,
			Bytes:    data,
		},
		Context: pipeline.Context{Extraction: &extraction},
	})
	if err != nil {
		logger.Error("extraction failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		os.Exit(1)
	}

	rows, ok := out.Event.(pipeline.RowsEvent)
	if !ok {
		logger.Error("pipeline ended without rows", "event", out.Event)
		os.Exit(1)
	}
	logger.Info("extraction OK", "rows", len(rows.Rows), "duration_ms", time.Since(start).Milliseconds())

	var encoded []byte
	if *asCSV {
		encoded, err = outputs.EncodeCSV(&extraction, rows.Rows)
	} else {
		encoded, err = outputs.EncodeJSON(rows.Rows)
	}
	if err != nil {
		logger.Error("encode output", "error", err)
		os.Exit(1)
	}
	if _, err := os.Stdout.Write(encoded); err != nil {
		logger.Error("write output", "error", err)
		os.Exit(1)
	}
}
