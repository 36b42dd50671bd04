package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tanjoen/forenaide/internal/broker"
	"github.com/tanjoen/forenaide/internal/common"
	"github.com/tanjoen/forenaide/internal/convert"
	"github.com/tanjoen/forenaide/internal/llm/openai"
	"github.com/tanjoen/forenaide/internal/ocr"
	"github.com/tanjoen/forenaide/internal/orchestrator"
	"github.com/tanjoen/forenaide/internal/pipeline"
	"github.com/tanjoen/forenaide/internal/repository"
	"github.com/tanjoen/forenaide/internal/server"
	"github.com/tanjoen/forenaide/internal/storage"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := repository.Open(ctx, repository.Config{
		DSN:             cfg.Database.DSN,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		DialTimeout:     cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	store, err := storage.NewS3Store(ctx, storage.S3Config{
		Region:   cfg.Storage.Region,
		Endpoint: cfg.Storage.Endpoint,
	}, logger)
	if err != nil {
		logger.Error("object store setup failed", "error", err)
		os.Exit(1)
	}

	runs := repository.NewRunRepository(pool, logger)
	templates := repository.NewTemplateRepository(pool, logger)
	outputRecs := repository.NewOutputRepository(pool, logger)

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

	orch := orchestrator.New(orchestrator.Config{
		SourcesBucket:   cfg.Storage.SourcesBucket,
		OutputsBucket:   cfg.Storage.OutputsBucket,
		FileConcurrency: cfg.Worker.FileConcurrency,
	}, router, store, runs, outputRecs, logger)

	queue := broker.NewRunQueue(orch, logger,
		broker.WithQueueSize(cfg.Worker.QueueSize),
		broker.WithRunTimeout(cfg.Worker.RunTimeout),
	)

	srv := server.New(server.Config{
		Addr:          cfg.Server.Addr,
		SourcesBucket: cfg.Storage.SourcesBucket,
		OutputsBucket: cfg.Storage.OutputsBucket,
	}, runs, templates, outputRecs, store, queue, logger)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown error", "error", err)
	}
	queue.Shutdown(shutdownCtx)
}
