// Package orchestrator runs one extraction batch end to end: per-file
// pipelines fan out concurrently, results aggregate in submission order, and
// the run's status machine advances not_started -> processing -> terminal.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/tanjoen/forenaide/constants"
	"github.com/tanjoen/forenaide/internal/entity"
	"github.com/tanjoen/forenaide/internal/outputs"
	"github.com/tanjoen/forenaide/internal/pipeline"
	"github.com/tanjoen/forenaide/internal/repository"
	"github.com/tanjoen/forenaide/internal/schema"
	"github.com/tanjoen/forenaide/internal/storage"
)

// PipelineRouter resolves the step sequence for one file.
type PipelineRouter interface {
	Route(strategy constants.StrategyID, mimetype string) (*pipeline.Pipeline, error)
}

type Config struct {
	SourcesBucket   string
	OutputsBucket   string
	FileConcurrency int // bound on concurrent per-file pipelines, default 4
}

type Orchestrator struct {
	cfg     Config
	router  PipelineRouter
	store   storage.ObjectStore
	runs    repository.RunRepository
	outputs repository.OutputRepository
	logger  *slog.Logger
}

func New(cfg Config, router PipelineRouter, store storage.ObjectStore,
	runs repository.RunRepository, outputRecs repository.OutputRepository, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.FileConcurrency <= 0 {
		cfg.FileConcurrency = 4
	}
	return &Orchestrator{
		cfg:     cfg,
		router:  router,
		store:   store,
		runs:    runs,
		outputs: outputRecs,
		logger:  logger,
	}
}

type fileResult struct {
	rows []schema.RowInstance
	err  error
}

// ProcessRun drives one run to a terminal state. The returned error is for
// the caller's log only; by the time it returns, the outcome has been
// recorded on the run row and the message can be acknowledged.
func (o *Orchestrator) ProcessRun(ctx context.Context, desc entity.RunDescriptor) (err error) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("orchestrator panic: %v", r)
			o.markFailed(desc, err)
		}
	}()

	if err := desc.Validate(); err != nil {
		o.markFailed(desc, err)
		return err
	}

	o.logger.Info("orchestrator.run.start",
		"run_id", desc.RunID,
		"strategy", desc.Strategy,
		"files", len(desc.Files),
	)

	// Exactly once, before any per-file work: a crash past this point never
	// leaves the run silently not_started.
	if err := o.runs.MarkProcessing(ctx, desc.RunID); err != nil {
		o.markFailed(desc, err)
		return fmt.Errorf("mark processing: %w", err)
	}

	results := o.processFiles(ctx, desc)

	// Aggregate in submission order; concurrent execution must not leak into
	// output ordering.
	var rows []schema.RowInstance
	var fileErrs []error
	for i, res := range results {
		if res.err != nil {
			o.logger.Error("orchestrator.file.failed",
				"run_id", desc.RunID,
				"file", desc.Files[i].Filename,
				"error", res.err,
			)
			fileErrs = append(fileErrs, fmt.Errorf("%s: %w", desc.Files[i].Filename, res.err))
			continue
		}
		rows = append(rows, res.rows...)
	}

	succeeded := len(results) - len(fileErrs)
	switch {
	case succeeded == 0:
		err := errors.Join(fileErrs...)
		o.markFailed(desc, err)
		return fmt.Errorf("all %d files failed: %w", len(results), err)

	default:
		if err := o.writeArtifacts(ctx, desc, rows); err != nil {
			o.markFailed(desc, err)
			return fmt.Errorf("write artifacts: %w", err)
		}

		status := constants.RunStatusCompleted
		errMsg := ""
		if len(fileErrs) > 0 {
			status = constants.RunStatusIncomplete
			errMsg = joinErrMessages(fileErrs)
		}
		if err := o.runs.MarkTerminal(ctx, desc.RunID, status, errMsg); err != nil {
			return fmt.Errorf("mark terminal: %w", err)
		}

		o.logger.Info("orchestrator.run.finished",
			"run_id", desc.RunID,
			"status", status,
			"rows", len(rows),
			"failed_files", len(fileErrs),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil
	}
}

// processFiles executes one pipeline per file with bounded concurrency and a
// fan-in barrier: every unit finishes before any aggregation happens, so one
// bad file cannot discard its siblings' rows.
func (o *Orchestrator) processFiles(ctx context.Context, desc entity.RunDescriptor) []fileResult {
	results := make([]fileResult, len(desc.Files))
	sem := make(chan struct{}, o.cfg.FileConcurrency)

	var wg sync.WaitGroup
	for i, file := range desc.Files {
		wg.Add(1)
		go func(i int, file entity.FileRef) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			rows, err := o.processFile(ctx, desc, file)
			results[i] = fileResult{rows: rows, err: err}
		}(i, file)
	}
	wg.Wait()
	return results
}

func (o *Orchestrator) processFile(ctx context.Context, desc entity.RunDescriptor, file entity.FileRef) ([]schema.RowInstance, error) {
	pl, err := o.router.Route(desc.Strategy, file.Mimetype)
	if err != nil {
		return nil, err
	}

	fileBytes, err := o.store.Download(ctx, o.cfg.SourcesBucket, file.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("download source: %w", err)
	}

	out, err := pl.Execute(ctx, pipeline.StepData{
		Event: pipeline.FileEvent{
			Filename: file.Filename,
			Mimetype: file.Mimetype,
			Bytes:    fileBytes,
		},
		Context: pipeline.Context{Extraction: &desc.Schema},
	})
	if err != nil {
		return nil, err
	}

	rowsEv, ok := out.Event.(pipeline.RowsEvent)
	if !ok {
		return nil, fmt.Errorf("pipeline finished with %T, expected rows", out.Event)
	}
	return rowsEv.Rows, nil
}

// writeArtifacts publishes the JSON and CSV documents and records their paths.
func (o *Orchestrator) writeArtifacts(ctx context.Context, desc entity.RunDescriptor, rows []schema.RowInstance) error {
	jsonBytes, err := outputs.EncodeJSON(rows)
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	csvBytes, err := outputs.EncodeCSV(&desc.Schema, rows)
	if err != nil {
		return fmt.Errorf("encode csv: %w", err)
	}

	artifacts := []struct {
		key         string
		contentType string
		data        []byte
	}{
		{desc.RunID.String() + "/output.json", "application/json", jsonBytes},
		{desc.RunID.String() + "/output.csv", "text/csv", csvBytes},
	}
	for _, a := range artifacts {
		path, err := o.store.Upload(ctx, o.cfg.OutputsBucket, a.key, a.data, a.contentType)
		if err != nil {
			return fmt.Errorf("upload %s: %w", a.key, err)
		}
		if err := o.outputs.Append(ctx, &entity.OutputRecord{
			RunID:       desc.RunID,
			Path:        path,
			ContentType: a.contentType,
		}); err != nil {
			return fmt.Errorf("record %s: %w", a.key, err)
		}
	}
	return nil
}

// markFailed records a terminal failure; the write uses a fresh context so a
// cancelled run context cannot leave the row stuck in processing.
func (o *Orchestrator) markFailed(desc entity.RunDescriptor, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := o.runs.MarkTerminal(ctx, desc.RunID, constants.RunStatusFailed, cause.Error()); err != nil {
		o.logger.Error("orchestrator.run.mark_failed_error", "run_id", desc.RunID, "error", err)
	}
	o.logger.Error("orchestrator.run.failed", "run_id", desc.RunID, "error", cause)
}

func joinErrMessages(errs []error) string {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}
