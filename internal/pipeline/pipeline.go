package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Pipeline executes a fixed, ordered list of steps, threading StepData
// through each in turn. The first step error aborts the rest; there is no
// partial pipeline result.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

func New(logger *slog.Logger, steps ...Step) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{steps: steps, logger: logger}
}

// Steps returns the step names in execution order.
func (p *Pipeline) Steps() []string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.Name()
	}
	return names
}

// Execute runs every step in declaration order.
func (p *Pipeline) Execute(ctx context.Context, data StepData) (StepData, error) {
	for i, step := range p.steps {
		start := time.Now()
		out, err := step.Process(ctx, data)
		if err != nil {
			p.logger.Error("pipeline.step.failed",
				"step", step.Name(),
				"index", i,
				"elapsed_ms", time.Since(start).Milliseconds(),
				"error", err,
			)
			return data, fmt.Errorf("step %s: %w", step.Name(), err)
		}
		p.logger.Debug("pipeline.step.ok",
			"step", step.Name(),
			"index", i,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		data = out
	}
	return data, nil
}
