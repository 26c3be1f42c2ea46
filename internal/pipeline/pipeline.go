package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/quizsolve/internal/model"
)

// Step is one stage of a run.
type Step interface {
	// Do runs the step. A returned error ends the run.
	Do(ctx context.Context, report *model.RunReport) error

	// Name identifies the step in logs and reports.
	Name() string
}

// Pipeline executes steps in order.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates an empty Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{steps: make([]Step, 0)}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends several steps.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs every step on report and stops at the first error, which is
// recorded on the report and returned. The report is back in StateIdle when
// Execute returns.
func (p *Pipeline) Execute(ctx context.Context, report *model.RunReport) error {
	defer report.Finish()

	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("run cancelled", "step", step.Name(), "run", report.ID, "reason", ctx.Err())
			report.Fail(ctx.Err())
			return ctx.Err()
		default:
		}

		p.logger.Debug("executing step", "step", step.Name(), "run", report.ID)

		if err := step.Do(ctx, report); err != nil {
			p.logger.Warn("step failed", "step", step.Name(), "run", report.ID, "error", err)
			report.Fail(err)
			return err
		}

		report.Steps = append(report.Steps, step.Name())
	}

	return nil
}

// StepCount returns the number of steps.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the step names in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
