package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/quizsolve/internal/apply"
	"github.com/nao1215/quizsolve/internal/config"
	"github.com/nao1215/quizsolve/internal/model"
	"github.com/nao1215/quizsolve/internal/notify"
	"github.com/nao1215/quizsolve/internal/page"
	"github.com/nao1215/quizsolve/internal/schedule"
)

// Orchestrator runs the standard extract -> request -> apply -> summary
// pipeline on a page, one run at a time.
type Orchestrator struct {
	guard     schedule.Guard
	solver    Solver
	applier   *apply.Applier
	scheduler *schedule.Scheduler
	interval  time.Duration
	logger    *slog.Logger
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithInterval sets the stagger interval between selections.
func WithInterval(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		o.interval = d
	}
}

// WithOrchestratorLogger sets the logger used by the orchestrator and its steps.
func WithOrchestratorLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// NewOrchestrator creates an Orchestrator sending questions to solver.
func NewOrchestrator(solver Solver, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		solver:   solver,
		interval: config.DefaultStaggerInterval,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	o.applier = apply.New(apply.WithLogger(o.logger))
	o.scheduler = schedule.New(schedule.WithLogger(o.logger))
	return o
}

// Pipeline builds the steps of one run over doc.
func (o *Orchestrator) Pipeline(doc page.Document, notifier notify.Notifier) *Pipeline {
	p := New(WithLogger(o.logger))
	p.AddSteps(
		NewExtractStep(doc, notifier),
		NewRequestStep(o.solver, notifier),
		NewApplyStep(doc, o.applier,
			WithStaggerInterval(o.interval),
			WithScheduler(o.scheduler),
			WithApplyLogger(o.logger),
		),
		NewSummaryStep(notifier),
	)
	return p
}

// Run executes one run over doc. It returns schedule.ErrRunInProgress and
// a nil report when another run is still in flight.
func (o *Orchestrator) Run(ctx context.Context, source string, doc page.Document, notifier notify.Notifier) (*model.RunReport, error) {
	release, err := o.guard.Acquire()
	if err != nil {
		o.logger.Warn("run rejected", "source", source, "reason", err)
		return nil, err
	}
	defer release()

	report := model.NewRunReport(source)
	o.logger.Debug("run started", "run", report.ID, "source", source)
	err = o.Pipeline(doc, notifier).Execute(ctx, report)
	o.logger.Debug("run finished", "run", report.ID, "selected", report.SelectedCount(), "duration", report.Duration())
	return report, err
}
