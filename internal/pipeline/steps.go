package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/quizsolve/internal/apply"
	"github.com/nao1215/quizsolve/internal/config"
	"github.com/nao1215/quizsolve/internal/extract"
	"github.com/nao1215/quizsolve/internal/model"
	"github.com/nao1215/quizsolve/internal/notify"
	"github.com/nao1215/quizsolve/internal/page"
	"github.com/nao1215/quizsolve/internal/schedule"
)

// MsgNoQuestions is shown when the page has no question blocks.
const MsgNoQuestions = "No questions found on this page"

// ErrNoQuestions ends a run on a page without question blocks.
var ErrNoQuestions = errors.New("no questions found on this page")

// Solver sends questions to the solving API.
type Solver interface {
	Solve(ctx context.Context, questions []model.Question) (*model.SolveResponse, error)
}

// ExtractStep reads the questions from the page.
type ExtractStep struct {
	doc      page.Document
	notifier notify.Notifier
}

// NewExtractStep creates an ExtractStep.
func NewExtractStep(doc page.Document, notifier notify.Notifier) *ExtractStep {
	return &ExtractStep{doc: doc, notifier: notifier}
}

// Name returns the step name.
func (s *ExtractStep) Name() string { return "extract" }

// Do extracts the questions. A page without questions fails with
// ErrNoQuestions after showing MsgNoQuestions.
func (s *ExtractStep) Do(_ context.Context, report *model.RunReport) error {
	report.State = model.StateExtracting
	report.Questions = extract.Questions(s.doc)
	if len(report.Questions) == 0 {
		s.notifier.Show(notify.Status{Kind: notify.Error, Text: MsgNoQuestions})
		return ErrNoQuestions
	}
	return nil
}

// RequestStep sends the extracted questions to the solving API.
type RequestStep struct {
	solver   Solver
	notifier notify.Notifier
}

// NewRequestStep creates a RequestStep.
func NewRequestStep(solver Solver, notifier notify.Notifier) *RequestStep {
	return &RequestStep{solver: solver, notifier: notifier}
}

// Name returns the step name.
func (s *RequestStep) Name() string { return "request" }

// Do performs the single solve call. A failure is shown to the user and
// ends the run; it is never retried.
func (s *RequestStep) Do(ctx context.Context, report *model.RunReport) error {
	report.State = model.StateRequesting
	s.notifier.Show(notify.Status{
		Kind: notify.Progress,
		Text: fmt.Sprintf("Solving %d questions...", len(report.Questions)),
	})

	resp, err := s.solver.Solve(ctx, report.Questions)
	if err != nil {
		s.notifier.Show(notify.Status{Kind: notify.Error, Text: "Error: " + err.Error()})
		return err
	}
	report.Response = resp
	return nil
}

// ApplyStep applies the solutions to the page, one question per
// scheduled task, spaced by the stagger interval.
type ApplyStep struct {
	doc       page.Document
	applier   *apply.Applier
	scheduler *schedule.Scheduler
	interval  time.Duration
	logger    *slog.Logger
}

// ApplyStepOption configures an ApplyStep.
type ApplyStepOption func(*ApplyStep)

// WithStaggerInterval sets the delay between two selections.
func WithStaggerInterval(d time.Duration) ApplyStepOption {
	return func(s *ApplyStep) {
		if d >= 0 {
			s.interval = d
		}
	}
}

// WithApplyLogger sets a custom logger for the apply step.
func WithApplyLogger(logger *slog.Logger) ApplyStepOption {
	return func(s *ApplyStep) {
		s.logger = logger
	}
}

// WithScheduler shares a scheduler, and so its callback lock, with the step.
func WithScheduler(sched *schedule.Scheduler) ApplyStepOption {
	return func(s *ApplyStep) {
		s.scheduler = sched
	}
}

// NewApplyStep creates an ApplyStep.
func NewApplyStep(doc page.Document, applier *apply.Applier, opts ...ApplyStepOption) *ApplyStep {
	s := &ApplyStep{
		doc:      doc,
		applier:  applier,
		interval: config.DefaultStaggerInterval,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.scheduler == nil {
		s.scheduler = schedule.New(schedule.WithLogger(s.logger))
	}
	return s
}

// Name returns the step name.
func (s *ApplyStep) Name() string { return "apply" }

// Do schedules solution i at i*interval and waits for every task. Blocks
// beyond the last solution, and solutions beyond the last block, are
// ignored.
func (s *ApplyStep) Do(ctx context.Context, report *model.RunReport) error {
	report.State = model.StateApplying
	if report.Response == nil {
		return nil
	}

	blocks := s.doc.QuestionBlocks()
	solutions := report.Response.Solutions
	n := min(len(solutions), len(blocks))

	outcomes := make([]*model.Outcome, n)
	tasks := schedule.Stagger(n, s.interval, func(_ context.Context, i int) {
		out := s.applier.ApplyOne(i+1, solutions[i], blocks[i])
		outcomes[i] = &out
	})
	res := s.scheduler.Run(ctx, tasks)

	for _, out := range outcomes {
		if out != nil {
			report.Outcomes = append(report.Outcomes, *out)
		}
	}
	s.logger.Debug("solutions applied", "run", report.ID, "applied", res.Fired, "cancelled", res.Cancelled)

	if res.Cancelled > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

// SummaryStep shows the final counts.
type SummaryStep struct {
	notifier notify.Notifier
}

// NewSummaryStep creates a SummaryStep.
func NewSummaryStep(notifier notify.Notifier) *SummaryStep {
	return &SummaryStep{notifier: notifier}
}

// Name returns the step name.
func (s *SummaryStep) Name() string { return "summary" }

// Do shows "Done: S/T solved (R)" using the response's counters.
func (s *SummaryStep) Do(_ context.Context, report *model.RunReport) error {
	s.notifier.Show(notify.Status{Kind: notify.Success, Text: Summary(report.Response)})
	return nil
}

// Summary formats the final banner text for resp.
func Summary(resp *model.SolveResponse) string {
	if resp == nil {
		return "Done: 0/0 solved (0.0%)"
	}
	return fmt.Sprintf("Done: %d/%d solved (%s)", resp.SolvedCount, resp.TotalQuestions, resp.SuccessRate)
}
