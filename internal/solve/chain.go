package solve

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/hashicorp/go-multierror"

	"github.com/nao1215/quizsolve/internal/llm"
	"github.com/nao1215/quizsolve/internal/model"
)

// Confidence labels and sources reported per stage.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"

	SourcePrimary = "AI-Claude"
	SourceBackup  = "AI-Gemini"

	// MsgMissingInput is the message of an item without text or answers.
	MsgMissingInput = "question or answers missing"

	// MaxEchoLength is how many characters of the question a solution echoes.
	MaxEchoLength = 100
)

// Cache stores answers between requests.
type Cache interface {
	Get(ctx context.Context, q model.Question) (answer, confidence, source string, ok bool, err error)
	Put(ctx context.Context, q model.Question, answer, confidence, source string) error
}

// Stage is one model in the chain.
type Stage struct {
	Client     llm.Client
	Confidence string
	Source     string
}

// Chain solves questions stage by stage.
type Chain struct {
	stages []Stage
	cache  Cache
	guess  bool
	logger *slog.Logger
}

// Option configures a Chain.
type Option func(*Chain)

// WithPrimary adds c as the first model stage. A nil client is ignored.
func WithPrimary(c llm.Client) Option {
	return WithStage(Stage{Client: c, Confidence: ConfidenceHigh, Source: SourcePrimary})
}

// WithBackup adds c as the stage after the primary. A nil client is ignored.
func WithBackup(c llm.Client) Option {
	return WithStage(Stage{Client: c, Confidence: ConfidenceMedium, Source: SourceBackup})
}

// WithStage appends a model stage. Stages run in the order they are added.
func WithStage(s Stage) Option {
	return func(ch *Chain) {
		if s.Client != nil {
			ch.stages = append(ch.stages, s)
		}
	}
}

// WithCache enables answer caching.
func WithCache(c Cache) Option {
	return func(ch *Chain) { ch.cache = c }
}

// WithoutGuess disables the heuristic fallback.
func WithoutGuess() Option {
	return func(ch *Chain) { ch.guess = false }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(ch *Chain) { ch.logger = logger }
}

// NewChain creates a Chain. Without model stages it answers by guessing only.
func NewChain(opts ...Option) *Chain {
	ch := &Chain{guess: true, logger: slog.Default()}
	for _, opt := range opts {
		opt(ch)
	}
	return ch
}

// StageNames returns the client names in order.
func (ch *Chain) StageNames() []string {
	names := make([]string, len(ch.stages))
	for i, s := range ch.stages {
		names[i] = s.Client.Name()
	}
	return names
}

// SolveBatch solves qs in order and returns the completed response with
// one solution per question.
func (ch *Chain) SolveBatch(ctx context.Context, qs []model.Question) *model.SolveResponse {
	solutions := make([]model.Solution, 0, len(qs))
	for _, q := range qs {
		solutions = append(solutions, ch.Solve(ctx, q))
	}
	resp := model.NewSolveResponse(solutions)
	ch.logger.Info("batch completed",
		"solved", resp.SolvedCount,
		"total", resp.TotalQuestions,
		"rate", resp.SuccessRate,
	)
	return resp
}

// Solve answers a single question. It never returns an error: failures are
// reported in the solution.
func (ch *Chain) Solve(ctx context.Context, q model.Question) model.Solution {
	if strings.TrimSpace(q.Question) == "" || len(q.Answers) == 0 {
		return model.Solution{
			QuestionIndex: q.Index,
			Question:      q.Question,
			Status:        model.StatusError,
			Message:       MsgMissingInput,
			Answer:        model.NoAnswer,
		}
	}

	sol := model.Solution{QuestionIndex: q.Index, Question: Truncate(q.Question, MaxEchoLength)}
	succeed := func(answer, confidence, source string) model.Solution {
		sol.Status = model.StatusSuccess
		sol.Solved = true
		sol.Answer = answer
		sol.Confidence = confidence
		sol.Source = source
		return sol
	}

	if ch.cache != nil {
		answer, confidence, source, ok, err := ch.cache.Get(ctx, q)
		if err != nil {
			ch.logger.Warn("answer cache lookup failed", "question", q.Index, "error", err)
		} else if ok {
			ch.logger.Debug("answer cache hit", "question", q.Index, "source", source)
			return succeed(answer, confidence, source)
		}
	}

	var errs *multierror.Error
	for _, s := range ch.stages {
		answer, err := llm.Ask(ctx, s.Client, q)
		if err != nil {
			ch.logger.Warn("model stage failed", "model", s.Client.Name(), "question", q.Index, "error", err)
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", s.Client.Name(), err))
			continue
		}
		if ch.cache != nil {
			if err := ch.cache.Put(ctx, q, answer, s.Confidence, s.Source); err != nil {
				ch.logger.Warn("failed to cache answer", "question", q.Index, "error", err)
			}
		}
		return succeed(answer, s.Confidence, s.Source)
	}

	if ch.guess {
		if answer, source, ok := llm.Guess(q); ok {
			return succeed(answer, ConfidenceLow, source)
		}
		errs = multierror.Append(errs, fmt.Errorf("guess: no usable option"))
	}
	if errs == nil {
		errs = multierror.Append(errs, fmt.Errorf("no solving strategy configured"))
	}

	errs.ErrorFormat = joinErrors
	sol.Status = model.StatusFailed
	sol.Answer = model.NoAnswer
	sol.Message = errs.Error()
	return sol
}

func joinErrors(errs []error) string {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Truncate shortens s to n characters followed by "..." when it is longer.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
