// Package apply decorates question blocks with the solving API's verdicts
// and selects the chosen answers.
package apply

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/nao1215/quizsolve/internal/model"
	"github.com/nao1215/quizsolve/internal/page"
)

// Decorations written to the page.
const (
	SuccessMarker      = "✅ "
	FailureMarker      = "❌ "
	SuccessBorder      = "2px solid #28a745"
	FailureBorder      = "2px solid #dc3545"
	DefaultFailureText = "Could not find an answer"
)

// RowHighlight is applied to the row of a selected answer.
var RowHighlight = []page.Style{
	{Property: "background-color", Value: "#d4edda"},
	{Property: "border", Value: "1px solid #28a745"},
}

// Applier applies solutions to question blocks.
type Applier struct {
	logger *slog.Logger
}

// Option configures an Applier.
type Option func(*Applier)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Applier) {
		a.logger = logger
	}
}

// New creates an Applier.
func New(opts ...Option) *Applier {
	a := &Applier{}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// Apply applies resp.Solutions[i] to blocks[i] for every i present in both.
// Blocks without a solution are left untouched.
func (a *Applier) Apply(resp *model.SolveResponse, blocks []page.Block) []model.Outcome {
	if resp == nil {
		return nil
	}
	n := min(len(resp.Solutions), len(blocks))
	outcomes := make([]model.Outcome, 0, n)
	for i := range n {
		outcomes = append(outcomes, a.ApplyOne(i+1, resp.Solutions[i], blocks[i]))
	}
	return outcomes
}

// ApplyOne decorates one block and, for a solved question, selects the
// control whose value equals the answer. index is the 1-based question index.
func (a *Applier) ApplyOne(index int, sol model.Solution, block page.Block) model.Outcome {
	out := model.Outcome{
		Index:    index,
		Question: strings.Join(strings.Fields(block.Heading()), " "),
		Solved:   sol.HasAnswer(),
	}

	if !out.Solved {
		out.Tooltip = FailureTooltip(sol)
		block.MarkHeading(FailureMarker)
		block.SetStyle("border", FailureBorder)
		block.SetTooltip(out.Tooltip)
		return out
	}

	out.Answer = sol.Answer
	out.Tooltip = SuccessTooltip(sol)
	block.MarkHeading(SuccessMarker)
	block.SetStyle("border", SuccessBorder)
	block.SetTooltip(out.Tooltip)

	if c, ok := Select(block, sol.Answer); ok {
		out.Selected = true
		out.AnswerText = answerText(block, c)
	} else {
		a.logger.Debug("no control matches answer", "question", index, "answer", sol.Answer)
	}
	return out
}

// Select checks the first radio button or checkbox of block whose value is
// position, notifies change listeners and highlights its row. It reports
// false and changes nothing when no control matches.
func Select(block page.Block, position string) (page.Control, bool) {
	for _, c := range block.Controls() {
		if t := c.Type(); t != "radio" && t != "checkbox" {
			continue
		}
		if c.Value() != position {
			continue
		}
		c.Select()
		c.DispatchChange()
		c.HighlightRow(RowHighlight...)
		return c, true
	}
	return nil, false
}

// SuccessTooltip summarizes a solved answer's confidence and source.
func SuccessTooltip(sol model.Solution) string {
	return fmt.Sprintf("Confidence: %s | Source: %s", sol.Confidence, sol.Source)
}

// FailureTooltip is the solution's message, or DefaultFailureText.
func FailureTooltip(sol model.Solution) string {
	if msg := strings.TrimSpace(sol.Message); msg != "" {
		return msg
	}
	return DefaultFailureText
}

func answerText(block page.Block, selected page.Control) string {
	for _, row := range block.Rows() {
		if row.Control() == selected {
			return strings.Join(strings.Fields(row.Text()), " ")
		}
	}
	return ""
}
