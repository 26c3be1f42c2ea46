package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/quizsolve/internal/model"
)

// SimpleWriter outputs plain-text reports for the terminal.
type SimpleWriter struct {
	baseWriter

	// verbose adds each question's tooltip.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose adds per-question diagnostics.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs one report.
func (w *SimpleWriter) Write(report *model.RunReport) (int, error) {
	var sb strings.Builder
	w.writeReport(&sb, report)
	w.writeFooter(&sb)
	return io.WriteString(w.output, sb.String())
}

// WriteAll outputs each report followed by a totals line.
func (w *SimpleWriter) WriteAll(reports []*model.RunReport) (int, error) {
	var sb strings.Builder
	solved, total, failed := 0, 0, 0
	for _, r := range reports {
		w.writeReport(&sb, r)
		solved += r.SolvedCount()
		total += len(r.Questions)
		if !r.Succeeded() {
			failed++
		}
	}
	fmt.Fprintf(&sb, "%d pages, %d failed, %d/%d questions solved\n", len(reports), failed, solved, total)
	w.writeFooter(&sb)
	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeReport(sb *strings.Builder, r *model.RunReport) {
	w.writeHeader(sb, r)
	w.writeOutcomes(sb, r)
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, r *model.RunReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         QUIZSOLVE REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Source:         %s\n", r.Source)
	fmt.Fprintf(sb, "Run:            %s\n", r.ID)
	fmt.Fprintf(sb, "Started:        %s\n", r.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Duration:       %s\n", r.Duration().Round(time.Millisecond))
	fmt.Fprintf(sb, "Questions:      %d\n", len(r.Questions))
	fmt.Fprintf(sb, "Solved:         %d (%s)\n", r.SolvedCount(), successRate(r))
	fmt.Fprintf(sb, "Selected:       %d\n", r.SelectedCount())
	fmt.Fprintf(sb, "Status:         %s\n", statusText(r))
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeOutcomes(sb *strings.Builder, r *model.RunReport) {
	if len(r.Outcomes) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("ANSWERS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, o := range r.Outcomes {
		indicator := "-"
		switch {
		case o.Selected:
			indicator = "+"
		case o.Solved:
			indicator = "?"
		}
		fmt.Fprintf(sb, "  [%s] %d. %s\n", indicator, o.Index, truncateString(o.Question, 60))
		fmt.Fprintf(sb, "      Answer: %s\n", answerLabel(o))
		if w.verbose && o.Tooltip != "" {
			fmt.Fprintf(sb, "      %s\n", o.Tooltip)
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by quizsolve\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
