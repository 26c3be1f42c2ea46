package report

import (
	"io"
	"strings"
	"unicode/utf8"

	"github.com/nao1215/quizsolve/internal/model"
)

// Writer outputs run reports.
type Writer interface {
	// Write outputs a single run report and returns the bytes written.
	Write(report *model.RunReport) (int, error)

	// WriteAll outputs the reports of a multi-source run.
	WriteAll(reports []*model.RunReport) (int, error)
}

// MultiWriter writes to several Writers, stopping at the first error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to every writer.
func (m *MultiWriter) Write(report *model.RunReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteAll outputs the reports to every writer.
func (m *MultiWriter) WriteAll(reports []*model.RunReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteAll(reports)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// statusText describes how a run ended.
func statusText(r *model.RunReport) string {
	switch {
	case r.ErrorMessage != "":
		return "Error - " + r.ErrorMessage
	case r.Response == nil:
		return "Incomplete"
	case len(r.Outcomes) < len(r.Questions):
		return "Partial"
	default:
		return "Complete"
	}
}

// successRate returns the server's rate, or "-" when there is no response.
func successRate(r *model.RunReport) string {
	if r.Response == nil {
		return "-"
	}
	return r.Response.SuccessRate
}

// answerLabel renders the chosen answer with its text when known.
func answerLabel(o model.Outcome) string {
	switch {
	case !o.Solved:
		return "-"
	case o.AnswerText != "":
		return o.Answer + " (" + o.AnswerText + ")"
	default:
		return o.Answer
	}
}

// truncateString shortens s to maxLen characters, ending with "...".
func truncateString(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	r := []rune(s)
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
