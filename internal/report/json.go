package report

import (
	"io"

	"github.com/goccy/go-json"

	"github.com/nao1215/quizsolve/internal/model"
)

// JSONWriter outputs reports as JSON: one object per report, or an array
// from WriteAll.
type JSONWriter struct {
	baseWriter

	indent       bool
	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint is WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// JSONReport wraps a run report with fields derived for consumers.
type JSONReport struct {
	*model.RunReport

	// Status is the human-readable outcome of the run.
	Status string `json:"status"`

	// DurationMs is the run's wall time in milliseconds.
	DurationMs int64 `json:"duration_ms"`

	// Selected is the number of answers that were selected on the page.
	Selected int `json:"selected"`
}

// NewJSONReport wraps r.
func NewJSONReport(r *model.RunReport) JSONReport {
	return JSONReport{
		RunReport:  r,
		Status:     statusText(r),
		DurationMs: r.Duration().Milliseconds(),
		Selected:   r.SelectedCount(),
	}
}

// Write outputs one report.
func (w *JSONWriter) Write(report *model.RunReport) (int, error) {
	return w.writeJSON(NewJSONReport(report))
}

// WriteAll outputs the reports as a single array.
func (w *JSONWriter) WriteAll(reports []*model.RunReport) (int, error) {
	wrapped := make([]JSONReport, 0, len(reports))
	for _, r := range reports {
		wrapped = append(wrapped, NewJSONReport(r))
	}
	return w.writeJSON(wrapped)
}

func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
