package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/quizsolve/internal/model"
)

// MarkdownWriter outputs reports in GitHub-flavored Markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs one report.
func (w *MarkdownWriter) Write(report *model.RunReport) (int, error) {
	md := markdown.NewMarkdown(w.output)
	md.H1("quizsolve Report")
	md.PlainText("")
	w.writeRun(md, report)
	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// WriteAll outputs an overview table followed by a section per report.
func (w *MarkdownWriter) WriteAll(reports []*model.RunReport) (int, error) {
	md := markdown.NewMarkdown(w.output)
	md.H1("quizsolve Report")
	md.PlainText("")

	rows := make([][]string, len(reports))
	for i, r := range reports {
		rows[i] = []string{
			"`" + r.Source + "`",
			strconv.Itoa(len(r.Questions)),
			strconv.Itoa(r.SolvedCount()),
			successRate(r),
			statusText(r),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Source", "Questions", "Solved", "Rate", "Status"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, r := range reports {
		md.H2(r.Source)
		md.PlainText("")
		w.writeRun(md, r)
	}
	w.writeFooter(md)
	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeRun(md *markdown.Markdown, r *model.RunReport) {
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Source", "`" + r.Source + "`"},
			{"Run", r.ID},
			{"Started", r.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", r.Duration().Round(time.Millisecond).String()},
			{"Questions", strconv.Itoa(len(r.Questions))},
			{"Solved", strconv.Itoa(r.SolvedCount()) + " (" + successRate(r) + ")"},
			{"Selected", strconv.Itoa(r.SelectedCount())},
			{"Status", statusText(r)},
		},
	})
	md.PlainText("")

	if len(r.Outcomes) > 0 {
		w.writePieChart(md, r)
	}
	w.writeAlert(md, r)
	w.writeOutcomes(md, r)
}

// writePieChart charts selected, solved-but-unmatched and unsolved answers.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, r *model.RunReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Answers"),
		piechart.WithShowData(true),
	)

	selected := r.SelectedCount()
	unmatched := r.SolvedCount() - selected
	unsolved := len(r.Outcomes) - r.SolvedCount()
	if selected > 0 {
		chart.LabelAndIntValue("Selected", uint64(selected))
	}
	if unmatched > 0 {
		chart.LabelAndIntValue("Solved, no matching option", uint64(unmatched))
	}
	if unsolved > 0 {
		chart.LabelAndIntValue("Unsolved", uint64(unsolved))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, r *model.RunReport) {
	unsolved := len(r.Questions) - r.SolvedCount()
	switch {
	case r.ErrorMessage != "":
		md.Cautionf("The run failed: %s", r.ErrorMessage)
	case unsolved > 0:
		md.Warningf("%d of %d question(s) were not answered.", unsolved, len(r.Questions))
	case len(r.Questions) > 0:
		md.Tip("Every question was answered.")
	default:
		md.Note("No questions were found.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeOutcomes(md *markdown.Markdown, r *model.RunReport) {
	if len(r.Outcomes) == 0 {
		return
	}

	md.H3("Answers")
	md.PlainText("")

	rows := make([][]string, len(r.Outcomes))
	for i, o := range r.Outcomes {
		mark := "❌"
		if o.Selected {
			mark = "✅"
		} else if o.Solved {
			mark = "⚠️"
		}
		rows[i] = []string{
			strconv.Itoa(o.Index),
			truncateString(o.Question, 60),
			truncateString(answerLabel(o), 40),
			mark,
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"#", "Question", "Answer", "Selected"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, o := range r.Outcomes {
		if !o.Solved && o.Tooltip != "" {
			md.Details("Question "+strconv.Itoa(o.Index), o.Tooltip)
		}
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [quizsolve](https://github.com/nao1215/quizsolve)*")
}
