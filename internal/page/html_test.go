package page

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nao1215/quizsolve/internal/config"
)

const quizHTML = `<!DOCTYPE html>
<html><body>
<form>
<div class="box box-default question">
  <div class="box-header"><h3 class="box-title">What is 2+2?</h3></div>
  <div class="box-body">
    <p><input type="radio" name="q1" value="11"> <span class="qv">3</span></p>
    <p><input type="radio" name="q1" value="12"> <span class="qv">4</span></p>
    <p><input type="radio" name="q1" value="13"> <span class="qv">5</span></p>
  </div>
</div>
<div class="box box-default question" style="margin: 4px">
  <div class="box-header"><h3 class="box-title">Capital of France?</h3></div>
  <div class="box-body">
    <p><input type="checkbox" name="q2" value="21"> <span class="qv">Paris</span></p>
    <p>no control here</p>
    <p><input type="checkbox" name="q2" value="22"> <span class="qv">Rome</span></p>
  </div>
</div>
</form>
</body></html>`

func parseQuiz(t *testing.T) *HTMLDocument {
	t.Helper()
	doc, err := ParseString(quizHTML, config.DefaultSelectors())
	require.NoError(t, err)
	return doc
}

func TestParse_FindsBlocks(t *testing.T) {
	t.Parallel()

	doc := parseQuiz(t)
	blocks := doc.QuestionBlocks()
	require.Len(t, blocks, 2)

	require.Equal(t, 0, blocks[0].Index())
	require.Equal(t, "What is 2+2?", blocks[0].Heading())
	require.Len(t, blocks[0].Controls(), 3)
	require.Len(t, blocks[1].Rows(), 3)
}

func TestParse_NoBlocks(t *testing.T) {
	t.Parallel()

	doc, err := ParseString("<html><body><p>nothing</p></body></html>", config.DefaultSelectors())
	require.NoError(t, err)
	require.Empty(t, doc.QuestionBlocks())
}

func TestRow_TextAndControl(t *testing.T) {
	t.Parallel()

	rows := parseQuiz(t).QuestionBlocks()[1].Rows()

	require.Equal(t, "Paris", rows[0].Text())
	require.NotNil(t, rows[0].Control())
	require.Equal(t, "21", rows[0].Control().Value())
	require.Equal(t, "checkbox", rows[0].Control().Type())

	require.Equal(t, "no control here", rows[1].Text())
	require.Nil(t, rows[1].Control())
}

func TestBlock_Decorations(t *testing.T) {
	t.Parallel()

	doc := parseQuiz(t)
	block := doc.QuestionBlocks()[1]

	block.MarkHeading("✅ ")
	block.SetStyle("border", "2px solid #28a745")
	block.SetTooltip("Confidence: high | Source: AI-Claude")

	sel := doc.Find(".box.question").Eq(1)
	require.Equal(t, "✅ Capital of France?", sel.Find("h3.box-title").Text())
	require.Equal(t, "2px solid #28a745", StyleOf(sel, "border"))
	require.Equal(t, "4px", StyleOf(sel, "margin"))
	require.Equal(t, "Confidence: high | Source: AI-Claude", sel.AttrOr("title", ""))

	muts := doc.Mutations()
	require.Len(t, muts, 3)
	require.Equal(t, OpMarkHeading, muts[0].Op)
	require.Equal(t, 1, muts[0].Block)
	require.Equal(t, OpSetStyle, muts[1].Op)
	require.Equal(t, OpSetTooltip, muts[2].Op)
}

func TestControl_SelectOnlyTarget(t *testing.T) {
	t.Parallel()

	doc := parseQuiz(t)
	controls := doc.QuestionBlocks()[0].Controls()

	controls[1].Select()
	controls[1].DispatchChange()
	controls[1].HighlightRow(Style{Property: "background-color", Value: "#d4edda"})

	require.False(t, controls[0].Checked())
	require.True(t, controls[1].Checked())
	require.False(t, controls[2].Checked())

	rows := doc.Find(".box.question").First().Find("p")
	require.Equal(t, "", StyleOf(rows.Eq(0), "background-color"))
	require.Equal(t, "#d4edda", StyleOf(rows.Eq(1), "background-color"))

	muts := doc.Mutations()
	require.Len(t, muts, 3)
	require.Equal(t, Mutation{Op: OpSelect, Block: 0, Control: 1, Value: "12"}, muts[0])
	require.Equal(t, OpDispatch, muts[1].Op)
	require.Equal(t, "change", muts[1].Name)
	require.Equal(t, OpHighlightRow, muts[2].Op)
}

func TestControl_RadioGroupExclusive(t *testing.T) {
	t.Parallel()

	doc := parseQuiz(t)
	controls := doc.QuestionBlocks()[0].Controls()

	controls[0].Select()
	controls[2].Select()

	require.False(t, controls[0].Checked())
	require.True(t, controls[2].Checked())
}

func TestBanner_ReusedByID(t *testing.T) {
	t.Parallel()

	doc := parseQuiz(t)
	doc.ShowBanner(Banner{ID: "quizsolve-status", Text: "Solving 2 questions..."})
	doc.ShowBanner(Banner{ID: "quizsolve-status", Text: "Done: 2/2 solved (100.0%)", Style: []Style{{Property: "position", Value: "fixed"}}})

	banner := doc.Find("#quizsolve-status")
	require.Equal(t, 1, banner.Length())
	require.Equal(t, "Done: 2/2 solved (100.0%)", banner.Text())
	require.Equal(t, "fixed", StyleOf(banner, "position"))

	doc.RemoveBanner("quizsolve-status")
	require.Equal(t, 0, doc.Find("#quizsolve-status").Length())
	doc.RemoveBanner("quizsolve-status")

	var ops []Op
	for _, m := range doc.Mutations() {
		ops = append(ops, m.Op)
	}
	require.Equal(t, []Op{OpShowBanner, OpShowBanner, OpRemoveBanner}, ops)
}

func TestRender(t *testing.T) {
	t.Parallel()

	doc := parseQuiz(t)
	doc.QuestionBlocks()[0].Controls()[1].Select()

	var buf bytes.Buffer
	require.NoError(t, doc.Render(&buf))
	require.Contains(t, buf.String(), `value="12" checked="checked"`)
}

func TestMutationLog_Since(t *testing.T) {
	t.Parallel()

	var l MutationLog
	l.Append(Mutation{Op: OpSelect})
	l.Append(Mutation{Op: OpDispatch})

	require.Equal(t, 2, l.Len())
	require.Len(t, l.Since(1), 1)
	require.Equal(t, OpDispatch, l.Since(1)[0].Op)
	require.Nil(t, l.Since(2))
}

func TestSetStyle_ReplacesProperty(t *testing.T) {
	t.Parallel()

	doc, err := ParseString(`<div class="x" style="border: 1px; color: red"></div>`, config.DefaultSelectors())
	require.NoError(t, err)

	sel := doc.Find("div.x")
	setStyle(sel, Style{Property: "Border", Value: "2px solid #dc3545"})
	require.Equal(t, "border: 2px solid #dc3545; color: red", sel.AttrOr("style", ""))
}

func TestBanner_DismissAttribute(t *testing.T) {
	t.Parallel()

	doc := parseQuiz(t)
	doc.ShowBanner(Banner{ID: "b", Text: "done", DismissAfter: 5 * time.Second})
	require.Equal(t, "5000", doc.Find("#b").AttrOr("data-dismiss-after", ""))
	require.Equal(t, int64(5000), doc.Mutations()[0].DismissMs)

	doc.ShowBanner(Banner{ID: "b", Text: "working"})
	_, ok := doc.Find("#b").Attr("data-dismiss-after")
	require.False(t, ok)
}
