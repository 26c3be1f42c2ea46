// Package extract turns the question blocks of a quiz page into the
// questions sent to the solving API.
package extract

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/nao1215/quizsolve/internal/model"
	"github.com/nao1215/quizsolve/internal/page"
)

// Questions returns one question per block of doc, indexed from 1 in
// document order. Rows without a selectable control are skipped. A page
// without question blocks yields an empty, non-nil slice.
func Questions(doc page.Document) []model.Question {
	return FromBlocks(doc.QuestionBlocks())
}

// FromBlocks is Questions for an already located list of blocks.
func FromBlocks(blocks []page.Block) []model.Question {
	questions := make([]model.Question, 0, len(blocks))
	for i, b := range blocks {
		q := model.Question{
			Index:    i + 1,
			Question: CleanText(b.Heading()),
			Answers:  []model.Answer{},
		}
		for _, row := range b.Rows() {
			c := row.Control()
			if c == nil {
				continue
			}
			q.Answers = append(q.Answers, model.Answer{
				Text:     CleanText(row.Text()),
				Position: c.Value(),
			})
		}
		questions = append(questions, q)
	}
	return questions
}

// CleanText collapses runs of whitespace, trims the result and normalizes
// it to NFC so that visually identical text compares equal.
func CleanText(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}
