package llm

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nao1215/quizsolve/internal/model"
)

// Heuristic sources reported by Guess.
const (
	SourceGuessMath   = "Smart-Guess-Math"
	SourceGuessLength = "Smart-Guess-Length"
)

// Guess picks an answer without a model. For a question containing a digit
// it returns the first option containing a digit; otherwise, or when no
// option has one, the longest option (the first on ties). ok is false only
// when q has no answers.
func Guess(q model.Question) (answer, source string, ok bool) {
	if len(q.Answers) == 0 {
		return "", "", false
	}

	if hasDigit(q.Question) {
		for _, a := range q.Answers {
			if hasDigit(a.Text) {
				return a.Position, SourceGuessMath, true
			}
		}
	}

	longest := q.Answers[0]
	for _, a := range q.Answers[1:] {
		if utf8.RuneCountInString(a.Text) > utf8.RuneCountInString(longest.Text) {
			longest = a
		}
	}
	return longest.Position, SourceGuessLength, true
}

func hasDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}
