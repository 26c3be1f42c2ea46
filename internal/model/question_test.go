package model

import (
	"slices"
	"testing"
)

// TestQuestion_Positions tests position lookup helpers.
func TestQuestion_Positions(t *testing.T) {
	t.Parallel()

	q := Question{
		Index:    1,
		Question: "2 + 2 = ?",
		Answers: []Answer{
			{Text: "3", Position: "11"},
			{Text: "4", Position: "12"},
			{Text: "5", Position: "13"},
		},
	}

	if got := q.Positions(); !slices.Equal(got, []string{"11", "12", "13"}) {
		t.Errorf("Positions() = %v", got)
	}
	if !q.HasPosition("12") {
		t.Error("expected position 12 to exist")
	}
	if q.HasPosition("2") {
		t.Error("expected position 2 to be absent")
	}
}
