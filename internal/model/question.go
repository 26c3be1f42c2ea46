package model

// Answer is one candidate answer of a question.
type Answer struct {
	// Text is the answer's display text as shown next to its control.
	Text string `json:"text"`

	// Position is the opaque identifier of the answer. It equals the value
	// attribute of the answer's selectable control, and the solving API
	// answers with one of these identifiers.
	Position string `json:"position"`
}

// Question is a multiple-choice question discovered on a quiz page.
type Question struct {
	// Index is the 1-based position of the question block in document order.
	Index int `json:"index"`

	// Question is the question text read from the block's heading.
	Question string `json:"question"`

	// Answers are the candidate answers in document order.
	Answers []Answer `json:"answers"`
}

// Positions returns the position identifiers of all answers in order.
func (q Question) Positions() []string {
	positions := make([]string, len(q.Answers))
	for i, a := range q.Answers {
		positions[i] = a.Position
	}
	return positions
}

// HasPosition reports whether position identifies one of the answers.
func (q Question) HasPosition(position string) bool {
	for _, a := range q.Answers {
		if a.Position == position {
			return true
		}
	}
	return false
}

// SolveRequest is the full body of a solve call: an ordered JSON array of
// questions.
type SolveRequest []Question
