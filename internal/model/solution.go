package model

import (
	"fmt"
	"strings"
)

// Solution status values used by the solving API.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusError   = "error"

	// StatusCompleted is the batch-level status of a processed request.
	StatusCompleted = "completed"

	// NoAnswer is the placeholder answer of an unsolved question.
	NoAnswer = "-"
)

// Solution is the solving API's verdict for a single question.
// Solutions[i] of a response belongs to the i-th question of the request.
type Solution struct {
	// QuestionIndex echoes the Index of the question this solution answers.
	QuestionIndex int `json:"question_index"`

	// Question echoes the (possibly truncated) question text.
	Question string `json:"question,omitempty"`

	// Status is one of StatusSuccess, StatusFailed or StatusError.
	Status string `json:"status,omitempty"`

	// Solved is true when Answer carries a usable position identifier.
	Solved bool `json:"solved"`

	// Answer is the chosen position identifier, NoAnswer or empty when unsolved.
	Answer string `json:"answer,omitempty"`

	// Confidence is an opaque label such as "high" or "low".
	Confidence string `json:"confidence,omitempty"`

	// Source is an opaque label naming the strategy that produced the answer.
	Source string `json:"source,omitempty"`

	// Message explains why the question is unsolved.
	Message string `json:"message,omitempty"`
}

// HasAnswer reports whether the solution is solved and carries a position.
func (s Solution) HasAnswer() bool {
	return s.Solved && s.Answer != "" && s.Answer != NoAnswer
}

// SolveResponse is the body returned by the solving API.
type SolveResponse struct {
	// Status is StatusCompleted for a processed batch.
	Status string `json:"status,omitempty"`

	// Solutions are aligned by index to the request's questions. The slice may
	// be shorter than the request; the surplus questions are left alone.
	Solutions []Solution `json:"solutions"`

	// SolvedCount is the number of solved questions.
	SolvedCount int `json:"solved_count"`

	// TotalQuestions is the number of questions the API processed.
	TotalQuestions int `json:"total_questions"`

	// SuccessRate is a display string such as "80.0%".
	SuccessRate string `json:"success_rate"`
}

// Normalize fills in defaults for fields a server left out: a missing
// solutions array becomes empty and a missing success rate is computed from
// the counters.
func (r *SolveResponse) Normalize() {
	if r.Solutions == nil {
		r.Solutions = make([]Solution, 0)
	}
	if r.TotalQuestions == 0 {
		r.TotalQuestions = len(r.Solutions)
	}
	if strings.TrimSpace(r.SuccessRate) == "" {
		r.SuccessRate = FormatSuccessRate(r.SolvedCount, r.TotalQuestions)
	}
}

// NewSolveResponse builds a completed response from solutions, counting the
// solved ones.
func NewSolveResponse(solutions []Solution) *SolveResponse {
	solved := 0
	for _, s := range solutions {
		if s.Solved {
			solved++
		}
	}
	return &SolveResponse{
		Status:         StatusCompleted,
		Solutions:      solutions,
		SolvedCount:    solved,
		TotalQuestions: len(solutions),
		SuccessRate:    FormatSuccessRate(solved, len(solutions)),
	}
}

// FormatSuccessRate renders solved/total as a percentage with one decimal,
// e.g. "66.7%". An empty batch yields "0.0%".
func FormatSuccessRate(solved, total int) string {
	if total <= 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(solved)/float64(total)*100)
}
