package model

import (
	"time"

	"github.com/google/uuid"
)

// RunState is the orchestrator's position in a single run.
//
//	Idle -> Extracting -> Idle                      (no questions)
//	                   -> Requesting -> Idle        (solver error)
//	                                 -> Applying -> Idle
type RunState int

const (
	// StateIdle means no run is in progress.
	StateIdle RunState = iota
	// StateExtracting means questions are being read from the page.
	StateExtracting
	// StateRequesting means the solve request is in flight.
	StateRequesting
	// StateApplying means solutions are being applied to the page.
	StateApplying
)

// String returns the lower-case name of the state.
func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateExtracting:
		return "extracting"
	case StateRequesting:
		return "requesting"
	case StateApplying:
		return "applying"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler so states read well in JSON.
func (s RunState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Outcome records what the applier did with one solution.
type Outcome struct {
	// Index is the 1-based question index.
	Index int `json:"index"`

	// Question is the question text.
	Question string `json:"question"`

	// Solved mirrors Solution.HasAnswer.
	Solved bool `json:"solved"`

	// Answer is the position identifier the server chose.
	Answer string `json:"answer,omitempty"`

	// AnswerText is the display text of the chosen answer, when known.
	AnswerText string `json:"answer_text,omitempty"`

	// Selected is true when a control with the answer's value was found and
	// selected. A solved question whose answer matches no control stays false.
	Selected bool `json:"selected"`

	// Tooltip is the diagnostic text attached to the question.
	Tooltip string `json:"tooltip"`
}

// RunReport is the run-scoped context object passed through the steps of one
// extract -> request -> apply cycle. Nothing in it outlives the run.
type RunReport struct {
	// ID uniquely identifies the run in logs and reports.
	ID string `json:"id"`

	// Source is the file path or URL of the quiz page.
	Source string `json:"source"`

	// State is the current orchestrator state.
	State RunState `json:"state"`

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitzero"`

	// Questions are the extracted questions.
	Questions []Question `json:"questions"`

	// Response is the solving API's reply; nil when the request failed.
	Response *SolveResponse `json:"response,omitempty"`

	// Outcomes are appended by the applier in the order solutions are applied.
	Outcomes []Outcome `json:"outcomes"`

	// Steps lists the names of the steps that completed.
	Steps []string `json:"steps"`

	// Error is the terminal error of the run, if any.
	Error error `json:"-"`

	// ErrorMessage is Error's text, kept for serialization.
	ErrorMessage string `json:"error,omitempty"`
}

// NewRunReport creates an idle report for a run over source.
func NewRunReport(source string) *RunReport {
	return &RunReport{
		ID:        uuid.NewString(),
		Source:    source,
		State:     StateIdle,
		StartedAt: time.Now(),
		Questions: make([]Question, 0),
		Outcomes:  make([]Outcome, 0),
		Steps:     make([]string, 0),
	}
}

// Fail records err as the run's terminal error.
func (r *RunReport) Fail(err error) {
	r.Error = err
	if err != nil {
		r.ErrorMessage = err.Error()
	}
}

// Finish returns the run to idle and stamps the finish time.
func (r *RunReport) Finish() {
	r.State = StateIdle
	r.FinishedAt = time.Now()
}

// Duration is the wall time of the run so far.
func (r *RunReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// SolvedCount counts outcomes whose answer was selected or at least solved.
func (r *RunReport) SolvedCount() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Solved {
			n++
		}
	}
	return n
}

// SelectedCount counts outcomes whose control was actually selected.
func (r *RunReport) SelectedCount() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Selected {
			n++
		}
	}
	return n
}

// Succeeded reports whether the run completed without a terminal error.
func (r *RunReport) Succeeded() bool {
	return r.Error == nil && r.ErrorMessage == ""
}
