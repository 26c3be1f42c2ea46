package model

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

// TestRunState_String tests state names.
func TestRunState_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state RunState
		want  string
	}{
		{StateIdle, "idle"},
		{StateExtracting, "extracting"},
		{StateRequesting, "requesting"},
		{StateApplying, "applying"},
		{RunState(42), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			if got := tt.state.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestNewRunReport tests the initial state of a run.
func TestNewRunReport(t *testing.T) {
	t.Parallel()

	r := NewRunReport("quiz.html")

	if r.ID == "" {
		t.Error("expected run id")
	}
	if r.State != StateIdle {
		t.Errorf("expected idle, got %s", r.State)
	}
	if r.Source != "quiz.html" {
		t.Errorf("expected source quiz.html, got %q", r.Source)
	}
	if !r.Succeeded() {
		t.Error("expected a fresh run to have no error")
	}

	other := NewRunReport("quiz.html")
	if other.ID == r.ID {
		t.Error("expected distinct run ids")
	}
}

// TestRunReport_Counters tests solved and selected counts.
func TestRunReport_Counters(t *testing.T) {
	t.Parallel()

	r := NewRunReport("quiz.html")
	r.Outcomes = []Outcome{
		{Index: 1, Solved: true, Selected: true},
		{Index: 2, Solved: true, Selected: false},
		{Index: 3, Solved: false},
	}

	if got := r.SolvedCount(); got != 2 {
		t.Errorf("SolvedCount() = %d, want 2", got)
	}
	if got := r.SelectedCount(); got != 1 {
		t.Errorf("SelectedCount() = %d, want 1", got)
	}
}

// TestRunReport_FailAndFinish tests error recording and serialization.
func TestRunReport_FailAndFinish(t *testing.T) {
	t.Parallel()

	r := NewRunReport("quiz.html")
	r.State = StateRequesting
	r.Fail(errors.New("server error: status 500"))
	r.Finish()

	if r.Succeeded() {
		t.Error("expected failed run")
	}
	if r.State != StateIdle {
		t.Errorf("expected idle after finish, got %s", r.State)
	}
	if r.Duration() < 0 {
		t.Error("expected non-negative duration")
	}

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"state":"idle"`) {
		t.Errorf("expected textual state in JSON, got %s", out)
	}
	if !strings.Contains(out, "status 500") {
		t.Errorf("expected error message in JSON, got %s", out)
	}
}
