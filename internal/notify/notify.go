// Package notify shows run status to the user: as a line on the terminal,
// as a banner on the quiz page, or both.
package notify

import (
	"log/slog"
	"time"
)

// BannerID identifies the single status banner on a page.
const BannerID = "quizsolve-status"

// DismissAfter is how long a terminal status stays on a live page.
const DismissAfter = 5 * time.Second

// Kind classifies a status.
type Kind int

const (
	// Progress is shown until replaced.
	Progress Kind = iota
	Success
	Error
	Info
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Progress:
		return "progress"
	case Success:
		return "success"
	case Error:
		return "error"
	case Info:
		return "info"
	default:
		return "unknown"
	}
}

// Terminal reports whether a status of this kind ends a run and is
// dismissed automatically.
func (k Kind) Terminal() bool {
	return k != Progress
}

// Status is one message to show.
type Status struct {
	Kind Kind
	Text string
}

// Notifier shows statuses. Implementations never fail.
type Notifier interface {
	Show(s Status)
}

// Func adapts a function to Notifier.
type Func func(Status)

// Show implements Notifier.
func (f Func) Show(s Status) { f(s) }

// Multi shows every status on each of its notifiers.
type Multi []Notifier

// Show implements Notifier.
func (m Multi) Show(s Status) {
	for _, n := range m {
		if n != nil {
			n.Show(s)
		}
	}
}

// Discard drops every status.
var Discard Notifier = Func(func(Status) {})

// Log writes statuses to a logger at Info level, errors at Warn.
type Log struct {
	Logger *slog.Logger
}

// Show implements Notifier.
func (l Log) Show(s Status) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if s.Kind == Error {
		logger.Warn("status", "kind", s.Kind.String(), "text", s.Text)
		return
	}
	logger.Info("status", "kind", s.Kind.String(), "text", s.Text)
}
