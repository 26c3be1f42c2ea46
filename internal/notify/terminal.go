package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
)

// Terminal keeps one status line on a terminal. A progress status is
// rewritten in place by the next status; terminal statuses end the line.
type Terminal struct {
	mu      sync.Mutex
	w       io.Writer
	pending bool
}

// NewTerminal writes statuses to w, usually os.Stderr.
func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{w: w}
}

var kindColors = map[Kind]*color.Color{
	Progress: color.New(color.FgCyan),
	Success:  color.New(color.FgGreen, color.Bold),
	Error:    color.New(color.FgRed, color.Bold),
	Info:     color.New(color.FgBlue),
}

// Show implements Notifier.
func (t *Terminal) Show(s Status) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pending {
		fmt.Fprint(t.w, "\r\033[K")
	}
	c, ok := kindColors[s.Kind]
	if !ok {
		c = kindColors[Info]
	}
	c.Fprint(t.w, s.Text) //nolint:errcheck
	if s.Kind.Terminal() {
		fmt.Fprintln(t.w)
		t.pending = false
		return
	}
	t.pending = true
}
