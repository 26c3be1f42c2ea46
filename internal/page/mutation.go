package page

import "sync"

// Op names a kind of page mutation.
type Op string

const (
	OpMarkHeading  Op = "mark-heading"
	OpSetStyle     Op = "set-style"
	OpSetTooltip   Op = "set-tooltip"
	OpSelect       Op = "select"
	OpDispatch     Op = "dispatch"
	OpHighlightRow Op = "highlight-row"
	OpShowBanner   Op = "show-banner"
	OpRemoveBanner Op = "remove-banner"
)

// Mutation is one recorded change. Block and Control are positions among
// the question blocks and among the controls of that block; they are -1
// when the change does not target one.
type Mutation struct {
	Op      Op      `json:"op"`
	Block   int     `json:"block"`
	Control int     `json:"control"`
	Name    string  `json:"name,omitempty"`
	Value   string  `json:"value,omitempty"`
	Styles  []Style `json:"styles,omitempty"`

	// DismissMs is the auto-dismiss delay of a banner in milliseconds.
	DismissMs int64 `json:"dismissMs,omitempty"`
}

// MutationLog is an append-only, concurrency-safe list of mutations.
type MutationLog struct {
	mu      sync.Mutex
	entries []Mutation
}

// Append records m.
func (l *MutationLog) Append(m Mutation) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, m)
}

// Entries returns a copy of the recorded mutations.
func (l *MutationLog) Entries() []Mutation {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Mutation, len(l.entries))
	copy(out, l.entries)
	return out
}

// Since returns the mutations recorded after the first n.
func (l *MutationLog) Since(n int) []Mutation {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n >= len(l.entries) {
		return nil
	}
	out := make([]Mutation, len(l.entries)-n)
	copy(out, l.entries[n:])
	return out
}

// Len returns the number of recorded mutations.
func (l *MutationLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
