package schedule

import (
	"errors"
	"sync/atomic"
)

// ErrRunInProgress is returned by Guard when a run is already in flight.
var ErrRunInProgress = errors.New("a run is already in progress")

// Guard admits one run at a time. The zero value is ready to use.
type Guard struct {
	busy atomic.Bool
}

// Acquire claims the guard. The returned release function must be called
// when the run ends.
func (g *Guard) Acquire() (release func(), err error) {
	if !g.busy.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	var once atomic.Bool
	return func() {
		if once.CompareAndSwap(false, true) {
			g.busy.Store(false)
		}
	}, nil
}

// Do runs fn unless another run holds the guard.
func (g *Guard) Do(fn func() error) error {
	release, err := g.Acquire()
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

// Busy reports whether a run holds the guard.
func (g *Guard) Busy() bool {
	return g.busy.Load()
}
