// Package schedule runs delayed callbacks.
//
// A Scheduler fires a batch of (delay, action) tasks, each on its own timer.
// Actions never overlap: the scheduler holds a lock while one runs, so an
// action may mutate shared state such as a page without further locking.
// Cancelling the batch context stops every task that has not fired yet.
//
// Guard rejects a second run while one is in flight.
package schedule
