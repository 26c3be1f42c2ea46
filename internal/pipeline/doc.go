// Package pipeline runs one quiz-solving run as a sequence of steps.
//
// A run is extract -> request -> apply -> summary. Every step receives the
// run-scoped *model.RunReport and records its results on it; nothing is
// shared between runs. The first failing step ends the run, and any page
// changes already made stay in place.
//
// Orchestrator wraps a pipeline factory with a guard so that a second
// trigger while a run is in flight is rejected instead of racing the first.
// BatchProcessor solves several pages concurrently, one run per page.
package pipeline
