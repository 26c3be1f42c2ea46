package schedule

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Task is an action to run after Delay.
type Task struct {
	Delay  time.Duration
	Name   string
	Action func(ctx context.Context)
}

// Stagger builds n tasks where task i fires after i*interval.
func Stagger(n int, interval time.Duration, action func(ctx context.Context, i int)) []Task {
	tasks := make([]Task, n)
	for i := range n {
		tasks[i] = Task{
			Delay:  time.Duration(i) * interval,
			Action: func(ctx context.Context) { action(ctx, i) },
		}
	}
	return tasks
}

// Scheduler serializes the actions of every batch it starts.
type Scheduler struct {
	mu     sync.Mutex
	logger *slog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// New creates a Scheduler.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Result counts how a batch ended.
type Result struct {
	Fired     int
	Cancelled int
}

// Batch is a set of started tasks.
type Batch struct {
	g         errgroup.Group
	cancel    context.CancelFunc
	fired     atomic.Int64
	cancelled atomic.Int64
}

// Start arms a timer per task and returns immediately. The batch stops when
// ctx is cancelled or Cancel is called.
func (s *Scheduler) Start(ctx context.Context, tasks []Task) *Batch {
	ctx, cancel := context.WithCancel(ctx)
	b := &Batch{cancel: cancel}

	for _, task := range tasks {
		b.g.Go(func() error {
			timer := time.NewTimer(task.Delay)
			defer timer.Stop()

			select {
			case <-ctx.Done():
				b.cancelled.Add(1)
				return nil
			case <-timer.C:
			}

			s.mu.Lock()
			defer s.mu.Unlock()
			if ctx.Err() != nil {
				b.cancelled.Add(1)
				return nil
			}
			s.logger.Debug("task fired", "task", task.Name, "delay", task.Delay)
			task.Action(ctx)
			b.fired.Add(1)
			return nil
		})
	}
	return b
}

// Run starts tasks and waits for the batch to finish.
func (s *Scheduler) Run(ctx context.Context, tasks []Task) Result {
	return s.Start(ctx, tasks).Wait()
}

// Cancel stops the tasks that have not fired yet. An action that is running
// completes.
func (b *Batch) Cancel() {
	b.cancel()
}

// Wait blocks until every task has fired or been cancelled.
func (b *Batch) Wait() Result {
	_ = b.g.Wait() //nolint:errcheck // tasks never fail
	b.cancel()
	return Result{Fired: int(b.fired.Load()), Cancelled: int(b.cancelled.Load())}
}
