// Package scheduler drives a step function from a fixed-period ticker, the
// way a host loop calls a plugin once per frame.
package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hellominers/statsupdater/internal/errors"
	"github.com/hellominers/statsupdater/internal/logger"
)

// Task is invoked once per tick until Done is closed. ProcessBatch runs on
// the scheduler goroutine and is never called concurrently with itself.
type Task interface {
	ProcessBatch()
	Done() <-chan struct{}
}

// Scheduler calls a Task on a fixed period.
type Scheduler struct {
	task   Task
	period time.Duration
	log    logger.Logger
	ticks  atomic.Int64
}

// New returns a scheduler that calls task every period.
func New(task Task, period time.Duration, log logger.Logger) (*Scheduler, error) {
	if task == nil {
		return nil, errors.Newf("scheduler needs a task").
			Category(errors.CategoryValidation).
			Build()
	}
	if period <= 0 {
		return nil, errors.Newf("tick period must be positive, got %s", period).
			Category(errors.CategoryValidation).
			Build()
	}
	if log == nil {
		log = logger.Global().Module("scheduler")
	}
	return &Scheduler{task: task, period: period, log: log}, nil
}

// Run ticks until the task finishes or ctx is cancelled. It returns nil when
// the task completed and the context error otherwise. Ticks that fall behind
// are dropped by the ticker rather than queued.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	s.log.Debug("Scheduler started", logger.Duration("period", s.period))

	for {
		select {
		case <-s.task.Done():
			s.log.Debug("Task finished, scheduler stopping", logger.Int64("ticks", s.ticks.Load()))
			return nil
		case <-ctx.Done():
			s.log.Info("Scheduler cancelled", logger.Int64("ticks", s.ticks.Load()))
			return ctx.Err()
		case <-ticker.C:
			// a tick can race with Done; the task ignores calls after it finished
			s.ticks.Add(1)
			s.task.ProcessBatch()
		}
	}
}

// Ticks returns how many times the task was invoked.
func (s *Scheduler) Ticks() int64 {
	return s.ticks.Load()
}
