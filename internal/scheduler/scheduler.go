// Package scheduler drives the ETL: one orchestration cycle per interval,
// never two at once.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/BartekS5/opinions-etl/pkg/logger"
	"github.com/BartekS5/opinions-etl/pkg/models"
)

// ErrBusy is returned by RunOnce while another cycle is in flight.
var ErrBusy = errors.New("an ETL cycle is already running")

type Runner interface {
	Run(ctx context.Context) models.Summary
}

type PendingLoader interface {
	LoadPending(ctx context.Context) (int, error)
}

type Options struct {
	Interval     time.Duration
	InitialDelay time.Duration
	// LoadAfterExtract loads all staged batches at the end of each cycle.
	LoadAfterExtract bool
}

// Cycle is the outcome of one scheduled or manual run.
type Cycle struct {
	Summary     models.Summary `json:"summary"`
	LoadedFacts int            `json:"loadedFacts"`
	LoadError   string         `json:"loadError,omitempty"`
	FinishedAt  time.Time      `json:"finishedAt"`
}

type Scheduler struct {
	runner Runner
	loader PendingLoader
	opts   Options

	cycle sync.Mutex

	mu   sync.RWMutex
	last *Cycle
}

// New builds a scheduler. loader may be nil when staged batches are loaded
// elsewhere.
func New(runner Runner, loader PendingLoader, opts Options) *Scheduler {
	return &Scheduler{runner: runner, loader: loader, opts: opts}
}

// NextDelay is how long to sleep after a cycle that took elapsed. An overrun
// yields 0: the next cycle starts at once and missed ones are not queued.
func NextDelay(interval, elapsed time.Duration) time.Duration {
	if elapsed >= interval {
		return 0
	}
	return interval - elapsed
}

// Start runs cycles until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	logger.Info("Scheduler started: interval %s, initial delay %s", s.opts.Interval, s.opts.InitialDelay)
	if !sleep(ctx, s.opts.InitialDelay) {
		logger.Info("Scheduler stopped before first cycle")
		return
	}

	for {
		started := time.Now()
		s.cycle.Lock()
		s.runCycle(ctx)
		s.cycle.Unlock()

		elapsed := time.Since(started)
		delay := NextDelay(s.opts.Interval, elapsed)
		if delay == 0 {
			logger.Warn("ETL cycle took %s, longer than the %s interval; starting next cycle immediately", elapsed, s.opts.Interval)
		} else {
			logger.Info("Next ETL cycle in %s", delay)
		}

		if !sleep(ctx, delay) {
			logger.Info("Scheduler stopped")
			return
		}
	}
}

// RunOnce runs a cycle now unless one is already running.
func (s *Scheduler) RunOnce(ctx context.Context) (Cycle, error) {
	if !s.cycle.TryLock() {
		return Cycle{}, ErrBusy
	}
	defer s.cycle.Unlock()
	return s.runCycle(ctx), nil
}

func (s *Scheduler) runCycle(ctx context.Context) Cycle {
	c := Cycle{Summary: s.runner.Run(ctx)}

	if s.opts.LoadAfterExtract && s.loader != nil && ctx.Err() == nil {
		n, err := s.loader.LoadPending(ctx)
		c.LoadedFacts = n
		if err != nil {
			logger.Error("Loading staged batches failed: %v", err)
			c.LoadError = err.Error()
		}
	}
	c.FinishedAt = time.Now().UTC()

	s.mu.Lock()
	s.last = &c
	s.mu.Unlock()
	return c
}

// LastRun returns the most recent cycle, if any has finished.
func (s *Scheduler) LastRun() (Cycle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return Cycle{}, false
	}
	return *s.last, true
}

// sleep waits for d and reports false when ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
