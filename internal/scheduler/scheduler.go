// Package scheduler triggers pipeline runs on a cron cadence. One run
// at a time: a trigger that fires while a run is in flight is skipped,
// not queued.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler manages scheduled pipeline runs
type Scheduler struct {
	expr     string
	schedule cron.Schedule
	lastRun  time.Time
	running  bool
	mu       sync.RWMutex
	stopChan chan struct{}
	tick     time.Duration
	log      *zap.SugaredLogger
}

// ParseCron parses a standard five-field cron expression
func ParseCron(expr string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return parser.Parse(expr)
}

// New creates a scheduler for the given cron expression
func New(expr string, log *zap.SugaredLogger) (*Scheduler, error) {
	schedule, err := ParseCron(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return &Scheduler{
		expr:     expr,
		schedule: schedule,
		stopChan: make(chan struct{}),
		tick:     time.Minute,
		log:      log,
	}, nil
}

// NextRun returns the next scheduled run time
func (s *Scheduler) NextRun() time.Time {
	return s.schedule.Next(time.Now())
}

// ShouldRun returns true if a run is due and none is in flight
func (s *Scheduler) ShouldRun() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.running {
		return false
	}

	lastRun := s.lastRun
	if lastRun.IsZero() {
		lastRun = time.Now().Add(-24 * time.Hour)
	}
	return time.Now().After(s.schedule.Next(lastRun))
}

// MarkRunning marks a run as in flight
func (s *Scheduler) MarkRunning() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
}

// MarkComplete marks the in-flight run as done
func (s *Scheduler) MarkComplete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.lastRun = time.Now()
}

// Running reports whether a run is currently in flight
func (s *Scheduler) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Start drives the scheduler loop until Stop is called or the context
// ends. Each due trigger launches runFunc in its own goroutine with the
// overlap guard held.
func (s *Scheduler) Start(ctx context.Context, runFunc func(context.Context) error) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	s.log.Infow("scheduler started", "cron", s.expr, "next", s.NextRun())

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			if !s.ShouldRun() {
				continue
			}
			s.MarkRunning()
			go func() {
				defer s.MarkComplete()
				if err := runFunc(ctx); err != nil {
					s.log.Errorw("scheduled run failed", "error", err)
				}
			}()
		}
	}
}

// Stop stops the scheduler loop
func (s *Scheduler) Stop() {
	close(s.stopChan)
}
