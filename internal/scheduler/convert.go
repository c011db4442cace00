// Package scheduler re-runs conversions on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled conversion pass.
type Job func(ctx context.Context) (string, error)

// Status is the outcome of the most recent run.
type Status struct {
	LastRun  time.Time
	Success  bool
	Message  string
	Duration time.Duration
}

// ConvertScheduler runs a conversion job periodically. Runs never overlap:
// a tick that arrives while a run is in progress is skipped.
type ConvertScheduler struct {
	logger   *slog.Logger
	schedule string
	job      Job

	cron      *cron.Cron
	entryID   cron.EntryID
	mu        sync.RWMutex
	isRunning bool
	status    Status
}

// NewConvertScheduler creates a new scheduler instance
func NewConvertScheduler(logger *slog.Logger, schedule string, job Job) *ConvertScheduler {
	return &ConvertScheduler{
		logger:   logger,
		schedule: schedule,
		job:      job,
		cron: cron.New(
			cron.WithParser(scheduleParser),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger})),
			cron.WithLogger(cronLogger{logger}),
		),
	}
}

// Start schedules the job. It stops when ctx is cancelled.
func (s *ConvertScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if err := ValidateCronSchedule(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		s.run(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule conversion job: %w", err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.isRunning = true

	nextRun, _ := GetNextRunTime(s.schedule, time.Now())
	s.logger.Info("Convert scheduler started",
		"schedule", s.schedule,
		"description", GetCronDescription(s.schedule),
		"next_run", nextRun)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop waits for a running job and stops the scheduler.
func (s *ConvertScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	s.mu.Unlock()

	// The running job takes mu to record its status, so wait unlocked.
	done := s.cron.Stop()
	<-done.Done()

	s.cron.Remove(s.entryID)
	s.logger.Info("Convert scheduler stopped")
}

// RunNow runs the job synchronously, outside the schedule.
func (s *ConvertScheduler) RunNow(ctx context.Context) Status {
	s.run(ctx)
	return s.Status()
}

// IsRunning returns whether the scheduler is active
func (s *ConvertScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRunTime returns when the next conversion will occur
func (s *ConvertScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

func (s *ConvertScheduler) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *ConvertScheduler) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	s.logger.Info("Scheduled conversion: starting")
	start := time.Now()

	msg, err := s.job(ctx)
	status := Status{LastRun: start, Duration: time.Since(start), Success: err == nil, Message: msg}
	if err != nil {
		status.Message = err.Error()
		s.logger.Error("Scheduled conversion failed", "error", err)
	} else {
		s.logger.Info("Scheduled conversion: finished", "result", msg, "duration", status.Duration.Round(time.Millisecond))
	}

	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

// cronLogger routes cron's internal logging to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
