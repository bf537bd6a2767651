package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// QuizTag is the gocron tag of the quiz job.
const QuizTag = "quiz"

// Job is one periodic unit of work.
type Job interface {
	RunCycle(ctx context.Context) error
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler  *gocron.Scheduler
	interval   time.Duration
	runOnStart bool
	logger     *slog.Logger
}

// New creates a new scheduler instance. Every job runs in singleton mode:
// a tick that arrives while the previous run is still going is skipped.
func New(interval time.Duration, runOnStart bool, logger *slog.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	if !runOnStart {
		s.WaitForScheduleAll()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		scheduler:  s,
		interval:   interval,
		runOnStart: runOnStart,
		logger:     logger,
	}
}

// Start registers job and starts the scheduler without blocking. Call it once
// the chat client is ready.
func (s *Scheduler) Start(ctx context.Context, job Job) error {
	if s.interval <= 0 {
		return fmt.Errorf("scheduler interval must be positive, got %s", s.interval)
	}

	_, err := s.scheduler.Every(s.interval).Tag(QuizTag).Do(func() {
		start := time.Now()
		if err := job.RunCycle(ctx); err != nil {
			s.logger.Warn("scheduled quiz cycle did not complete", slog.Any("error", err))
			return
		}
		s.logger.Info("scheduled quiz cycle finished", slog.Duration("took", time.Since(start)))
	})
	if err != nil {
		return fmt.Errorf("schedule quiz job: %w", err)
	}

	s.scheduler.StartAsync()
	s.logger.Info("quiz scheduler started", slog.Duration("interval", s.interval), slog.Bool("run_on_start", s.runOnStart))
	return nil
}

// NextRun returns when the quiz job fires next.
func (s *Scheduler) NextRun() time.Time {
	jobs, err := s.scheduler.FindJobsByTag(QuizTag)
	if err != nil || len(jobs) == 0 {
		return time.Time{}
	}
	return jobs[0].NextRun()
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}
