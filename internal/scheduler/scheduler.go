// Package scheduler runs the board's housekeeping jobs on gocron: the daily
// recurrence reset, audit retention and rate limiter cleanup.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
)

const (
	JobDailyReset     = "daily_reset"
	JobAuditRetention = "audit_retention"
	JobLimiterCleanup = "ratelimit_cleanup"

	limiterCleanupEvery = 5 * time.Minute
	jobTimeout          = 2 * time.Minute
)

// Resetter runs the recurrence reset for the current household day.
type Resetter interface {
	RunNow(ctx context.Context) (int, error)
}

// AuditTrimmer deletes audit entries older than cutoff.
type AuditTrimmer interface {
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type Cleaner interface {
	Cleanup() int
}

// Recorder receives job outcomes; *metrics.Metrics satisfies it.
type Recorder interface {
	JobRun(job string, err error)
	TasksReset(n int)
	AuditTrimmed(n int64)
}

type Config struct {
	Location      *time.Location
	ResetHour     uint
	ResetMinute   uint
	RetentionDays int // 0 disables trimming
}

type job struct {
	name string
	def  gocron.JobDefinition
	run  func(context.Context)
}

type Scheduler struct {
	cfg      Config
	resetter Resetter
	audit    AuditTrimmer
	limiter  Cleaner
	rec      Recorder
	logger   *slog.Logger
	now      func() time.Time

	mu     sync.Mutex
	sched  gocron.Scheduler
	ctx    context.Context
	cancel context.CancelFunc
}

// New builds a scheduler. limiter and rec may be nil.
func New(cfg Config, resetter Resetter, audit AuditTrimmer, limiter Cleaner, rec Recorder, logger *slog.Logger) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Scheduler{
		cfg:      cfg,
		resetter: resetter,
		audit:    audit,
		limiter:  limiter,
		rec:      rec,
		logger:   logger.With("component", "scheduler"),
		now:      time.Now,
	}
}

// Start runs a catch-up reset, then registers the jobs and starts gocron.
// The catch-up covers a process that was down at the scheduled time; it is
// harmless otherwise because the reset is idempotent.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sched != nil {
		return fmt.Errorf("scheduler already started")
	}

	sched, err := gocron.NewScheduler(gocron.WithLocation(s.cfg.Location))
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.RunDailyReset(s.ctx)

	at := gocron.NewAtTimes(gocron.NewAtTime(s.cfg.ResetHour, s.cfg.ResetMinute, 0))
	jobs := []job{
		{JobDailyReset, gocron.DailyJob(1, at), s.RunDailyReset},
		{JobAuditRetention, gocron.DailyJob(1, at), s.RunAuditRetention},
	}
	if s.limiter != nil {
		jobs = append(jobs, job{JobLimiterCleanup, gocron.DurationJob(limiterCleanupEvery), s.runLimiterCleanup})
	}

	for _, j := range jobs {
		run := j.run
		_, err := sched.NewJob(j.def,
			gocron.NewTask(func() { run(s.ctx) }),
			gocron.WithName(j.name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			s.cancel()
			sched.Shutdown()
			return fmt.Errorf("register job %s: %w", j.name, err)
		}
	}

	sched.Start()
	s.sched = sched
	s.logger.Info("scheduler started",
		"reset_at", fmt.Sprintf("%02d:%02d", s.cfg.ResetHour, s.cfg.ResetMinute),
		"location", s.cfg.Location.String(),
		"retention_days", s.cfg.RetentionDays)
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sched == nil {
		return nil
	}
	s.cancel()
	err := s.sched.Shutdown()
	s.sched = nil
	if err != nil {
		return fmt.Errorf("shutdown scheduler: %w", err)
	}
	return nil
}

func (s *Scheduler) RunDailyReset(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	n, err := s.resetter.RunNow(ctx)
	s.record(JobDailyReset, err)
	if err != nil {
		s.logger.Error("daily reset failed", "reset", n, "error", err)
	}
	if s.rec != nil && n > 0 {
		s.rec.TasksReset(n)
	}
}

func (s *Scheduler) RunAuditRetention(ctx context.Context) {
	if s.cfg.RetentionDays <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	cutoff := s.now().AddDate(0, 0, -s.cfg.RetentionDays)
	n, err := s.audit.DeleteBefore(ctx, cutoff)
	s.record(JobAuditRetention, err)
	if err != nil {
		s.logger.Error("audit retention failed", "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("audit entries trimmed", "removed", n, "cutoff", cutoff.Format(time.DateOnly))
		if s.rec != nil {
			s.rec.AuditTrimmed(n)
		}
	}
}

func (s *Scheduler) runLimiterCleanup(context.Context) {
	n := s.limiter.Cleanup()
	s.record(JobLimiterCleanup, nil)
	if n > 0 {
		s.logger.Debug("rate limiter cleaned", "removed", n)
	}
}

func (s *Scheduler) record(job string, err error) {
	if s.rec != nil {
		s.rec.JobRun(job, err)
	}
}
