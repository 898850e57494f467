package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

var ErrJobNotFound = errors.New("job not found")

// Job is a unit of background work. Jobs with an empty Schedule are
// registered for on-demand runs only.
type Job interface {
	Name() string
	Schedule() string
	Run(ctx context.Context) error
}

type Scheduler struct {
	cron *cron.Cron
	jobs []Job
	ctx  context.Context
}

// New creates a scheduler whose jobs run with ctx.
func New(ctx context.Context) *Scheduler {
	return &Scheduler{
		cron: cron.New(),
		ctx:  ctx,
	}
}

func (s *Scheduler) Register(job Job) error {
	schedule := job.Schedule()
	if schedule != "" {
		if _, err := s.cron.AddFunc(schedule, func() { s.run(s.ctx, job) }); err != nil {
			return fmt.Errorf("schedule job %s: %w", job.Name(), err)
		}
		slog.Info("job scheduled", "job", job.Name(), "schedule", schedule)
	} else {
		slog.Info("job registered on demand", "job", job.Name())
	}

	s.jobs = append(s.jobs, job)
	return nil
}

func (s *Scheduler) run(ctx context.Context, job Job) {
	slog.Debug("job starting", "job", job.Name())
	if err := job.Run(ctx); err != nil {
		slog.Error("job failed", "job", job.Name(), "error", err)
		return
	}
	slog.Debug("job completed", "job", job.Name())
}

func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("scheduler started", "jobs", len(s.jobs))
}

// Stop stops scheduling and waits for running jobs or ctx, whichever ends first.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	slog.Info("scheduler stopped")
}

// RunByName runs a registered job immediately, outside its schedule.
func (s *Scheduler) RunByName(ctx context.Context, name string) error {
	for _, job := range s.jobs {
		if job.Name() == name {
			slog.Info("job run on demand", "job", name)
			return job.Run(ctx)
		}
	}
	return fmt.Errorf("%w: %s", ErrJobNotFound, name)
}

func (s *Scheduler) Jobs() []string {
	names := make([]string, len(s.jobs))
	for i, job := range s.jobs {
		names[i] = job.Name()
	}
	return names
}
