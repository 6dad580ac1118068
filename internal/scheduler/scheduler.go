// Package scheduler runs periodic maintenance jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// JobFunc is one run of a job. A failed run is logged and not retried.
type JobFunc func(ctx context.Context) error

type job struct {
	name string
	spec string
	run  JobFunc
}

// Scheduler runs registered jobs on their cron schedules.
type Scheduler struct {
	cron *cron.Cron

	mu      sync.Mutex
	jobs    []job
	started bool
}

// New creates an empty scheduler.
func New() *Scheduler {
	return &Scheduler{cron: cron.New()}
}

// Add registers a job. An empty spec disables the job. Jobs must be added
// before Start.
func (s *Scheduler) Add(name, spec string, fn JobFunc) error {
	if spec == "" {
		slog.Info("job disabled", "job", name)
		return nil
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid cron expression for %s: %w", name, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("adding %s: scheduler already started", name)
	}
	s.jobs = append(s.jobs, job{name: name, spec: spec, run: fn})
	return nil
}

// Jobs returns the names of the registered jobs.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, len(s.jobs))
	for i, j := range s.jobs {
		names[i] = j.name
	}
	return names
}

// Start schedules every registered job. Runs use ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.jobs {
		if _, err := s.cron.AddFunc(j.spec, func() { execute(ctx, j) }); err != nil {
			return fmt.Errorf("scheduling %s: %w", j.name, err)
		}
		slog.Info("job scheduled", "job", j.name, "cron", j.spec)
	}
	s.cron.Start()
	s.started = true
	return nil
}

// Stop stops scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunNow runs the named job once, synchronously.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	var found *job
	for i := range s.jobs {
		if s.jobs[i].name == name {
			found = &s.jobs[i]
			break
		}
	}
	s.mu.Unlock()
	if found == nil {
		return fmt.Errorf("unknown job %q", name)
	}
	return execute(ctx, *found)
}

func execute(ctx context.Context, j job) error {
	start := time.Now()
	err := j.run(ctx)
	if err != nil {
		slog.Error("job failed", "job", j.name, "duration", time.Since(start), "err", err)
		return err
	}
	slog.Debug("job finished", "job", j.name, "duration", time.Since(start))
	return nil
}
