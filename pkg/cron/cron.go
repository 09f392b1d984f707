// Package cron runs the bot's periodic maintenance jobs.
package cron

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"interbot/pkg/logger"
)

// JobFunc is the body of a scheduled job.
type JobFunc func(ctx context.Context) error

// Job describes a scheduled job and its last result.
type Job struct {
	Name        string    `json:"name"`
	Schedule    string    `json:"schedule"`
	NextRun     time.Time `json:"next_run"`
	LastRun     time.Time `json:"last_run"`
	RunCount    int       `json:"run_count"`
	LastError   string    `json:"last_error,omitempty"`
	LastSuccess bool      `json:"last_success"`
}

// Manager owns the scheduler and the registered jobs.
type Manager struct {
	log       *logger.Logger
	scheduler *cron.Cron
	timeout   time.Duration

	mu      sync.RWMutex
	jobs    map[string]*Job
	entries map[string]cron.EntryID

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a manager. Each run is bounded by timeout.
func New(log *logger.Logger, timeout time.Duration) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	cl := cron.PrintfLogger(zap.NewStdLog(log.Logger))

	return &Manager{
		log: log,
		scheduler: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		timeout: timeout,
		jobs:    make(map[string]*Job),
		entries: make(map[string]cron.EntryID),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// AddJob schedules fn under name using a standard cron expression or a
// descriptor such as "@every 5m".
func (m *Manager) AddJob(name, schedule string, fn JobFunc) error {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.jobs[name]; exists {
		return fmt.Errorf("job %q already scheduled", name)
	}
	job := &Job{Name: name, Schedule: schedule}
	id, err := m.scheduler.AddFunc(schedule, func() { m.run(job, fn) })
	if err != nil {
		return fmt.Errorf("scheduling job %q: %w", name, err)
	}
	m.jobs[name] = job
	m.entries[name] = id

	m.log.Info("Scheduled job", zap.String("job", name), zap.String("schedule", schedule))
	return nil
}

// RemoveJob unschedules a job.
func (m *Manager) RemoveJob(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.entries[name]
	if !ok {
		return fmt.Errorf("job %q not found", name)
	}
	m.scheduler.Remove(id)
	delete(m.entries, name)
	delete(m.jobs, name)
	return nil
}

// RunNow runs a job synchronously outside its schedule.
func (m *Manager) RunNow(name string, fn JobFunc) {
	m.mu.RLock()
	job, ok := m.jobs[name]
	m.mu.RUnlock()
	if !ok {
		job = &Job{Name: name}
	}
	m.run(job, fn)
}

func (m *Manager) run(job *Job, fn JobFunc) {
	ctx, cancel := context.WithTimeout(m.ctx, m.timeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)

	m.mu.Lock()
	job.LastRun = start
	job.RunCount++
	job.LastSuccess = err == nil
	job.LastError = ""
	if err != nil {
		job.LastError = err.Error()
	}
	m.mu.Unlock()

	if err != nil {
		m.log.Error("Job failed",
			zap.String("job", job.Name),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return
	}
	m.log.Debug("Job completed",
		zap.String("job", job.Name),
		zap.Duration("duration", time.Since(start)))
}

// Jobs returns a copy of every job, sorted by name.
func (m *Manager) Jobs() []Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Job, 0, len(m.jobs))
	for name, job := range m.jobs {
		j := *job
		if id, ok := m.entries[name]; ok {
			j.NextRun = m.scheduler.Entry(id).Next
		}
		out = append(out, j)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Start starts the scheduler.
func (m *Manager) Start() error {
	m.log.Info("Starting cron manager", zap.Int("jobs", len(m.jobs)))
	m.scheduler.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs, at most until ctx
// is done.
func (m *Manager) Stop(ctx context.Context) error {
	m.log.Info("Stopping cron manager")
	done := m.scheduler.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		m.cancel()
		return fmt.Errorf("waiting for running jobs: %w", ctx.Err())
	}
	m.cancel()
	return nil
}
