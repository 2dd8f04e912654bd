// Package scheduler triggers the batch jobs in-process on cron schedules.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
)

// Job is one batch invocation; the returned status is only logged.
type Job func(ctx context.Context) string

type Scheduler struct {
	cron *cron.Cron
	log  *slog.Logger
}

// New builds a scheduler evaluating specs in the facility timezone. Overlapping runs of the
// same job are skipped.
func New(loc *time.Location, log *slog.Logger) *Scheduler {
	clog := cronLogger{log.With("component", "cron")}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(clog),
			cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
		),
		log: log,
	}
}

// Add registers a job. An empty schedule leaves the job to the HTTP trigger only.
func (s *Scheduler) Add(name, spec string, timeout time.Duration, job Job) error {
	if spec == "" {
		s.log.Info("job not scheduled", "job", name)
		return nil
	}
	if _, err := s.cron.AddFunc(spec, s.wrap(name, timeout, job)); err != nil {
		return errors.Wrapf(err, "schedule %s %q", name, spec)
	}
	s.log.Info("job scheduled", "job", name, "spec", spec)
	return nil
}

func (s *Scheduler) wrap(name string, timeout time.Duration, job Job) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		started := time.Now()
		status := job(ctx)
		s.log.Info("scheduled job done", "job", name, "status", status, "elapsed", time.Since(started))
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for running jobs to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(keysAndValues, "err", err)...)
}
