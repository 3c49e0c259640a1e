// Package jobs runs periodic maintenance on a cron schedule.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Job is one unit of periodic work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler wraps a cron runner. Overlapping runs of the same job are skipped.
type Scheduler struct {
	cron    *cron.Cron
	log     *logrus.Entry
	timeout time.Duration
}

func NewScheduler(logger *logrus.Logger, timeout time.Duration) *Scheduler {
	log := logger.WithField("component", "jobs")
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(cronLogger{log}), cron.SkipIfStillRunning(cronLogger{log}))),
		log:     log,
		timeout: timeout,
	}
}

// Add schedules job with a cron spec such as "@every 10m".
func (s *Scheduler) Add(spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() { s.run(job) })
	return err
}

func (s *Scheduler) run(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	log := s.log.WithField("job", job.Name())
	if err := job.Run(ctx); err != nil {
		log.WithError(err).Error("job failed")
		return
	}
	log.WithField("duration_ms", time.Since(start).Milliseconds()).Debug("job finished")
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for running jobs or until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

type cronLogger struct {
	log *logrus.Entry
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(fields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.WithError(err).WithFields(fields(keysAndValues)).Error(msg)
}

func fields(keysAndValues []interface{}) logrus.Fields {
	out := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if key, ok := keysAndValues[i].(string); ok {
			out[key] = keysAndValues[i+1]
		}
	}
	return out
}
