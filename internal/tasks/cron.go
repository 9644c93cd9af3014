package tasks

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// NewScheduler returns a cron scheduler logging through log and recovering
// from panicking jobs.
func NewScheduler(log *logrus.Entry) *cron.Cron {
	logger := cron.PrintfLogger(log.WithField("component", "cron"))
	return cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
}

// Schedule adds a job to c that runs fn on spec. Each run gets a context
// cancelled when the registry stops the scheduler.
func (r *Registry) Schedule(ctx context.Context, c *cron.Cron, spec, name string, fn func(ctx context.Context) error) error {
	_, err := c.AddFunc(spec, func() {
		if ctx.Err() != nil {
			return
		}
		if err := fn(ctx); err != nil {
			r.log.WithError(err).WithField("task", name).Warn("scheduled run failed")
		}
	})
	return err
}

// StartScheduler starts c and registers it. Cancelling it stops the
// scheduler and waits for running jobs.
func (r *Registry) StartScheduler(name string, c *cron.Cron) {
	c.Start()
	r.Register(name, func() error {
		return r.wait(c.Stop().Done())
	})
}
