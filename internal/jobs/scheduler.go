package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the jobs of a Runner on their configured cron schedules.
type Scheduler struct {
	cron   *cron.Cron
	runner *Runner
}

func NewScheduler(r *Runner) (*Scheduler, error) {
	logger := cron.PrintfLogger(r.log.WithField("component", "cron"))
	c := cron.New(cron.WithLogger(logger), cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)))

	s := &Scheduler{cron: c, runner: r}
	jobs := []struct {
		name string
		spec string
		fn   func(context.Context) error
	}{
		{"heartbeat", r.cfg.HeartbeatSchedule, r.Heartbeat},
		{"report", r.cfg.ReportSchedule, r.Report},
		{"reminders", r.cfg.RemindersSchedule, r.Reminders},
	}
	for _, j := range jobs {
		if _, err := c.AddFunc(j.spec, s.wrap(j.name, j.fn)); err != nil {
			return nil, fmt.Errorf("schedule %s %q: %w", j.name, j.spec, err)
		}
	}

	return s, nil
}

func (s *Scheduler) wrap(name string, fn func(context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		log := s.runner.log.WithField("job", name)
		if err := fn(ctx); err != nil {
			log.WithError(err).Error("job failed")
			return
		}
		log.Debug("job finished")
	}
}

// Run starts the scheduler and blocks until ctx is done, then waits for
// running jobs to finish.
func (s *Scheduler) Run(ctx context.Context) {
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
}

// Entries reports how many jobs are scheduled.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}
