package backup

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/trezcool/kitabu/core"
)

// Scheduler fires a rotation of each bucket on its cron spec.
type Scheduler struct {
	cron    *cron.Cron
	rotator *Rotator
	logger  core.Logger
	timeout time.Duration
}

// NewScheduler registers one job per bucket with a non-empty spec (standard 5-field cron syntax).
func NewScheduler(rotator *Rotator, specs map[Bucket]string, loc *time.Location, logger core.Logger) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	s := &Scheduler{
		cron:    cron.New(cron.WithLocation(loc)),
		rotator: rotator,
		logger:  logger,
		timeout: time.Minute,
	}
	for _, b := range Buckets {
		spec := specs[b]
		if spec == "" {
			continue
		}
		bucket := b
		if _, err := s.cron.AddFunc(spec, func() { s.job(bucket) }); err != nil {
			return nil, errors.Wrapf(err, "scheduling %s backups", b)
		}
	}
	return s, nil
}

// NewSchedulerFromConfig builds a Scheduler from the backup section of conf.
func NewSchedulerFromConfig(rotator *Rotator, conf core.BackupConfig, logger core.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(conf.Timezone)
	if err != nil {
		return nil, errors.Wrap(err, "loading backup timezone")
	}
	specs := map[Bucket]string{
		Daily:   conf.Daily,
		Weekly:  conf.Weekly,
		Monthly: conf.Monthly,
	}
	return NewScheduler(rotator, specs, loc, logger)
}

func (s *Scheduler) job(b Bucket) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.rotator.Run(ctx, b); err != nil {
		s.logger.Error("scheduled backup failed", err, map[string]interface{}{"bucket": b})
	}
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs, or for ctx to be done.
func (s *Scheduler) Stop(ctx context.Context) error {
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
