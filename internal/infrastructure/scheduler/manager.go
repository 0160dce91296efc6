// Package scheduler provides unified scheduler management using gocron v2.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/meterd-io/meterd/internal/shared/biztime"
	"github.com/meterd-io/meterd/internal/shared/logger"
)

// BatchJob is a scheduled batch pass over the service population.
type BatchJob interface {
	Execute(ctx context.Context) error
}

const (
	evaluateSweepTimeout = 10 * time.Minute
	resetSweepTimeout    = 30 * time.Minute
	purgeTimeout         = 10 * time.Minute
)

// SchedulerManager manages all scheduled jobs using gocron v2. Cron
// expressions run in the business timezone so "midnight" means the
// operator's midnight.
type SchedulerManager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	started   bool
	startedMu sync.RWMutex
}

// NewSchedulerManager creates a new SchedulerManager instance.
func NewSchedulerManager(log logger.Interface) (*SchedulerManager, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(biztime.Location()),
	)
	if err != nil {
		return nil, err
	}

	return &SchedulerManager{
		scheduler: scheduler,
		logger:    log,
	}, nil
}

// RegisterEvaluateSweep registers the periodic threshold enforcer sweep.
// Singleton mode: a slow sweep is rescheduled, never stacked.
func (m *SchedulerManager) RegisterEvaluateSweep(job BatchJob, interval time.Duration) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), evaluateSweepTimeout)
			defer cancel()
			m.runJob(ctx, "evaluate-sweep", job)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("traffic", "evaluate"),
		gocron.WithName("evaluate-sweep"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered evaluate sweep", "interval", interval)
	return nil
}

// RegisterResetSweep registers the daily counter reset pass on the
// configured cron expression.
func (m *SchedulerManager) RegisterResetSweep(job BatchJob, cronExpr string) error {
	_, err := m.scheduler.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), resetSweepTimeout)
			defer cancel()
			m.runJob(ctx, "reset-sweep", job)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("traffic", "reset"),
		gocron.WithName("reset-sweep"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered reset sweep", "cron", cronExpr)
	return nil
}

// RegisterUsagePurge registers the daily audit trail cleanup at 05:00
// business time, off the midnight reset peak.
func (m *SchedulerManager) RegisterUsagePurge(job BatchJob) error {
	_, err := m.scheduler.NewJob(
		gocron.CronJob("0 5 * * *", false),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
			defer cancel()
			m.runJob(ctx, "usage-purge", job)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("usage", "cleanup"),
		gocron.WithName("usage-purge"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered usage purge", "cron", "0 5 * * *")
	return nil
}

func (m *SchedulerManager) runJob(ctx context.Context, name string, job BatchJob) {
	startTime := biztime.NowUTC()
	m.logger.Debugw("scheduled job started", "job", name)

	if err := job.Execute(ctx); err != nil {
		m.logger.Errorw("scheduled job failed",
			"job", name,
			"error", err,
			"duration", time.Since(startTime),
		)
		return
	}

	m.logger.Debugw("scheduled job finished",
		"job", name,
		"duration", time.Since(startTime),
	)
}

// Start starts the scheduler and all registered jobs.
func (m *SchedulerManager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.started {
		return
	}

	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler manager started", "job_count", len(m.scheduler.Jobs()))
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (m *SchedulerManager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if !m.started {
		return nil
	}

	m.logger.Infow("stopping scheduler manager")

	err := m.scheduler.Shutdown()
	m.started = false

	if err != nil {
		m.logger.Errorw("scheduler manager shutdown with error", "error", err)
		return err
	}

	m.logger.Infow("scheduler manager stopped")
	return nil
}

// IsStarted returns whether the scheduler is running.
func (m *SchedulerManager) IsStarted() bool {
	m.startedMu.RLock()
	defer m.startedMu.RUnlock()
	return m.started
}

// Jobs returns all registered jobs for inspection.
func (m *SchedulerManager) Jobs() []gocron.Job {
	return m.scheduler.Jobs()
}
