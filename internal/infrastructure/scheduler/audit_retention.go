package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// AuditRetentionJob is the job name used for audit purges
const AuditRetentionJob = "audit-retention"

// AuditPurger deletes search audits recorded before a cutoff
type AuditPurger interface {
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionExecutor purges audits older than the retention window
type RetentionExecutor struct {
	purger    AuditPurger
	retention time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// RetentionOption configures a RetentionExecutor
type RetentionOption func(*RetentionExecutor)

// WithRetentionClock overrides the clock used to compute the cutoff
func WithRetentionClock(now func() time.Time) RetentionOption {
	return func(e *RetentionExecutor) {
		if now != nil {
			e.now = now
		}
	}
}

// NewRetentionExecutor creates an executor for AuditRetentionJob
func NewRetentionExecutor(purger AuditPurger, retention time.Duration, logger *zap.Logger, opts ...RetentionOption) (*RetentionExecutor, error) {
	if purger == nil {
		return nil, errors.New("scheduler: audit purger is required")
	}
	if retention <= 0 {
		return nil, fmt.Errorf("scheduler: retention must be positive, got %s", retention)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &RetentionExecutor{
		purger:    purger,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Execute deletes every audit searched before now minus the retention window
func (e *RetentionExecutor) Execute(ctx context.Context, job *Job) error {
	cutoff := e.now().Add(-e.retention)
	deleted, err := e.purger.DeleteBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	e.logger.Info("Search audits purged",
		zap.String("job_id", job.ID.String()),
		zap.Time("cutoff", cutoff),
		zap.Int64("deleted", deleted),
	)
	return nil
}

// AuditRetention bundles the scheduler and its daily trigger
type AuditRetention struct {
	scheduler *Scheduler
	trigger   *CronTrigger
}

// NewAuditRetention wires a purge job that runs daily at the given schedule
func NewAuditRetention(purger AuditPurger, retention time.Duration, schedule string, logger *zap.Logger) (*AuditRetention, error) {
	hour, minute, err := ParseCronSchedule(schedule)
	if err != nil {
		return nil, err
	}
	executor, err := NewRetentionExecutor(purger, retention, logger)
	if err != nil {
		return nil, err
	}

	sched := NewScheduler(DefaultSchedulerConfig(), executor, logger)
	trigger := NewCronTrigger(CronTriggerConfig{
		JobName:     AuditRetentionJob,
		DailyHour:   hour,
		DailyMinute: minute,
	}, sched, logger)

	return &AuditRetention{scheduler: sched, trigger: trigger}, nil
}

// Start starts the workers and then the trigger
func (a *AuditRetention) Start(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return err
	}
	return a.trigger.Start(ctx)
}

// RunNow queues a purge immediately
func (a *AuditRetention) RunNow() error {
	return a.trigger.TriggerNow()
}

// Stop stops the trigger and then drains the workers
func (a *AuditRetention) Stop(ctx context.Context) error {
	return errors.Join(a.trigger.Stop(ctx), a.scheduler.Stop(ctx))
}
