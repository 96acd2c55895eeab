package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CronTriggerConfig holds configuration for the cron trigger
type CronTriggerConfig struct {
	// JobName is the name given to every submitted job
	JobName string

	// DailyHour and DailyMinute is the local time of day to run (24h format)
	DailyHour   int
	DailyMinute int

	// CheckInterval is how often to check if it's time to run
	CheckInterval time.Duration
}

// DefaultCronTriggerConfig returns default cron trigger configuration
func DefaultCronTriggerConfig() CronTriggerConfig {
	return CronTriggerConfig{
		JobName:       "daily",
		DailyHour:     3,
		DailyMinute:   0,
		CheckInterval: time.Minute,
	}
}

// ParseCronSchedule reads a daily "minute hour * * *" expression.
// An empty expression yields the default time of day.
func ParseCronSchedule(expr string) (hour, minute int, err error) {
	defaults := DefaultCronTriggerConfig()
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return defaults.DailyHour, defaults.DailyMinute, nil
	}

	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return 0, 0, fmt.Errorf("%w: %q needs 5 fields", ErrInvalidSchedule, expr)
	}
	for _, f := range fields[2:] {
		if f != "*" {
			return 0, 0, fmt.Errorf("%w: %q only daily schedules are supported", ErrInvalidSchedule, expr)
		}
	}

	minute, err = strconv.Atoi(fields[0])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: minute %q", ErrInvalidSchedule, fields[0])
	}
	hour, err = strconv.Atoi(fields[1])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: hour %q", ErrInvalidSchedule, fields[1])
	}
	return hour, minute, nil
}

// CronTrigger submits one job per day to a scheduler
type CronTrigger struct {
	config    CronTriggerConfig
	scheduler *Scheduler
	logger    *zap.Logger
	now       func() time.Time

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string
}

// NewCronTrigger creates a new cron trigger
func NewCronTrigger(config CronTriggerConfig, scheduler *Scheduler, logger *zap.Logger) *CronTrigger {
	defaults := DefaultCronTriggerConfig()
	if config.CheckInterval <= 0 {
		config.CheckInterval = defaults.CheckInterval
	}
	if config.JobName == "" {
		config.JobName = defaults.JobName
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CronTrigger{
		config:    config,
		scheduler: scheduler,
		logger:    logger,
		now:       time.Now,
	}
}

// Start starts the cron trigger
func (c *CronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("Cron trigger started",
		zap.String("job", c.config.JobName),
		zap.Int("daily_hour", c.config.DailyHour),
		zap.Int("daily_minute", c.config.DailyMinute),
		zap.Duration("check_interval", c.config.CheckInterval),
	)
	return nil
}

// Stop stops the cron trigger
func (c *CronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.cancel()
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Cron trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *CronTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.checkAndTrigger()
		}
	}
}

// checkAndTrigger submits the job at most once per calendar day
func (c *CronTrigger) checkAndTrigger() bool {
	now := c.now()
	if now.Hour() != c.config.DailyHour || now.Minute() != c.config.DailyMinute {
		return false
	}

	currentDate := now.Format("2006-01-02")
	c.mu.Lock()
	if c.lastRunDate == currentDate {
		c.mu.Unlock()
		return false
	}
	c.lastRunDate = currentDate
	c.mu.Unlock()

	if err := c.TriggerNow(); err != nil {
		c.logger.Error("Failed to submit scheduled job",
			zap.String("job", c.config.JobName),
			zap.Error(err),
		)
		return false
	}
	return true
}

// TriggerNow submits the job immediately, outside the daily schedule
func (c *CronTrigger) TriggerNow() error {
	job, err := c.scheduler.Submit(c.config.JobName)
	if err != nil {
		return err
	}
	c.logger.Info("Scheduled job triggered",
		zap.String("job", job.Name),
		zap.String("job_id", job.ID.String()),
	)
	return nil
}
