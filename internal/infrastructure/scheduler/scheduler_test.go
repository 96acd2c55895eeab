package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestParseCronSchedule(t *testing.T) {
	tests := []struct {
		name         string
		cronExpr     string
		expectedHour int
		expectedMin  int
	}{
		{name: "3am", cronExpr: "0 3 * * *", expectedHour: 3, expectedMin: 0},
		{name: "3:30am", cronExpr: "30 3 * * *", expectedHour: 3, expectedMin: 30},
		{name: "Midnight", cronExpr: "0 0 * * *", expectedHour: 0, expectedMin: 0},
		{name: "11:59pm", cronExpr: "59 23 * * *", expectedHour: 23, expectedMin: 59},
		{name: "Empty string defaults", cronExpr: "", expectedHour: 3, expectedMin: 0},
		{name: "Extra whitespace", cronExpr: "  15   4   *   *   *  ", expectedHour: 4, expectedMin: 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hour, minute, err := ParseCronSchedule(tt.cronExpr)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedHour, hour, "hour mismatch")
			assert.Equal(t, tt.expectedMin, minute, "minute mismatch")
		})
	}
}

func TestParseCronSchedule_Invalid(t *testing.T) {
	for _, expr := range []string{
		"0 3",
		"0 3 * * 1",
		"60 3 * * *",
		"0 24 * * *",
		"x 3 * * *",
		"0 -1 * * *",
	} {
		t.Run(expr, func(t *testing.T) {
			_, _, err := ParseCronSchedule(expr)
			assert.ErrorIs(t, err, ErrInvalidSchedule)
		})
	}
}

func TestJob_Lifecycle(t *testing.T) {
	now := time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC)
	job := NewJob("purge", 1)
	assert.Equal(t, JobStatusPending, job.Status)

	job.Start(now)
	assert.Equal(t, JobStatusRunning, job.Status)
	require.NotNil(t, job.StartedAt)

	job.Fail(now, "boom")
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, "boom", job.Error)
	assert.True(t, job.ShouldRetry())

	job.ScheduleRetry(now, time.Minute)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, 1, job.RetryCount)
	assert.Empty(t, job.Error)
	require.NotNil(t, job.NextRetryAt)
	assert.Equal(t, now.Add(time.Minute), *job.NextRetryAt)

	job.Fail(now, "boom again")
	assert.False(t, job.ShouldRetry())

	job.Complete(now)
	assert.Equal(t, JobStatusSuccess, job.Status)
}

func TestScheduler_RunsSubmittedJobs(t *testing.T) {
	defer goleak.VerifyNone(t)

	var wg sync.WaitGroup
	var runs atomic.Int32
	wg.Add(3)
	exec := JobExecutorFunc(func(ctx context.Context, job *Job) error {
		defer wg.Done()
		runs.Add(1)
		return nil
	})

	s := NewScheduler(SchedulerConfig{MaxConcurrentJobs: 2}, exec, zaptest.NewLogger(t))
	require.NoError(t, s.Start(context.Background()))

	for i := 0; i < 3; i++ {
		_, err := s.Submit("job")
		require.NoError(t, err)
	}
	wg.Wait()
	assert.Equal(t, int32(3), runs.Load())

	require.NoError(t, s.Stop(context.Background()))
}

func TestScheduler_RetriesFailedJobs(t *testing.T) {
	defer goleak.VerifyNone(t)

	done := make(chan *Job, 1)
	var attempts atomic.Int32
	exec := JobExecutorFunc(func(ctx context.Context, job *Job) error {
		if attempts.Add(1) < 3 {
			return errors.New("database unavailable")
		}
		done <- job
		return nil
	})

	s := NewScheduler(SchedulerConfig{RetryAttempts: 3, RetryDelay: time.Millisecond}, exec, zaptest.NewLogger(t))
	require.NoError(t, s.Start(context.Background()))

	_, err := s.Submit("flaky")
	require.NoError(t, err)

	select {
	case job := <-done:
		assert.Equal(t, 2, job.RetryCount)
	case <-time.After(5 * time.Second):
		t.Fatal("job was not retried")
	}
	assert.Equal(t, int32(3), attempts.Load())

	require.NoError(t, s.Stop(context.Background()))
}

func TestScheduler_GivesUpAfterMaxRetries(t *testing.T) {
	defer goleak.VerifyNone(t)

	var attempts atomic.Int32
	exec := JobExecutorFunc(func(ctx context.Context, job *Job) error {
		attempts.Add(1)
		return errors.New("always")
	})

	s := NewScheduler(SchedulerConfig{RetryAttempts: 1, RetryDelay: time.Millisecond}, exec, zaptest.NewLogger(t))
	require.NoError(t, s.Start(context.Background()))

	_, err := s.Submit("doomed")
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return attempts.Load() == 2 }, 5*time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(2), attempts.Load())

	require.NoError(t, s.Stop(context.Background()))
}

func TestScheduler_SubmitWhenStopped(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewScheduler(SchedulerConfig{}, JobExecutorFunc(func(context.Context, *Job) error { return nil }), nil)
	_, err := s.Submit("early")
	assert.ErrorIs(t, err, ErrSchedulerNotRunning)

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Stop(context.Background()))

	_, err = s.Submit("late")
	assert.ErrorIs(t, err, ErrSchedulerNotRunning)
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerStopped)
}

func TestScheduler_QueueFull(t *testing.T) {
	defer goleak.VerifyNone(t)

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	exec := JobExecutorFunc(func(ctx context.Context, job *Job) error {
		started <- struct{}{}
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	})

	s := NewScheduler(SchedulerConfig{QueueSize: 1}, exec, zaptest.NewLogger(t))
	require.NoError(t, s.Start(context.Background()))

	_, err := s.Submit("first")
	require.NoError(t, err)
	<-started

	_, err = s.Submit("queued")
	require.NoError(t, err)
	_, err = s.Submit("overflow")
	assert.ErrorIs(t, err, ErrJobQueueFull)

	close(release)
	require.NoError(t, s.Stop(context.Background()))
}

func TestCronTrigger_CheckAndTrigger(t *testing.T) {
	defer goleak.VerifyNone(t)

	var runs atomic.Int32
	s := NewScheduler(SchedulerConfig{}, JobExecutorFunc(func(context.Context, *Job) error {
		runs.Add(1)
		return nil
	}), zaptest.NewLogger(t))
	require.NoError(t, s.Start(context.Background()))
	defer func() { require.NoError(t, s.Stop(context.Background())) }()

	trigger := NewCronTrigger(CronTriggerConfig{JobName: "purge", DailyHour: 3, DailyMinute: 30}, s, zaptest.NewLogger(t))

	now := time.Date(2026, 3, 1, 3, 29, 0, 0, time.Local)
	trigger.now = func() time.Time { return now }

	assert.False(t, trigger.checkAndTrigger(), "too early")

	now = now.Add(time.Minute)
	assert.True(t, trigger.checkAndTrigger())
	assert.False(t, trigger.checkAndTrigger(), "already ran today")

	now = now.AddDate(0, 0, 1)
	assert.True(t, trigger.checkAndTrigger(), "next day")

	assert.Eventually(t, func() bool { return runs.Load() == 2 }, 5*time.Second, 5*time.Millisecond)
}

func TestCronTrigger_StartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewScheduler(SchedulerConfig{}, JobExecutorFunc(func(context.Context, *Job) error { return nil }), nil)
	trigger := NewCronTrigger(CronTriggerConfig{CheckInterval: time.Millisecond}, s, zaptest.NewLogger(t))

	require.NoError(t, trigger.Start(context.Background()))
	require.NoError(t, trigger.Start(context.Background()))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, trigger.Stop(context.Background()))
	require.NoError(t, trigger.Stop(context.Background()))
}
