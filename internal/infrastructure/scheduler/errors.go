package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when trying to submit a job to a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrSchedulerStopped is returned when starting a scheduler that was already stopped
	ErrSchedulerStopped = errors.New("scheduler was stopped and cannot be restarted")

	// ErrJobQueueFull is returned when the job queue is full
	ErrJobQueueFull = errors.New("job queue is full")

	// ErrInvalidSchedule is returned for daily schedules that cannot be parsed
	ErrInvalidSchedule = errors.New("invalid schedule")
)
