package scheduler

import (
	"context"
	"time"
)

// Scheduler defines the interface for periodic comparison schedulers
type Scheduler interface {
	// Start begins the scheduling loop
	Start(ctx context.Context) error

	// Stop gracefully stops the scheduler
	Stop() error

	// Status returns the current scheduler status
	Status() *Status
}

// Status represents the current state of a scheduler
type Status struct {
	Running        bool
	LastRunTime    time.Time
	NextRunTime    time.Time
	TotalRuns      int
	SuccessfulRuns int
	FailedRuns     int
	LastError      string
}

// Config contains scheduler configuration
type Config struct {
	// Interval specifies the duration between runs
	Interval time.Duration
}

// Runner is the unit of work a scheduler executes on each tick
type Runner interface {
	// Run executes one comparison pass
	Run(ctx context.Context) error
}
