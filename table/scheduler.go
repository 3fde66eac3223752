package table

import (
	"time"
)

// Scheduler runs f once after d has elapsed. Scheduled work is never cancelled.
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

// Clock schedules on the wall clock.
type Clock struct{}

func (Clock) AfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}
