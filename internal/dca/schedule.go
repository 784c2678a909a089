// Package dca models recurring purchase jobs: their schedule, next-run
// arithmetic, cost estimation against price history, and the runner that
// executes due jobs through the brokerage adapter.
package dca

import (
	"fmt"
	"time"

	"github.com/bmaret/boursomate/internal/models"
)

// Frequency of a recurring job.
type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
)

// Fixed intervals in milliseconds. The arithmetic is deliberately
// calendar-naive: a month is the 30.42-day average, a week exactly 7 days.
const (
	dailyIntervalMs   int64 = 86_400_000
	weeklyIntervalMs  int64 = 604_800_000
	monthlyIntervalMs int64 = 2_628_000_000
)

// Schedule pairs a frequency with an optional day-of-period. Day carries no
// meaning for Daily; for Weekly and Monthly it is kept as entered, whatever
// its value.
type Schedule struct {
	Freq Frequency `json:"frequency"`
	Day  int       `json:"day,omitempty"`
}

func (s Schedule) Validate() error {
	switch s.Freq {
	case Daily, Weekly, Monthly:
		return nil
	default:
		return &models.ValidationError{Field: "frequency", Reason: fmt.Sprintf("unknown frequency %q", s.Freq)}
	}
}

func (s Schedule) intervalMs() int64 {
	switch s.Freq {
	case Weekly:
		return weeklyIntervalMs
	case Monthly:
		return monthlyIntervalMs
	default:
		return dailyIntervalMs
	}
}

// NextRun returns the epoch-millisecond timestamp of the run following
// lastRunMs.
func (s Schedule) NextRun(lastRunMs int64) int64 {
	return lastRunMs + s.intervalMs()
}

// Due reports whether the next run after lastRunMs has already passed.
// A job that has never run (lastRunMs == 0) is due.
func (s Schedule) Due(lastRunMs int64, now time.Time) bool {
	if lastRunMs == 0 {
		return true
	}
	return s.NextRun(lastRunMs) <= now.UnixMilli()
}

// NextRunLabel renders the next run for display: a stale timestamp reads
// "due now" instead of a date in the past.
func (s Schedule) NextRunLabel(lastRunMs int64, now time.Time) string {
	if s.Due(lastRunMs, now) {
		return "due now"
	}
	return time.UnixMilli(s.NextRun(lastRunMs)).Format("2006-01-02 15:04")
}

func (s Schedule) String() string {
	switch s.Freq {
	case Weekly:
		return fmt.Sprintf("Weekly: %d", s.Day)
	case Monthly:
		return fmt.Sprintf("Monthly: %d", s.Day)
	default:
		return "Daily"
	}
}
