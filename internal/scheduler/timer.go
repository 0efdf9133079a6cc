package scheduler

import (
	"time"

	"github.com/Rubicon0149/WorkBuddy/internal/record"
)

// Timer is one interval-based reminder. NextFire stays in the future except
// in the instant a Due evaluation is being processed; after every evaluation
// of a Due timer it advances to now + Interval whether the reminder fired or
// was suppressed. Missed reminders are never caught up.
type Timer struct {
	Kind     record.ReminderKind
	Interval time.Duration
	NextFire time.Time
	Enabled  bool
}

// Due reports whether the timer should be evaluated at now.
func (t *Timer) Due(now time.Time) bool {
	return !now.Before(t.NextFire)
}

// Advance schedules the next interval boundary.
func (t *Timer) Advance(now time.Time) {
	t.NextFire = now.Add(t.Interval)
}

// Status returns the read-only view of the timer.
func (t *Timer) Status(now time.Time) record.TimerStatus {
	remaining := int(t.NextFire.Sub(now).Seconds())
	if remaining < 0 {
		remaining = 0
	}
	return record.TimerStatus{
		Kind:             t.Kind,
		Enabled:          t.Enabled,
		SecondsRemaining: remaining,
	}
}
