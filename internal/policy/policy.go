package policy

import (
	"time"

	"github.com/Rubicon0149/WorkBuddy/internal/config"
)

// Window is the parsed work-hours policy. Start and End are minutes past
// midnight; End <= Start means the window never matches.
type Window struct {
	StartMinutes int
	EndMinutes   int
	WorkDaysOnly bool
	Invalid      bool
}

// FromSnapshot parses the work-policy fields out of a config snapshot.
// Unparseable or inverted bounds yield an Invalid window, which InPolicy
// treats as "never in policy".
func FromSnapshot(cfg config.Snapshot) Window {
	start, errStart := config.ParseClock(cfg.WorkStart)
	end, errEnd := config.ParseClock(cfg.WorkEnd)
	w := Window{
		StartMinutes: start,
		EndMinutes:   end,
		WorkDaysOnly: cfg.WorkDaysOnly,
	}
	if errStart != nil || errEnd != nil || end <= start {
		w.Invalid = true
	}
	return w
}

// InPolicy reports whether reminders may fire at now. Pure: recomputed on
// every evaluation, never cached across config changes.
func InPolicy(now time.Time, w Window) bool {
	if w.Invalid {
		return false
	}
	if w.WorkDaysOnly {
		switch now.Weekday() {
		case time.Saturday, time.Sunday:
			return false
		}
	}
	minute := now.Hour()*60 + now.Minute()
	return minute >= w.StartMinutes && minute < w.EndMinutes
}
