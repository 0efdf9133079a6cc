package record

import "time"

// ReminderKind identifies one of the wellness reminder timers.
type ReminderKind string

const (
	KindBreak        ReminderKind = "break"
	KindHydration    ReminderKind = "hydration"
	KindEyeStrain    ReminderKind = "eye_strain"
	KindPosture      ReminderKind = "posture"
	KindMood         ReminderKind = "mood"
	KindDailySummary ReminderKind = "daily_summary"
)

// Kinds returns every reminder kind in its fixed evaluation order.
func Kinds() []ReminderKind {
	return []ReminderKind{
		KindBreak,
		KindHydration,
		KindEyeStrain,
		KindPosture,
		KindMood,
		KindDailySummary,
	}
}

// Valid reports whether k names a known reminder kind.
func (k ReminderKind) Valid() bool {
	switch k {
	case KindBreak, KindHydration, KindEyeStrain, KindPosture, KindMood, KindDailySummary:
		return true
	}
	return false
}

// UsageSession is one contiguous stretch of foreground use of a single
// window. EndTime is zero while the session is still open.
type UsageSession struct {
	ID              int64     `json:"id,omitempty"`
	AppName         string    `json:"app_name"`
	WindowTitle     string    `json:"window_title"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationSeconds int       `json:"duration_seconds"`
}

// ReminderEvent records that a reminder fired. Acknowledged is nil when the
// notifier never reported a result.
type ReminderEvent struct {
	Kind         ReminderKind `json:"kind"`
	SentAt       time.Time    `json:"sent_at"`
	Acknowledged *bool        `json:"acknowledged,omitempty"`
}

// IdleState is the tracker-owned idle flag. IdleSince is zero while active.
type IdleState struct {
	Idle      bool      `json:"idle"`
	IdleSince time.Time `json:"idle_since,omitempty"`
}

// FocusState is the state of the pomodoro-style focus session manager.
type FocusState string

const (
	FocusIdle       FocusState = "idle"
	FocusRunning    FocusState = "focus"
	FocusShortBreak FocusState = "short_break"
	FocusLongBreak  FocusState = "long_break"
)

// FocusSession is a completed (or aborted) focus/break interval.
type FocusSession struct {
	State          FocusState `json:"state"`
	PlannedSeconds int        `json:"planned_seconds"`
	ActualSeconds  int        `json:"actual_seconds"`
	Completed      bool       `json:"completed"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        time.Time  `json:"end_time"`
}

// EnergyLevel is a self-reported 1..10 energy check-in.
type EnergyLevel struct {
	Level int       `json:"level"`
	Note  string    `json:"note,omitempty"`
	At    time.Time `json:"at"`
}

// AppTotal is an aggregated per-application usage total.
type AppTotal struct {
	AppName string `json:"app_name"`
	Seconds int    `json:"seconds"`
}

// DailySummary is the end-of-day rollup persisted alongside the summary
// notification.
type DailySummary struct {
	Date         string     `json:"date"` // YYYY-MM-DD
	TotalSeconds int        `json:"total_seconds"`
	TopApps      []AppTotal `json:"top_apps"`
}

// TimerStatus is the read-only view of one reminder timer.
type TimerStatus struct {
	Kind             ReminderKind `json:"kind"`
	Enabled          bool         `json:"enabled"`
	SecondsRemaining int          `json:"seconds_remaining"`
}

// FocusStatus is the read-only view of the focus session manager.
type FocusStatus struct {
	State            FocusState `json:"state"`
	SecondsRemaining int        `json:"seconds_remaining"`
	CycleCount       int        `json:"cycle_count"`
}

// StatusView is the value snapshot served to the CLI. Two snapshots taken
// without an intervening tick compare equal field for field.
type StatusView struct {
	Tracking       bool          `json:"tracking"`
	CurrentApp     string        `json:"current_app,omitempty"`
	CurrentTitle   string        `json:"current_title,omitempty"`
	SessionStart   time.Time     `json:"session_start,omitempty"`
	SessionSeconds int           `json:"session_seconds"`
	Idle           bool          `json:"idle"`
	IdleSince      time.Time     `json:"idle_since,omitempty"`
	InPolicy       bool          `json:"in_policy"`
	Timers         []TimerStatus `json:"timers,omitempty"`
	Focus          FocusStatus   `json:"focus"`
	LastError      string        `json:"last_error,omitempty"`
}
