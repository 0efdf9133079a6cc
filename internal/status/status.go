package status

import (
	"sync"
	"time"

	"github.com/Rubicon0149/WorkBuddy/internal/record"
)

// Aggregator holds the read-only live view of the daemon. The tracker,
// scheduler and focus manager each write their own fields on their own tick;
// readers get a value copy. The lock is never held across I/O.
type Aggregator struct {
	mu   sync.RWMutex
	view record.StatusView
}

func New() *Aggregator {
	return &Aggregator{}
}

// SetSession records the tracker's current open session. Zero values clear
// it (no open session).
func (a *Aggregator) SetSession(app, title string, start time.Time, elapsed int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.view.Tracking = app != ""
	a.view.CurrentApp = app
	a.view.CurrentTitle = title
	a.view.SessionStart = start
	a.view.SessionSeconds = elapsed
}

func (a *Aggregator) SetIdle(state record.IdleState) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.view.Idle = state.Idle
	a.view.IdleSince = state.IdleSince
}

func (a *Aggregator) SetTimers(timers []record.TimerStatus, inPolicy bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.view.Timers = timers
	a.view.InPolicy = inPolicy
}

func (a *Aggregator) SetFocus(f record.FocusStatus) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.view.Focus = f
}

// SetError surfaces the most recent component failure. A nil error clears it.
func (a *Aggregator) SetError(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err == nil {
		a.view.LastError = ""
	} else {
		a.view.LastError = err.Error()
	}
}

// Idle returns the current idle state as last published by the tracker.
func (a *Aggregator) Idle() record.IdleState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return record.IdleState{Idle: a.view.Idle, IdleSince: a.view.IdleSince}
}

// Snapshot returns a value copy of the full status view.
func (a *Aggregator) Snapshot() record.StatusView {
	a.mu.RLock()
	defer a.mu.RUnlock()
	view := a.view
	if a.view.Timers != nil {
		view.Timers = make([]record.TimerStatus, len(a.view.Timers))
		copy(view.Timers, a.view.Timers)
	}
	return view
}
