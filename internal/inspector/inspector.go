package inspector

import "errors"

// ErrUnavailable is returned when the platform cannot answer a query right
// now (no focused window, display connection gone, request timed out).
// Callers treat it as a no-op for the current tick.
var ErrUnavailable = errors.New("inspector unavailable")

// FocusInfo identifies the window currently receiving input focus.
type FocusInfo struct {
	AppName string
	Title   string
	PID     int
}

// Inspector answers on-demand queries about the desktop session.
type Inspector interface {
	// CurrentForegroundWindow returns the identity of the focused window.
	CurrentForegroundWindow() (FocusInfo, error)
	// IdleSeconds returns the time since the last user input event.
	IdleSeconds() (int, error)
	Close() error
}
