package notify

import (
	"log"

	"github.com/Rubicon0149/WorkBuddy/internal/record"
)

// Notifier displays a reminder to the user. Acknowledged is best-effort;
// toast backends cannot observe it and report false with a nil error.
// Implementations may block (modal dialogs), so callers dispatch off their
// tick loop.
type Notifier interface {
	Notify(kind record.ReminderKind, title, message string) (acknowledged bool, err error)
}

// Request is one queued notification plus the event to persist once the
// notifier has been given its chance.
type Request struct {
	Kind    record.ReminderKind
	Title   string
	Message string
	Event   record.ReminderEvent
}

// LogNotifier writes notifications to the process log. Used when no desktop
// notification service is reachable; the daemon keeps tracking either way.
type LogNotifier struct{}

func (LogNotifier) Notify(kind record.ReminderKind, title, message string) (bool, error) {
	log.Printf("Notification [%s] %s: %s", kind, title, message)
	return false, nil
}
