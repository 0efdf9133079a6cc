package notify

import (
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/Rubicon0149/WorkBuddy/internal/record"
)

const (
	notifyService   = "org.freedesktop.Notifications"
	notifyPath      = "/org/freedesktop/Notifications"
	notifyInterface = "org.freedesktop.Notifications.Notify"

	// Toast lifetime in milliseconds.
	expireTimeout = int32(10000)
)

// DbusNotifier sends desktop notifications over the session bus via
// org.freedesktop.Notifications.
type DbusNotifier struct {
	conn *dbus.Conn
}

// NewDbusNotifier connects to the session bus. Fails when no desktop
// session is available; callers fall back to LogNotifier.
func NewDbusNotifier() (*DbusNotifier, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &DbusNotifier{conn: conn}, nil
}

func (n *DbusNotifier) Notify(kind record.ReminderKind, title, message string) (bool, error) {
	obj := n.conn.Object(notifyService, notifyPath)
	call := obj.Call(notifyInterface, 0,
		"WorkBuddy",         // app_name
		uint32(0),           // replaces_id
		iconFor(kind),       // app_icon
		title,               // summary
		message,             // body
		[]string{},          // actions
		map[string]dbus.Variant{ // hints
			"urgency": dbus.MakeVariant(byte(1)),
		},
		expireTimeout,
	)
	if call.Err != nil {
		return false, fmt.Errorf("failed to send notification: %w", call.Err)
	}
	// Toasts give no acknowledgement channel back.
	return false, nil
}

func (n *DbusNotifier) Close() error {
	return n.conn.Close()
}

func iconFor(kind record.ReminderKind) string {
	switch kind {
	case record.KindBreak, record.KindPosture, record.KindEyeStrain:
		return "dialog-warning"
	default:
		return "dialog-information"
	}
}
